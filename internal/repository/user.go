package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"staff_messenger/internal/domain"
	apperrors "staff_messenger/pkg/errors"
	"staff_messenger/pkg/logger"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListExcluding(ctx context.Context, viewerID uuid.UUID) ([]*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
}

type userRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewUserRepository(db *pgxpool.Pool, log logger.Logger) UserRepository {
	return &userRepository{db: db, log: log}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, first_name, last_name, email, avatar, created_at
		FROM users
		WHERE id = $1
	`

	user := &domain.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Avatar, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		r.log.Error("Failed to get user by ID", "error", err)
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ListExcluding(ctx context.Context, viewerID uuid.UUID) ([]*domain.User, error) {
	query := `
		SELECT id, first_name, last_name, email, avatar, created_at
		FROM users
		WHERE id != $1
		ORDER BY first_name, last_name
	`

	rows, err := r.db.Query(ctx, query, viewerID)
	if err != nil {
		r.log.Error("Failed to list users", "error", err)
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		if err := rows.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Avatar, &user.CreatedAt); err != nil {
			r.log.Error("Failed to scan user", "error", err)
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// Upsert provisions a roster entry from identity-service claims. Profile
// fields stay in sync with whatever the token carried most recently.
func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, email, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    email = EXCLUDED.email
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, user.Avatar, time.Now(),
	).Scan(&user.CreatedAt)
	if err != nil {
		r.log.Error("Failed to upsert user", "error", err, "user_id", user.ID)
		return err
	}

	return nil
}
