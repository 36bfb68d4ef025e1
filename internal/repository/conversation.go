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

type ConversationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	// ListForViewer returns only conversations that already have at least
	// one message, with the viewer-relative last message and unread count.
	ListForViewer(ctx context.Context, viewerID uuid.UUID) ([]*domain.Conversation, error)
	FindDirect(ctx context.Context, viewerID, peerID uuid.UUID) (*domain.Conversation, error)
	CreateDirect(ctx context.Context, viewerID, peerID uuid.UUID) (*domain.Conversation, error)
	CreateGroup(ctx context.Context, name string, creatorID uuid.UUID, memberIDs []uuid.UUID) (*domain.Conversation, error)
	IsMember(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	ListMemberIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
	MarkRead(ctx context.Context, conversationID, viewerID uuid.UUID) error
}

type conversationRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewConversationRepository(db *pgxpool.Pool, log logger.Logger) ConversationRepository {
	return &conversationRepository{db: db, log: log}
}

func (r *conversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT c.id, c.is_group, c.name, c.created_at,
		       (SELECT COUNT(*) FROM conversation_members m WHERE m.conversation_id = c.id)
		FROM conversations c
		WHERE c.id = $1
	`

	conv := &domain.Conversation{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&conv.ID, &conv.IsGroup, &conv.Name, &conv.CreatedAt, &conv.MemberCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		r.log.Error("Failed to get conversation", "error", err)
		return nil, err
	}

	return conv, nil
}

func (r *conversationRepository) ListForViewer(ctx context.Context, viewerID uuid.UUID) ([]*domain.Conversation, error) {
	query := `
		SELECT c.id, c.is_group, c.name, c.created_at,
		       (SELECT COUNT(*) FROM conversation_members cm WHERE cm.conversation_id = c.id) AS member_count,
		       ou.id, ou.first_name, ou.last_name, ou.email, ou.avatar, ou.created_at,
		       lm.content, lm.sender_id, lm.created_at,
		       (SELECT COUNT(*) FROM messages um
		        WHERE um.conversation_id = c.id AND um.sender_id != $1 AND um.is_read = FALSE) AS unread_count
		FROM conversations c
		JOIN conversation_members m ON m.conversation_id = c.id AND m.user_id = $1
		LEFT JOIN LATERAL (
			SELECT u.id, u.first_name, u.last_name, u.email, u.avatar, u.created_at
			FROM conversation_members om
			JOIN users u ON u.id = om.user_id
			WHERE om.conversation_id = c.id AND om.user_id != $1 AND c.is_group = FALSE
			LIMIT 1
		) ou ON TRUE
		JOIN LATERAL (
			SELECT msg.content, msg.sender_id, msg.created_at
			FROM messages msg
			WHERE msg.conversation_id = c.id
			ORDER BY msg.created_at DESC
			LIMIT 1
		) lm ON TRUE
		ORDER BY lm.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, viewerID)
	if err != nil {
		r.log.Error("Failed to list conversations", "error", err)
		return nil, err
	}
	defer rows.Close()

	var conversations []*domain.Conversation
	for rows.Next() {
		conv := &domain.Conversation{}
		var (
			otherID        *uuid.UUID
			otherFirst     *string
			otherLast      *string
			otherEmail     *string
			otherAvatar    *string
			otherCreatedAt *time.Time
			last           domain.MessageSummary
		)

		err := rows.Scan(
			&conv.ID, &conv.IsGroup, &conv.Name, &conv.CreatedAt, &conv.MemberCount,
			&otherID, &otherFirst, &otherLast, &otherEmail, &otherAvatar, &otherCreatedAt,
			&last.Content, &last.SenderID, &last.CreatedAt,
			&conv.UnreadCount,
		)
		if err != nil {
			r.log.Error("Failed to scan conversation", "error", err)
			return nil, err
		}

		if otherID != nil {
			conv.OtherUser = &domain.User{
				ID:        *otherID,
				FirstName: *otherFirst,
				LastName:  *otherLast,
				Email:     *otherEmail,
				Avatar:    otherAvatar,
				CreatedAt: *otherCreatedAt,
			}
		}
		conv.LastMessage = &last

		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

func (r *conversationRepository) FindDirect(ctx context.Context, viewerID, peerID uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT c.id, c.is_group, c.name, c.created_at
		FROM conversations c
		JOIN conversation_members a ON a.conversation_id = c.id AND a.user_id = $1
		JOIN conversation_members b ON b.conversation_id = c.id AND b.user_id = $2
		WHERE c.is_group = FALSE
		LIMIT 1
	`

	conv := &domain.Conversation{}
	err := r.db.QueryRow(ctx, query, viewerID, peerID).Scan(
		&conv.ID, &conv.IsGroup, &conv.Name, &conv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		r.log.Error("Failed to find direct conversation", "error", err)
		return nil, err
	}

	conv.MemberCount = 2
	return conv, nil
}

func (r *conversationRepository) CreateDirect(ctx context.Context, viewerID, peerID uuid.UUID) (*domain.Conversation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	conv := &domain.Conversation{
		ID:          uuid.New(),
		IsGroup:     false,
		MemberCount: 2,
		CreatedAt:   time.Now(),
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO conversations (id, is_group, created_at) VALUES ($1, FALSE, $2)`,
		conv.ID, conv.CreatedAt,
	); err != nil {
		r.log.Error("Failed to create direct conversation", "error", err)
		return nil, err
	}

	for _, userID := range []uuid.UUID{viewerID, peerID} {
		if _, err := tx.Exec(ctx,
			`INSERT INTO conversation_members (conversation_id, user_id, joined_at) VALUES ($1, $2, $3)`,
			conv.ID, userID, conv.CreatedAt,
		); err != nil {
			r.log.Error("Failed to add conversation member", "error", err)
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return conv, nil
}

func (r *conversationRepository) CreateGroup(ctx context.Context, name string, creatorID uuid.UUID, memberIDs []uuid.UUID) (*domain.Conversation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	conv := &domain.Conversation{
		ID:        uuid.New(),
		IsGroup:   true,
		Name:      &name,
		CreatedAt: now,
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO conversations (id, is_group, name, created_at) VALUES ($1, TRUE, $2, $3)`,
		conv.ID, name, now,
	); err != nil {
		r.log.Error("Failed to create group conversation", "error", err)
		return nil, err
	}

	// Creator is always a member, deduped against the requested list.
	members := map[uuid.UUID]bool{creatorID: true}
	for _, id := range memberIDs {
		members[id] = true
	}

	for userID := range members {
		if _, err := tx.Exec(ctx,
			`INSERT INTO conversation_members (conversation_id, user_id, joined_at) VALUES ($1, $2, $3)`,
			conv.ID, userID, now,
		); err != nil {
			r.log.Error("Failed to add group member", "error", err, "user_id", userID)
			return nil, err
		}
	}
	conv.MemberCount = len(members)

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return conv, nil
}

func (r *conversationRepository) IsMember(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM conversation_members
			WHERE conversation_id = $1 AND user_id = $2
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(&exists); err != nil {
		r.log.Error("Failed to check membership", "error", err)
		return false, err
	}

	return exists, nil
}

func (r *conversationRepository) ListMemberIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT user_id FROM conversation_members
		WHERE conversation_id = $1
	`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		r.log.Error("Failed to list conversation members", "error", err)
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *conversationRepository) MarkRead(ctx context.Context, conversationID, viewerID uuid.UUID) error {
	query := `
		UPDATE messages
		SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id != $2 AND is_read = FALSE
	`

	if _, err := r.db.Exec(ctx, query, conversationID, viewerID); err != nil {
		r.log.Error("Failed to mark conversation read", "error", err)
		return err
	}

	return nil
}
