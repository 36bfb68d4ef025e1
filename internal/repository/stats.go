package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"staff_messenger/internal/domain"
	"staff_messenger/pkg/logger"
)

type StatsRepository interface {
	GetMessagingStats(ctx context.Context, userID uuid.UUID) (*domain.MessagingStats, error)
}

type statsRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewStatsRepository(db *pgxpool.Pool, log logger.Logger) StatsRepository {
	return &statsRepository{db: db, log: log}
}

func (r *statsRepository) GetMessagingStats(ctx context.Context, userID uuid.UUID) (*domain.MessagingStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM messages msg
			 JOIN conversation_members m ON m.conversation_id = msg.conversation_id AND m.user_id = $1
			 WHERE msg.sender_id != $1 AND msg.is_read = FALSE),
			(SELECT COUNT(*) FROM conversation_members WHERE user_id = $1),
			(SELECT COUNT(*) FROM messages WHERE sender_id = $1)
	`

	stats := &domain.MessagingStats{UserID: userID}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&stats.TotalUnread, &stats.ConversationCount, &stats.MessagesSent,
	)
	if err != nil {
		r.log.Error("Failed to get messaging stats", "error", err)
		return nil, err
	}

	return stats, nil
}
