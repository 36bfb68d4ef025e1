package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"staff_messenger/internal/domain"
	"staff_messenger/pkg/logger"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	// ListByConversation returns the full history ordered ascending by
	// created_at, the order clients render it in.
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*domain.Message, error)
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, content, attachments, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
		RETURNING created_at
	`

	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if message.Attachments == nil {
		message.Attachments = []string{}
	}

	err := r.db.QueryRow(ctx, query,
		message.ID, message.ConversationID, message.SenderID,
		message.Content, message.Attachments,
	).Scan(&message.CreatedAt)
	if err != nil {
		r.log.Error("Failed to create message", "error", err)
		return err
	}

	return nil
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, attachments, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		r.log.Error("Failed to list messages", "error", err)
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		message := &domain.Message{}
		err := rows.Scan(
			&message.ID, &message.ConversationID, &message.SenderID,
			&message.Content, &message.Attachments, &message.IsRead, &message.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		if message.Attachments == nil {
			message.Attachments = []string{}
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}
