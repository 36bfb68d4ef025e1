package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"staff_messenger/pkg/logger"
)

const typingKeyPrefix = "typing:%s:%s" // conversation_id, user_id

// TypingRepository keeps ephemeral typing signals in redis under a TTL,
// so a signal from a crashed client expires on its own with no explicit
// stop event.
type TypingRepository interface {
	Set(ctx context.Context, conversationID, userID uuid.UUID, ttl time.Duration) error
	Clear(ctx context.Context, conversationID, userID uuid.UUID) error
	// AnyoneElseTyping reports whether any member other than the viewer has
	// a fresh typing signal in the conversation.
	AnyoneElseTyping(ctx context.Context, conversationID, viewerID uuid.UUID) (bool, error)
	Publish(ctx context.Context, conversationID, userID uuid.UUID, isTyping bool) error
	Subscribe(ctx context.Context) *redis.PubSub
}

type typingRepository struct {
	rdb *redis.Client
	log logger.Logger
}

func NewTypingRepository(rdb *redis.Client, log logger.Logger) TypingRepository {
	return &typingRepository{rdb: rdb, log: log}
}

func typingKey(conversationID, userID uuid.UUID) string {
	return fmt.Sprintf(typingKeyPrefix, conversationID, userID)
}

func (r *typingRepository) Set(ctx context.Context, conversationID, userID uuid.UUID, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, typingKey(conversationID, userID), "1", ttl).Err(); err != nil {
		r.log.Error("Failed to set typing key", "error", err)
		return err
	}
	return nil
}

func (r *typingRepository) Clear(ctx context.Context, conversationID, userID uuid.UUID) error {
	if err := r.rdb.Del(ctx, typingKey(conversationID, userID)).Err(); err != nil {
		r.log.Error("Failed to clear typing key", "error", err)
		return err
	}
	return nil
}

func (r *typingRepository) AnyoneElseTyping(ctx context.Context, conversationID, viewerID uuid.UUID) (bool, error) {
	pattern := fmt.Sprintf(typingKeyPrefix, conversationID, "*")

	var cursor uint64
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, pattern, 32).Result()
		if err != nil {
			r.log.Error("Failed to scan typing keys", "error", err)
			return false, err
		}
		for _, key := range keys {
			if key != typingKey(conversationID, viewerID) {
				return true, nil
			}
		}
		cursor = next
		if cursor == 0 {
			return false, nil
		}
	}
}

// typingChannel fans typing transitions out to every server instance so the
// websocket push works behind a load balancer.
const typingChannel = "typing-events"

type TypingEvent struct {
	ConversationID uuid.UUID `json:"conversationId"`
	UserID         uuid.UUID `json:"userId"`
	IsTyping       bool      `json:"isTyping"`
}

func (r *typingRepository) Publish(ctx context.Context, conversationID, userID uuid.UUID, isTyping bool) error {
	payload, err := json.Marshal(TypingEvent{
		ConversationID: conversationID,
		UserID:         userID,
		IsTyping:       isTyping,
	})
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, typingChannel, payload).Err(); err != nil {
		r.log.Error("Failed to publish typing event", "error", err)
		return err
	}
	return nil
}

func (r *typingRepository) Subscribe(ctx context.Context) *redis.PubSub {
	return r.rdb.Subscribe(ctx, typingChannel)
}
