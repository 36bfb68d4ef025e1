package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"staff_messenger/pkg/logger"
)

type Repositories struct {
	User         UserRepository
	Conversation ConversationRepository
	Message      MessageRepository
	Typing       TypingRepository
	Stats        StatsRepository
	Audit        AuditRepository
	RateLimit    RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, redis *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db, log),
		Conversation: NewConversationRepository(db, log),
		Message:      NewMessageRepository(db, log),
		Typing:       NewTypingRepository(redis, log),
		Stats:        NewStatsRepository(db, log),
		Audit:        NewAuditRepository(db, log),
		RateLimit:    NewRateLimitRepository(redis, log),
	}
}
