package service

import (
	"context"

	"staff_messenger/internal/config"
	"staff_messenger/internal/repository"
	"staff_messenger/pkg/logger"
)

type Services struct {
	User         UserService
	Conversation ConversationService
	Message      MessageService
	Typing       TypingService
	Attachment   AttachmentService
	Stats        StatsService
	RateLimit    RateLimitService
}

func NewServices(ctx context.Context, repos *repository.Repositories, cfg *config.Config, log logger.Logger) (*Services, error) {
	storage, err := NewStorage(ctx, cfg.Upload)
	if err != nil {
		return nil, err
	}

	return &Services{
		User:         NewUserService(repos.User, log),
		Conversation: NewConversationService(repos.Conversation, repos.User, repos.Audit, log),
		Message:      NewMessageService(repos.Message, repos.Conversation, repos.User, repos.Audit, log),
		Typing:       NewTypingService(repos.Typing, repos.Conversation, cfg.Typing, log),
		Attachment:   NewAttachmentService(storage, repos.Audit, cfg.Upload, log),
		Stats:        NewStatsService(repos.Stats, log),
		RateLimit:    NewRateLimitService(repos.RateLimit, log),
	}, nil
}
