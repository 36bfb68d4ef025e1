package handler

import (
	"staff_messenger/internal/config"
	"staff_messenger/internal/repository"
	"staff_messenger/internal/service"
	"staff_messenger/pkg/logger"
)

type Handlers struct {
	Health       *HealthHandler
	User         *UserHandler
	Conversation *ConversationHandler
	Message      *MessageHandler
	Typing       *TypingHandler
	Upload       *UploadHandler
	Stats        *StatsHandler
	TypingHub    *TypingHub
}

func NewHandlers(services *service.Services, repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(cfg),
		User:         NewUserHandler(services.User, log),
		Conversation: NewConversationHandler(services.Conversation, log),
		Message:      NewMessageHandler(services.Message, log),
		Typing:       NewTypingHandler(services.Typing, log),
		Upload:       NewUploadHandler(services.Attachment, log),
		Stats:        NewStatsHandler(services.Stats, log),
		TypingHub:    NewTypingHub(repos.Typing, repos.Conversation, cfg.JWT.Secret, log),
	}
}
