package service

import (
	"context"

	"github.com/google/uuid"

	"staff_messenger/internal/domain"
	"staff_messenger/internal/repository"
	"staff_messenger/pkg/logger"
)

type StatsService interface {
	GetMessagingStats(ctx context.Context, userID uuid.UUID) (*domain.MessagingStats, error)
}

type statsService struct {
	statsRepo repository.StatsRepository
	log       logger.Logger
}

func NewStatsService(statsRepo repository.StatsRepository, log logger.Logger) StatsService {
	return &statsService{statsRepo: statsRepo, log: log}
}

func (s *statsService) GetMessagingStats(ctx context.Context, userID uuid.UUID) (*domain.MessagingStats, error) {
	return s.statsRepo.GetMessagingStats(ctx, userID)
}
