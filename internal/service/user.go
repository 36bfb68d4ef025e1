package service

import (
	"context"

	"github.com/google/uuid"

	"staff_messenger/internal/domain"
	"staff_messenger/internal/repository"
	"staff_messenger/pkg/logger"
)

type UserService interface {
	// Roster lists every known user except the viewer, the directory's
	// second input alongside the conversation list.
	Roster(ctx context.Context, viewerID uuid.UUID) ([]*domain.User, error)
	Provision(ctx context.Context, user *domain.User) error
}

type userService struct {
	userRepo repository.UserRepository
	log      logger.Logger
}

func NewUserService(userRepo repository.UserRepository, log logger.Logger) UserService {
	return &userService{userRepo: userRepo, log: log}
}

func (s *userService) Roster(ctx context.Context, viewerID uuid.UUID) ([]*domain.User, error) {
	users, err := s.userRepo.ListExcluding(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

func (s *userService) Provision(ctx context.Context, user *domain.User) error {
	return s.userRepo.Upsert(ctx, user)
}
