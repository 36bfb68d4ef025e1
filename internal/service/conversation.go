package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"staff_messenger/internal/domain"
	"staff_messenger/internal/repository"
	apperrors "staff_messenger/pkg/errors"
	"staff_messenger/pkg/logger"
)

type ConversationService interface {
	// List returns the viewer's conversations with message history, newest
	// last-message first. Contacts with no history are a client-side
	// concern (the directory synthesizes placeholder rows for them).
	List(ctx context.Context, viewerID uuid.UUID) ([]*domain.Conversation, error)
	CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, memberIDs []uuid.UUID) (*domain.Conversation, error)
	MarkRead(ctx context.Context, viewerID, conversationID uuid.UUID) error
}

type conversationService struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	auditRepo        repository.AuditRepository
	log              logger.Logger
}

func NewConversationService(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	log logger.Logger,
) ConversationService {
	return &conversationService{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		auditRepo:        auditRepo,
		log:              log,
	}
}

func (s *conversationService) List(ctx context.Context, viewerID uuid.UUID) ([]*domain.Conversation, error) {
	conversations, err := s.conversationRepo.ListForViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if conversations == nil {
		conversations = []*domain.Conversation{}
	}
	return conversations, nil
}

func (s *conversationService) CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, memberIDs []uuid.UUID) (*domain.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrBadRequest
	}

	// Creator plus at least one other member.
	others := 0
	for _, id := range memberIDs {
		if id != creatorID {
			others++
		}
	}
	if others < 1 {
		return nil, apperrors.ErrGroupTooSmall
	}

	for _, id := range memberIDs {
		if _, err := s.userRepo.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}

	conv, err := s.conversationRepo.CreateGroup(ctx, name, creatorID, memberIDs)
	if err != nil {
		return nil, err
	}

	if err := s.auditRepo.CreateLog(ctx, &domain.AuditLog{
		EventTime:      time.Now(),
		ActorUserID:    &creatorID,
		ConversationID: &conv.ID,
		EventType:      domain.EventTypeGroupCreated,
		Payload:        map[string]interface{}{"name": name, "members": conv.MemberCount},
	}); err != nil {
		s.log.Warn("Failed to audit group creation", "error", err)
	}

	return conv, nil
}

func (s *conversationService) MarkRead(ctx context.Context, viewerID, conversationID uuid.UUID) error {
	member, err := s.conversationRepo.IsMember(ctx, conversationID, viewerID)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.ErrNotAMember
	}

	if err := s.conversationRepo.MarkRead(ctx, conversationID, viewerID); err != nil {
		return err
	}

	if err := s.auditRepo.CreateLog(ctx, &domain.AuditLog{
		EventTime:      time.Now(),
		ActorUserID:    &viewerID,
		ConversationID: &conversationID,
		EventType:      domain.EventTypeConversationRead,
		Payload:        map[string]interface{}{},
	}); err != nil {
		s.log.Warn("Failed to audit mark read", "error", err)
	}

	return nil
}
