package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"staff_messenger/internal/config"
	"staff_messenger/internal/domain"
	"staff_messenger/internal/repository"
	apperrors "staff_messenger/pkg/errors"
	"staff_messenger/pkg/logger"
)

type TypingService interface {
	// SetTyping records or clears a typing signal. The stored key carries a
	// TTL, so a client that disappears mid-compose expires on its own.
	SetTyping(ctx context.Context, userID, peerID uuid.UUID, isTyping bool) error
	// PeerTyping reports whether anyone other than the viewer is composing
	// in the conversation addressed by peerID.
	PeerTyping(ctx context.Context, viewerID, peerID uuid.UUID) (*domain.TypingStatus, error)
}

type typingService struct {
	typingRepo       repository.TypingRepository
	conversationRepo repository.ConversationRepository
	cfg              config.TypingConfig
	log              logger.Logger
}

func NewTypingService(
	typingRepo repository.TypingRepository,
	conversationRepo repository.ConversationRepository,
	cfg config.TypingConfig,
	log logger.Logger,
) TypingService {
	return &typingService{
		typingRepo:       typingRepo,
		conversationRepo: conversationRepo,
		cfg:              cfg,
		log:              log,
	}
}

// resolve maps peerID (user id or conversation id) to the conversation the
// typing signal belongs to. A direct chat with no conversation yet yields
// ErrConversationNotFound; typing before first contact is meaningless.
func (s *typingService) resolve(ctx context.Context, viewerID, peerID uuid.UUID) (uuid.UUID, error) {
	conv, err := s.conversationRepo.GetByID(ctx, peerID)
	if err == nil {
		member, err := s.conversationRepo.IsMember(ctx, conv.ID, viewerID)
		if err != nil {
			return uuid.Nil, err
		}
		if !member {
			return uuid.Nil, apperrors.ErrNotAMember
		}
		return conv.ID, nil
	}
	if !errors.Is(err, apperrors.ErrConversationNotFound) {
		return uuid.Nil, err
	}

	conv, err = s.conversationRepo.FindDirect(ctx, viewerID, peerID)
	if err != nil {
		return uuid.Nil, err
	}
	return conv.ID, nil
}

func (s *typingService) SetTyping(ctx context.Context, userID, peerID uuid.UUID, isTyping bool) error {
	convID, err := s.resolve(ctx, userID, peerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrConversationNotFound) {
			// First-contact compose: nothing to signal against yet.
			return nil
		}
		return err
	}

	if isTyping {
		if err := s.typingRepo.Set(ctx, convID, userID, s.cfg.TTL); err != nil {
			return err
		}
	} else {
		if err := s.typingRepo.Clear(ctx, convID, userID); err != nil {
			return err
		}
	}

	return s.typingRepo.Publish(ctx, convID, userID, isTyping)
}

func (s *typingService) PeerTyping(ctx context.Context, viewerID, peerID uuid.UUID) (*domain.TypingStatus, error) {
	convID, err := s.resolve(ctx, viewerID, peerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrConversationNotFound) {
			return &domain.TypingStatus{IsTyping: false}, nil
		}
		return nil, err
	}

	typing, err := s.typingRepo.AnyoneElseTyping(ctx, convID, viewerID)
	if err != nil {
		return nil, err
	}

	return &domain.TypingStatus{IsTyping: typing}, nil
}
