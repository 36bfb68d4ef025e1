package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"staff_messenger/internal/domain"
	"staff_messenger/internal/repository"
	apperrors "staff_messenger/pkg/errors"
	"staff_messenger/pkg/logger"
)

type MessageService interface {
	// Send resolves peerID (a user id for direct chats, a conversation id
	// for groups), creating the direct conversation on first contact, and
	// persists the message. Placeholder ids synthesized client-side are
	// never valid here.
	Send(ctx context.Context, senderID, peerID uuid.UUID, content string, attachments []string) (*domain.Message, error)
	History(ctx context.Context, viewerID, peerID uuid.UUID) ([]*domain.Message, error)
}

type messageService struct {
	messageRepo      repository.MessageRepository
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	auditRepo        repository.AuditRepository
	log              logger.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	log logger.Logger,
) MessageService {
	return &messageService{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		auditRepo:        auditRepo,
		log:              log,
	}
}

// resolveConversation maps a peer id onto a conversation the viewer belongs
// to. A conversation id wins when it exists; otherwise the id is taken as a
// user id and the direct conversation is looked up (and created if create
// is set).
func (s *messageService) resolveConversation(ctx context.Context, viewerID, peerID uuid.UUID, create bool) (*domain.Conversation, error) {
	conv, err := s.conversationRepo.GetByID(ctx, peerID)
	if err == nil {
		member, err := s.conversationRepo.IsMember(ctx, conv.ID, viewerID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, apperrors.ErrNotAMember
		}
		return conv, nil
	}
	if !errors.Is(err, apperrors.ErrConversationNotFound) {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, peerID); err != nil {
		return nil, err
	}

	conv, err = s.conversationRepo.FindDirect(ctx, viewerID, peerID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, apperrors.ErrConversationNotFound) {
		return nil, err
	}
	if !create {
		return nil, apperrors.ErrConversationNotFound
	}

	return s.conversationRepo.CreateDirect(ctx, viewerID, peerID)
}

func (s *messageService) Send(ctx context.Context, senderID, peerID uuid.UUID, content string, attachments []string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(attachments) == 0 {
		return nil, apperrors.ErrEmptyMessage
	}

	conv, err := s.resolveConversation(ctx, senderID, peerID, true)
	if err != nil {
		return nil, err
	}

	message := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
		Attachments:    attachments,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	if err := s.auditRepo.CreateLog(ctx, &domain.AuditLog{
		EventTime:      time.Now(),
		ActorUserID:    &senderID,
		ConversationID: &conv.ID,
		EventType:      domain.EventTypeMessageSent,
		Payload:        map[string]interface{}{"message_id": message.ID.String(), "attachments": len(attachments)},
	}); err != nil {
		// The message is durable; a missing audit row is not worth failing the send.
		s.log.Warn("Failed to audit message send", "error", err)
	}

	return message, nil
}

func (s *messageService) History(ctx context.Context, viewerID, peerID uuid.UUID) ([]*domain.Message, error) {
	conv, err := s.resolveConversation(ctx, viewerID, peerID, false)
	if err != nil {
		// No conversation yet means no history, not an error: the client
		// shows an empty stream for a fresh contact.
		if errors.Is(err, apperrors.ErrConversationNotFound) {
			return []*domain.Message{}, nil
		}
		return nil, err
	}

	messages, err := s.messageRepo.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*domain.Message{}
	}

	return messages, nil
}
