package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
	natsclient "github.com/capitalize-ai/prospecting-platform/internal/nats"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
	"github.com/capitalize-ai/prospecting-platform/pkg/metrics"
)

// MessageService handles message operations.
type MessageService struct {
	store        OutreachStore
	orchestrator *DraftOrchestrator
	publisher    natsclient.Publisher
	logger       *logger.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(
	st OutreachStore,
	orchestrator *DraftOrchestrator,
	publisher natsclient.Publisher,
	log *logger.Logger,
) *MessageService {
	if publisher == nil {
		publisher = natsclient.NoopPublisher{}
	}
	return &MessageService{
		store:        st,
		orchestrator: orchestrator,
		publisher:    publisher,
		logger:       log,
	}
}

// AddContactMessage records a reply from the contact. Replies are accepted
// on stopped conversations too.
func (s *MessageService) AddContactMessage(ctx context.Context, ownerID string, conversationID int64, content string) (*model.Message, error) {
	conv, err := s.store.GetByID(ctx, conversationID, ownerID)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.AddMessage(ctx, model.MessageCreateInput{
		ConversationID: conv.ID,
		Role:           model.RoleContact,
		Content:        content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	if err := s.store.Touch(ctx, conv.ID, ownerID); err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}

	metrics.MessagesTotal.WithLabelValues(string(model.RoleContact)).Inc()
	if err := s.publisher.PublishMessage(ctx, ownerID, msg); err != nil {
		s.logger.Warn("failed to publish message", zap.Int64("conversation_id", conv.ID), zap.Error(err))
	}

	return msg, nil
}

// GenerateDraft asks the orchestrator for the next prospect message.
// A nil outcome with a nil error means the owner is out of credits.
func (s *MessageService) GenerateDraft(ctx context.Context, ownerID string, conversationID int64) (*model.DraftOutcome, error) {
	return s.orchestrator.GenerateNext(ctx, ownerID, conversationID)
}

// PreviewDraft returns a candidate next message without saving it.
// A nil preview with a nil error means the owner is out of credits.
func (s *MessageService) PreviewDraft(ctx context.Context, ownerID string, conversationID int64) (*model.DraftPreview, error) {
	return s.orchestrator.Preview(ctx, ownerID, conversationID)
}

// List returns the conversation's messages in insertion order.
func (s *MessageService) List(ctx context.Context, ownerID string, conversationID int64) (*model.ListMessagesResponse, error) {
	conv, err := s.store.GetByID(ctx, conversationID, ownerID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.store.GetMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}

	return &model.ListMessagesResponse{Messages: msgs}, nil
}
