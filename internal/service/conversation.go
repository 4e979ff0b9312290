package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/store"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
	"github.com/capitalize-ai/prospecting-platform/pkg/metrics"
)

// ConversationService handles conversation operations.
type ConversationService struct {
	store        OutreachStore
	orchestrator *DraftOrchestrator
	logger       *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(st OutreachStore, orchestrator *DraftOrchestrator, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:        st,
		orchestrator: orchestrator,
		logger:       log,
	}
}

// Create opens an active conversation with a contact the owner can see.
func (s *ConversationService) Create(ctx context.Context, ownerID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	if _, err := s.store.GetContact(ctx, req.ContactID, ownerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}

	conv, err := s.store.Create(ctx, ownerID, model.ConversationCreateInput{
		ContactID:      req.ContactID,
		SellingContext: req.SellingContext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	metrics.ConversationsTotal.Inc()
	s.logger.Info("conversation created",
		zap.Int64("conversation_id", conv.ID),
		zap.Int64("contact_id", conv.ContactID),
		zap.String("owner_id", ownerID),
	)

	return conv, nil
}

// Start creates a conversation and drafts its first message.
//
// When the owner is out of credits the conversation is still created and
// returned with a nil FirstMessage. If drafting fails the created
// conversation is returned along with the error.
func (s *ConversationService) Start(ctx context.Context, ownerID string, req *model.CreateConversationRequest) (*model.CreateConversationResponse, error) {
	conv, err := s.Create(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	resp := &model.CreateConversationResponse{Conversation: conv}

	outcome, err := s.orchestrator.GenerateNext(ctx, ownerID, conv.ID)
	if err != nil {
		return resp, err
	}
	resp.FirstMessage = outcome

	if fresh, err := s.store.GetByID(ctx, conv.ID, ownerID); err == nil {
		resp.Conversation = fresh
	}
	return resp, nil
}

// Get retrieves a conversation by ID.
func (s *ConversationService) Get(ctx context.Context, ownerID string, conversationID int64) (*model.Conversation, error) {
	return s.store.GetByID(ctx, conversationID, ownerID)
}

// List retrieves the owner's conversations, most recent activity first.
func (s *ConversationService) List(ctx context.Context, ownerID string) (*model.ListConversationsResponse, error) {
	convs, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	views := make([]model.ConversationView, 0, len(convs))
	for i := range convs {
		views = append(views, model.NewConversationView(&convs[i]))
	}

	return &model.ListConversationsResponse{
		Conversations: views,
		Total:         len(views),
	}, nil
}

// FindByContact returns the most recent conversation with a contact, or nil.
func (s *ConversationService) FindByContact(ctx context.Context, ownerID string, contactID int64) (*model.Conversation, error) {
	conv, err := s.store.FindByContact(ctx, contactID, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return conv, err
}
