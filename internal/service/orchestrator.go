// Package service provides business logic for the prospecting platform.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
	natsclient "github.com/capitalize-ai/prospecting-platform/internal/nats"
	"github.com/capitalize-ai/prospecting-platform/internal/store"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
	"github.com/capitalize-ai/prospecting-platform/pkg/metrics"
)

var tracer = otel.Tracer("github.com/capitalize-ai/prospecting-platform/internal/service")

// Analyzer decides whether to continue a conversation and drafts the next message.
type Analyzer interface {
	AnalyzeAndDraft(ctx context.Context, req model.DraftRequest) (*model.AnalysisAndDraftResult, error)
}

// CreditLedger gates and charges model usage.
type CreditLedger interface {
	CheckCredits(ctx context.Context, userID string) (*model.CreditStatus, error)
	RecordUsage(ctx context.Context, userID string, inputTokens, outputTokens int64, modelName string) error
}

// AiContextProvider resolves a user's persona for prompts.
type AiContextProvider interface {
	UserAiContext(ctx context.Context, userID string) (model.UserAiContext, error)
}

// OutreachStore is the persistence the orchestrator needs.
type OutreachStore interface {
	store.ConversationStore
	GetContact(ctx context.Context, contactID int64, ownerID string) (*model.Contact, error)
}

// DraftOrchestrator produces the next prospect turn of a conversation,
// gated on credits.
type DraftOrchestrator struct {
	store     OutreachStore
	analyzer  Analyzer
	drafter   Drafter
	ledger    CreditLedger
	prefs     AiContextProvider
	publisher natsclient.Publisher
	locks     *keyedMutex
	logger    *logger.Logger
}

// NewDraftOrchestrator creates a new orchestrator. A nil publisher disables events.
func NewDraftOrchestrator(
	st OutreachStore,
	analyzer Analyzer,
	ledger CreditLedger,
	prefs AiContextProvider,
	publisher natsclient.Publisher,
	log *logger.Logger,
) *DraftOrchestrator {
	if publisher == nil {
		publisher = natsclient.NoopPublisher{}
	}
	return &DraftOrchestrator{
		store:     st,
		analyzer:  analyzer,
		ledger:    ledger,
		prefs:     prefs,
		publisher: publisher,
		locks:     newKeyedMutex(),
		logger:    log,
	}
}

// GenerateNext drafts the next prospect message.
//
// It returns (nil, nil) when the owner has no credits left; in that case
// the model is not called and nothing is written. The draft is persisted
// before usage is recorded, and a usage failure does not fail the call.
func (o *DraftOrchestrator) GenerateNext(ctx context.Context, ownerID string, conversationID int64) (*model.DraftOutcome, error) {
	ctx, span := tracer.Start(ctx, "DraftOrchestrator.GenerateNext", trace.WithAttributes(
		attribute.String("owner.id", ownerID),
		attribute.Int64("conversation.id", conversationID),
	))
	defer span.End()

	unlock := o.locks.Lock(conversationID)
	defer unlock()

	log := o.logger.WithConversation(ownerID, conversationID)

	outcome, err := o.generate(ctx, log, ownerID, conversationID)
	switch {
	case err != nil:
		metrics.RecordDraft(metrics.OutcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case outcome == nil:
		metrics.RecordDraft(metrics.OutcomeInsufficientCredits)
		span.SetAttributes(attribute.Bool("credits.exhausted", true))
	case outcome.Stopped:
		metrics.RecordDraft(metrics.OutcomeStopped)
		span.SetAttributes(attribute.Bool("conversation.stopped", true))
	default:
		metrics.RecordDraft(metrics.OutcomeContinued)
	}
	return outcome, err
}

// draftInput is everything a model call needs about one conversation.
type draftInput struct {
	conv *model.Conversation
	req  model.DraftRequest
}

// resolve loads the conversation, contact, persona and history. It returns
// (nil, nil) when the owner has no credits left.
func (o *DraftOrchestrator) resolve(ctx context.Context, ownerID string, conversationID int64) (*draftInput, error) {
	conv, err := o.store.GetByID(ctx, conversationID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv.IsStopped() {
		return nil, ErrConversationStopped
	}

	contact, err := o.store.GetContact(ctx, conv.ContactID, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}

	aiCtx, err := o.prefs.UserAiContext(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	history, err := o.store.GetMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	status, err := o.ledger.CheckCredits(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check credits: %w", err)
	}
	if !status.HasCredits {
		return nil, nil
	}

	return &draftInput{
		conv: conv,
		req: model.DraftRequest{
			ContactInfo:         contact.ContactInfo(),
			UserAiContext:       aiCtx,
			ConversationHistory: history,
			SellingContext:      conv.SellingContext,
		},
	}, nil
}

// recordUsage charges a model call. Failures are counted and published
// but never fail the caller.
func (o *DraftOrchestrator) recordUsage(ctx context.Context, log *logger.Logger, ownerID string, conversationID int64, usage model.TokenUsage) {
	err := o.ledger.RecordUsage(ctx, ownerID, usage.InputTokens, usage.OutputTokens, usage.Model)
	if err == nil {
		return
	}
	metrics.UsageRecordFailures.Inc()
	log.Error("failed to record usage",
		zap.Error(err),
		zap.Int64("input_tokens", usage.InputTokens),
		zap.Int64("output_tokens", usage.OutputTokens),
	)
	o.publishEvent(ctx, log, ownerID, conversationID, model.EventTypeUsageFailed, "", map[string]any{
		"inputTokens":  usage.InputTokens,
		"outputTokens": usage.OutputTokens,
		"model":        usage.Model,
	})
}

func (o *DraftOrchestrator) generate(ctx context.Context, log *logger.Logger, ownerID string, conversationID int64) (*model.DraftOutcome, error) {
	in, err := o.resolve(ctx, ownerID, conversationID)
	if err != nil {
		return nil, err
	}
	if in == nil {
		log.Info("draft skipped, no credits left")
		return nil, nil
	}
	conv := in.conv

	result, err := o.analyzer.AnalyzeAndDraft(ctx, in.req)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze conversation: %w", err)
	}
	analysis := result.Analysis

	if analysis.DraftContent != "" {
		msg, err := o.store.AddMessage(ctx, model.MessageCreateInput{
			ConversationID: conv.ID,
			Role:           model.RoleProspect,
			Content:        analysis.DraftContent,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save draft: %w", err)
		}
		metrics.MessagesTotal.WithLabelValues(string(model.RoleProspect)).Inc()
		o.publishMessage(ctx, log, ownerID, msg)
	}

	o.recordUsage(ctx, log, ownerID, conv.ID, result.Usage)

	stopped := analysis.Status == model.StatusStop
	if stopped && analysis.StopReason != nil && conv.State().CanTransitionTo(model.StateStopped) {
		reason := *analysis.StopReason
		if err := o.store.Stop(ctx, conv.ID, reason); err != nil {
			return nil, fmt.Errorf("failed to stop conversation: %w", err)
		}
		metrics.StopDecisionsTotal.WithLabelValues(string(reason)).Inc()
		log.Info("conversation stopped", zap.String("reason", string(reason)))
		o.publishEvent(ctx, log, ownerID, conv.ID, model.EventTypeStopped, string(reason), nil)
	}

	if err := o.store.Touch(ctx, conv.ID, ownerID); err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}

	return &model.DraftOutcome{
		Content:       analysis.DraftContent,
		Stopped:       stopped,
		StoppedReason: analysis.StopReason,
	}, nil
}

func (o *DraftOrchestrator) publishMessage(ctx context.Context, log *logger.Logger, ownerID string, msg *model.Message) {
	if err := o.publisher.PublishMessage(ctx, ownerID, msg); err != nil {
		log.Warn("failed to publish message", zap.Error(err))
	}
}

func (o *DraftOrchestrator) publishEvent(ctx context.Context, log *logger.Logger, ownerID string, conversationID int64, typ model.EventType, reason string, meta map[string]any) {
	event := &model.OutreachEvent{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		OwnerID:        ownerID,
		Type:           typ,
		Reason:         reason,
		Metadata:       meta,
		CreatedAt:      time.Now().UTC(),
	}
	if err := o.publisher.PublishEvent(ctx, event); err != nil {
		log.Warn("failed to publish event", zap.String("type", string(typ)), zap.Error(err))
	}
}
