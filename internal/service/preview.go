package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
)

// ErrPreviewUnavailable is returned when no drafter is configured.
var ErrPreviewUnavailable = errors.New("draft preview is not available")

// Drafter writes a freeform message without deciding whether to continue.
type Drafter interface {
	GenerateDraft(ctx context.Context, req model.DraftRequest) (*model.DraftResult, error)
}

// WithDrafter enables Preview.
func (o *DraftOrchestrator) WithDrafter(d Drafter) *DraftOrchestrator {
	o.drafter = d
	return o
}

// Preview writes a candidate next message without saving it or changing
// conversation state. It is billed like any other model call and returns
// (nil, nil) when the owner has no credits left.
func (o *DraftOrchestrator) Preview(ctx context.Context, ownerID string, conversationID int64) (*model.DraftPreview, error) {
	if o.drafter == nil {
		return nil, ErrPreviewUnavailable
	}

	ctx, span := tracer.Start(ctx, "DraftOrchestrator.Preview", trace.WithAttributes(
		attribute.String("owner.id", ownerID),
		attribute.Int64("conversation.id", conversationID),
	))
	defer span.End()

	log := o.logger.WithConversation(ownerID, conversationID)

	in, err := o.resolve(ctx, ownerID, conversationID)
	if err != nil {
		return nil, err
	}
	if in == nil {
		span.SetAttributes(attribute.Bool("credits.exhausted", true))
		return nil, nil
	}

	result, err := o.drafter.GenerateDraft(ctx, in.req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to generate draft: %w", err)
	}

	o.recordUsage(ctx, log, ownerID, in.conv.ID, result.Usage)

	return &model.DraftPreview{Content: result.Content}, nil
}
