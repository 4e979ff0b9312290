package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/pkg/metrics"
)

const (
	// StreamName is the name of the outreach stream.
	StreamName = "OUTREACH"

	// SubjectPrefix is the prefix for all outreach subjects.
	SubjectPrefix = "outreach"
)

// Publisher emits outreach messages and events.
type Publisher interface {
	PublishMessage(ctx context.Context, ownerID string, msg *model.Message) error
	PublishEvent(ctx context.Context, event *model.OutreachEvent) error
}

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	js jetstream.JetStream
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{js: client.JetStream()}
}

// EnsureStream ensures the outreach stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	_, err := m.js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = m.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Outreach messages and conversation lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// MessageSubject returns the subject for a message.
func MessageSubject(ownerID string, conversationID int64, role model.Role) string {
	return fmt.Sprintf("%s.%s.%d.msg.%s", SubjectPrefix, ownerID, conversationID, role)
}

// EventSubject returns the subject for an event.
func EventSubject(ownerID string, conversationID int64, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%d.event.%s", SubjectPrefix, ownerID, conversationID, eventType)
}

// PublishMessage publishes a message to JetStream.
func (m *StreamManager) PublishMessage(ctx context.Context, ownerID string, msg *model.Message) error {
	return m.publish(ctx, MessageSubject(ownerID, msg.ConversationID, msg.Role), "message", msg)
}

// PublishEvent publishes an event to JetStream.
func (m *StreamManager) PublishEvent(ctx context.Context, event *model.OutreachEvent) error {
	return m.publish(ctx, EventSubject(event.OwnerID, event.ConversationID, event.Type), string(event.Type), event)
}

func (m *StreamManager) publish(ctx context.Context, subject, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", kind, err)
	}

	if _, err := m.js.Publish(ctx, subject, data); err != nil {
		metrics.EventsPublished.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("failed to publish %s: %w", kind, err)
	}

	metrics.EventsPublished.WithLabelValues(kind, "ok").Inc()
	return nil
}

// NoopPublisher drops everything. Used when NATS is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishMessage(context.Context, string, *model.Message) error { return nil }
func (NoopPublisher) PublishEvent(context.Context, *model.OutreachEvent) error     { return nil }
