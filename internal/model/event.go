package model

import (
	"time"
)

// EventType represents the type of outreach event.
type EventType string

const (
	EventTypeMessageAppended EventType = "message_appended"
	EventTypeStopped         EventType = "stopped"
	EventTypeUsageFailed     EventType = "usage_failed"
)

// OutreachEvent is published to the event stream when a conversation changes.
type OutreachEvent struct {
	ID             string         `json:"id"`
	ConversationID int64          `json:"conversationId"`
	OwnerID        string         `json:"ownerId"`
	Type           EventType      `json:"type"`
	Reason         string         `json:"reason,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}
