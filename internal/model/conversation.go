// Package model defines data structures for the prospecting platform.
package model

import (
	"time"
)

// Conversation is an outreach thread between a user and one of their contacts.
type Conversation struct {
	ID             int64       `json:"id" db:"id"`
	ContactID      int64       `json:"contactId" db:"contact_id"`
	OwnerID        string      `json:"ownerId" db:"owner_id"`
	SellingContext string      `json:"sellingContext" db:"selling_context"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      *time.Time  `json:"updatedAt" db:"updated_at"`
	StoppedAt      *time.Time  `json:"stoppedAt" db:"stopped_at"`
	StoppedReason  *StopReason `json:"stoppedReason" db:"stopped_reason"`
}

// State derives the lifecycle state from the stop fields.
func (c *Conversation) State() ConversationState {
	if c.StoppedAt != nil {
		return StateStopped
	}
	return StateActive
}

// IsStopped reports whether outreach on this conversation has ended.
func (c *Conversation) IsStopped() bool {
	return c.State() == StateStopped
}

// LastActivity returns the touch timestamp, falling back to creation time.
func (c *Conversation) LastActivity() time.Time {
	if c.UpdatedAt != nil {
		return *c.UpdatedAt
	}
	return c.CreatedAt
}

// ConversationCreateInput is the data needed to open a conversation.
type ConversationCreateInput struct {
	ContactID      int64
	SellingContext string
}

// CreateConversationRequest is the request to start outreach to a contact.
type CreateConversationRequest struct {
	ContactID      int64  `json:"contactId" validate:"required,gt=0"`
	SellingContext string `json:"sellingContext" validate:"max=10000"`
}

// CreateConversationResponse is returned after starting a conversation.
type CreateConversationResponse struct {
	Conversation *Conversation `json:"conversation"`
	FirstMessage *DraftOutcome `json:"firstMessage"`
}

// ConversationView is a conversation together with its derived state.
type ConversationView struct {
	*Conversation
	State ConversationState `json:"state"`
}

// NewConversationView wraps a conversation for API output.
func NewConversationView(c *Conversation) ConversationView {
	return ConversationView{Conversation: c, State: c.State()}
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationView `json:"conversations"`
	Total         int                `json:"total"`
}
