package model

import (
	"time"
)

// Role identifies which side of a conversation authored a message.
type Role string

const (
	// RoleProspect is the salesperson side, drafted by the model.
	RoleProspect Role = "prospect"
	// RoleContact is the human being prospected.
	RoleContact Role = "contact"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleProspect || r == RoleContact
}

// Message is one turn in a conversation. Messages are append-only.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversationId" db:"conversation_id"`
	Role           Role      `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// MessageCreateInput is the data needed to append a message.
type MessageCreateInput struct {
	ConversationID int64
	Role           Role
	Content        string
}

// SendMessageRequest is the body of POST /conversations/{id}/messages.
// Contact messages carry content; prospect requests ask for a generated draft.
type SendMessageRequest struct {
	Role    Role   `json:"role" validate:"required,oneof=prospect contact"`
	Content string `json:"content" validate:"required_if=Role contact,max=100000"`
}

// ListMessagesResponse is the response for listing messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}
