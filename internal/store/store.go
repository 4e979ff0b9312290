// Package store defines the persistence contracts for conversations, contacts,
// AI preferences and credits.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
)

// ErrNotFound is returned when a record does not exist or is not visible to the caller.
var ErrNotFound = errors.New("not found")

// ConversationStore persists conversations and their append-only message log.
type ConversationStore interface {
	Create(ctx context.Context, ownerID string, in model.ConversationCreateInput) (*model.Conversation, error)
	GetByID(ctx context.Context, conversationID int64, ownerID string) (*model.Conversation, error)
	List(ctx context.Context, ownerID string) ([]model.Conversation, error)
	FindByContact(ctx context.Context, contactID int64, ownerID string) (*model.Conversation, error)
	Touch(ctx context.Context, conversationID int64, ownerID string) error
	Stop(ctx context.Context, conversationID int64, reason model.StopReason) error

	// AddMessage does not check ownership; callers resolve the conversation first.
	AddMessage(ctx context.Context, in model.MessageCreateInput) (*model.Message, error)
	GetMessages(ctx context.Context, conversationID int64) ([]model.Message, error)
}

// ContactStore persists contacts.
type ContactStore interface {
	CreateContact(ctx context.Context, ownerID string, req model.CreateContactRequest) (*model.Contact, error)
	GetContact(ctx context.Context, contactID int64, ownerID string) (*model.Contact, error)
	ListContacts(ctx context.Context, ownerID string) ([]model.Contact, error)
	// FindContactByLinkedInProviderID returns the owner's contact imported from
	// that LinkedIn profile, or ErrNotFound.
	FindContactByLinkedInProviderID(ctx context.Context, providerID, ownerID string) (*model.Contact, error)
}

// PreferencesStore persists one AiPreferences row per user.
type PreferencesStore interface {
	GetPreferences(ctx context.Context, userID string) (*model.AiPreferences, error)
	// UpsertPreferences applies a partial update, creating the row if needed.
	UpsertPreferences(ctx context.Context, userID string, in model.AiPreferencesInput) (*model.AiPreferences, error)
}

// CreditStore persists credit balances and usage records.
type CreditStore interface {
	// GetBalance returns the balance whose period covers at, or ErrNotFound.
	GetBalance(ctx context.Context, userID string, at time.Time) (*model.CreditBalance, error)
	CreateBalance(ctx context.Context, balance model.CreditBalance) (*model.CreditBalance, error)
	// Debit decrements the balance covering at, never below zero, and returns what remains.
	Debit(ctx context.Context, userID string, at time.Time, credits int64) (int64, error)
	InsertUsage(ctx context.Context, rec model.UsageRecord) error
}

// Store groups every persistence contract behind one value.
type Store interface {
	ConversationStore
	ContactStore
	PreferencesStore
	CreditStore
	Ping(ctx context.Context) error
	Close() error
}
