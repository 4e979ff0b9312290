// Package memstore is an in-memory Store used for tests and local development.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/store"
)

// Store keeps every record in maps guarded by a single RWMutex.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	nextID int64

	conversations map[int64]*model.Conversation
	messages      map[int64][]model.Message
	contacts      map[int64]*model.Contact
	preferences   map[string]*model.AiPreferences
	balances      map[string][]*model.CreditBalance
	usage         []model.UsageRecord
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		now:           time.Now,
		conversations: make(map[int64]*model.Conversation),
		messages:      make(map[int64][]model.Message),
		contacts:      make(map[int64]*model.Contact),
		preferences:   make(map[string]*model.AiPreferences),
		balances:      make(map[string][]*model.CreditBalance),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Create opens a new active conversation.
func (s *Store) Create(ctx context.Context, ownerID string, in model.ConversationCreateInput) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := &model.Conversation{
		ID:             s.id(),
		ContactID:      in.ContactID,
		OwnerID:        ownerID,
		SellingContext: in.SellingContext,
		CreatedAt:      s.now(),
	}
	s.conversations[conv.ID] = conv

	out := *conv
	return &out, nil
}

// GetByID returns the conversation if it belongs to ownerID.
func (s *Store) GetByID(ctx context.Context, conversationID int64, ownerID string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok || conv.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	out := copyConversation(conv)
	return &out, nil
}

// List returns the owner's conversations, most recent activity first.
func (s *Store) List(ctx context.Context, ownerID string) ([]model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convs := make([]model.Conversation, 0)
	for _, conv := range s.conversations {
		if conv.OwnerID == ownerID {
			convs = append(convs, copyConversation(conv))
		}
	}
	sortByActivity(convs)
	return convs, nil
}

// FindByContact returns the owner's most recently active conversation with a contact.
func (s *Store) FindByContact(ctx context.Context, contactID int64, ownerID string) (*model.Conversation, error) {
	convs, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].ContactID == contactID {
			return &convs[i], nil
		}
	}
	return nil, store.ErrNotFound
}

// Touch sets the last-activity timestamp to now.
func (s *Store) Touch(ctx context.Context, conversationID int64, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok || conv.OwnerID != ownerID {
		return store.ErrNotFound
	}
	now := s.now()
	conv.UpdatedAt = &now
	return nil
}

// Stop marks the conversation stopped. A repeat call overwrites both fields.
func (s *Store) Stop(ctx context.Context, conversationID int64, reason model.StopReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return store.ErrNotFound
	}
	now := s.now()
	conv.StoppedAt = &now
	conv.StoppedReason = &reason
	return nil
}

// AddMessage appends a message to a conversation.
func (s *Store) AddMessage(ctx context.Context, in model.MessageCreateInput) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[in.ConversationID]; !ok {
		return nil, store.ErrNotFound
	}

	msg := model.Message{
		ID:             s.id(),
		ConversationID: in.ConversationID,
		Role:           in.Role,
		Content:        in.Content,
		CreatedAt:      s.now(),
	}
	s.messages[in.ConversationID] = append(s.messages[in.ConversationID], msg)
	return &msg, nil
}

// GetMessages returns the conversation's messages, oldest first.
func (s *Store) GetMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := make([]model.Message, len(s.messages[conversationID]))
	copy(msgs, s.messages[conversationID])
	return msgs, nil
}

// CreateContact stores a new contact for ownerID.
func (s *Store) CreateContact(ctx context.Context, ownerID string, req model.CreateContactRequest) (*model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &model.Contact{
		ID:                 s.id(),
		OwnerID:            ownerID,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Company:            req.Company,
		CompanyID:          req.CompanyID,
		JobTitle:           req.JobTitle,
		Phone:              req.Phone,
		Notes:              req.Notes,
		LinkedInProviderID: req.LinkedInProviderID,
		LinkedInURL:        req.LinkedInURL,
		CreatedAt:          s.now(),
	}
	s.contacts[c.ID] = c

	out := *c
	return &out, nil
}

// GetContact returns the contact if it belongs to ownerID.
func (s *Store) GetContact(ctx context.Context, contactID int64, ownerID string) (*model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contacts[contactID]
	if !ok || c.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	out := *c
	return &out, nil
}

// FindContactByLinkedInProviderID returns the owner's oldest contact with that provider id.
func (s *Store) FindContactByLinkedInProviderID(ctx context.Context, providerID, ownerID string) (*model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *model.Contact
	for _, c := range s.contacts {
		if c.OwnerID != ownerID || c.LinkedInProviderID == nil || *c.LinkedInProviderID != providerID {
			continue
		}
		if found == nil || c.ID < found.ID {
			found = c
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	out := *found
	return &out, nil
}

// ListContacts returns the owner's contacts, newest first.
func (s *Store) ListContacts(ctx context.Context, ownerID string) ([]model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contacts := make([]model.Contact, 0)
	for _, c := range s.contacts {
		if c.OwnerID == ownerID {
			contacts = append(contacts, *c)
		}
	}
	sort.Slice(contacts, func(i, j int) bool {
		return contacts[i].ID > contacts[j].ID
	})
	return contacts, nil
}

// GetPreferences returns the user's preferences or ErrNotFound.
func (s *Store) GetPreferences(ctx context.Context, userID string) (*model.AiPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.preferences[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := copyPreferences(p)
	return &out, nil
}

// UpsertPreferences applies the non-nil fields of in.
func (s *Store) UpsertPreferences(ctx context.Context, userID string, in model.AiPreferencesInput) (*model.AiPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, ok := s.preferences[userID]
	if !ok {
		p = &model.AiPreferences{UserID: userID, ExampleMessages: []string{}, CreatedAt: now}
		s.preferences[userID] = p
	} else {
		p.UpdatedAt = &now
	}

	if in.CompanyKnowledge != nil {
		v := *in.CompanyKnowledge
		p.CompanyKnowledge = &v
	}
	if in.ToneOfVoice != nil {
		v := *in.ToneOfVoice
		p.ToneOfVoice = &v
	}
	if in.ExampleMessages != nil {
		p.ExampleMessages = append([]string{}, (*in.ExampleMessages)...)
	}
	if in.Signature != nil {
		v := *in.Signature
		p.Signature = &v
	}
	if in.OnboardingCompleted != nil {
		p.OnboardingCompleted = *in.OnboardingCompleted
	}

	out := copyPreferences(p)
	return &out, nil
}

// GetBalance returns the balance covering at.
func (s *Store) GetBalance(ctx context.Context, userID string, at time.Time) (*model.CreditBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.balanceAt(userID, at)
	if b == nil {
		return nil, store.ErrNotFound
	}
	out := *b
	return &out, nil
}

// CreateBalance stores a balance for a new period.
func (s *Store) CreateBalance(ctx context.Context, balance model.CreditBalance) (*model.CreditBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.balanceAt(balance.UserID, balance.PeriodStart); existing != nil && existing.PeriodStart.Equal(balance.PeriodStart) {
		out := *existing
		return &out, nil
	}
	b := balance
	s.balances[balance.UserID] = append(s.balances[balance.UserID], &b)
	out := b
	return &out, nil
}

// Debit decrements the covering balance, flooring at zero.
func (s *Store) Debit(ctx context.Context, userID string, at time.Time, credits int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.balanceAt(userID, at)
	if b == nil {
		return 0, store.ErrNotFound
	}
	b.RemainingCredits -= credits
	if b.RemainingCredits < 0 {
		b.RemainingCredits = 0
	}
	return b.RemainingCredits, nil
}

// InsertUsage appends a usage record.
func (s *Store) InsertUsage(ctx context.Context, rec model.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.id()
	s.usage = append(s.usage, rec)
	return nil
}

// Usage returns every recorded usage entry for userID.
func (s *Store) Usage(userID string) []model.UsageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.UsageRecord
	for _, rec := range s.usage {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}

func (s *Store) balanceAt(userID string, at time.Time) *model.CreditBalance {
	for _, b := range s.balances[userID] {
		if b.Covers(at) {
			return b
		}
	}
	return nil
}

func sortByActivity(convs []model.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		ai, aj := convs[i].LastActivity(), convs[j].LastActivity()
		if ai.Equal(aj) {
			return convs[i].ID > convs[j].ID
		}
		return ai.After(aj)
	})
}

func copyConversation(c *model.Conversation) model.Conversation {
	out := *c
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		out.UpdatedAt = &t
	}
	if c.StoppedAt != nil {
		t := *c.StoppedAt
		out.StoppedAt = &t
	}
	if c.StoppedReason != nil {
		r := *c.StoppedReason
		out.StoppedReason = &r
	}
	return out
}

func copyPreferences(p *model.AiPreferences) model.AiPreferences {
	out := *p
	out.ExampleMessages = append([]string{}, p.ExampleMessages...)
	return out
}
