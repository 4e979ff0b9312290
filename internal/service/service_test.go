package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/prospecting-platform/internal/billing"
	"github.com/capitalize-ai/prospecting-platform/internal/copywriter"
	"github.com/capitalize-ai/prospecting-platform/internal/llm/llmtest"
	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/preferences"
	"github.com/capitalize-ai/prospecting-platform/internal/store/memstore"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

const owner = "user-1"

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*model.Message
	events   []*model.OutreachEvent
}

func (p *recordingPublisher) PublishMessage(_ context.Context, _ string, msg *model.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) PublishEvent(_ context.Context, event *model.OutreachEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// stubLedger lets tests control the credit gate and usage recording.
type stubLedger struct {
	mu        sync.Mutex
	noCredits bool
	recordErr error
	recorded  []model.TokenUsage
}

func (l *stubLedger) CheckCredits(context.Context, string) (*model.CreditStatus, error) {
	if l.noCredits {
		return &model.CreditStatus{HasCredits: false}, nil
	}
	return &model.CreditStatus{HasCredits: true, RemainingCredits: 10}, nil
}

func (l *stubLedger) RecordUsage(_ context.Context, _ string, in, out int64, m string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recorded = append(l.recorded, model.TokenUsage{InputTokens: in, OutputTokens: out, Model: m})
	return l.recordErr
}

type fixture struct {
	store     *memstore.Store
	client    *llmtest.Client
	ledger    CreditLedger
	publisher *recordingPublisher
	prefs     *preferences.Service
	orch      *DraftOrchestrator
	convs     *ConversationService
	messages  *MessageService
}

func newFixture(t *testing.T, ledger CreditLedger, client *llmtest.Client) *fixture {
	t.Helper()
	log := logger.NewNop()
	st := memstore.New()
	if ledger == nil {
		ledger = billing.NewLedger(st, billing.Config{MonthlyAllowance: 100, TokensPerCredit: 1000}, log)
	}
	pub := &recordingPublisher{}
	prefs := preferences.NewService(st, log)
	orch := NewDraftOrchestrator(st, copywriter.NewAnalyzer(client, copywriter.Options{}, log), ledger, prefs, pub, log).
		WithDrafter(copywriter.NewDrafter(client, copywriter.Options{}, log))

	return &fixture{
		store:     st,
		client:    client,
		ledger:    ledger,
		publisher: pub,
		prefs:     prefs,
		orch:      orch,
		convs:     NewConversationService(st, orch, log),
		messages:  NewMessageService(st, orch, pub, log),
	}
}

func (f *fixture) aliceConversation(t *testing.T, ownerID string) *model.Conversation {
	t.Helper()
	ctx := context.Background()
	title, company := "CTO", "Acme"
	contact, err := f.store.CreateContact(ctx, ownerID, model.CreateContactRequest{
		FirstName: "Alice",
		LastName:  "Smith",
		JobTitle:  &title,
		Company:   &company,
	})
	require.NoError(t, err)

	conv, err := f.store.Create(ctx, ownerID, model.ConversationCreateInput{
		ContactID:      contact.ID,
		SellingContext: "Selling SaaS",
	})
	require.NoError(t, err)
	return conv
}

func (f *fixture) addMessages(t *testing.T, convID int64, roles ...model.Role) {
	t.Helper()
	for i, role := range roles {
		_, err := f.store.AddMessage(context.Background(), model.MessageCreateInput{
			ConversationID: convID,
			Role:           role,
			Content:        string(role) + " message " + string(rune('A'+i)),
		})
		require.NoError(t, err)
	}
}

var errLedgerDown = errors.New("ledger unavailable")
