package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/store"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func TestConversation_OwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()

	convA, err := s.Create(ctx, "owner-a", model.ConversationCreateInput{ContactID: 1, SellingContext: "A"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "owner-b", model.ConversationCreateInput{ContactID: 2})
	require.NoError(t, err)

	_, err = s.GetByID(ctx, convA.ID, "owner-b")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetByID(ctx, convA.ID, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, "A", got.SellingContext)

	listB, err := s.List(ctx, "owner-b")
	require.NoError(t, err)
	require.Len(t, listB, 1)
	assert.NotEqual(t, convA.ID, listB[0].ID)

	assert.ErrorIs(t, s.Touch(ctx, convA.ID, "owner-b"), store.ErrNotFound)
}

func TestConversation_CreateStartsActive(t *testing.T) {
	s := New()
	conv, err := s.Create(context.Background(), "owner", model.ConversationCreateInput{ContactID: 7})
	require.NoError(t, err)

	assert.Nil(t, conv.StoppedAt)
	assert.Nil(t, conv.StoppedReason)
	assert.Nil(t, conv.UpdatedAt)
	assert.Equal(t, model.StateActive, conv.State())
}

func TestConversation_Stop(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := New(WithClock(clock.Now))

	conv, err := s.Create(ctx, "owner", model.ConversationCreateInput{ContactID: 1})
	require.NoError(t, err)

	require.NoError(t, s.Stop(ctx, conv.ID, model.StopReasonNegativeOutcome))
	got, err := s.GetByID(ctx, conv.ID, "owner")
	require.NoError(t, err)
	require.NotNil(t, got.StoppedAt)
	require.NotNil(t, got.StoppedReason)
	assert.Equal(t, model.StopReasonNegativeOutcome, *got.StoppedReason)
	assert.Equal(t, clock.Now(), *got.StoppedAt)

	clock.Advance(time.Minute)
	require.NoError(t, s.Stop(ctx, conv.ID, model.StopReasonPositiveOutcome))
	got, err = s.GetByID(ctx, conv.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, model.StopReasonPositiveOutcome, *got.StoppedReason)
	assert.Equal(t, clock.Now(), *got.StoppedAt)
}

func TestConversation_ListOrderedByActivity(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := New(WithClock(clock.Now))

	first, _ := s.Create(ctx, "owner", model.ConversationCreateInput{ContactID: 1})
	clock.Advance(time.Minute)
	second, _ := s.Create(ctx, "owner", model.ConversationCreateInput{ContactID: 2})
	clock.Advance(time.Minute)
	third, _ := s.Create(ctx, "owner", model.ConversationCreateInput{ContactID: 3})

	clock.Advance(time.Minute)
	require.NoError(t, s.Touch(ctx, first.ID, "owner"))

	convs, err := s.List(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, convs, 3)
	assert.Equal(t, []int64{first.ID, third.ID, second.ID}, []int64{convs[0].ID, convs[1].ID, convs[2].ID})
}

func TestConversation_FindByContact(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := New(WithClock(clock.Now))

	_, _ = s.Create(ctx, "owner", model.ConversationCreateInput{ContactID: 5})
	clock.Advance(time.Minute)
	latest, _ := s.Create(ctx, "owner", model.ConversationCreateInput{ContactID: 5})

	got, err := s.FindByContact(ctx, 5, "owner")
	require.NoError(t, err)
	assert.Equal(t, latest.ID, got.ID)

	_, err = s.FindByContact(ctx, 5, "someone-else")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMessages_AppendOnlyOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()

	conv, _ := s.Create(ctx, "owner", model.ConversationCreateInput{ContactID: 1})
	other, _ := s.Create(ctx, "owner", model.ConversationCreateInput{ContactID: 2})

	m1, err := s.AddMessage(ctx, model.MessageCreateInput{ConversationID: conv.ID, Role: model.RoleProspect, Content: "m1"})
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, model.MessageCreateInput{ConversationID: other.ID, Role: model.RoleProspect, Content: "elsewhere"})
	require.NoError(t, err)
	m2, _ := s.AddMessage(ctx, model.MessageCreateInput{ConversationID: conv.ID, Role: model.RoleContact, Content: "m2"})
	m3, _ := s.AddMessage(ctx, model.MessageCreateInput{ConversationID: conv.ID, Role: model.RoleProspect, Content: "m3"})

	msgs, err := s.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Message{*m1, *m2, *m3}, msgs)

	empty, err := s.GetMessages(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPreferences_PartialUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetPreferences(ctx, "user")
	assert.ErrorIs(t, err, store.ErrNotFound)

	knowledge := "We sell CRM software"
	examples := []string{"one", "two"}
	_, err = s.UpsertPreferences(ctx, "user", model.AiPreferencesInput{
		CompanyKnowledge: &knowledge,
		ExampleMessages:  &examples,
	})
	require.NoError(t, err)

	tone := "Casual"
	got, err := s.UpsertPreferences(ctx, "user", model.AiPreferencesInput{ToneOfVoice: &tone})
	require.NoError(t, err)
	require.NotNil(t, got.CompanyKnowledge)
	assert.Equal(t, knowledge, *got.CompanyKnowledge)
	assert.Equal(t, examples, got.ExampleMessages)
	assert.Equal(t, tone, *got.ToneOfVoice)
	assert.NotNil(t, got.UpdatedAt)
}

func TestCredits_DebitFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := New(WithClock(clock.Now))

	start := clock.Now()
	_, err := s.CreateBalance(ctx, model.CreditBalance{
		UserID:           "user",
		RemainingCredits: 3,
		MonthlyAllowance: 3,
		PeriodStart:      start,
		PeriodEnd:        start.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	remaining, err := s.Debit(ctx, "user", start, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)

	remaining, err = s.Debit(ctx, "user", start, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)

	_, err = s.GetBalance(ctx, "user", start.AddDate(0, 2, 0))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestContacts_FindByLinkedInProviderID(t *testing.T) {
	ctx := context.Background()
	s := New()

	providerID := "ACoAA"
	_, err := s.FindContactByLinkedInProviderID(ctx, providerID, "owner-a")
	assert.ErrorIs(t, err, store.ErrNotFound)

	created, err := s.CreateContact(ctx, "owner-a", model.CreateContactRequest{
		FirstName:          "Alice",
		LastName:           "Smith",
		LinkedInProviderID: &providerID,
	})
	require.NoError(t, err)

	got, err := s.FindContactByLinkedInProviderID(ctx, providerID, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = s.FindContactByLinkedInProviderID(ctx, providerID, "owner-b")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
