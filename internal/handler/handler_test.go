package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/prospecting-platform/internal/billing"
	"github.com/capitalize-ai/prospecting-platform/internal/copywriter"
	"github.com/capitalize-ai/prospecting-platform/internal/enrichment"
	"github.com/capitalize-ai/prospecting-platform/internal/llm/llmtest"
	"github.com/capitalize-ai/prospecting-platform/internal/middleware"
	"github.com/capitalize-ai/prospecting-platform/internal/model"
	natsclient "github.com/capitalize-ai/prospecting-platform/internal/nats"
	"github.com/capitalize-ai/prospecting-platform/internal/preferences"
	"github.com/capitalize-ai/prospecting-platform/internal/service"
	"github.com/capitalize-ai/prospecting-platform/internal/store/memstore"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

const testSecret = "handler-secret"

type testAPI struct {
	router http.Handler
	store  *memstore.Store
	client *llmtest.Client
}

func newTestAPI(t *testing.T, allowance int64, client *llmtest.Client) *testAPI {
	t.Helper()
	return newTestAPIWithProvider(t, allowance, client, nil)
}

func newTestAPIWithProvider(t *testing.T, allowance int64, client *llmtest.Client, provider enrichment.Provider) *testAPI {
	t.Helper()
	log := logger.NewNop()
	st := memstore.New()

	ledger := billing.NewLedger(st, billing.Config{MonthlyAllowance: allowance, TokensPerCredit: 1000}, log)
	prefs := preferences.NewService(st, log)
	analyzer := copywriter.NewAnalyzer(client, copywriter.Options{}, log)
	orch := service.NewDraftOrchestrator(st, analyzer, ledger, prefs, natsclient.NoopPublisher{}, log).
		WithDrafter(copywriter.NewDrafter(client, copywriter.Options{}, log))

	h := Handlers{
		Health:        NewHealthHandler(map[string]Pinger{"store": st}),
		Conversations: NewConversationHandler(service.NewConversationService(st, orch, log), log),
		Messages:      NewMessageHandler(service.NewMessageService(st, orch, nil, log), log),
		Preferences:   NewPreferencesHandler(prefs, log),
		Contacts:      NewContactHandler(service.NewContactService(st, provider, log), log),
		Account:       NewAccountHandler(ledger, log),
	}

	return &testAPI{
		router: NewRouter(h, RouterConfig{JWTSecret: testSecret}, log),
		store:  st,
		client: client,
	}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:  "Bob Seller",
		Email: "bob@example.com",
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (a *testAPI) do(t *testing.T, userID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) createContact(t *testing.T, userID string) model.Contact {
	t.Helper()
	rec := a.do(t, userID, http.MethodPost, "/api/v1/contacts", map[string]any{
		"firstName": "Alice",
		"lastName":  "Smith",
		"jobTitle":  "CTO",
		"company":   "Acme",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Contact](t, rec)
}

type createResponse struct {
	Conversation model.ConversationView `json:"conversation"`
	FirstMessage *model.DraftOutcome    `json:"firstMessage"`
	Error        string                 `json:"error"`
}

func TestAPI_RequiresAuth(t *testing.T) {
	api := newTestAPI(t, 10, llmtest.New())
	rec := api.do(t, "", http.MethodGet, "/api/v1/conversations", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_ConversationLifecycle(t *testing.T) {
	api := newTestAPI(t, 10, llmtest.New(
		llmtest.Decision("continue", "", "Hi Alice, saw Acme is growing."),
		llmtest.Decision("stop", "positive_outcome", "Great, see you Tuesday!"),
	))
	contact := api.createContact(t, "u1")

	rec := api.do(t, "u1", http.MethodPost, "/api/v1/conversations", map[string]any{
		"contactId":      contact.ID,
		"sellingContext": "Selling SaaS",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[createResponse](t, rec)
	require.NotNil(t, created.FirstMessage)
	assert.Equal(t, "Hi Alice, saw Acme is growing.", created.FirstMessage.Content)
	assert.Equal(t, model.StateActive, created.Conversation.State)
	convPath := fmt.Sprintf("/api/v1/conversations/%d", created.Conversation.ID)

	rec = api.do(t, "u1", http.MethodPost, convPath+"/messages", map[string]any{"role": "contact", "content": "Sure, let's talk"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, model.RoleContact, decode[model.Message](t, rec).Role)

	rec = api.do(t, "u1", http.MethodPost, convPath+"/messages", map[string]any{"role": "prospect"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	outcome := decode[model.DraftOutcome](t, rec)
	assert.True(t, outcome.Stopped)
	require.NotNil(t, outcome.StoppedReason)
	assert.Equal(t, model.StopReasonPositiveOutcome, *outcome.StoppedReason)

	rec = api.do(t, "u1", http.MethodGet, convPath+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode[model.ListMessagesResponse](t, rec).Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, []model.Role{model.RoleProspect, model.RoleContact, model.RoleProspect},
		[]model.Role{msgs[0].Role, msgs[1].Role, msgs[2].Role})

	rec = api.do(t, "u1", http.MethodGet, convPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StateStopped, decode[model.ConversationView](t, rec).State)

	rec = api.do(t, "u1", http.MethodPost, convPath+"/messages", map[string]any{"role": "prospect"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 2, api.client.Calls())

	rec = api.do(t, "intruder", http.MethodGet, convPath+"/messages", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_CreateWithoutCredits(t *testing.T) {
	api := newTestAPI(t, 1, llmtest.New(llmtest.Decision("continue", "", "Hi Alice")))
	contact := api.createContact(t, "u1")

	rec := api.do(t, "u1", http.MethodPost, "/api/v1/conversations", map[string]any{"contactId": contact.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, "u1", http.MethodPost, "/api/v1/conversations", map[string]any{"contactId": contact.ID})
	require.Equal(t, http.StatusPaymentRequired, rec.Code, rec.Body.String())
	resp := decode[createResponse](t, rec)
	assert.Equal(t, "insufficient credits", resp.Error)
	assert.NotZero(t, resp.Conversation.ID)
	assert.Equal(t, 1, api.client.Calls())

	rec = api.do(t, "u1", http.MethodGet, "/api/v1/conversations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[model.ListConversationsResponse](t, rec).Total)

	rec = api.do(t, "u1", http.MethodGet, "/api/v1/credits", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[model.CreditBalance](t, rec).RemainingCredits)
}

func TestAPI_PreviewDoesNotSave(t *testing.T) {
	api := newTestAPI(t, 10, llmtest.New(
		llmtest.Decision("continue", "", "Hi Alice"),
		llmtest.Text("Alternative opener for Alice", 300, 40),
	))
	contact := api.createContact(t, "u1")

	rec := api.do(t, "u1", http.MethodPost, "/api/v1/conversations", map[string]any{"contactId": contact.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	convID := decode[createResponse](t, rec).Conversation.ID

	rec = api.do(t, "u1", http.MethodPost, fmt.Sprintf("/api/v1/conversations/%d/messages/preview", convID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.DraftPreview{Content: "Alternative opener for Alice"}, decode[model.DraftPreview](t, rec))

	rec = api.do(t, "u1", http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d/messages", convID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[model.ListMessagesResponse](t, rec).Messages, 1)

	rec = api.do(t, "u1", http.MethodGet, "/api/v1/credits", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(8), decode[model.CreditBalance](t, rec).RemainingCredits)
}

func TestAPI_CreateValidation(t *testing.T) {
	api := newTestAPI(t, 10, llmtest.New())

	rec := api.do(t, "u1", http.MethodPost, "/api/v1/conversations", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "contactId")

	rec = api.do(t, "u1", http.MethodPost, "/api/v1/conversations", map[string]any{"contactId": 404})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, "u1", http.MethodGet, "/api/v1/conversations/abc/messages", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "u1", http.MethodPost, "/api/v1/conversations/1/messages", map[string]any{"role": "contact"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, api.client.Calls())
}

func TestAPI_Preferences(t *testing.T) {
	api := newTestAPI(t, 10, llmtest.New())

	rec := api.do(t, "u1", http.MethodGet, "/api/v1/ai-preferences", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.DefaultToneOfVoice, decode[map[string]any](t, rec)["effectiveToneOfVoice"])

	tooMany := make([]string, 11)
	for i := range tooMany {
		tooMany[i] = "example"
	}
	rec = api.do(t, "u1", http.MethodPut, "/api/v1/ai-preferences", map[string]any{"exampleMessages": tooMany})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "exampleMessages")

	rec = api.do(t, "u1", http.MethodPut, "/api/v1/ai-preferences", map[string]any{
		"companyKnowledge": "We sell a CRM.",
		"toneOfVoice":      "Casual",
		"exampleMessages":  tooMany[:10],
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Casual", body["effectiveToneOfVoice"])
	assert.Len(t, body["exampleMessages"], 10)

	rec = api.do(t, "u1", http.MethodPost, "/api/v1/onboarding/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, "u1", http.MethodGet, "/api/v1/onboarding/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.OnboardingState{Completed: true, HasCompanyKnowledge: true}, decode[model.OnboardingState](t, rec))
}

func TestAPI_ContactsAndMe(t *testing.T) {
	api := newTestAPI(t, 10, llmtest.New())
	contact := api.createContact(t, "u1")

	rec := api.do(t, "u1", http.MethodGet, fmt.Sprintf("/api/v1/contacts/%d", contact.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", decode[model.Contact](t, rec).FirstName)

	rec = api.do(t, "u2", http.MethodGet, fmt.Sprintf("/api/v1/contacts/%d", contact.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, "u1", http.MethodPost, "/api/v1/contacts/linkedin-preview", map[string]any{"url": "https://www.linkedin.com/in/alice"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = api.do(t, "u1", http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, middleware.User{ID: "u1", Name: "Bob Seller", Email: "bob@example.com"}, decode[middleware.User](t, rec))
}

type profileProvider struct {
	result *enrichment.Result
	err    error
}

func (p profileProvider) FetchProfile(context.Context, string) (*enrichment.Result, error) {
	return p.result, p.err
}

func TestAPI_LinkedInImportIsIdempotent(t *testing.T) {
	api := newTestAPIWithProvider(t, 10, llmtest.New(), profileProvider{result: &enrichment.Result{
		Profile: enrichment.Profile{
			ProviderID:  "ACoAA",
			FirstName:   "Alice",
			LastName:    "Smith",
			LinkedInURL: "https://www.linkedin.com/in/alice",
		},
	}})
	body := map[string]any{"url": "https://www.linkedin.com/in/alice"}

	rec := api.do(t, "u1", http.MethodPost, "/api/v1/contacts/linkedin-preview", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"existingContact":null`)

	rec = api.do(t, "u1", http.MethodPost, "/api/v1/contacts/import", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[model.Contact](t, rec)

	rec = api.do(t, "u1", http.MethodPost, "/api/v1/contacts/import", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, first.ID, decode[model.Contact](t, rec).ID)

	rec = api.do(t, "u1", http.MethodPost, "/api/v1/contacts/linkedin-preview", body)
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode[struct {
		Profile         enrichment.Profile    `json:"profile"`
		ExistingContact *model.ContactSummary `json:"existingContact"`
	}](t, rec)
	assert.Equal(t, "ACoAA", preview.Profile.ProviderID)
	assert.Equal(t, &model.ContactSummary{ID: first.ID, FirstName: "Alice", LastName: "Smith"}, preview.ExistingContact)

	rec = api.do(t, "u1", http.MethodGet, "/api/v1/contacts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[model.ListContactsResponse](t, rec).Total)
}

func TestAPI_LinkedInErrorStatus(t *testing.T) {
	tests := []struct {
		code enrichment.ErrorCode
		want int
	}{
		{code: enrichment.CodeInvalidURL, want: http.StatusBadRequest},
		{code: enrichment.CodeProfileNotFound, want: http.StatusUnprocessableEntity},
		{code: enrichment.CodePrivateProfile, want: http.StatusUnprocessableEntity},
		{code: enrichment.CodeAPIError, want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			api := newTestAPIWithProvider(t, 10, llmtest.New(), profileProvider{
				err: &enrichment.Error{Code: tt.code, Message: "lookup failed"},
			})
			rec := api.do(t, "u1", http.MethodPost, "/api/v1/contacts/import", map[string]any{"url": "https://www.linkedin.com/in/alice"})
			assert.Equal(t, tt.want, rec.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"error":"lookup failed","code":%q}`, tt.code), rec.Body.String())
		})
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func TestHealth(t *testing.T) {
	api := newTestAPI(t, 10, llmtest.New())

	rec := api.do(t, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, "", http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	h := NewHealthHandler(map[string]Pinger{"nats": failingPinger{}, "unused": nil})
	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "nats unavailable")
}
