package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

const secret = "test-secret"

func signToken(t *testing.T, claims Claims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:  "Bob Seller",
		Email: "bob@example.com",
	}
}

func TestAuth(t *testing.T) {
	var seen User
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUser(r.Context())
		assert.Equal(t, "user-1", GetUserID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}))

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer " + signToken(t, validClaims(), secret), want: http.StatusNoContent},
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + signToken(t, validClaims(), "other"), want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signToken(t, expired, secret), want: http.StatusUnauthorized},
		{name: "no subject", header: "Bearer " + signToken(t, noSubject, secret), want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Equal(t, User{ID: "user-1", Name: "Bob Seller", Email: "bob@example.com"}, seen)
}

func TestLogging_CorrelationID(t *testing.T) {
	var inner string
	handler := Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "corr-123", inner)
	assert.Equal(t, "corr-123", rec.Header().Get("X-Correlation-ID"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestUserRateLimit(t *testing.T) {
	handler := UserRateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUser(req.Context(), User{ID: user}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))
	assert.Equal(t, http.StatusOK, do("b"))
}

func TestRateLimit_PerIP(t *testing.T) {
	handler := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	limited := do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded","retry_after":60}`, limited.Body.String())
	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code)
}

func TestValidate_SendMessageRequest(t *testing.T) {
	assert.NoError(t, Validate(&model.SendMessageRequest{Role: model.RoleProspect}))
	assert.NoError(t, Validate(&model.SendMessageRequest{Role: model.RoleContact, Content: "Thanks!"}))

	err := Validate(&model.SendMessageRequest{Role: model.RoleContact})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"content": "is required"}, FieldErrors(err))

	err = Validate(&model.SendMessageRequest{Role: "salesperson"})
	require.Error(t, err)
	assert.Equal(t, "must be one of: prospect contact", FieldErrors(err)["role"])
}

func TestValidate_CreateConversationRequest(t *testing.T) {
	err := Validate(&model.CreateConversationRequest{})
	require.Error(t, err)
	assert.Contains(t, FieldErrors(err), "contactId")

	assert.Nil(t, FieldErrors(assert.AnError))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := ParseID(raw)
		assert.Error(t, err, raw)
	}
}
