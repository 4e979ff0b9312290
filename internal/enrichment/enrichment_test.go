package enrichment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

func TestParseUsername(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://www.linkedin.com/in/alice-smith", want: "alice-smith"},
		{url: "https://linkedin.com/in/alice-smith/", want: "alice-smith"},
		{url: "linkedin.com/in/alice?trk=abc", want: "alice"},
		{url: "https://www.LinkedIn.com/pub/bob#about", want: "bob"},
		{url: "https://www.linkedin.com/company/acme", wantErr: true},
		{url: "https://example.com/in/alice", wantErr: true},
		{url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := ParseUsername(tt.url)
			if tt.wantErr {
				var enrichErr *Error
				require.ErrorAs(t, err, &enrichErr)
				assert.Equal(t, CodeInvalidURL, enrichErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestUnipile(t *testing.T, handler http.HandlerFunc) *Unipile {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := NewUnipile(UnipileConfig{BaseURL: srv.URL, APIKey: "key", AccountID: "acc"}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = u.Close() })
	return u
}

func TestNewUnipile_RequiresConfig(t *testing.T) {
	_, err := NewUnipile(UnipileConfig{BaseURL: "api1.unipile.com:13111"}, logger.NewNop())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestUnipile_FetchProfile(t *testing.T) {
	u := newTestUnipile(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "acc", r.URL.Query().Get("account_id"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/users/alice-smith":
			_, _ = w.Write([]byte(`{
				"provider_id": "ACoAA",
				"first_name": "Alice",
				"last_name": "Smith",
				"headline": "Building things",
				"public_identifier": "alice-smith",
				"specifics": {"occupation": "Engineer", "current_positions": [{"title": "CTO", "company_name": "Acme"}]}
			}`))
		case "/api/v1/linkedin/company/Acme":
			_, _ = w.Write([]byte(`{"provider_id": "123", "name": "Acme Inc", "industry": "Software", "public_identifier": "acme"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	res, err := u.FetchProfile(context.Background(), "https://www.linkedin.com/in/alice-smith/")
	require.NoError(t, err)

	assert.Equal(t, "ACoAA", res.Profile.ProviderID)
	assert.Equal(t, "Alice", res.Profile.FirstName)
	assert.Equal(t, "https://www.linkedin.com/in/alice-smith", res.Profile.LinkedInURL)
	require.NotNil(t, res.Profile.CurrentJobTitle)
	assert.Equal(t, "CTO", *res.Profile.CurrentJobTitle)

	require.NotNil(t, res.Company)
	assert.Equal(t, "Acme Inc", res.Company.Name)
	require.NotNil(t, res.Company.LinkedInURL)
	assert.Equal(t, "https://www.linkedin.com/company/acme", *res.Company.LinkedInURL)
}

func TestUnipile_CompanyFailureDegrades(t *testing.T) {
	u := newTestUnipile(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/users/bob" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"provider_id": "B1", "first_name": "Bob", "specifics": {"current_positions": [{"company_name": "Globex"}]}}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	res, err := u.FetchProfile(context.Background(), "https://linkedin.com/in/bob")
	require.NoError(t, err)
	assert.Equal(t, &Company{Name: "Globex"}, res.Company)
	assert.Nil(t, res.Profile.CurrentJobTitle)
}

func TestUnipile_ErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorCode
	}{
		{name: "not found", status: http.StatusNotFound, body: `{}`, want: CodeProfileNotFound},
		{name: "private", status: http.StatusOK, body: `{"first_name": "Hidden"}`, want: CodePrivateProfile},
		{name: "upstream failure", status: http.StatusBadGateway, body: `oops`, want: CodeAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUnipile(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := u.FetchProfile(context.Background(), "https://linkedin.com/in/someone")
			var enrichErr *Error
			require.True(t, errors.As(err, &enrichErr), "got %v", err)
			assert.Equal(t, tt.want, enrichErr.Code)
		})
	}
}
