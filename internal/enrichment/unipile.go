package enrichment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

// UnipileConfig configures the Unipile adapter.
type UnipileConfig struct {
	// BaseURL is https://<dsn>. The DSN alone is accepted too.
	BaseURL   string
	APIKey    string
	AccountID string
	Timeout   time.Duration
}

// Unipile fetches profiles through the Unipile LinkedIn API.
type Unipile struct {
	client    *resty.Client
	accountID string
	logger    *logger.Logger
}

var _ Provider = (*Unipile)(nil)

// ErrNotConfigured is returned when Unipile credentials are missing.
var ErrNotConfigured = errors.New("unipile is not configured: set UNIPILE_API_KEY, UNIPILE_DSN and UNIPILE_LINKEDIN_ACCOUNT_ID")

// NewUnipile creates a Unipile adapter.
func NewUnipile(cfg UnipileConfig, log *logger.Logger) (*Unipile, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" || cfg.AccountID == "" {
		return nil, ErrNotConfigured
	}
	base := cfg.BaseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetHeader("X-API-KEY", cfg.APIKey).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Unipile{client: client, accountID: cfg.AccountID, logger: log}, nil
}

// Close releases the underlying HTTP client.
func (u *Unipile) Close() error {
	return u.client.Close()
}

type unipileProfile struct {
	ProviderID       string  `json:"provider_id"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Headline         *string `json:"headline"`
	PublicIdentifier string  `json:"public_identifier"`
	Specifics        struct {
		Occupation       *string `json:"occupation"`
		CurrentPositions []struct {
			Title       *string `json:"title"`
			CompanyName string  `json:"company_name"`
			CompanyID   string  `json:"company_id"`
		} `json:"current_positions"`
	} `json:"specifics"`
}

type unipileCompany struct {
	ProviderID       *string `json:"provider_id"`
	Name             string  `json:"name"`
	Industry         *string `json:"industry"`
	StaffCountRange  *string `json:"staff_count_range"`
	Website          *string `json:"website"`
	PublicIdentifier string  `json:"public_identifier"`
}

// FetchProfile looks up a profile and its current employer.
// A failed company lookup degrades to a name-only company.
func (u *Unipile) FetchProfile(ctx context.Context, linkedinURL string) (*Result, error) {
	username, err := ParseUsername(linkedinURL)
	if err != nil {
		return nil, err
	}

	var profile unipileProfile
	resp, err := u.client.R().
		SetContext(ctx).
		SetPathParam("identifier", username).
		SetQueryParam("account_id", u.accountID).
		SetResult(&profile).
		Get("/api/v1/users/{identifier}")
	if err != nil {
		return nil, &Error{Code: CodeAPIError, Message: "Unable to fetch LinkedIn data. Please try again.", Err: err}
	}
	if resp.IsError() {
		if resp.StatusCode() == http.StatusNotFound {
			return nil, &Error{Code: CodeProfileNotFound, Message: "Profile not found. Please check the LinkedIn URL."}
		}
		u.logger.Warn("unipile profile lookup failed",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return nil, &Error{Code: CodeAPIError, Message: "Unable to fetch LinkedIn data. Please try again."}
	}
	if profile.ProviderID == "" {
		return nil, &Error{Code: CodePrivateProfile, Message: "Unable to fetch profile. The profile may be private."}
	}

	identifier := profile.PublicIdentifier
	if identifier == "" {
		identifier = username
	}
	result := &Result{
		Profile: Profile{
			ProviderID:      profile.ProviderID,
			FirstName:       profile.FirstName,
			LastName:        profile.LastName,
			Headline:        profile.Headline,
			LinkedInURL:     ProfileURL(identifier),
			CurrentJobTitle: profile.Specifics.Occupation,
		},
	}

	if len(profile.Specifics.CurrentPositions) == 0 {
		return result, nil
	}
	position := profile.Specifics.CurrentPositions[0]
	if position.Title != nil {
		result.Profile.CurrentJobTitle = position.Title
	}
	if position.CompanyName != "" {
		result.Company = u.fetchCompany(ctx, position.CompanyName)
	}

	return result, nil
}

func (u *Unipile) fetchCompany(ctx context.Context, name string) *Company {
	fallback := &Company{Name: name}

	var company unipileCompany
	resp, err := u.client.R().
		SetContext(ctx).
		SetPathParam("identifier", name).
		SetQueryParam("account_id", u.accountID).
		SetResult(&company).
		Get("/api/v1/linkedin/company/{identifier}")
	if err != nil || resp.IsError() {
		u.logger.Debug("unipile company lookup failed, using name only", zap.String("company", name), zap.Error(err))
		return fallback
	}

	out := &Company{
		ProviderID: company.ProviderID,
		Name:       company.Name,
		Industry:   company.Industry,
		Size:       company.StaffCountRange,
		Website:    company.Website,
	}
	if out.Name == "" {
		out.Name = name
	}
	if company.PublicIdentifier != "" {
		url := "https://www.linkedin.com/company/" + company.PublicIdentifier
		out.LinkedInURL = &url
	}
	return out
}
