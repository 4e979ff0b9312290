// Package enrichment looks up LinkedIn profiles so contacts can be imported
// from a profile URL.
package enrichment

import (
	"context"
	"fmt"
	"regexp"
)

// ErrorCode classifies enrichment failures.
type ErrorCode string

const (
	CodeInvalidURL      ErrorCode = "INVALID_URL"
	CodeProfileNotFound ErrorCode = "PROFILE_NOT_FOUND"
	CodePrivateProfile  ErrorCode = "PRIVATE_PROFILE"
	CodeAPIError        ErrorCode = "API_ERROR"
)

// Error is returned by providers. Message is safe to show to users.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Profile is the person part of an enrichment result.
type Profile struct {
	ProviderID      string  `json:"providerId"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Headline        *string `json:"headline"`
	LinkedInURL     string  `json:"linkedinUrl"`
	CurrentJobTitle *string `json:"currentJobTitle"`
}

// Company is the employer of the profile, when known.
type Company struct {
	ProviderID  *string `json:"providerId"`
	Name        string  `json:"name"`
	Industry    *string `json:"industry"`
	Size        *string `json:"size"`
	Website     *string `json:"website"`
	LinkedInURL *string `json:"linkedinUrl"`
}

// Result is a fetched profile with its optional company.
type Result struct {
	Profile Profile  `json:"profile"`
	Company *Company `json:"company"`
}

// Provider fetches LinkedIn data for a profile URL.
type Provider interface {
	FetchProfile(ctx context.Context, linkedinURL string) (*Result, error)
}

var usernamePattern = regexp.MustCompile(`(?i)linkedin\.com/(?:in|pub)/([^/?#]+)`)

// ParseUsername extracts the public identifier from a profile URL.
func ParseUsername(linkedinURL string) (string, error) {
	m := usernamePattern.FindStringSubmatch(linkedinURL)
	if m == nil || m[1] == "" {
		return "", &Error{Code: CodeInvalidURL, Message: "Please enter a valid LinkedIn profile URL"}
	}
	return m[1], nil
}

// ProfileURL returns the canonical profile URL for a username.
func ProfileURL(username string) string {
	return "https://www.linkedin.com/in/" + username
}
