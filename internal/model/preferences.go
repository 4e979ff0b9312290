package model

import "time"

// DefaultToneOfVoice is used when a user has not set their own tone.
const DefaultToneOfVoice = "Professional yet approachable. Clear and concise. " +
	"Focus on demonstrating value to the prospect without being pushy. " +
	"Use natural language, avoid jargon."

// MaxExampleMessages caps the number of stored example messages.
const MaxExampleMessages = 10

// AiPreferences is a user's AI persona configuration. One per user.
type AiPreferences struct {
	UserID              string     `json:"userId"`
	CompanyKnowledge    *string    `json:"companyKnowledge"`
	ToneOfVoice         *string    `json:"toneOfVoice"`
	ExampleMessages     []string   `json:"exampleMessages"`
	Signature           *string    `json:"signature"`
	OnboardingCompleted bool       `json:"onboardingCompleted"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           *time.Time `json:"updatedAt"`
}

// AiPreferencesInput is a partial update. Nil fields are left unchanged.
type AiPreferencesInput struct {
	CompanyKnowledge    *string   `json:"companyKnowledge" validate:"omitempty,max=20000"`
	ToneOfVoice         *string   `json:"toneOfVoice" validate:"omitempty,max=2000"`
	ExampleMessages     *[]string `json:"exampleMessages"`
	Signature           *string   `json:"signature" validate:"omitempty,max=2000"`
	OnboardingCompleted *bool     `json:"onboardingCompleted"`
}

// EffectiveToneOfVoice returns the user's tone, or the default when unset.
func EffectiveToneOfVoice(prefs *AiPreferences) string {
	if prefs != nil && prefs.ToneOfVoice != nil {
		return *prefs.ToneOfVoice
	}
	return DefaultToneOfVoice
}

// OnboardingState reports the onboarding progress for a user.
type OnboardingState struct {
	Completed           bool `json:"completed"`
	HasCompanyKnowledge bool `json:"hasCompanyKnowledge"`
}
