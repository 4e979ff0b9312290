// Package preferences manages each user's AI persona settings and onboarding state.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/store"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

// ErrTooManyExampleMessages is returned when an update carries more than
// model.MaxExampleMessages examples.
var ErrTooManyExampleMessages = fmt.Errorf("at most %d example messages are allowed", model.MaxExampleMessages)

// Service reads and writes AI preferences.
type Service struct {
	store  store.PreferencesStore
	logger *logger.Logger
}

// NewService creates a preferences service.
func NewService(st store.PreferencesStore, log *logger.Logger) *Service {
	return &Service{store: st, logger: log}
}

// Get returns the user's preferences, or nil when none are stored.
func (s *Service) Get(ctx context.Context, userID string) (*model.AiPreferences, error) {
	prefs, err := s.store.GetPreferences(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return prefs, nil
}

// Upsert applies a partial update.
func (s *Service) Upsert(ctx context.Context, userID string, in model.AiPreferencesInput) (*model.AiPreferences, error) {
	if in.ExampleMessages != nil && len(*in.ExampleMessages) > model.MaxExampleMessages {
		return nil, ErrTooManyExampleMessages
	}

	prefs, err := s.store.UpsertPreferences(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}

	s.logger.Info("ai preferences updated", zap.String("user_id", userID))
	return prefs, nil
}

// CompleteOnboarding marks onboarding as done.
func (s *Service) CompleteOnboarding(ctx context.Context, userID string) (*model.AiPreferences, error) {
	done := true
	return s.Upsert(ctx, userID, model.AiPreferencesInput{OnboardingCompleted: &done})
}

// IsOnboardingCompleted reports whether the user finished onboarding. Users
// without saved preferences have not.
func (s *Service) IsOnboardingCompleted(ctx context.Context, userID string) (bool, error) {
	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return prefs != nil && prefs.OnboardingCompleted, nil
}

// HasCompanyKnowledge reports whether the user described their company.
func (s *Service) HasCompanyKnowledge(ctx context.Context, userID string) (bool, error) {
	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return hasCompanyKnowledge(prefs), nil
}

// State returns the onboarding progress.
func (s *Service) State(ctx context.Context, userID string) (*model.OnboardingState, error) {
	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.OnboardingState{
		Completed:           prefs != nil && prefs.OnboardingCompleted,
		HasCompanyKnowledge: hasCompanyKnowledge(prefs),
	}, nil
}

// UserAiContext returns the prompt context for the user. Users without
// preferences get the default tone and nothing else.
func (s *Service) UserAiContext(ctx context.Context, userID string) (model.UserAiContext, error) {
	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return model.UserAiContext{}, err
	}
	return model.UserAiContextFrom(prefs), nil
}

func hasCompanyKnowledge(prefs *model.AiPreferences) bool {
	return prefs != nil && prefs.CompanyKnowledge != nil && strings.TrimSpace(*prefs.CompanyKnowledge) != ""
}
