// Package billing gates model-backed operations on a per-user credit allowance.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/store"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
	"github.com/capitalize-ai/prospecting-platform/pkg/metrics"
)

// Config holds ledger settings.
type Config struct {
	MonthlyAllowance int64
	TokensPerCredit  int64
}

// Ledger tracks remaining credits per user per monthly period.
type Ledger struct {
	store  store.CreditStore
	cfg    Config
	now    func() time.Time
	logger *logger.Logger
}

// NewLedger creates a ledger. Zero config values fall back to 100 credits and 1000 tokens per credit.
func NewLedger(st store.CreditStore, cfg Config, log *logger.Logger) *Ledger {
	if cfg.MonthlyAllowance <= 0 {
		cfg.MonthlyAllowance = 100
	}
	if cfg.TokensPerCredit <= 0 {
		cfg.TokensPerCredit = 1000
	}
	return &Ledger{store: st, cfg: cfg, now: time.Now, logger: log}
}

// WithClock overrides the time source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// CreditsFor converts a token count into credits: one per started block, at least one.
func CreditsFor(inputTokens, outputTokens, tokensPerCredit int64) int64 {
	total := inputTokens + outputTokens
	credits := (total + tokensPerCredit - 1) / tokensPerCredit
	if credits < 1 {
		return 1
	}
	return credits
}

// PeriodBounds returns the calendar month containing t, in UTC.
func PeriodBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Balance returns the current period's balance, opening the period if needed.
func (l *Ledger) Balance(ctx context.Context, userID string) (*model.CreditBalance, error) {
	now := l.now()

	balance, err := l.store.GetBalance(ctx, userID, now)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load credit balance: %w", err)
	}

	start, end := PeriodBounds(now)
	balance, err = l.store.CreateBalance(ctx, model.CreditBalance{
		UserID:           userID,
		RemainingCredits: l.cfg.MonthlyAllowance,
		MonthlyAllowance: l.cfg.MonthlyAllowance,
		PeriodStart:      start,
		PeriodEnd:        end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open credit period: %w", err)
	}

	l.logger.Info("credit period opened",
		zap.String("user_id", userID),
		zap.Time("period_start", start),
		zap.Int64("allowance", l.cfg.MonthlyAllowance),
	)
	return balance, nil
}

// CheckCredits reports whether the user may start a model-backed operation.
func (l *Ledger) CheckCredits(ctx context.Context, userID string) (*model.CreditStatus, error) {
	balance, err := l.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.CreditStatus{
		HasCredits:       balance.RemainingCredits > 0,
		RemainingCredits: balance.RemainingCredits,
	}, nil
}

// RecordUsage debits credits for one model call and stores an audit record.
func (l *Ledger) RecordUsage(ctx context.Context, userID string, inputTokens, outputTokens int64, modelName string) error {
	if _, err := l.Balance(ctx, userID); err != nil {
		return err
	}

	credits := CreditsFor(inputTokens, outputTokens, l.cfg.TokensPerCredit)
	now := l.now()

	remaining, err := l.store.Debit(ctx, userID, now, credits)
	if err != nil {
		return fmt.Errorf("failed to debit credits: %w", err)
	}

	rec := model.UsageRecord{
		UserID:           userID,
		Model:            modelName,
		InputTokens:      inputTokens,
		OutputTokens:     outputTokens,
		CreditsCharged:   credits,
		EstimatedCostUSD: CalculateCost(modelName, inputTokens, outputTokens),
		CreatedAt:        now,
	}
	if err := l.store.InsertUsage(ctx, rec); err != nil {
		return fmt.Errorf("failed to store usage record: %w", err)
	}

	metrics.CreditsChargedTotal.Add(float64(credits))
	l.logger.Debug("usage recorded",
		zap.String("user_id", userID),
		zap.String("model", modelName),
		zap.Int64("credits", credits),
		zap.Int64("remaining", remaining),
		zap.String("estimated_cost_usd", rec.EstimatedCostUSD.String()),
	)
	return nil
}
