package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditBalance is a user's allowance for one billing period.
type CreditBalance struct {
	UserID           string    `json:"userId" db:"user_id"`
	RemainingCredits int64     `json:"remainingCredits" db:"remaining_credits"`
	MonthlyAllowance int64     `json:"monthlyAllowance" db:"monthly_allowance"`
	PeriodStart      time.Time `json:"periodStart" db:"period_start"`
	PeriodEnd        time.Time `json:"periodEnd" db:"period_end"`
}

// Covers reports whether t falls inside the balance period.
func (b *CreditBalance) Covers(t time.Time) bool {
	return !t.Before(b.PeriodStart) && t.Before(b.PeriodEnd)
}

// CreditStatus is the result of a credit check.
type CreditStatus struct {
	HasCredits       bool  `json:"hasCredits"`
	RemainingCredits int64 `json:"remainingCredits"`
}

// UsageRecord is an audit entry for one charged model call.
type UsageRecord struct {
	ID               int64           `json:"id" db:"id"`
	UserID           string          `json:"userId" db:"user_id"`
	Model            string          `json:"model" db:"model"`
	InputTokens      int64           `json:"inputTokens" db:"input_tokens"`
	OutputTokens     int64           `json:"outputTokens" db:"output_tokens"`
	CreditsCharged   int64           `json:"creditsCharged" db:"credits_charged"`
	EstimatedCostUSD decimal.Decimal `json:"estimatedCostUsd" db:"estimated_cost_usd"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
}

// TokenUsage accompanies every model call.
type TokenUsage struct {
	InputTokens  int64  `json:"inputTokens"`
	OutputTokens int64  `json:"outputTokens"`
	Model        string `json:"model"`
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}
