package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/prospecting-platform/internal/model"
	"github.com/capitalize-ai/prospecting-platform/internal/store/memstore"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

func TestCreditsFor(t *testing.T) {
	tests := []struct {
		in, out int64
		want    int64
	}{
		{0, 0, 1},
		{1, 0, 1},
		{600, 400, 1},
		{600, 401, 2},
		{2500, 500, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CreditsFor(tt.in, tt.out, 1000), "%d+%d", tt.in, tt.out)
	}
}

func TestPeriodBounds(t *testing.T) {
	start, end := PeriodBounds(time.Date(2024, 12, 17, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestCalculateCost(t *testing.T) {
	cost := CalculateCost("claude-sonnet-4-5-20250929", 1000, 1000)
	assert.True(t, decimal.RequireFromString("0.018").Equal(cost), cost.String())

	mini := CalculateCost("gpt-4o-mini-2024-07-18", 1000000, 0)
	assert.True(t, decimal.RequireFromString("0.15").Equal(mini), mini.String())

	unknown := CalculateCost("mystery", 1000, 0)
	assert.True(t, decimal.RequireFromString("0.003").Equal(unknown), unknown.String())
}

func TestLedger_OpensPeriodWithAllowance(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	l := NewLedger(st, Config{MonthlyAllowance: 5}, logger.NewNop()).WithClock(func() time.Time { return now })

	status, err := l.CheckCredits(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, &model.CreditStatus{HasCredits: true, RemainingCredits: 5}, status)

	balance, err := l.Balance(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), balance.PeriodStart)
	assert.Equal(t, int64(5), balance.MonthlyAllowance)
}

func TestLedger_RecordUsageDebitsAndAudits(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	l := NewLedger(st, Config{MonthlyAllowance: 3, TokensPerCredit: 1000}, logger.NewNop())

	require.NoError(t, l.RecordUsage(ctx, "user", 1500, 200, "claude-sonnet-4-5-20250929"))

	status, err := l.CheckCredits(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.RemainingCredits)
	assert.True(t, status.HasCredits)

	usage := st.Usage("user")
	require.Len(t, usage, 1)
	assert.Equal(t, int64(2), usage[0].CreditsCharged)
	assert.Equal(t, "claude-sonnet-4-5-20250929", usage[0].Model)
	assert.True(t, usage[0].EstimatedCostUSD.IsPositive())

	require.NoError(t, l.RecordUsage(ctx, "user", 5000, 0, "claude-sonnet-4-5-20250929"))
	status, err = l.CheckCredits(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, &model.CreditStatus{HasCredits: false, RemainingCredits: 0}, status)
}

func TestLedger_NewPeriodResetsCredits(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	now := time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)
	l := NewLedger(st, Config{MonthlyAllowance: 2}, logger.NewNop()).WithClock(func() time.Time { return now })

	require.NoError(t, l.RecordUsage(ctx, "user", 3000, 0, "gpt-4o"))
	status, err := l.CheckCredits(ctx, "user")
	require.NoError(t, err)
	assert.False(t, status.HasCredits)

	now = now.Add(2 * time.Hour)
	status, err = l.CheckCredits(ctx, "user")
	require.NoError(t, err)
	assert.True(t, status.HasCredits)
	assert.Equal(t, int64(2), status.RemainingCredits)
}
