package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

type modelPrice struct {
	PromptPrice     decimal.Decimal
	CompletionPrice decimal.Decimal
}

// ModelPricing is the USD price per token, matched by model name prefix.
var ModelPricing = map[string]modelPrice{
	"claude-sonnet-4-5": {decimal.NewFromFloat(0.000003), decimal.NewFromFloat(0.000015)},
	"claude-opus-4":     {decimal.NewFromFloat(0.000015), decimal.NewFromFloat(0.000075)},
	"claude-3-5-haiku":  {decimal.NewFromFloat(0.0000008), decimal.NewFromFloat(0.000004)},
	"gpt-4o-mini":       {decimal.NewFromFloat(0.00000015), decimal.NewFromFloat(0.0000006)},
	"gpt-4o":            {decimal.NewFromFloat(0.0000025), decimal.NewFromFloat(0.00001)},
	"gpt-4-turbo":       {decimal.NewFromFloat(0.00001), decimal.NewFromFloat(0.00003)},
}

var defaultPrice = modelPrice{
	PromptPrice:     decimal.NewFromFloat(0.000003),
	CompletionPrice: decimal.NewFromFloat(0.000015),
}

// CalculateCost estimates the USD cost of one call.
func CalculateCost(model string, inputTokens, outputTokens int64) decimal.Decimal {
	pricing := priceFor(model)
	prompt := pricing.PromptPrice.Mul(decimal.NewFromInt(inputTokens))
	completion := pricing.CompletionPrice.Mul(decimal.NewFromInt(outputTokens))
	return prompt.Add(completion).Round(6)
}

// priceFor picks the longest matching prefix so "gpt-4o-mini" wins over "gpt-4o".
func priceFor(model string) modelPrice {
	best, bestLen := defaultPrice, 0
	for prefix, price := range ModelPricing {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best, bestLen = price, len(prefix)
		}
	}
	return best
}
