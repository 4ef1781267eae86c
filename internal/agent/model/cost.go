package model

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"
)

// Pricing defines USD cost per 1M tokens for input/output.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// defaultPricing provides hardcoded USD pricing per 1M tokens (text tokens).
var defaultPricing = map[string]Pricing{
	// Source: Gemini pricing (Standard; text).
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
	"gemini-2.0-flash":      {InputPerM: 0.10, OutputPerM: 0.40},
}

// ResolvePricing returns hardcoded pricing for a model, zero when unknown.
func ResolvePricing(model string) Pricing {
	return defaultPricing[model]
}

// ComputeCost converts token usage to USD cost using per-1M Pricing.
func ComputeCost(usage *schema.TokenUsage, p Pricing) (inputCost, outputCost, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	inputCost = p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	outputCost = p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	total = inputCost + outputCost
	return
}

// UsageMeter accumulates generation usage for one workflow run.
type UsageMeter struct {
	mu               sync.Mutex
	calls            int
	promptTokens     int
	completionTokens int
	totalCostUSD     float64
}

// Add records one generation call.
func (m *UsageMeter) Add(usage *schema.TokenUsage, costUSD float64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if usage != nil {
		m.promptTokens += usage.PromptTokens
		m.completionTokens += usage.CompletionTokens
	}
	m.totalCostUSD += costUSD
}

// Snapshot returns the accumulated usage as diagnostics fields.
func (m *UsageMeter) Snapshot() map[string]any {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]any{
		"generation_calls":  m.calls,
		"prompt_tokens":     m.promptTokens,
		"completion_tokens": m.completionTokens,
		"total_cost_usd":    m.totalCostUSD,
	}
}

type usageMeterKey struct{}

// WithUsageMeter attaches a per-run meter to ctx.
func WithUsageMeter(ctx context.Context, m *UsageMeter) context.Context {
	return context.WithValue(ctx, usageMeterKey{}, m)
}

// UsageMeterFrom returns the meter attached to ctx, or nil.
func UsageMeterFrom(ctx context.Context) *UsageMeter {
	m, _ := ctx.Value(usageMeterKey{}).(*UsageMeter)
	return m
}
