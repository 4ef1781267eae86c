package model

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationState_Transitions(t *testing.T) {
	s := NewConversationState()
	assert.Equal(t, PhaseStart, s.Phase)

	require.Error(t, s.Advance(PhaseDone))
	require.NoError(t, s.Advance(PhaseClassifying))

	// a handler phase is only reachable once the intent is set
	require.Error(t, s.Advance(HandlerPhase(IntentOrderStatus)))
	require.NoError(t, s.SetIntent(IntentOrderStatus))
	require.Error(t, s.Advance(HandlerPhase(IntentInfoSearch)))
	require.NoError(t, s.Advance(HandlerPhase(IntentOrderStatus)))

	require.NoError(t, s.Advance(PhaseDone))
	require.Error(t, s.Advance(PhaseClassifying))
}

func TestConversationState_IntentIsImmutable(t *testing.T) {
	s := NewConversationState()
	require.NoError(t, s.SetIntent(IntentInfoSearch))
	assert.Error(t, s.SetIntent(IntentProductSearch))
	assert.Equal(t, IntentInfoSearch, s.Intent)

	fresh := NewConversationState()
	assert.Error(t, fresh.SetIntent(Intent("refund")))
}

func TestConversationState_LatestUserText(t *testing.T) {
	s := NewConversationState()
	s.Messages = []ChatTurn{
		{Source: "user", Content: "show me shirts"},
		{Source: "agent", Content: "here are some shirts"},
		{Source: "User", Content: "  what about dresses? "},
		{Source: "agent", Content: "one moment"},
	}
	assert.Equal(t, "what about dresses?", s.LatestUserText())

	s.Messages = []ChatTurn{{Source: "agent", Content: "hello"}}
	assert.Empty(t, s.LatestUserText())
}

func TestConversationState_FailRecordsDegradationOnce(t *testing.T) {
	s := NewConversationState()
	s.Fail(ToolUnavailable, "orders", "timeout")
	s.Fail(ToolUnavailable, "orders", "timeout again")

	assert.Equal(t, []Degradation{ToolUnavailable}, s.Degraded)
	assert.Equal(t, "timeout again", s.Err.Detail)
}

func TestConversationState_CloneIsIndependent(t *testing.T) {
	s := NewConversationState()
	s.Fields["order_id"] = "12345"
	s.Messages = []ChatTurn{{Source: "user", Content: "hi"}}

	c := s.Clone()
	c.Fields["order_id"] = "999"
	c.Messages[0].Content = "changed"

	assert.Equal(t, "12345", s.Fields["order_id"])
	assert.Equal(t, "hi", s.Messages[0].Content)
}

func TestUsageMeter(t *testing.T) {
	m := &UsageMeter{}
	ctx := WithUsageMeter(context.Background(), m)

	in, out, total := ComputeCost(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000}, ResolvePricing("gemini-2.5-flash"))
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 2.50, out, 1e-9)

	UsageMeterFrom(ctx).Add(&schema.TokenUsage{PromptTokens: 10, CompletionTokens: 5}, total)
	snap := m.Snapshot()
	assert.Equal(t, 1, snap["generation_calls"])
	assert.Equal(t, 10, snap["prompt_tokens"])
	assert.InDelta(t, 2.80, snap["total_cost_usd"].(float64), 1e-9)

	var nilMeter *UsageMeter
	nilMeter.Add(nil, 1)
	assert.Nil(t, UsageMeterFrom(context.Background()))
}
