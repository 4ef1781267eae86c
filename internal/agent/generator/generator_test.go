package generator

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
	"github.com/Chative-core-poc-v1/intent-router/internal/testutil"
)

func TestGenerate_ReturnsTrimmedText(t *testing.T) {
	cm := &testutil.ChatModel{Replies: []*schema.Message{schema.AssistantMessage("  order_status \n", nil)}}
	g, err := New(cm, Config{ModelName: "gemini-2.5-flash"})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), "classify this")
	require.NoError(t, err)
	assert.Equal(t, "order_status", out)

	require.Len(t, cm.Inputs, 1)
	assert.Equal(t, schema.User, cm.Inputs[0][0].Role)
	assert.Equal(t, "classify this", cm.Inputs[0][0].Content)
}

func TestGenerate_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name  string
		model *testutil.ChatModel
		kind  errx.Kind
	}{
		{"transport", &testutil.ChatModel{Err: testutil.ErrUnreachable}, errx.KindTransport},
		{"empty", &testutil.ChatModel{Replies: []*schema.Message{schema.AssistantMessage("   ", nil)}}, errx.KindMalformed},
		{"blocked", &testutil.ChatModel{Replies: []*schema.Message{{
			Role:         schema.Assistant,
			ResponseMeta: &schema.ResponseMeta{FinishReason: "SAFETY"},
		}}}, errx.KindCapability},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.model, Config{})
			require.NoError(t, err)

			_, err = g.Generate(context.Background(), "prompt")
			require.Error(t, err)
			assert.Equal(t, tt.kind, errx.KindOf(err))
			assert.Equal(t, Capability, errx.CapabilityOf(err))
		})
	}
}

func TestGenerate_TimeoutIsTransportFailure(t *testing.T) {
	g, err := New(&testutil.ChatModel{Block: true}, Config{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = g.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, errx.KindTransport, errx.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGenerate_RecordsUsage(t *testing.T) {
	reply := schema.AssistantMessage("hello", nil)
	reply.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}}
	g, err := New(&testutil.ChatModel{Replies: []*schema.Message{reply}}, Config{ModelName: "gemini-2.5-flash"})
	require.NoError(t, err)

	meter := &model.UsageMeter{}
	_, err = g.Generate(model.WithUsageMeter(context.Background(), meter), "prompt")
	require.NoError(t, err)

	snap := meter.Snapshot()
	assert.Equal(t, 1, snap["generation_calls"])
	assert.Equal(t, 100, snap["prompt_tokens"])
	assert.Greater(t, snap["total_cost_usd"].(float64), 0.0)
}

func TestNew_RejectsNilModel(t *testing.T) {
	_, err := New(nil, Config{})
	assert.Error(t, err)
}
