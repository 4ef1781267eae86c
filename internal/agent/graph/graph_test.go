package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/rag"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
	"github.com/Chative-core-poc-v1/intent-router/internal/metrics"
	fakes "github.com/Chative-core-poc-v1/intent-router/internal/testutil"
)

const classifyMarker = "Classify the latest customer message"

var prompt = model.ResponsePromptConfig{BusinessType: "fashion store", BrandName: "Divas"}

type harness struct {
	registry *prometheus.Registry
	runner   Runner
}

func newHarness(t *testing.T, gen *fakes.Generator, caller tools.Caller, retriever *fakes.Retriever) *harness {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	answerer, err := rag.NewAnswerer(retriever, gen, rag.Config{BrandName: prompt.BrandName})
	require.NoError(t, err)

	runner, err := NewRunner(context.Background(), &GraphConfig{
		MessagesManager: conversations.NewMessagesManager(model.ConversationConfig{HistoryTurns: 4}),
		Classifier:      nodes.NewClassifier(gen, prompt, m),
		Handlers: nodes.NewHandlers(nodes.Deps{
			Tools:     caller,
			Generator: gen,
			Answerer:  answerer,
			Prompt:    prompt,
			Tool:      model.ToolConfig{DefaultQuantity: 1},
		}),
		Metrics: m,
	})
	require.NoError(t, err)
	return &harness{registry: reg, runner: runner}
}

func ask(text string) model.ChatRequest {
	return model.ChatRequest{Messages: []model.ChatTurn{{Source: model.SourceUser, Content: text}}}
}

func TestRunner_ProductSearch(t *testing.T) {
	gen := &fakes.Generator{Rules: []fakes.Rule{
		{Match: classifyMarker, Reply: "product_search"},
		{Match: "product_ids", Reply: `{"product_ids": [8001], "summary": "A floral favourite:"}`},
	}}
	caller := &fakes.Caller{Results: map[string]*model.ToolResult{
		tools.ToolSearchCatalog: {Payload: map[string]any{"products": tools.MockProducts[:2]}},
	}}
	h := newHarness(t, gen, caller, &fakes.Retriever{})

	resp := h.runner.Handle(context.Background(), ask("Show me floral shirts under 2000"))

	assert.Equal(t, model.IntentProductSearch, resp.Intent)
	assert.Contains(t, resp.Text, "Floral Print Cotton Shirt")
	assert.Equal(t, 1, caller.CallCount())
	assert.NotEmpty(t, resp.Diagnostics["run_id"])
	assert.Equal(t, []int64{8001}, resp.Diagnostics["product_ids"])
	assert.Nil(t, resp.Diagnostics["degraded"])
}

func TestRunner_OrderCreationAsksForMissingFields(t *testing.T) {
	gen := &fakes.Generator{Rules: []fakes.Rule{{Match: classifyMarker, Reply: "order_creation"}}}
	caller := &fakes.Caller{}
	h := newHarness(t, gen, caller, &fakes.Retriever{})

	resp := h.runner.Handle(context.Background(), ask("I want to buy variant 42910880890961"))

	assert.Equal(t, model.IntentOrderCreation, resp.Intent)
	assert.Contains(t, resp.Text, "your email address")
	assert.Zero(t, caller.CallCount())
	assert.Equal(t, []string{string(model.ExtractionIncomplete)}, resp.Diagnostics["degraded"])
}

func TestRunner_OrdersAgainstMockServer(t *testing.T) {
	store := tools.NewMockStore(tools.MockProducts)
	ts := httptest.NewServer(server.NewStreamableHTTPServer(tools.NewMockServer(store)))
	t.Cleanup(ts.Close)

	client := tools.NewMCPClient(tools.ClientConfig{
		Endpoints: map[model.Endpoint]string{
			model.EndpointProductSearch: ts.URL + "/mcp",
			model.EndpointOrders:        ts.URL + "/mcp",
		},
		Timeout: 5 * time.Second,
	})
	t.Cleanup(func() { _ = client.Close() })

	gen := &fakes.Generator{Rules: []fakes.Rule{
		{Match: `Latest customer message: "What's the status`, Reply: "order_status"},
		{Match: classifyMarker, Reply: "order_creation"},
	}}
	h := newHarness(t, gen, client, &fakes.Retriever{})

	created := h.runner.Handle(context.Background(), ask("Please buy 2 of variant 42910880890961 for test@example.com"))
	require.Equal(t, model.IntentOrderCreation, created.Intent)
	require.Contains(t, created.Text, "Total paid: 2998.00 INR")
	orderID, ok := created.Diagnostics["order_id"].(int64)
	require.True(t, ok)

	req := ask(fmt.Sprintf("What's the status of order %d?", orderID))
	first := h.runner.Handle(context.Background(), req)
	second := h.runner.Handle(context.Background(), req)

	assert.Equal(t, model.IntentOrderStatus, first.Intent)
	assert.Equal(t, first.Text, second.Text)
	assert.Contains(t, first.Text, "Fulfillment: Not yet shipped")
	assert.Contains(t, first.Text, "Floral Print Cotton Shirt")
	assert.NotEqual(t, first.Diagnostics["run_id"], second.Diagnostics["run_id"])
}

func TestRunner_InfoSearchFallsBackToStaticAnswer(t *testing.T) {
	gen := &fakes.Generator{Rules: []fakes.Rule{{Match: classifyMarker, Reply: "info_search"}}}
	retriever := &fakes.Retriever{Err: errx.Transport("knowledge base", fakes.ErrUnreachable)}
	h := newHarness(t, gen, &fakes.Caller{}, retriever)

	resp := h.runner.Handle(context.Background(), ask("What is your return policy?"))

	_, want := rag.StaticAnswer("What is your return policy?")
	assert.Equal(t, model.IntentInfoSearch, resp.Intent)
	assert.Equal(t, want, resp.Text)
	assert.Equal(t, rag.TopicReturnPolicy, resp.Diagnostics["topic"])
	assert.Equal(t, 1.0, counterValue(t, h.registry, "workflow_degradations_total", "kind", "retrieval_unavailable"))
}

func TestRunner_ClassifierFallsBackToKeywords(t *testing.T) {
	gen := &fakes.Generator{Rules: []fakes.Rule{{Match: classifyMarker, Err: fakes.ErrUnreachable}}}
	caller := &fakes.Caller{}
	h := newHarness(t, gen, caller, &fakes.Retriever{})

	resp := h.runner.Handle(context.Background(), ask("track order 12345"))

	assert.Equal(t, model.IntentOrderStatus, resp.Intent)
	assert.Contains(t, resp.Diagnostics["degraded"], string(model.ClassificationDegraded))
	assert.NotEmpty(t, resp.Text)
}

func TestRunner_UnknownIntentMakesNoCalls(t *testing.T) {
	gen := &fakes.Generator{Rules: []fakes.Rule{{Match: classifyMarker, Reply: "unknown"}}}
	caller := &fakes.Caller{}
	retriever := &fakes.Retriever{}
	h := newHarness(t, gen, caller, retriever)

	resp := h.runner.Handle(context.Background(), ask("What's the weather like?"))

	assert.Equal(t, nodes.UnknownText, resp.Text)
	assert.Equal(t, 1, gen.Calls())
	assert.Zero(t, caller.CallCount())
	assert.Empty(t, retriever.Queries)
}

func TestRunner_UnreachableGeneratorWithoutKeywordsIsUnknown(t *testing.T) {
	gen := &fakes.Generator{Err: fakes.ErrUnreachable}
	caller := &fakes.Caller{}
	retriever := &fakes.Retriever{}
	h := newHarness(t, gen, caller, retriever)

	for i := 0; i < 2; i++ {
		resp := h.runner.Handle(context.Background(), ask("What's the weather like?"))

		assert.Equal(t, model.IntentUnknown, resp.Intent)
		assert.Equal(t, nodes.UnknownText, resp.Text)
		assert.Contains(t, resp.Diagnostics["degraded"], string(model.ClassificationDegraded))
	}
	assert.Zero(t, caller.CallCount())
	assert.Empty(t, retriever.Queries)
}

func TestRunner_EmptyConversation(t *testing.T) {
	gen := &fakes.Generator{}
	h := newHarness(t, gen, &fakes.Caller{}, &fakes.Retriever{})

	resp := h.runner.Handle(context.Background(), model.ChatRequest{Messages: []model.ChatTurn{{Source: "user", Content: "   "}}})

	assert.Equal(t, model.IntentUnknown, resp.Intent)
	assert.NotEmpty(t, resp.Text)
	assert.Zero(t, gen.Calls())
}

type fakeInvoker struct {
	err   error
	panic bool
}

func (f fakeInvoker) Invoke(context.Context, model.ChatRequest, ...compose.Option) (*model.FinalResponse, error) {
	if f.panic {
		panic("boom")
	}
	return nil, f.err
}

func TestRunner_AlwaysAnswers(t *testing.T) {
	for _, inv := range []fakeInvoker{{err: errors.New("exceeded max steps")}, {panic: true}, {}} {
		r := &graphRunner{runnable: inv}
		resp := r.Handle(context.Background(), ask("hello"))
		require.NotNil(t, resp)
		assert.Equal(t, nodes.GenericErrorText, resp.Text)
		assert.Equal(t, model.IntentUnknown, resp.Intent)
	}
}

func TestBuildGraph_RejectsIncompleteConfig(t *testing.T) {
	_, err := BuildGraph(context.Background(), nil)
	assert.Error(t, err)
	_, err = BuildGraph(context.Background(), &GraphConfig{})
	assert.Error(t, err)
}

// counterValue reads one labelled counter sample from reg.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
