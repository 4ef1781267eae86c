package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
)

func newMockEndpoint(t *testing.T, store *MockStore) string {
	t.Helper()
	ts := httptest.NewServer(server.NewStreamableHTTPServer(NewMockServer(store)))
	t.Cleanup(ts.Close)
	return ts.URL + "/mcp"
}

func newTestClient(t *testing.T, url string) *MCPClient {
	t.Helper()
	c := NewMCPClient(ClientConfig{
		Endpoints: map[model.Endpoint]string{
			model.EndpointProductSearch: url,
			model.EndpointOrders:        url,
		},
		Timeout: 5 * time.Second,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMCPClient_SearchCatalog(t *testing.T) {
	c := newTestClient(t, newMockEndpoint(t, NewMockStore(MockProducts)))

	res, err := c.Call(context.Background(), model.ToolCall{
		Endpoint: model.EndpointProductSearch,
		Name:     ToolSearchCatalog,
		Arguments: map[string]any{
			"query": "floral shirts",
			"price": map[string]any{"max": 2000},
		},
	})
	require.NoError(t, err)

	obj, ok := res.Object()
	require.True(t, ok)
	products, ok := obj["products"].([]any)
	require.True(t, ok)
	require.Len(t, products, 1)
	assert.Equal(t, "Floral Print Cotton Shirt", products[0].(map[string]any)["title"])
}

func TestMCPClient_OrderRoundTrip(t *testing.T) {
	store := NewMockStore(MockProducts)
	c := newTestClient(t, newMockEndpoint(t, store))
	ctx := context.Background()

	res, err := c.Call(ctx, model.ToolCall{
		Endpoint: model.EndpointOrders,
		Name:     ToolCreateOrder,
		Arguments: map[string]any{
			"order": map[string]any{
				"line_items": []any{map[string]any{"variant_id": int64(42910880890961), "quantity": 2}},
				"customer":   map[string]any{"email": "test@example.com"},
			},
		},
	})
	require.NoError(t, err)
	obj, _ := res.Object()
	order := obj["order"].(map[string]any)
	assert.Equal(t, "2998.00 INR", order["total_paid"])

	status, err := c.Call(ctx, model.ToolCall{
		Endpoint:  model.EndpointOrders,
		Name:      ToolGetOrderStatus,
		Arguments: map[string]any{"order_id": order["id"]},
	})
	require.NoError(t, err)
	statusObj, _ := status.Object()
	assert.Equal(t, "paid", statusObj["order"].(map[string]any)["status"])
}

func TestMCPClient_CapabilityError(t *testing.T) {
	c := newTestClient(t, newMockEndpoint(t, NewMockStore(MockProducts)))

	_, err := c.Call(context.Background(), model.ToolCall{
		Endpoint:  model.EndpointOrders,
		Name:      ToolGetOrderStatus,
		Arguments: map[string]any{"order_id": 12345},
	})
	require.Error(t, err)
	assert.Equal(t, errx.KindCapability, errx.KindOf(err))
	assert.Contains(t, errx.MessageOf(err), "not found")
}

func TestMCPClient_TransportFailure(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL + "/mcp"
	ts.Close()

	c := newTestClient(t, url)
	_, err := c.Call(context.Background(), model.ToolCall{Endpoint: model.EndpointOrders, Name: ToolGetOrderStatus})
	require.Error(t, err)
	assert.Equal(t, errx.KindTransport, errx.KindOf(err))
	assert.Equal(t, "order service", errx.CapabilityOf(err))
}

func TestMCPClient_HangingEndpointDoesNotBlockOthers(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case entered <- struct{}{}:
		default:
		}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(hung.Close)
	t.Cleanup(func() { close(release) })

	c := NewMCPClient(ClientConfig{
		Endpoints: map[model.Endpoint]string{
			model.EndpointProductSearch: hung.URL + "/mcp",
			model.EndpointOrders:        newMockEndpoint(t, NewMockStore(MockProducts)),
		},
		Timeout: 2 * time.Second,
	})
	t.Cleanup(func() { _ = c.Close() })

	searchErr := make(chan error, 1)
	go func() {
		_, err := c.Call(context.Background(), model.ToolCall{
			Endpoint:  model.EndpointProductSearch,
			Name:      ToolSearchCatalog,
			Arguments: map[string]any{"query": "shirts"},
		})
		searchErr <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("search endpoint was never contacted")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	_, err := c.Call(ctx, model.ToolCall{
		Endpoint:  model.EndpointOrders,
		Name:      ToolGetOrderStatus,
		Arguments: map[string]any{"order_id": 12345},
	})
	require.Error(t, err)
	assert.Equal(t, errx.KindCapability, errx.KindOf(err))
	assert.Less(t, time.Since(start), time.Second)

	select {
	case err := <-searchErr:
		require.Error(t, err)
		assert.Equal(t, errx.KindTransport, errx.KindOf(err))
	case <-time.After(5 * time.Second):
		t.Fatal("search call outlived its timeout")
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	long := strings.Repeat("a", maxErrorDetail-1) + "é"
	got := truncate(long)
	assert.Len(t, got, maxErrorDetail-1)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "short", truncate("  short "))
}

func TestMCPClient_UnknownEndpoint(t *testing.T) {
	c := NewMCPClient(ClientConfig{})
	_, err := c.Call(context.Background(), model.ToolCall{Endpoint: model.EndpointOrders, Name: ToolCreateOrder})
	require.Error(t, err)
	assert.Equal(t, errx.KindPrecondition, errx.KindOf(err))
}

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name string
		res  *mcp.CallToolResult
		kind errx.Kind
	}{
		{"object", mcp.NewToolResultText(`{"products":[]}`), ""},
		{"list", mcp.NewToolResultText(`[{"id":1}]`), ""},
		{"error key", mcp.NewToolResultText(`{"error":"variant not found"}`), errx.KindCapability},
		{"flagged error", mcp.NewToolResultError("rate limited"), errx.KindCapability},
		{"not json", mcp.NewToolResultText("Sorry!"), errx.KindMalformed},
		{"scalar", mcp.NewToolResultText(`42`), errx.KindMalformed},
		{"no content", &mcp.CallToolResult{}, errx.KindMalformed},
		{"nil", nil, errx.KindMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := decodeResult("order service", tt.res)
			if tt.kind == "" {
				require.NoError(t, err)
				assert.NotNil(t, res.Payload)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.kind, errx.KindOf(err))
		})
	}
}

func TestSearchTermsAndPrice(t *testing.T) {
	assert.Equal(t, []string{"dresses", "floral"}, searchTerms("Show me floral dresses under 2000"))
	assert.True(t, matchesTerms(MockProducts[2], searchTerms("dresses")))
	assert.False(t, withinPrice(MockProducts[5], 0, 2000))
	assert.True(t, withinPrice(MockProducts[4], 500, 1000))
}
