package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
)

var brand = model.ResponsePromptConfig{BrandName: "CNX Store", BusinessType: "fashion store"}

func TestRenderClassify(t *testing.T) {
	out, err := RenderClassify(context.Background(), brand,
		[]model.ChatTurn{{Source: "user", Content: "hi"}, {Source: "agent", Content: "hello!"}},
		"What's the status of order 12345?")
	require.NoError(t, err)

	assert.Contains(t, out, "CNX Store")
	assert.Contains(t, out, "user: hi")
	assert.Contains(t, out, "agent: hello!")
	assert.Contains(t, out, `Latest customer message: "What's the status of order 12345?"`)
	assert.Contains(t, out, "product_search, order_creation, order_status, info_search, unknown")

	out, err = RenderClassify(context.Background(), brand, nil, "hello")
	require.NoError(t, err)
	assert.NotContains(t, out, "Recent conversation")
}

func TestRenderProductFilter(t *testing.T) {
	f := parsers.ExtractProductFilters("floral dresses under 2000")
	out, err := RenderProductFilter(context.Background(), brand, "floral dresses under 2000", f, `[{"id":8003}]`)
	require.NoError(t, err)

	assert.Contains(t, out, "- category: dresses")
	assert.Contains(t, out, "- keywords: floral, dresses")
	assert.Contains(t, out, "- maximum price: 2000")
	assert.NotContains(t, out, "minimum price")
	assert.Contains(t, out, `[{"id":8003}]`)
}

func TestRenderRAGStyle(t *testing.T) {
	offer, err := RenderRAGStyle(context.Background(), StyleOffer, "CNX Store", "10% off shirts", "any offers?")
	require.NoError(t, err)
	assert.Contains(t, offer, "Current Offers at CNX Store 🌟")
	assert.Contains(t, offer, "10% off shirts")

	general, err := RenderRAGStyle(context.Background(), StyleGeneral, "CNX Store", "We are a fashion brand.", "who are you?")
	require.NoError(t, err)
	assert.Contains(t, general, "### About CNX Store")
	assert.NotContains(t, general, "Current Offers")
}

func TestRenderRAGAnswer(t *testing.T) {
	out, err := RenderRAGAnswer(context.Background(), "CNX Store", "[1] Returns within 14 days.", "return policy?")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] Returns within 14 days.")
	assert.Contains(t, out, "Customer question: return policy?")
}
