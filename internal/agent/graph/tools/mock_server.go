package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
)

// ===================================
// Mock tool server
// ===================================

// MockOrder is an order held by the mock order book.
type MockOrder struct {
	ID                int64   `json:"id"`
	OrderNumber       string  `json:"order_number"`
	Product           string  `json:"product"`
	VariantID         int64   `json:"variant_id"`
	Quantity          int     `json:"quantity"`
	TotalPaid         string  `json:"total_paid"`
	Status            string  `json:"status"`
	FulfillmentStatus *string `json:"fulfillment_status"`
	Email             string  `json:"email"`
	CreatedAt         string  `json:"created_at"`
}

// MockStore is an in-memory catalogue and order book behind the mock tool server.
type MockStore struct {
	mu       sync.Mutex
	products []model.Product
	orders   map[int64]*MockOrder
	nextID   int64
	now      func() time.Time
}

func NewMockStore(products []model.Product) *MockStore {
	return &MockStore{
		products: products,
		orders:   make(map[int64]*MockOrder),
		nextID:   5904242344001,
		now:      time.Now,
	}
}

// NewMockServer exposes the store as MCP tools: catalogue search, order creation and order status.
func NewMockServer(store *MockStore) *server.MCPServer {
	s := server.NewMCPServer("mock-shop-tools", "1.0.0", server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool(ToolSearchCatalog,
		mcp.WithDescription("Search the shop catalogue. Returns products with variants, prices and availability."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search keywords, e.g. 'floral shirts'")),
		mcp.WithString("context", mcp.Description("Free-form filtering guidance")),
		mcp.WithObject("price", mcp.Description("Price bounds as {min, max}")),
		mcp.WithBoolean("availability", mcp.Description("Only return products in stock")),
	), store.handleSearch)

	s.AddTool(mcp.NewTool(ToolCreateOrder,
		mcp.WithDescription("Create an order for one or more variants."),
		mcp.WithObject("order", mcp.Required(), mcp.Description("Order with line_items and customer email")),
	), store.handleCreateOrder)

	s.AddTool(mcp.NewTool(ToolGetOrderStatus,
		mcp.WithDescription("Get the status of an order by its ID."),
		mcp.WithNumber("order_id", mcp.Required(), mcp.Description("Numeric order ID")),
	), store.handleOrderStatus)

	return s
}

// AddOrder seeds the order book and returns the stored order.
func (m *MockStore) AddOrder(o MockOrder) *MockOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := o
	if stored.ID == 0 {
		stored.ID = m.nextID
		m.nextID++
	}
	if stored.OrderNumber == "" {
		stored.OrderNumber = fmt.Sprintf("#%d", 1000+len(m.orders)+1)
	}
	m.orders[stored.ID] = &stored
	return &stored
}

func (m *MockStore) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return jsonResult(map[string]any{"error": "query is required"})
	}

	minPrice, maxPrice := priceBounds(args["price"])
	onlyAvailable, _ := args["availability"].(bool)
	terms := searchTerms(query)

	var matched []model.Product
	for _, p := range m.products {
		if onlyAvailable && !p.Available {
			continue
		}
		if !matchesTerms(p, terms) || !withinPrice(p, minPrice, maxPrice) {
			continue
		}
		matched = append(matched, p)
	}
	if matched == nil {
		matched = []model.Product{}
	}
	return jsonResult(map[string]any{"products": matched})
}

func (m *MockStore) handleCreateOrder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	order, _ := req.GetArguments()["order"].(map[string]any)
	if order == nil {
		return jsonResult(map[string]any{"error": "order is required"})
	}
	items, _ := order["line_items"].([]any)
	customer, _ := order["customer"].(map[string]any)
	email, _ := customer["email"].(string)
	if len(items) == 0 || email == "" {
		return jsonResult(map[string]any{"error": "line_items and customer email are required"})
	}

	item, _ := items[0].(map[string]any)
	variantID := toInt64(item["variant_id"])
	quantity := int(toInt64(item["quantity"]))
	if quantity <= 0 {
		quantity = 1
	}

	product, variant, ok := m.findVariant(variantID)
	if !ok {
		return jsonResult(map[string]any{"error": fmt.Sprintf("variant %d not found", variantID)})
	}
	if !product.Available {
		return jsonResult(map[string]any{"error": fmt.Sprintf("%s is out of stock", product.Title)})
	}

	price, _ := strconv.ParseFloat(variant.Price, 64)
	stored := m.AddOrder(MockOrder{
		Product:   product.Title,
		VariantID: variant.ID,
		Quantity:  quantity,
		TotalPaid: fmt.Sprintf("%.2f INR", price*float64(quantity)),
		Status:    "paid",
		Email:     email,
		CreatedAt: m.now().UTC().Format("2006-01-02 15:04:05"),
	})
	return jsonResult(map[string]any{"order": stored})
}

func (m *MockStore) handleOrderStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := toInt64(req.GetArguments()["order_id"])

	m.mu.Lock()
	o, ok := m.orders[id]
	var snapshot MockOrder
	if ok {
		snapshot = *o
	}
	m.mu.Unlock()

	if !ok {
		return jsonResult(map[string]any{"error": fmt.Sprintf("order %d not found", id)})
	}
	return jsonResult(map[string]any{"order": snapshot})
}

func (m *MockStore) findVariant(id int64) (model.Product, model.Variant, bool) {
	for _, p := range m.products {
		for _, v := range p.Variants {
			if v.ID == id {
				return p, v, true
			}
		}
	}
	return model.Product{}, model.Variant{}, false
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

var stopTerms = map[string]bool{
	"show": true, "me": true, "find": true, "the": true, "for": true, "some": true,
	"under": true, "below": true, "over": true, "above": true, "and": true, "with": true,
	"looking": true, "any": true, "price": true, "between": true, "less": true, "than": true,
}

func searchTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	var terms []string
	for _, f := range fields {
		if len(f) < 3 || stopTerms[f] {
			continue
		}
		terms = append(terms, f)
	}
	sort.Strings(terms)
	return terms
}

func matchesTerms(p model.Product, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(p.Title + " " + p.ProductType + " " + p.Description + " " + strings.Join(p.Tags, " "))
	for _, t := range terms {
		for _, stem := range []string{t, strings.TrimSuffix(t, "es"), strings.TrimSuffix(t, "s")} {
			if len(stem) >= 3 && strings.Contains(haystack, stem) {
				return true
			}
		}
	}
	return false
}

func withinPrice(p model.Product, min, max float64) bool {
	for _, v := range p.Variants {
		price, err := strconv.ParseFloat(v.Price, 64)
		if err != nil {
			continue
		}
		if (min <= 0 || price >= min) && (max <= 0 || price <= max) {
			return true
		}
	}
	return false
}

func priceBounds(v any) (min, max float64) {
	m, ok := v.(map[string]any)
	if !ok {
		return 0, 0
	}
	return toFloat(m["min"]), toFloat(m["max"])
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i
	}
	return 0
}
