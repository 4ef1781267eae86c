package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/generator"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

const (
	// NoProductsText is returned whenever no product matches the request.
	NoProductsText = "Sorry, I couldn't find any products matching your request. " +
		"Try different keywords or a wider price range."

	productSearchUnavailableText = "Sorry, the product search is unavailable right now, so I couldn't find any products. " +
		"Please try again in a moment."
)

// searchContextTemplate guides server-side filtering of the catalogue.
const searchContextTemplate = "Search Query: %s\n" +
	"Filtering Guidelines:\n" +
	"- Prioritize products that match the search terms in title, description, or tags\n" +
	"- For patterns (floral, striped, etc.): prefer products with matching patterns\n" +
	"- For product types: include relevant category matches\n" +
	"- For price constraints: filter by specified price ranges\n" +
	"- Return relevant products even if not exact matches\n" +
	"- Include similar or related products when appropriate"

// SearchContext renders the filtering guidance sent along with a catalogue search.
func SearchContext(message string) string {
	return fmt.Sprintf(searchContextTemplate, message)
}

// ProductPayload is the structured result behind a product search answer.
type ProductPayload struct {
	Filters  parsers.ProductFilters `json:"filters"`
	Products []model.Product        `json:"products"`
}

// Diagnostics implements the finalize diagnostics hook.
func (p ProductPayload) Diagnostics() map[string]any {
	ids := make([]int64, len(p.Products))
	for i, prod := range p.Products {
		ids[i] = prod.ID
	}
	return map[string]any{"product_ids": ids}
}

// productSelection is the generator's filtered answer.
type productSelection struct {
	ProductIDs []int64 `json:"product_ids"`
	Summary    string  `json:"summary"`
}

// ProductSearchHandler extracts filters, searches the catalogue once and lets
// the generator pick and summarise the matching products.
type ProductSearchHandler struct {
	tools  tools.Caller
	gen    generator.Generator
	prompt model.ResponsePromptConfig
}

func (h *ProductSearchHandler) Handle(ctx context.Context, s *model.ConversationState) error {
	text := s.LatestUserText()
	filters := parsers.ExtractProductFilters(text)
	s.Fields["filters"] = filters

	args := map[string]any{
		"query":   filters.Query,
		"context": SearchContext(text),
	}
	if filters.HasPrice() {
		args["price"] = filters.PriceArgument()
	}

	capability := tools.CapabilityOf(model.EndpointProductSearch)
	res, err := h.tools.Call(ctx, model.ToolCall{
		Endpoint:  model.EndpointProductSearch,
		Name:      tools.ToolSearchCatalog,
		Arguments: args,
	})
	if err != nil {
		apologize(ctx, s, capability, err)
		s.Output = &model.HandlerOutput{Text: productSearchUnavailableText}
		return nil
	}

	var products []model.Product
	if err := decodeObjectField(capability, res, "products", &products); err != nil {
		apologize(ctx, s, capability, err)
		s.Output = &model.HandlerOutput{Text: productSearchUnavailableText}
		return nil
	}
	if len(products) == 0 {
		s.Output = &model.HandlerOutput{Text: NoProductsText, Data: ProductPayload{Filters: filters}}
		return nil
	}

	selected, summary, err := h.selectProducts(ctx, text, filters, products)
	if err != nil {
		s.Fail(model.GenerationDegraded, generator.Capability, err.Error())
		logx.Warn().Err(err).Str("run_id", s.RunID).Msg("Product selection failed; listing raw results")
		s.Output = &model.HandlerOutput{
			Text: FormatProducts("Here are the products I found:", products),
			Data: ProductPayload{Filters: filters, Products: products},
		}
		return nil
	}
	if len(selected) == 0 {
		s.Output = &model.HandlerOutput{Text: NoProductsText, Data: ProductPayload{Filters: filters}}
		return nil
	}

	intro := strings.TrimSpace(summary)
	if intro == "" {
		intro = "Here are the products that match your request:"
	}
	s.Output = &model.HandlerOutput{
		Text: FormatProducts(intro, selected),
		Data: ProductPayload{Filters: filters, Products: selected},
	}
	return nil
}

// selectProducts asks the generator which products satisfy every criterion.
// Only ids present in the search result are kept, in search order.
func (h *ProductSearchHandler) selectProducts(ctx context.Context, text string, filters parsers.ProductFilters, products []model.Product) ([]model.Product, string, error) {
	if h.gen == nil {
		return nil, "", fmt.Errorf("no response model configured")
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return nil, "", err
	}
	p, err := prompts.RenderProductFilter(ctx, h.prompt, text, filters, string(raw))
	if err != nil {
		return nil, "", err
	}
	out, err := h.gen.Generate(ctx, p)
	if err != nil {
		return nil, "", err
	}

	var sel productSelection
	if err := parsers.DecodeJSONObject(out, &sel); err != nil {
		return nil, "", fmt.Errorf("parse product selection %q: %w", truncate(out, 80), err)
	}

	keep := make(map[int64]bool, len(sel.ProductIDs))
	for _, id := range sel.ProductIDs {
		keep[id] = true
	}
	selected := make([]model.Product, 0, len(sel.ProductIDs))
	for _, prod := range products {
		if keep[prod.ID] {
			selected = append(selected, prod)
		}
	}
	return selected, sel.Summary, nil
}

// FormatProducts renders a product listing with prices and orderable variant ids.
func FormatProducts(intro string, products []model.Product) string {
	var b strings.Builder
	b.WriteString(intro)
	for _, p := range products {
		fmt.Fprintf(&b, "\n\n• %s", p.Title)
		if p.ProductType != "" {
			fmt.Fprintf(&b, " (%s)", p.ProductType)
		}
		if !p.Available {
			b.WriteString(" - out of stock")
		}
		for _, v := range p.Variants {
			fmt.Fprintf(&b, "\n  - %s: %s INR (variant ID %d)", v.Title, v.Price, v.ID)
		}
	}
	b.WriteString("\n\nTo order, share the variant ID, the quantity and your email address.")
	return b.String()
}
