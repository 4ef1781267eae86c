package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
)

var (
	//go:embed template/classify.txt
	classifyPrompt string
	//go:embed template/product_filter.txt
	productFilterPrompt string
	//go:embed template/rag_answer.txt
	ragAnswerPrompt string
	//go:embed template/rag_offer_style.txt
	ragOfferStylePrompt string
	//go:embed template/rag_general_style.txt
	ragGeneralStylePrompt string
)

// Style selects the second-pass template of the retrieval-augmented answerer.
type Style string

const (
	StyleOffer   Style = "offer"
	StyleGeneral Style = "general"
)

// RenderClassify renders the intent classification prompt for the latest
// message and a window of earlier turns.
func RenderClassify(ctx context.Context, cfg model.ResponsePromptConfig, history []model.ChatTurn, message string) (string, error) {
	labels := make([]string, len(model.Intents))
	for i, it := range model.Intents {
		labels[i] = it.String()
	}
	return render(ctx, "classify", classifyPrompt, map[string]any{
		"BrandName":    cfg.BrandName,
		"BusinessType": cfg.BusinessType,
		"History":      history,
		"Message":      message,
		"Labels":       strings.Join(labels, ", "),
	})
}

// RenderProductFilter renders the filter-and-compose prompt over raw catalogue results.
func RenderProductFilter(ctx context.Context, cfg model.ResponsePromptConfig, message string, f parsers.ProductFilters, productsJSON string) (string, error) {
	return render(ctx, "product_filter", productFilterPrompt, map[string]any{
		"BrandName":    cfg.BrandName,
		"BusinessType": cfg.BusinessType,
		"Message":      message,
		"Category":     f.Category,
		"Keywords":     strings.Join(f.Keywords, ", "),
		"MinPrice":     f.MinPrice,
		"MaxPrice":     f.MaxPrice,
		"Products":     productsJSON,
	})
}

// RenderRAGAnswer renders the retrieve-and-answer prompt.
func RenderRAGAnswer(ctx context.Context, brand, contextBlock, question string) (string, error) {
	return render(ctx, "rag_answer", ragAnswerPrompt, map[string]any{
		"BrandName": brand,
		"Context":   contextBlock,
		"Question":  question,
	})
}

// RenderRAGStyle renders the brand styling prompt for a raw answer.
func RenderRAGStyle(ctx context.Context, style Style, brand, answer, question string) (string, error) {
	tpl := ragGeneralStylePrompt
	if style == StyleOffer {
		tpl = ragOfferStylePrompt
	}
	return render(ctx, "rag_"+string(style)+"_style", tpl, map[string]any{
		"BrandName": brand,
		"Answer":    answer,
		"Question":  question,
	})
}

// render formats a template through the eino prompt component so prompt
// callbacks fire for every rendered prompt.
func render(ctx context.Context, name, tpl string, vars map[string]any) (string, error) {
	msgs, err := prompt.FromMessages(schema.GoTemplate, schema.UserMessage(tpl)).Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs[0].Content, nil
}
