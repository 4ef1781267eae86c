package nodes

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/generator"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	"github.com/Chative-core-poc-v1/intent-router/internal/metrics"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// errEmptyQuery is the fallback reason when there is no user turn to classify.
var errEmptyQuery = errors.New("no user message to classify")

// Classifier maps the latest user message to an intent with the generator,
// falling back to keyword rules when the generator fails or answers off-label.
type Classifier struct {
	gen     generator.Generator
	prompt  model.ResponsePromptConfig
	metrics *metrics.Recorder
}

func NewClassifier(gen generator.Generator, prompt model.ResponsePromptConfig, m *metrics.Recorder) *Classifier {
	return &Classifier{gen: gen, prompt: prompt, metrics: m}
}

// Classify always returns a valid intent. A non-nil fallback reason means the
// keyword rules decided.
func (c *Classifier) Classify(ctx context.Context, history []model.ChatTurn, query string) (intent model.Intent, fallback error) {
	if query == "" {
		return KeywordIntent(query), errEmptyQuery
	}

	intent, err := c.classifyWithModel(ctx, history, query)
	if err == nil {
		return intent, nil
	}

	intent = KeywordIntent(query)
	c.metrics.ClassifierFallback()
	logx.Warn().
		Err(err).
		Str("run_id", model.RunIDFrom(ctx)).
		Str("intent", intent.String()).
		Msg("Classifier fell back to keyword rules")
	return intent, err
}

func (c *Classifier) classifyWithModel(ctx context.Context, history []model.ChatTurn, query string) (model.Intent, error) {
	if c.gen == nil {
		return "", errors.New("no classifier model configured")
	}
	p, err := prompts.RenderClassify(ctx, c.prompt, history, query)
	if err != nil {
		return "", err
	}
	out, err := c.gen.Generate(ctx, p)
	if err != nil {
		return "", err
	}
	intent, ok := parsers.ParseIntentLabel(out)
	if !ok {
		return "", fmt.Errorf("unrecognised intent label %q", truncate(out, 80))
	}
	return intent, nil
}

// Keyword rules, checked in order. Status precedes creation so that
// "track my order" is not read as a purchase.
var keywordRules = []struct {
	intent model.Intent
	re     *regexp.Regexp
}{
	{model.IntentOrderStatus, regexp.MustCompile(`(?i)\b(track(ing)?|status|where is my (order|package|parcel)|order (id|number)|shipped|delivered|delivery status)\b`)},
	{model.IntentOrderCreation, regexp.MustCompile(`(?i)\b(buy|purchase|place (an |my )?order|(want|like|wanna) to order|order (this|it|one|two|\d{1,3})\b|checkout|check out|add to cart)\b`)},
	{model.IntentInfoSearch, regexp.MustCompile(`(?i)\b(returns?|refunds?|exchanges?|polic(y|ies)|contact|phone|e-?mail|support|address|offers?|discounts?|sales?|promotions?|deals?|coupons?|membership|loyalty|shipping|opening hours|about (you|us|your store))\b`)},
	{model.IntentProductSearch, regexp.MustCompile(`(?i)\b(show me|looking for|search|find|products?|shirts?|t-shirts?|tops?|dress(es)?|skirts?|jeans|trousers|jackets?|earrings?|necklaces?|bags?|shoes|catalog(ue)?|collection|in stock|price[sd]?|under \d+)\b`)},
}

// KeywordIntent is the deterministic fallback classifier. It returns unknown
// when no rule matches.
func KeywordIntent(text string) model.Intent {
	for _, r := range keywordRules {
		if r.re.MatchString(text) {
			return r.intent
		}
	}
	return model.IntentUnknown
}
