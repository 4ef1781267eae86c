package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
	"github.com/Chative-core-poc-v1/intent-router/internal/metrics"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// Capability is the feature-area name used in errors and logs.
const Capability = "answer generation"

// blockedFinishReasons are provider finish reasons that mean the capability refused the prompt.
var blockedFinishReasons = map[string]bool{
	"SAFETY":             true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
	"RECITATION":         true,
}

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	ModelName string
	Timeout   time.Duration
	Metrics   *metrics.Recorder
}

// ChatGenerator adapts an eino chat model to the Generator contract.
type ChatGenerator struct {
	chatModel einomodel.BaseChatModel
	cfg       Config
}

func New(chatModel einomodel.BaseChatModel, cfg Config) (*ChatGenerator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	return &ChatGenerator{chatModel: chatModel, cfg: cfg}, nil
}

// Generate performs one bounded generation call. Errors are classified as transport,
// malformed response or capability-reported; no retry happens here.
func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	out, err := g.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		g.cfg.Metrics.Generation(string(errx.KindTransport))
		logx.Warn().Err(err).Str("model", g.cfg.ModelName).Msg("generation call failed")
		return "", errx.Transport(Capability, err)
	}
	if out == nil {
		g.cfg.Metrics.Generation(string(errx.KindMalformed))
		return "", errx.Malformed(Capability, errors.New("nil message"))
	}

	g.recordUsage(ctx, out)

	if out.ResponseMeta != nil && blockedFinishReasons[strings.ToUpper(out.ResponseMeta.FinishReason)] {
		g.cfg.Metrics.Generation(string(errx.KindCapability))
		return "", errx.Capability(Capability, "generation blocked: "+out.ResponseMeta.FinishReason)
	}

	text := strings.TrimSpace(out.Content)
	if text == "" {
		g.cfg.Metrics.Generation(string(errx.KindMalformed))
		return "", errx.Malformed(Capability, errors.New("empty content"))
	}

	g.cfg.Metrics.Generation("ok")
	return text, nil
}

func (g *ChatGenerator) recordUsage(ctx context.Context, out *schema.Message) {
	if out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(g.cfg.ModelName))
	model.UsageMeterFrom(ctx).Add(usage, totalC)

	logx.Debug().
		Str("model", g.cfg.ModelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

var _ Generator = (*ChatGenerator)(nil)
