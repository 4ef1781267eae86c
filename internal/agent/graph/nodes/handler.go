package nodes

import (
	"context"
	"fmt"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/generator"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/rag"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// User-facing texts that do not depend on any capability.
const (
	GenericErrorText = "Sorry, something went wrong, please try again."

	UnknownText = "Sorry, I can't help with that. I can search our products, place an order, " +
		"check an order's status, or answer questions about our store policies and offers."
)

// Handler runs the work of one intent against a private copy of the
// conversation state. Expected failures are recorded on the state; a returned
// error means the handler could not produce any output.
type Handler interface {
	Handle(ctx context.Context, s *model.ConversationState) error
}

// Answerer is the retrieval-augmented answering pipeline used by info search.
type Answerer interface {
	Answer(ctx context.Context, query string) (*rag.Answer, error)
}

// Deps are the capabilities handlers compose.
type Deps struct {
	Tools     tools.Caller
	Generator generator.Generator
	Answerer  Answerer
	Prompt    model.ResponsePromptConfig
	Tool      model.ToolConfig
}

// Handlers holds one handler per intent.
type Handlers struct {
	ProductSearch Handler
	OrderCreation Handler
	OrderStatus   Handler
	InfoSearch    Handler
	Unknown       Handler
}

// NewHandlers builds the handler set from shared dependencies.
func NewHandlers(d Deps) Handlers {
	return Handlers{
		ProductSearch: &ProductSearchHandler{tools: d.Tools, gen: d.Generator, prompt: d.Prompt},
		OrderCreation: &OrderCreationHandler{tools: d.Tools, defaultQuantity: d.Tool.DefaultQuantity},
		OrderStatus:   &OrderStatusHandler{tools: d.Tools},
		InfoSearch:    &InfoSearchHandler{answerer: d.Answerer},
		Unknown:       UnknownHandler{},
	}
}

// For returns the handler of an intent.
func (h Handlers) For(i model.Intent) Handler {
	switch i {
	case model.IntentProductSearch:
		return h.ProductSearch
	case model.IntentOrderCreation:
		return h.OrderCreation
	case model.IntentOrderStatus:
		return h.OrderStatus
	case model.IntentInfoSearch:
		return h.InfoSearch
	case model.IntentUnknown:
		return h.Unknown
	}
	return h.Unknown
}

// UnknownHandler answers with a static reply and calls nothing.
type UnknownHandler struct{}

func (UnknownHandler) Handle(_ context.Context, s *model.ConversationState) error {
	s.Degrade(model.UnknownIntent)
	s.Output = &model.HandlerOutput{Text: UnknownText}
	return nil
}

// apologize records a tool failure and returns text naming only the capability.
func apologize(ctx context.Context, s *model.ConversationState, capability string, err error) string {
	s.Fail(model.ToolUnavailable, capability, err.Error())
	logx.Warn().
		Err(err).
		Str("run_id", s.RunID).
		Str("capability", capability).
		Str("kind", string(errx.KindOf(err))).
		Str("degradation", string(model.ToolUnavailable)).
		Msg("Tool call failed")
	return fmt.Sprintf("Sorry, the %s is unavailable right now. Please try again in a moment.", capability)
}
