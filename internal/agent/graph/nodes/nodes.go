package nodes

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cloudwego/eino/compose"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/generator"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// Graph node names.
const (
	NodeClassify      = "classify"
	NodeProductSearch = "product_search"
	NodeOrderCreation = "order_creation"
	NodeOrderStatus   = "order_status"
	NodeInfoSearch    = "info_search"
	NodeUnknown       = "unknown"
	NodeFinalize      = "finalize"
)

// handlerCapability names a failed handler in diagnostics.
const handlerCapability = "workflow"

// HandlerNodeFor maps an intent to the node that handles it.
func HandlerNodeFor(i model.Intent) string {
	switch i {
	case model.IntentProductSearch:
		return NodeProductSearch
	case model.IntentOrderCreation:
		return NodeOrderCreation
	case model.IntentOrderStatus:
		return NodeOrderStatus
	case model.IntentInfoSearch:
		return NodeInfoSearch
	case model.IntentUnknown:
		return NodeUnknown
	}
	return NodeUnknown
}

// HandlerNodes lists every handler node with its intent.
var HandlerNodes = map[string]model.Intent{
	NodeProductSearch: model.IntentProductSearch,
	NodeOrderCreation: model.IntentOrderCreation,
	NodeOrderStatus:   model.IntentOrderStatus,
	NodeInfoSearch:    model.IntentInfoSearch,
	NodeUnknown:       model.IntentUnknown,
}

// Diagnoser is implemented by handler payloads that contribute diagnostics.
type Diagnoser interface {
	Diagnostics() map[string]any
}

// ===================================
// Classify
// ===================================

// NewClassifyPreHandler normalises the inbound messages into the run state.
func NewClassifyPreHandler(mm *conversations.MessagesManager) func(context.Context, model.ChatRequest, *model.ConversationState) (model.ChatRequest, error) {
	return func(ctx context.Context, in model.ChatRequest, s *model.ConversationState) (model.ChatRequest, error) {
		s.RunID = model.RunIDFrom(ctx)
		s.Messages = mm.Normalize(in.Messages)
		if err := s.Advance(model.PhaseClassifying); err != nil {
			return in, err
		}
		return model.ChatRequest{Messages: s.Messages}, nil
	}
}

// NewClassifyNode classifies the latest user message. It never fails: a
// classifier fallback is recorded as a degradation.
func NewClassifyNode(mm *conversations.MessagesManager, c *Classifier) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.ChatRequest) (model.Intent, error) {
		history, query := mm.ClassifierContext(in.Messages)
		intent, fallback := c.Classify(ctx, history, query)
		if fallback != nil {
			err := compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
				s.Fail(model.ClassificationDegraded, generator.Capability, fallback.Error())
				return nil
			})
			if err != nil {
				return intent, err
			}
		}
		logx.Debug().
			Str("run_id", model.RunIDFrom(ctx)).
			Str("intent", intent.String()).
			Bool("fallback", fallback != nil).
			Msg("Intent classified")
		return intent, nil
	})
}

// NewClassifyPostHandler fixes the intent for the rest of the run.
func NewClassifyPostHandler() func(context.Context, model.Intent, *model.ConversationState) (model.Intent, error) {
	return func(_ context.Context, out model.Intent, s *model.ConversationState) (model.Intent, error) {
		if err := s.SetIntent(out); err != nil {
			return out, err
		}
		return out, s.Advance(model.HandlerPhase(out))
	}
}

// NewIntentCondition routes to the handler node of the classified intent.
func NewIntentCondition() func(context.Context, model.Intent) (string, error) {
	return func(_ context.Context, in model.Intent) (string, error) {
		return HandlerNodeFor(in), nil
	}
}

// ===================================
// Handlers
// ===================================

// NewHandlerNode runs h on a snapshot of the run state, so no state lock is
// held across remote calls, then writes the handler's results back.
func NewHandlerNode(h Handler) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Intent) (*model.HandlerOutput, error) {
		var snapshot model.ConversationState
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			snapshot = s.Clone()
			return nil
		})
		if err != nil {
			return nil, err
		}

		runHandler(ctx, h, &snapshot)

		err = compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			s.Fields = snapshot.Fields
			s.Output = snapshot.Output
			s.Err = snapshot.Err
			s.Degraded = snapshot.Degraded
			s.Extra = snapshot.Extra
			return nil
		})
		return snapshot.Output, err
	})
}

// runHandler converts handler errors and panics into the generic reply.
func runHandler(ctx context.Context, h Handler, s *model.ConversationState) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().
				Str("run_id", s.RunID).
				Str("intent", s.Intent.String()).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Handler panicked")
			handlerFailed(s, fmt.Sprintf("panic: %v", r))
		}
	}()

	if h == nil {
		handlerFailed(s, "no handler registered")
		return
	}
	if err := h.Handle(ctx, s); err != nil {
		logx.Error().Err(err).Str("run_id", s.RunID).Str("intent", s.Intent.String()).Msg("Handler failed")
		handlerFailed(s, err.Error())
		return
	}
	if s.Output == nil || s.Output.Text == "" {
		handlerFailed(s, "handler produced no text")
	}
}

func handlerFailed(s *model.ConversationState, detail string) {
	s.Fail(model.HandlerFailed, handlerCapability, detail)
	s.Output = &model.HandlerOutput{Text: GenericErrorText}
}

// ===================================
// Finalize
// ===================================

// NewFinalizeNode emits the single response of the run.
func NewFinalizeNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, out *model.HandlerOutput) (*model.FinalResponse, error) {
		var resp *model.FinalResponse
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			if err := s.Advance(model.PhaseDone); err != nil {
				return err
			}
			if out == nil {
				out = s.Output
			}
			resp = BuildResponse(ctx, s, out)
			s.Response = resp
			return nil
		})
		return resp, err
	})
}

// BuildResponse assembles the final response and its diagnostics from the run state.
func BuildResponse(ctx context.Context, s *model.ConversationState, out *model.HandlerOutput) *model.FinalResponse {
	text := GenericErrorText
	if out != nil && out.Text != "" {
		text = out.Text
	}

	diag := map[string]any{"run_id": s.RunID}
	if out != nil {
		if d, ok := out.Data.(Diagnoser); ok {
			for k, v := range d.Diagnostics() {
				diag[k] = v
			}
		}
	}
	if len(s.Degraded) > 0 {
		kinds := make([]string, len(s.Degraded))
		for i, d := range s.Degraded {
			kinds[i] = string(d)
		}
		diag["degraded"] = kinds
	}
	if s.Err != nil {
		diag["error"] = *s.Err
	}
	if topic := s.Extra["topic"]; topic != "" {
		diag["topic"] = topic
	}
	if usage := model.UsageMeterFrom(ctx).Snapshot(); usage != nil {
		diag["usage"] = usage
	}

	intent := s.Intent
	if intent == "" {
		intent = model.IntentUnknown
	}
	return &model.FinalResponse{Text: text, Intent: intent, Diagnostics: diag}
}
