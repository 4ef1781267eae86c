package model

import (
	"fmt"
	"strings"
)

// Intent is the classified purpose of a user message, drawn from a closed set.
type Intent string

const (
	IntentProductSearch Intent = "product_search"
	IntentOrderCreation Intent = "order_creation"
	IntentOrderStatus   Intent = "order_status"
	IntentInfoSearch    Intent = "info_search"
	IntentUnknown       Intent = "unknown"
)

// Intents lists every valid label in prompt order.
var Intents = []Intent{
	IntentProductSearch,
	IntentOrderCreation,
	IntentOrderStatus,
	IntentInfoSearch,
	IntentUnknown,
}

// Valid reports whether i is a member of the closed label set.
func (i Intent) Valid() bool {
	switch i {
	case IntentProductSearch, IntentOrderCreation, IntentOrderStatus, IntentInfoSearch, IntentUnknown:
		return true
	}
	return false
}

func (i Intent) String() string {
	return string(i)
}

// Phase is a state of the workflow state machine.
type Phase string

const (
	PhaseStart       Phase = "start"
	PhaseClassifying Phase = "classifying"
	PhaseDone        Phase = "done"
)

// HandlerPhase returns the phase named by an intent.
func HandlerPhase(i Intent) Phase {
	return Phase(i)
}

// Degradation names a recoverable failure that was absorbed locally.
type Degradation string

const (
	ClassificationDegraded Degradation = "classification_degraded"
	ExtractionIncomplete   Degradation = "extraction_incomplete"
	ToolUnavailable        Degradation = "tool_unavailable"
	RetrievalEmpty         Degradation = "retrieval_empty"
	RetrievalUnavailable   Degradation = "retrieval_unavailable"
	GenerationDegraded     Degradation = "generation_degraded"
	UnknownIntent          Degradation = "unknown_intent"
	// HandlerFailed marks a handler that returned an error or panicked.
	HandlerFailed Degradation = "handler_failed"
)

// Failure is the last recoverable failure recorded on a run, kept for diagnostics.
type Failure struct {
	Kind       Degradation `json:"kind"`
	Capability string      `json:"capability,omitempty"`
	Detail     string      `json:"detail,omitempty"`
}

// HandlerOutput is the intermediate result of the handler node.
type HandlerOutput struct {
	Text string
	// Data is the structured payload behind Text (products, order, answer), if any.
	Data any
}

// ConversationState stores per-run state for the workflow graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState, so every run
//     gets a fresh value that is never shared with another run.
//   - Nodes read and write it inside state handlers or compose.ProcessState only.
//   - It is discarded once the FinalResponse is emitted.
type ConversationState struct {
	RunID    string
	Messages []ChatTurn
	Phase    Phase
	Intent   Intent            // empty until classification completes
	Fields   map[string]any    // extracted structured fields, intent dependent
	Output   *HandlerOutput    // set by the handler node
	Response *FinalResponse    // set when the run reaches done
	Err      *Failure          // last recoverable failure
	Degraded []Degradation     // every degradation absorbed during the run
	Extra    map[string]string // free-form diagnostics (e.g. topic)
}

// NewConversationState returns a fresh state in the start phase.
func NewConversationState() *ConversationState {
	return &ConversationState{
		Phase:  PhaseStart,
		Fields: map[string]any{},
		Extra:  map[string]string{},
	}
}

// SetIntent records the classified intent. It may be called once per run.
func (s *ConversationState) SetIntent(i Intent) error {
	if s.Intent != "" {
		return fmt.Errorf("intent already set to %q", s.Intent)
	}
	if !i.Valid() {
		return fmt.Errorf("invalid intent %q", i)
	}
	s.Intent = i
	return nil
}

// Advance moves the state machine to the next phase, rejecting illegal transitions.
//
//	start -> classifying -> <intent> -> done
func (s *ConversationState) Advance(to Phase) error {
	ok := false
	switch s.Phase {
	case PhaseStart:
		ok = to == PhaseClassifying
	case PhaseClassifying:
		ok = s.Intent != "" && to == HandlerPhase(s.Intent)
	case PhaseDone:
		ok = false
	default:
		ok = to == PhaseDone
	}
	if !ok {
		return fmt.Errorf("illegal transition %s -> %s", s.Phase, to)
	}
	s.Phase = to
	return nil
}

// Fail records a recoverable failure in the error slot.
func (s *ConversationState) Fail(kind Degradation, capability, detail string) {
	s.Err = &Failure{Kind: kind, Capability: capability, Detail: detail}
	s.Degrade(kind)
}

// Degrade notes an absorbed degradation once.
func (s *ConversationState) Degrade(kind Degradation) {
	for _, d := range s.Degraded {
		if d == kind {
			return
		}
	}
	s.Degraded = append(s.Degraded, kind)
}

// LatestUserText returns the last user turn, which is the effective query.
func (s *ConversationState) LatestUserText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].IsUser() {
			return strings.TrimSpace(s.Messages[i].Content)
		}
	}
	return ""
}

// Clone returns a copy that shares no mutable containers with s.
func (s *ConversationState) Clone() ConversationState {
	c := *s
	c.Messages = append([]ChatTurn(nil), s.Messages...)
	c.Degraded = append([]Degradation(nil), s.Degraded...)
	c.Fields = make(map[string]any, len(s.Fields))
	for k, v := range s.Fields {
		c.Fields[k] = v
	}
	c.Extra = make(map[string]string, len(s.Extra))
	for k, v := range s.Extra {
		c.Extra[k] = v
	}
	if s.Err != nil {
		e := *s.Err
		c.Err = &e
	}
	if s.Output != nil {
		o := *s.Output
		c.Output = &o
	}
	return c
}
