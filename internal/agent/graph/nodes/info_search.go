package nodes

import (
	"context"
	"errors"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/generator"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/knowledge"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/rag"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// InfoPayload is the structured result behind a store information answer.
type InfoPayload struct {
	Topic   string   `json:"topic"`
	Style   string   `json:"style,omitempty"`
	Sources []string `json:"sources,omitempty"`
	Static  bool     `json:"static"`
}

// Diagnostics implements the finalize diagnostics hook.
func (p InfoPayload) Diagnostics() map[string]any {
	d := map[string]any{"topic": p.Topic}
	if len(p.Sources) > 0 {
		d["sources"] = p.Sources
	}
	if p.Style != "" {
		d["style"] = p.Style
	}
	return d
}

// InfoSearchHandler answers store questions from the knowledge base, with a
// fixed topic answer when the knowledge base cannot be reached.
type InfoSearchHandler struct {
	answerer Answerer
}

func (h *InfoSearchHandler) Handle(ctx context.Context, s *model.ConversationState) error {
	query := s.LatestUserText()

	var (
		ans *rag.Answer
		err error
	)
	if h.answerer == nil {
		err = errors.New("knowledge base is not configured")
	} else {
		ans, err = h.answerer.Answer(ctx, query)
	}
	if err != nil {
		s.Fail(model.RetrievalUnavailable, knowledge.Capability, err.Error())
		logx.Warn().Err(err).Str("run_id", s.RunID).Msg("Knowledge base unavailable; using static answer")
		topic, text := rag.StaticAnswer(query)
		s.Extra["topic"] = topic
		s.Output = &model.HandlerOutput{Text: text, Data: InfoPayload{Topic: topic, Static: true}}
		return nil
	}

	for _, d := range ans.Degraded {
		if d == model.GenerationDegraded {
			s.Fail(d, generator.Capability, "answer returned without full generation")
			continue
		}
		s.Degrade(d)
	}
	s.Extra["topic"] = ans.Topic
	s.Output = &model.HandlerOutput{
		Text: ans.Text,
		Data: InfoPayload{Topic: ans.Topic, Style: string(ans.Style), Sources: ans.Sources},
	}
	return nil
}
