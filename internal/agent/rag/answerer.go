package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/generator"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// NotFoundAnswer is returned when retrieval finds no passages.
const NotFoundAnswer = "I couldn't find anything about that in our knowledge base. " +
	"Could you rephrase your question, or ask about our return policy, contact details or current offers?"

// Retriever returns passages for a query in descending relevance order.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]model.RetrievedPassage, error)
}

type Config struct {
	BrandName string
}

// Answer is the outcome of the two-pass pipeline.
type Answer struct {
	Text string
	// Raw is the first-pass answer, or the concatenated passages when it failed.
	Raw      string
	Style    prompts.Style
	Styled   bool
	Topic    string
	Sources  []string
	Passages int
	Degraded []model.Degradation
}

// Answerer composes retrieval and generation: retrieve-and-answer, then
// restyle the answer for the brand.
type Answerer struct {
	retriever Retriever
	generator generator.Generator
	cfg       Config
}

func NewAnswerer(retriever Retriever, gen generator.Generator, cfg Config) (*Answerer, error) {
	if retriever == nil || gen == nil {
		return nil, errors.New("answerer needs a retriever and a generator")
	}
	return &Answerer{retriever: retriever, generator: gen, cfg: cfg}, nil
}

// Answer runs both passes sequentially. Only a retrieval failure is returned
// as an error; generation failures degrade to less formatted text.
func (a *Answerer) Answer(ctx context.Context, query string) (*Answer, error) {
	passages, err := a.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	ans := &Answer{Topic: TopicOf(query), Passages: len(passages)}
	if len(passages) == 0 {
		ans.Text = NotFoundAnswer
		ans.Raw = NotFoundAnswer
		ans.Degraded = []model.Degradation{model.RetrievalEmpty}
		return ans, nil
	}

	sources := make([]string, len(passages))
	for i, p := range passages {
		sources[i] = p.Source
	}
	ans.Sources = uniqueSources(sources)

	raw, err := a.answerPass(ctx, query, passages)
	if err != nil {
		logx.Warn().Err(err).Str("run_id", model.RunIDFrom(ctx)).Msg("RAG answer pass failed; returning passages")
		ans.Raw = joinPassages(passages)
		ans.Text = ans.Raw
		ans.Degraded = []model.Degradation{model.GenerationDegraded}
		return ans, nil
	}
	ans.Raw = raw

	ans.Style = prompts.StyleGeneral
	if IsOfferRelated(query, raw) {
		ans.Style = prompts.StyleOffer
	}
	styled, err := a.stylePass(ctx, ans.Style, raw, query)
	if err != nil {
		logx.Warn().Err(err).Str("run_id", model.RunIDFrom(ctx)).Str("style", string(ans.Style)).Msg("RAG style pass failed; returning raw answer")
		ans.Text = raw
		ans.Degraded = []model.Degradation{model.GenerationDegraded}
		return ans, nil
	}
	ans.Text = styled
	ans.Styled = true
	return ans, nil
}

func (a *Answerer) answerPass(ctx context.Context, query string, passages []model.RetrievedPassage) (string, error) {
	p, err := prompts.RenderRAGAnswer(ctx, a.cfg.BrandName, contextBlock(passages), query)
	if err != nil {
		return "", err
	}
	return a.generate(ctx, p)
}

func (a *Answerer) stylePass(ctx context.Context, style prompts.Style, raw, query string) (string, error) {
	p, err := prompts.RenderRAGStyle(ctx, style, a.cfg.BrandName, raw, query)
	if err != nil {
		return "", err
	}
	return a.generate(ctx, p)
}

func (a *Answerer) generate(ctx context.Context, prompt string) (string, error) {
	out, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("empty generation")
	}
	return out, nil
}

// contextBlock numbers passages in the order given, which is descending relevance.
func contextBlock(passages []model.RetrievedPassage) string {
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, strings.TrimSpace(p.Text))
	}
	return b.String()
}

func joinPassages(passages []model.RetrievedPassage) string {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n\n")
}
