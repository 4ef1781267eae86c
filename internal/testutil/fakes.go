// Package testutil holds scripted fakes for the external capabilities of the workflow.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
)

// ErrUnreachable simulates a capability that cannot be reached.
var ErrUnreachable = errors.New("connection refused")

// ChatModel is a scripted eino chat model. Replies are consumed in order; when
// Block is set, Generate waits for the context to end.
type ChatModel struct {
	mu      sync.Mutex
	Replies []*schema.Message
	Err     error
	Block   bool
	Inputs  [][]*schema.Message
}

func (m *ChatModel) Generate(ctx context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.Inputs = append(m.Inputs, in)
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	out := m.Replies[0]
	m.Replies = m.Replies[1:]
	return out, nil
}

func (m *ChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

// Rule answers a prompt containing Match with Reply, or fails with Err.
type Rule struct {
	Match string
	Reply string
	Err   error
}

// Generator is a scripted text generator. The first rule whose Match occurs in
// the prompt wins; without a match it returns Default, or Err when Default is empty.
type Generator struct {
	mu      sync.Mutex
	Rules   []Rule
	Default string
	Err     error
	Prompts []string
}

func (g *Generator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Prompts = append(g.Prompts, prompt)

	for _, r := range g.Rules {
		if strings.Contains(prompt, r.Match) {
			if r.Err != nil {
				return "", r.Err
			}
			return r.Reply, nil
		}
	}
	if g.Default != "" {
		return g.Default, nil
	}
	if g.Err != nil {
		return "", g.Err
	}
	return "", ErrUnreachable
}

// Calls returns the number of generation calls made.
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Prompts)
}

// Caller is a fake tool client keyed by tool name.
type Caller struct {
	mu      sync.Mutex
	Results map[string]*model.ToolResult
	Errors  map[string]error
	Calls   []model.ToolCall
}

func (c *Caller) Call(_ context.Context, call model.ToolCall) (*model.ToolResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, call)

	if err, ok := c.Errors[call.Name]; ok {
		return nil, err
	}
	if res, ok := c.Results[call.Name]; ok {
		return res, nil
	}
	return nil, errors.New("unscripted tool " + call.Name)
}

// CallCount returns the number of tool calls made.
func (c *Caller) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}

// Retriever returns fixed passages or a fixed error.
type Retriever struct {
	Passages []model.RetrievedPassage
	Err      error
	Queries  []string
}

func (r *Retriever) Retrieve(_ context.Context, query string) ([]model.RetrievedPassage, error) {
	r.Queries = append(r.Queries, query)
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Passages, nil
}
