package graph

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/generator"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/observers"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/rag"
	"github.com/Chative-core-poc-v1/intent-router/internal/metrics"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// maxRunSteps bounds a run: classify, one handler, finalize.
const maxRunSteps = 10

// Runner executes one workflow run per request. Handle always returns a
// response with non-empty text.
type Runner interface {
	Handle(ctx context.Context, req model.ChatRequest) *model.FinalResponse
}

// Config holds everything needed to compose the workflow end-to-end.
// This is a convenience layer over GraphConfig that also builds the
// generators, classifier, answerer and handlers.
type Config struct {
	ChatModels   *nodes.ChatModels
	Response     model.ResponseModelConfig
	Prompt       model.ResponsePromptConfig
	Conversation model.ConversationConfig
	Tool         model.ToolConfig
	Tools        tools.Caller
	// Retriever backs store information answers; nil leaves only the static answers.
	Retriever rag.Retriever
	Metrics   *metrics.Recorder
}

// GraphConfig holds the components the graph nodes run.
type GraphConfig struct {
	MessagesManager *conversations.MessagesManager
	Classifier      *nodes.Classifier
	Handlers        nodes.Handlers
	Metrics         *metrics.Recorder
}

// GraphBuilder handles the construction of the workflow graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.ChatRequest, *model.FinalResponse]
}

// invoker is the part of a compiled graph the runner uses.
type invoker interface {
	Invoke(ctx context.Context, in model.ChatRequest, opts ...compose.Option) (*model.FinalResponse, error)
}

type graphRunner struct {
	runnable invoker
	metrics  *metrics.Recorder
}

func (r *graphRunner) Handle(ctx context.Context, req model.ChatRequest) (resp *model.FinalResponse) {
	runID := uuid.NewString()
	ctx = model.WithRunID(ctx, runID)
	ctx = model.WithUsageMeter(ctx, &model.UsageMeter{})
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			logx.Error().
				Str("run_id", runID).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("Workflow run panicked")
			resp = failedResponse(runID, fmt.Sprintf("panic: %v", rec))
		}
		r.observe(resp, time.Since(start))
	}()

	out, err := r.runnable.Invoke(ctx, req, compose.WithCallbacks(observers.NewAllCallbacks()...))
	if err == nil && (out == nil || strings.TrimSpace(out.Text) == "") {
		err = errors.New("workflow produced no response")
	}
	if err != nil {
		logx.Error().Err(err).Str("run_id", runID).Msg("Workflow run failed")
		return failedResponse(runID, err.Error())
	}

	logx.Info().
		Str("run_id", runID).
		Str("intent", out.Intent.String()).
		Dur("elapsed", time.Since(start)).
		Msg("Workflow run finished")
	return out
}

func (r *graphRunner) observe(resp *model.FinalResponse, d time.Duration) {
	if resp == nil {
		return
	}
	outcome := "ok"
	kinds, _ := resp.Diagnostics["degraded"].([]string)
	for _, k := range kinds {
		r.metrics.Degradation(k)
		if outcome == "ok" {
			outcome = "degraded"
		}
		if k == string(model.HandlerFailed) {
			outcome = "failed"
		}
	}
	r.metrics.ObserveRun(resp.Intent.String(), outcome, d)
}

// failedResponse is the response of a run that could not reach finalize.
func failedResponse(runID, detail string) *model.FinalResponse {
	return &model.FinalResponse{
		Text:   nodes.GenericErrorText,
		Intent: model.IntentUnknown,
		Diagnostics: map[string]any{
			"run_id":   runID,
			"degraded": []string{string(model.HandlerFailed)},
			"error":    model.Failure{Kind: model.HandlerFailed, Capability: "workflow", Detail: detail},
		},
	}
}

// BuildResponseGraph composes generators, classifier and handlers, builds the graph, and returns a Runner.
func BuildResponseGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ChatModels == nil {
		return nil, fmt.Errorf("chat models are nil")
	}
	if cfg.Tools == nil {
		return nil, fmt.Errorf("tool caller is nil")
	}

	classifierGen, err := generator.New(cfg.ChatModels.Classifier, generator.Config{
		ModelName: cfg.ChatModels.ClassifierModelName,
		Timeout:   cfg.Response.Timeout,
		Metrics:   cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("classifier generator: %w", err)
	}
	responseGen, err := generator.New(cfg.ChatModels.Response, generator.Config{
		ModelName: cfg.ChatModels.ResponseModelName,
		Timeout:   cfg.Response.Timeout,
		Metrics:   cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("response generator: %w", err)
	}

	var answerer nodes.Answerer
	if cfg.Retriever != nil {
		a, err := rag.NewAnswerer(cfg.Retriever, responseGen, rag.Config{BrandName: cfg.Prompt.BrandName})
		if err != nil {
			return nil, err
		}
		answerer = a
	} else {
		logx.Warn().Msg("No knowledge base configured; store questions get static answers")
	}

	return NewRunner(ctx, &GraphConfig{
		MessagesManager: conversations.NewMessagesManager(cfg.Conversation),
		Classifier:      nodes.NewClassifier(classifierGen, cfg.Prompt, cfg.Metrics),
		Handlers: nodes.NewHandlers(nodes.Deps{
			Tools:     cfg.Tools,
			Generator: responseGen,
			Answerer:  answerer,
			Prompt:    cfg.Prompt,
			Tool:      cfg.Tool,
		}),
		Metrics: cfg.Metrics,
	})
}

// NewRunner compiles the graph for config and wraps it in a Runner.
func NewRunner(ctx context.Context, config *GraphConfig) (Runner, error) {
	runnable, err := BuildGraph(ctx, config)
	if err != nil {
		return nil, err
	}
	logx.Debug().Msg("Workflow graph built successfully")
	return &graphRunner{runnable: runnable, metrics: config.Metrics}, nil
}

// BuildGraph constructs and returns the compiled workflow graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.ChatRequest, *model.FinalResponse], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Classifier == nil {
		return nil, fmt.Errorf("classifier is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.ChatRequest, *model.FinalResponse](
			compose.WithGenLocalState(func(ctx context.Context) *model.ConversationState {
				return model.NewConversationState()
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	if err := b.graph.AddLambdaNode(nodes.NodeClassify,
		nodes.NewClassifyNode(b.config.MessagesManager, b.config.Classifier),
		compose.WithStatePreHandler(nodes.NewClassifyPreHandler(b.config.MessagesManager)),
		compose.WithStatePostHandler(nodes.NewClassifyPostHandler()),
	); err != nil {
		return fmt.Errorf("error adding classify node: %w", err)
	}

	for name, intent := range nodes.HandlerNodes {
		if err := b.graph.AddLambdaNode(name, nodes.NewHandlerNode(b.config.Handlers.For(intent))); err != nil {
			return fmt.Errorf("error adding %s node: %w", name, err)
		}
	}

	if err := b.graph.AddLambdaNode(nodes.NodeFinalize, nodes.NewFinalizeNode()); err != nil {
		return fmt.Errorf("error adding finalize node: %w", err)
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeClassify},
		{nodes.NodeFinalize, compose.END},
	}
	for name := range nodes.HandlerNodes {
		edges = append(edges, [2]string{name, nodes.NodeFinalize})
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches routes the classified intent to exactly one handler node
func (b *GraphBuilder) addBranches() error {
	endNodes := make(map[string]bool, len(nodes.HandlerNodes))
	for name := range nodes.HandlerNodes {
		endNodes[name] = true
	}

	intentBranch := compose.NewGraphBranch(nodes.NewIntentCondition(), endNodes)
	if err := b.graph.AddBranch(nodes.NodeClassify, intentBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding intent branch")
		return fmt.Errorf("error adding intent branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.ChatRequest, *model.FinalResponse], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
