package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/knowledge"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/rag"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/repo"
	"github.com/Chative-core-poc-v1/intent-router/internal/core"
	"github.com/Chative-core-poc-v1/intent-router/internal/metrics"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
	"github.com/Chative-core-poc-v1/intent-router/pkg/postgres"
	pkgredis "github.com/Chative-core-poc-v1/intent-router/pkg/redis"
)

// AppConfig defines all configurable parameters of the service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis    pkgredis.Config
	Postgres postgres.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Classifier   model.ClassifierModelConfig
	Response     model.ResponseModelConfig
	Prompt       model.ResponsePromptConfig
	Conversation model.ConversationConfig
	Tools        model.ToolConfig
	Knowledge    model.KnowledgeConfig

	ServerAddr string `envconfig:"SERVER_ADDR" default:":8080"`
}

// loadConfig reads .env when present, binds the environment and initialises logging.
func loadConfig() (*AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("Could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(cfg.Environment),
		Level:       cfg.LogLevel,
	})
	return &cfg, nil
}

// app holds the wired workflow and the resources to release on exit.
type app struct {
	runner  graph.Runner
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires chat models, the tool client and the knowledge base into a runner.
func buildApp(ctx context.Context, cfg *AppConfig, m *metrics.Recorder) (*app, error) {
	a := &app{}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		ClassifierConfig: &cfg.Classifier,
		RespConfig:       &cfg.Response,
	})
	if err != nil {
		return nil, err
	}

	toolClient := tools.NewMCPClient(tools.ClientConfig{
		Endpoints: map[model.Endpoint]string{
			model.EndpointProductSearch: cfg.Tools.ProductSearchURL,
			model.EndpointOrders:        cfg.Tools.OrderURL,
		},
		Timeout: cfg.Tools.Timeout,
		Metrics: m,
	})
	a.closers = append(a.closers, func() { _ = toolClient.Close() })

	retriever := buildRetriever(ctx, cfg, cms, a)

	runner, err := graph.BuildResponseGraph(ctx, graph.Config{
		ChatModels:   cms,
		Response:     cfg.Response,
		Prompt:       cfg.Prompt,
		Conversation: cfg.Conversation,
		Tool:         cfg.Tools,
		Tools:        toolClient,
		Retriever:    retriever,
		Metrics:      m,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.runner = runner
	return a, nil
}

// buildRetriever connects the knowledge base. It returns nil when the index is
// unreachable, which leaves store questions on their static answers.
func buildRetriever(ctx context.Context, cfg *AppConfig, cms *nodes.ChatModels, a *app) rag.Retriever {
	pool, err := cfg.Postgres.New(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("Knowledge index unavailable")
		return nil
	}
	a.closers = append(a.closers, pool.Close)

	index, err := knowledge.NewPGVectorIndex(pool, cfg.Knowledge.Table, cfg.Knowledge.Dimension)
	if err != nil {
		logx.Warn().Err(err).Msg("Knowledge index misconfigured")
		return nil
	}
	embedder, err := knowledge.NewGeminiEmbedder(cms.Client, knowledge.EmbedderConfig{
		Model:     cfg.Knowledge.EmbeddingModel,
		Dimension: cfg.Knowledge.Dimension,
		TaskType:  knowledge.TaskRetrievalQuery,
	})
	if err != nil {
		logx.Warn().Err(err).Msg("Embedder misconfigured")
		return nil
	}

	retriever, err := knowledge.NewRetriever(embedder, index, embeddingCache(cfg, a), knowledge.RetrieverConfig{
		TopK:      cfg.Knowledge.TopK,
		Dimension: cfg.Knowledge.Dimension,
		Model:     cfg.Knowledge.EmbeddingModel,
		Timeout:   cfg.Knowledge.Timeout,
	})
	if err != nil {
		logx.Warn().Err(err).Msg("Knowledge retriever misconfigured")
		return nil
	}
	return retriever
}

// embeddingCache prefers Redis when configured and falls back to an in-process LRU.
func embeddingCache(cfg *AppConfig, a *app) knowledge.EmbeddingCache {
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New()
		if err == nil {
			a.closers = append(a.closers, func() { _ = rdb.Close() })
			logx.Info().Msg("Using Redis embedding cache")
			return repo.NewRedisEmbeddingCache(rdb, cfg.Knowledge.CacheTTL)
		}
		logx.Warn().Err(err).Msg("Redis unavailable; using in-process embedding cache")
	}
	return knowledge.NewLRUCache(cfg.Knowledge.CacheSize, cfg.Knowledge.CacheTTL)
}
