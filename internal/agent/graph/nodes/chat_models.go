package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey           string
	BaseURL          string
	ClassifierConfig *model.ClassifierModelConfig
	RespConfig       *model.ResponseModelConfig
}

// ChatModels holds the classifier and response chat models and the shared Gemini client.
type ChatModels struct {
	Client              *genai.Client
	Classifier          *gemini.ChatModel
	Response            *gemini.ChatModel
	ClassifierModelName string
	ResponseModelName   string
}

// NewGenAIClient creates the Gemini client shared by chat models and the embedder.
func NewGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModels creates both classifier and response chat models with the given configuration
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.ClassifierConfig == nil || config.RespConfig == nil {
		return nil, fmt.Errorf("chat model configs are nil")
	}

	client, err := NewGenAIClient(ctx, config.APIKey, config.BaseURL)
	if err != nil {
		return nil, err
	}

	// Classification is a single-label answer, so thinking stays off.
	classifier, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ClassifierConfig.Model,
		Temperature: &config.ClassifierConfig.Temperature,
		MaxTokens:   &config.ClassifierConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating classifier model")
		return nil, fmt.Errorf("error creating classifier model: %w", err)
	}

	response, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.RespConfig.Model,
		Temperature: &config.RespConfig.Temperature,
		MaxTokens:   &config.RespConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(1024)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating response model")
		return nil, fmt.Errorf("error creating response model: %w", err)
	}

	return &ChatModels{
		Client:              client,
		Classifier:          classifier,
		Response:            response,
		ClassifierModelName: config.ClassifierConfig.Model,
		ResponseModelName:   config.RespConfig.Model,
	}, nil
}
