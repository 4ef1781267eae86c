package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
)

func TestParseHistory(t *testing.T) {
	turns := parseHistory([]string{"user:I want a shirt", "agent: Which colour?", "blue"})
	assert.Equal(t, []model.ChatTurn{
		{Source: "user", Content: "I want a shirt"},
		{Source: "agent", Content: " Which colour?"},
		{Source: "user", Content: "blue"},
	}, turns)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("REDIS_URL", "")

	cfg, err := loadConfig()
	assert.NoError(t, err)
	assert.Equal(t, 8, cfg.Knowledge.TopK)
	assert.Equal(t, 768, cfg.Knowledge.Dimension)
	assert.Equal(t, 1, cfg.Tools.DefaultQuantity)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadConfig_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))
	_, err := loadConfig()
	assert.Error(t, err)
}
