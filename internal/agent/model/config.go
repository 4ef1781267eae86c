package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	// HistoryTurns bounds how many earlier turns the classifier sees.
	HistoryTurns int `envconfig:"CONVERSATION_HISTORY_TURNS" default:"4"`
}

type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"64"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0"`
}

type ResponseModelConfig struct {
	Model       string        `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int           `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature float32       `envconfig:"RESPONSE_TEMPERATURE" default:"0.4"`
	Timeout     time.Duration `envconfig:"GENERATION_TIMEOUT" default:"30s"`
}

type ResponsePromptConfig struct {
	BusinessType string `envconfig:"PROMPT_BUSINESS_TYPE" default:"fashion store"`
	BrandName    string `envconfig:"PROMPT_BRAND_NAME" default:"CNX Store"`
}

type ToolConfig struct {
	ProductSearchURL string        `envconfig:"PRODUCT_SEARCH_MCP_URL" default:"http://localhost:8090/mcp"`
	OrderURL         string        `envconfig:"ORDER_MCP_URL" default:"http://localhost:8090/mcp"`
	Timeout          time.Duration `envconfig:"TOOL_TIMEOUT" default:"30s"`
	// DefaultQuantity is used when an order request names no quantity; 0 makes quantity mandatory.
	DefaultQuantity int `envconfig:"ORDER_DEFAULT_QUANTITY" default:"1"`
}

type KnowledgeConfig struct {
	TopK           int           `envconfig:"KNOWLEDGE_TOP_K" default:"8"`
	Dimension      int           `envconfig:"KNOWLEDGE_DIMENSION" default:"768"`
	EmbeddingModel string        `envconfig:"KNOWLEDGE_EMBEDDING_MODEL" default:"text-embedding-004"`
	Table          string        `envconfig:"KNOWLEDGE_TABLE" default:"documents"`
	CacheSize      int           `envconfig:"KNOWLEDGE_CACHE_SIZE" default:"1024"`
	CacheTTL       time.Duration `envconfig:"KNOWLEDGE_CACHE_TTL" default:"24h"`
	Timeout        time.Duration `envconfig:"KNOWLEDGE_TIMEOUT" default:"15s"`
	DocDirPath     string        `envconfig:"DOC_DIR_PATH" default:"docs"`
}

// DefaultTopK is the retrieval depth used when none is configured.
const DefaultTopK = 8
