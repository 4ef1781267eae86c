package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"

	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
)

// Capability names the knowledge base in errors and user-facing text.
const Capability = "knowledge base"

// Gemini embedding task types.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

type EmbedderConfig struct {
	Model     string
	Dimension int
	TaskType  string
}

// GeminiEmbedder embeds text with the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	cfg    EmbedderConfig
}

func NewGeminiEmbedder(client *genai.Client, cfg EmbedderConfig) (*GeminiEmbedder, error) {
	if client == nil {
		return nil, errors.New("genai client is nil")
	}
	if cfg.Model == "" {
		return nil, errors.New("embedding model is empty")
	}
	return &GeminiEmbedder{client: client, cfg: cfg}, nil
}

// EmbedStrings returns one vector per input text, in input order.
func (e *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	cfg := &genai.EmbedContentConfig{TaskType: e.cfg.TaskType}
	if e.cfg.Dimension > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(e.cfg.Dimension))
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.cfg.Model, contents, cfg)
	if err != nil {
		return nil, errx.Transport(Capability, fmt.Errorf("embed content: %w", err))
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, errx.Malformed(Capability, fmt.Errorf("expected %d embeddings", len(texts)))
	}

	out := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil {
			return nil, errx.Malformed(Capability, fmt.Errorf("embedding %d is empty", i))
		}
		out[i] = toFloat64(emb.Values)
	}
	return out, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// ToFloat32 narrows an embedding to the index precision.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

var _ embedding.Embedder = (*GeminiEmbedder)(nil)
