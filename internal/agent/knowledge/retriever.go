package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

type RetrieverConfig struct {
	TopK      int
	Dimension int
	// Model namespaces cache keys.
	Model   string
	Timeout time.Duration
}

// Retriever embeds a query and returns the top-K passages of an index in
// descending score order.
type Retriever struct {
	embedder embedding.Embedder
	index    Index
	cache    EmbeddingCache
	cfg      RetrieverConfig
}

// NewRetriever wires an embedder and an index. cache may be nil.
func NewRetriever(embedder embedding.Embedder, index Index, cache EmbeddingCache, cfg RetrieverConfig) (*Retriever, error) {
	if embedder == nil || index == nil {
		return nil, errors.New("retriever needs an embedder and an index")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", cfg.Dimension)
	}
	if cfg.TopK <= 0 {
		cfg.TopK = model.DefaultTopK
	}
	return &Retriever{embedder: embedder, index: index, cache: cache, cfg: cfg}, nil
}

// Retrieve returns at most TopK passages ordered by non-increasing score.
// A query vector whose length differs from the configured dimension is a
// precondition failure and never reaches the index.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]model.RetrievedPassage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	vec, err := r.embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(vec) != r.cfg.Dimension {
		return nil, errx.Precondition(Capability,
			fmt.Sprintf("query embedding has dimension %d, index expects %d", len(vec), r.cfg.Dimension))
	}

	passages, err := r.index.Search(ctx, vec, r.cfg.TopK)
	if err != nil {
		if errx.KindOf(err) == errx.KindUnknown {
			err = errx.Transport(Capability, err)
		}
		return nil, err
	}

	sort.SliceStable(passages, func(i, j int) bool { return passages[i].Score > passages[j].Score })
	if len(passages) > r.cfg.TopK {
		passages = passages[:r.cfg.TopK]
	}

	logx.Debug().
		Str("run_id", model.RunIDFrom(ctx)).
		Int("passages", len(passages)).
		Int("top_k", r.cfg.TopK).
		Msg("Knowledge retrieval finished")
	return passages, nil
}

func (r *Retriever) embed(ctx context.Context, query string) ([]float32, error) {
	key := CacheKey(r.cfg.Model, r.cfg.Dimension, query)
	if r.cache != nil {
		if vec, ok := r.cache.Get(ctx, key); ok {
			return vec, nil
		}
	}

	vecs, err := r.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		if errx.KindOf(err) == errx.KindUnknown {
			err = errx.Transport(Capability, err)
		}
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, errx.Malformed(Capability, fmt.Errorf("expected 1 embedding, got %d", len(vecs)))
	}

	vec := ToFloat32(vecs[0])
	if r.cache != nil && len(vec) == r.cfg.Dimension {
		r.cache.Set(ctx, key, vec)
	}
	return vec, nil
}
