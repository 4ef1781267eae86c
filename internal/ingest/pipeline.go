package ingest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"golang.org/x/sync/errgroup"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/knowledge"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// Store receives embedded chunks.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, chunks []knowledge.Chunk) error
}

type Config struct {
	Dimension   int
	BatchSize   int
	Concurrency int
	Chunker     Chunker
}

// Stats summarises one ingestion.
type Stats struct {
	Documents int
	Chunks    int
	Elapsed   time.Duration
}

// Pipeline chunks documents, embeds the chunks in batches and inserts them.
type Pipeline struct {
	embedder embedding.Embedder
	store    Store
	cfg      Config
}

func NewPipeline(embedder embedding.Embedder, store Store, cfg Config) (*Pipeline, error) {
	if embedder == nil || store == nil {
		return nil, fmt.Errorf("ingestion needs an embedder and a store")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Chunker.Size <= 0 {
		cfg.Chunker = NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	}
	return &Pipeline{embedder: embedder, store: store, cfg: cfg}, nil
}

// Run ingests docs. Batches are embedded and inserted concurrently; the first
// failure cancels the rest.
func (p *Pipeline) Run(ctx context.Context, docs []Document) (Stats, error) {
	start := time.Now()
	if err := p.store.EnsureSchema(ctx); err != nil {
		return Stats{}, err
	}

	var pending []knowledge.Chunk
	for _, d := range docs {
		for _, text := range p.cfg.Chunker.Split(d.Text) {
			pending = append(pending, knowledge.Chunk{Source: d.Source, Content: text})
		}
	}

	var inserted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i := 0; i < len(pending); i += p.cfg.BatchSize {
		batch := pending[i:min(i+p.cfg.BatchSize, len(pending))]
		g.Go(func() error {
			if err := p.embedBatch(gctx, batch); err != nil {
				return err
			}
			if err := p.store.Insert(gctx, batch); err != nil {
				return err
			}
			inserted.Add(int64(len(batch)))
			return nil
		})
	}
	err := g.Wait()

	stats := Stats{Documents: len(docs), Chunks: int(inserted.Load()), Elapsed: time.Since(start)}
	logx.Info().
		Int("documents", stats.Documents).
		Int("chunks", stats.Chunks).
		Dur("elapsed", stats.Elapsed).
		Err(err).
		Msg("Ingestion finished")
	return stats, err
}

func (p *Pipeline) embedBatch(ctx context.Context, batch []knowledge.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}
	vecs, err := p.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return err
	}
	if len(vecs) != len(batch) {
		return errx.Malformed(knowledge.Capability, fmt.Errorf("got %d embeddings for %d chunks", len(vecs), len(batch)))
	}
	for i, v := range vecs {
		if p.cfg.Dimension > 0 && len(v) != p.cfg.Dimension {
			return errx.Precondition(knowledge.Capability,
				fmt.Sprintf("embedding dimension %d does not match index dimension %d", len(v), p.cfg.Dimension))
		}
		batch[i].Vector = knowledge.ToFloat32(v)
	}
	return nil
}
