package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/knowledge"
	"github.com/Chative-core-poc-v1/intent-router/internal/ingest"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

var (
	ingestDir         string
	ingestBatchSize   int
	ingestConcurrency int
	ingestChunkSize   int
	ingestOverlap     int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load documents into the knowledge base",
	Long: `Load .txt, .md and .html documents from a directory, split them into
overlapping chunks, embed them and insert them into the pgvector table.
The table is created with the configured dimension when missing.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "Document directory (defaults to DOC_DIR_PATH)")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 32, "Chunks per embedding call")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 4, "Concurrent embedding batches")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", ingest.DefaultChunkSize, "Chunk size in characters")
	ingestCmd.Flags().IntVar(&ingestOverlap, "chunk-overlap", ingest.DefaultChunkOverlap, "Overlap between chunks in characters")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ingestDir == "" {
		ingestDir = cfg.Knowledge.DocDirPath
	}

	docs, err := ingest.LoadDir(ctx, ingestDir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents found in %s", ingestDir)
	}

	pool, err := cfg.Postgres.New(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	index, err := knowledge.NewPGVectorIndex(pool, cfg.Knowledge.Table, cfg.Knowledge.Dimension)
	if err != nil {
		return err
	}

	client, err := nodes.NewGenAIClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return err
	}
	embedder, err := knowledge.NewGeminiEmbedder(client, knowledge.EmbedderConfig{
		Model:     cfg.Knowledge.EmbeddingModel,
		Dimension: cfg.Knowledge.Dimension,
		TaskType:  knowledge.TaskRetrievalDocument,
	})
	if err != nil {
		return err
	}

	pipeline, err := ingest.NewPipeline(embedder, index, ingest.Config{
		Dimension:   cfg.Knowledge.Dimension,
		BatchSize:   ingestBatchSize,
		Concurrency: ingestConcurrency,
		Chunker:     ingest.NewChunker(ingestChunkSize, ingestOverlap),
	})
	if err != nil {
		return err
	}

	stats, err := pipeline.Run(ctx, docs)
	if err != nil {
		return err
	}
	logx.Info().Str("dir", ingestDir).Str("table", cfg.Knowledge.Table).Int("chunks", stats.Chunks).Msg("Knowledge base updated")
	return nil
}
