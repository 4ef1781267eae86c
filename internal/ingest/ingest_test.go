package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/knowledge"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
)

func TestChunker_Split(t *testing.T) {
	c := NewChunker(20, 5)
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch)), 20)
		assert.Equal(t, strings.TrimSpace(ch), ch)
		for _, w := range strings.Fields(ch) {
			assert.Contains(t, text, w)
		}
	}
	assert.True(t, strings.HasPrefix(chunks[0], "alpha"))
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "kappa"))

	assert.Nil(t, c.Split("   "))
	assert.Equal(t, []string{"short text"}, c.Split("short text"))
}

func TestChunker_Overlap(t *testing.T) {
	c := NewChunker(12, 6)
	chunks := c.Split("aaaa bbbb cccc dddd")
	require.Len(t, chunks, 3)
	assert.Equal(t, "aaaa bbbb", chunks[0])
	assert.Equal(t, "bbbb cccc", chunks[1])
	assert.Equal(t, "cccc dddd", chunks[2])
}

func TestNewChunker_Defaults(t *testing.T) {
	c := NewChunker(0, -1)
	assert.Equal(t, DefaultChunkSize, c.Size)
	assert.Equal(t, 0, c.Overlap)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "returns.md"), []byte("# Returns\n\n\n\nWithin 7 days.\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages", "contact.html"),
		[]byte("<html><body><h1>Contact</h1><script>alert(1)</script><p>Call us</p></body></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0x89, 0x50}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), []byte("  \n"), 0o644))

	docs, err := LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "pages/contact.html", docs[0].Source)
	assert.Contains(t, docs[0].Text, "Contact")
	assert.Contains(t, docs[0].Text, "Call us")
	assert.NotContains(t, docs[0].Text, "<p>")
	assert.NotContains(t, docs[0].Text, "alert")

	assert.Equal(t, "returns.md", docs[1].Source)
	assert.Equal(t, "# Returns\n\nWithin 7 days.", docs[1].Text)
}

type fakeEmbedder struct {
	dim int
	err error
}

func (f fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = make([]float64, f.dim)
		out[i][0] = float64(len(texts[i]))
	}
	return out, nil
}

type memoryStore struct {
	mu      sync.Mutex
	ensured bool
	chunks  []knowledge.Chunk
}

func (s *memoryStore) EnsureSchema(context.Context) error {
	s.ensured = true
	return nil
}

func (s *memoryStore) Insert(_ context.Context, chunks []knowledge.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func TestPipeline_Run(t *testing.T) {
	store := &memoryStore{}
	p, err := NewPipeline(fakeEmbedder{dim: 4}, store, Config{Dimension: 4, BatchSize: 2, Concurrency: 2, Chunker: NewChunker(20, 0)})
	require.NoError(t, err)

	docs := []Document{
		{Source: "a.md", Text: "one two three four five six seven eight nine ten"},
		{Source: "b.md", Text: "short"},
	}
	stats, err := p.Run(context.Background(), docs)
	require.NoError(t, err)

	assert.True(t, store.ensured)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, len(store.chunks), stats.Chunks)
	assert.Greater(t, stats.Chunks, 2)
	for _, c := range store.chunks {
		assert.Len(t, c.Vector, 4)
		assert.NotEmpty(t, c.Source)
	}
}

func TestPipeline_RejectsDimensionMismatch(t *testing.T) {
	store := &memoryStore{}
	p, err := NewPipeline(fakeEmbedder{dim: 3}, store, Config{Dimension: 4})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), []Document{{Source: "a.md", Text: "hello"}})
	require.Error(t, err)
	assert.Equal(t, errx.KindPrecondition, errx.KindOf(err))
	assert.Empty(t, store.chunks)
}

func TestPipeline_EmbedFailure(t *testing.T) {
	p, err := NewPipeline(fakeEmbedder{err: errors.New("quota exceeded")}, &memoryStore{}, Config{Dimension: 4})
	require.NoError(t, err)
	_, err = p.Run(context.Background(), []Document{{Source: "a.md", Text: "hello"}})
	assert.ErrorContains(t, err, "quota exceeded")
}
