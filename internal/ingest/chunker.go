package ingest

import (
	"strings"
	"unicode"
)

// Chunking defaults for knowledge documents.
const (
	DefaultChunkSize    = 900
	DefaultChunkOverlap = 50
)

// Chunker splits text into overlapping windows of at most Size characters,
// ending each window on whitespace where possible.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return Chunker{Size: size, Overlap: overlap}
}

// Split returns the chunks of text in order. Sizes count runes.
func (c Chunker) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.Size
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpace(runes[start:end]); cut > c.Size/2 {
			end = start + cut
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - c.Overlap
		if next <= start {
			next = end
		}
		// start the overlap on a word boundary
		for next < end && !unicode.IsSpace(runes[next-1]) {
			next++
		}
		start = next
	}
	return chunks
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if unicode.IsSpace(rs[i]) {
			return i
		}
	}
	return -1
}
