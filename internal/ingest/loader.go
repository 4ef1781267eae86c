package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Document is one source file reduced to plain text.
type Document struct {
	Source string
	Text   string
}

var supportedExts = map[string]bool{".txt": true, ".md": true, ".html": true, ".htm": true}

// LoadDir walks dir and returns every supported document in path order.
// HTML markup is stripped; empty documents are skipped.
func LoadDir(ctx context.Context, dir string) ([]Document, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !supportedExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	policy := bluemonday.StrictPolicy()
	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		text := string(raw)
		if ext := strings.ToLower(filepath.Ext(path)); ext == ".html" || ext == ".htm" {
			text = policy.Sanitize(text)
		}
		text = normalizeSpace(text)
		if text == "" {
			continue
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		docs = append(docs, Document{Source: filepath.ToSlash(rel), Text: text})
	}
	return docs, nil
}

// normalizeSpace collapses runs of blank lines and trims each line.
func normalizeSpace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
