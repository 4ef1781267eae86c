package nodes

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
)

// truncate shortens s to at most n bytes for log and error output.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// decodeObjectField re-decodes payload[key] of a tool result into v.
func decodeObjectField(capability string, res *model.ToolResult, key string, v any) error {
	obj, ok := res.Object()
	if !ok {
		return errx.Malformed(capability, fmt.Errorf("expected a JSON object"))
	}
	raw, ok := obj[key]
	if !ok || raw == nil {
		return errx.Malformed(capability, fmt.Errorf("missing %q in tool result", key))
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return errx.Malformed(capability, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errx.Malformed(capability, fmt.Errorf("decode %q: %w", key, err))
	}
	return nil
}

// joinWithAnd renders "a", "a and b" or "a, b and c".
func joinWithAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
