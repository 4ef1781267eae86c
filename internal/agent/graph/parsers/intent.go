package parsers

import (
	"strings"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
)

var labelReplacer = strings.NewReplacer(" ", "_", "-", "_", "\"", "", "'", "", "`", "", ".", "", "*", "")

// ParseIntentLabel matches classifier output against the closed intent set.
// Matching is case-insensitive and tolerant of whitespace, quotes, code fences,
// a leading "intent:" and a JSON object carrying an "intent" field. It reports
// false when the output names no label or more than one.
func ParseIntentLabel(content string) (model.Intent, bool) {
	s := StripFences(content)
	if s == "" {
		return "", false
	}

	var obj struct {
		Intent string `json:"intent"`
	}
	if strings.Contains(s, "{") && DecodeJSONObject(s, &obj) == nil && obj.Intent != "" {
		s = obj.Intent
	}

	if i, ok := normalizeLabel(s); ok {
		return i, true
	}

	// Fall back to a single label mentioned in free text, e.g. "The intent is order_status."
	lower := strings.ToLower(s)
	var found model.Intent
	for _, i := range model.Intents {
		if containsLabel(lower, i) {
			if found != "" {
				return "", false
			}
			found = i
		}
	}
	return found, found != ""
}

func normalizeLabel(s string) (model.Intent, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "intent:")
	s = labelReplacer.Replace(strings.Join(strings.Fields(s), " "))
	s = strings.Trim(s, "_")
	i := model.Intent(s)
	return i, i.Valid()
}

// containsLabel matches a label or its spaced form on word boundaries.
func containsLabel(lower string, i model.Intent) bool {
	for _, form := range []string{string(i), strings.ReplaceAll(string(i), "_", " ")} {
		idx := strings.Index(lower, form)
		for idx >= 0 {
			end := idx + len(form)
			if (idx == 0 || !isWordByte(lower[idx-1])) && (end == len(lower) || !isWordByte(lower[end])) {
				return true
			}
			next := strings.Index(lower[idx+1:], form)
			if next < 0 {
				break
			}
			idx += next + 1
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
