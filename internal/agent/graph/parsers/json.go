package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// maxContentLen bounds model output handed to the parsers.
const maxContentLen = 128 * 1024 // 128KB

var codeFence = regexp.MustCompile("```[a-zA-Z]*")

// ErrNoJSON is returned when model output carries no JSON object.
var ErrNoJSON = errors.New("no json object in model output")

// StripFences removes markdown code fences and surrounding quotes or backticks.
func StripFences(content string) string {
	if len(content) > maxContentLen {
		content = content[:maxContentLen]
	}
	return strings.Trim(codeFence.ReplaceAllString(content, ""), "` \t\r\n")
}

// ExtractJSONObject returns the outermost {...} span of model output.
func ExtractJSONObject(content string) (string, error) {
	s := StripFences(content)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}

// DecodeJSONObject extracts the JSON object embedded in model output into v.
func DecodeJSONObject(content string, v any) error {
	obj, err := ExtractJSONObject(content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}
