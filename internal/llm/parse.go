package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripMarkdownFences removes a surrounding markdown code fence if the
// model wrapped its JSON in one (```json ... ```).
func StripMarkdownFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line (may carry a language tag)
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = text[3:]
	}

	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSpace(text[:len(text)-3])
	}

	return text
}

// ExtractJSONObject locates the JSON object in model output, tolerating
// markdown fences and wrapper prose. Returns the raw object bytes or an
// error when no well-formed object can be found.
func ExtractJSONObject(raw string) ([]byte, error) {
	stripped := StripMarkdownFences(raw)

	if json.Valid([]byte(stripped)) && strings.HasPrefix(stripped, "{") {
		return []byte(stripped), nil
	}

	// Fall back to the outermost brace pair
	start := strings.Index(stripped, "{")
	end := strings.LastIndex(stripped, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object found in model output")
	}

	candidate := []byte(stripped[start : end+1])
	if !json.Valid(candidate) {
		return nil, fmt.Errorf("model output contains malformed JSON")
	}

	return candidate, nil
}
