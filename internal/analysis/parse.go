package analysis

import (
	"encoding/json"
	"strings"
)

// stripFences removes a surrounding ```json / ``` block if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSuffix(s, "```")
		return strings.TrimSpace(s)
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		return strings.TrimSpace(s)
	}
	return s
}

// decodeObject parses a model reply into v, tolerating markdown fences and
// surrounding prose. Returns the cleaned JSON actually decoded.
func decodeObject(content string, v interface{}) (string, error) {
	clean := stripFences(content)
	if err := json.Unmarshal([]byte(clean), v); err != nil {
		start := strings.Index(clean, "{")
		end := strings.LastIndex(clean, "}")
		if start >= 0 && end > start {
			inner := clean[start : end+1]
			if err2 := json.Unmarshal([]byte(inner), v); err2 == nil {
				return inner, nil
			}
		}
		return "", err
	}
	return clean, nil
}
