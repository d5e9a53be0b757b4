package orchestrator

import (
	"encoding/json"
	"strconv"
	"strings"

	contractx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/contract"
)

// ParseExtraction pulls a single JSON object out of free-form model output.
// Markdown code fences are stripped and prose around the object is ignored.
// Unparsable output degrades to an empty extraction instead of an error, so
// parse failures can never become failures inside the state machine.
func ParseExtraction(raw string) contractx.Extraction {
	fallback := contractx.Extraction{Parameters: map[string]string{}}

	body := stripCodeFences(raw)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return fallback
	}

	var decoded struct {
		Intent     string         `json:"intent"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(body[start:end+1]), &decoded); err != nil {
		return fallback
	}

	out := contractx.Extraction{
		Intent:     strings.TrimSpace(decoded.Intent),
		Parameters: make(map[string]string, len(decoded.Parameters)),
	}
	for key, value := range decoded.Parameters {
		switch v := value.(type) {
		case nil:
		case string:
			out.Parameters[key] = strings.TrimSpace(v)
		case float64:
			out.Parameters[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out.Parameters[key] = strconv.FormatBool(v)
		default:
			if encoded, err := json.Marshal(v); err == nil {
				out.Parameters[key] = string(encoded)
			}
		}
	}
	return out
}

func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	// Drop a language tag on the opening fence line.
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
