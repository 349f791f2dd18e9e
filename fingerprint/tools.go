package fingerprint

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"
)

// SchemasFromTools converts OpenAI-compatible tool definitions into the plain
// field maps Compute consumes. Call sites that already build []openai.Tool for
// chat requests can fingerprint the same definitions without re-declaring them.
// Tools without a function body are skipped.
func SchemasFromTools(tools []openai.Tool) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		if t.Function == nil {
			continue
		}
		schema := map[string]any{
			"name": t.Function.Name,
		}
		if t.Function.Description != "" {
			schema["description"] = t.Function.Description
		}
		if t.Function.Parameters != nil {
			// Round-trip through JSON so the parameters become ordinary maps
			// and hash identically however the caller constructed them.
			if b, err := json.Marshal(t.Function.Parameters); err == nil {
				var params any
				if err := json.Unmarshal(b, &params); err == nil {
					schema["parameters"] = params
				}
			}
		}
		out = append(out, schema)
	}
	return out
}
