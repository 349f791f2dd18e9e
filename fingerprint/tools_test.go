package fingerprint

import (
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestSchemasFromTools(t *testing.T) {
	tools := []openai.Tool{
		{
			Type: "function",
			Function: &openai.FunctionDefinition{
				Name:        "web_search",
				Description: "Search the web",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"}}}`),
			},
		},
		{Type: "function"}, // no function body: skipped
	}
	schemas := SchemasFromTools(tools)
	if len(schemas) != 1 {
		t.Fatalf("expected 1 schema, got %d", len(schemas))
	}
	if schemas[0]["name"] != "web_search" || schemas[0]["description"] != "Search the web" {
		t.Fatalf("unexpected schema: %v", schemas[0])
	}
	params, ok := schemas[0]["parameters"].(map[string]any)
	if !ok || params["type"] != "object" {
		t.Fatalf("parameters not normalized to a map: %v", schemas[0]["parameters"])
	}
}

func TestSchemasFromTools_FingerprintStableAcrossEncodings(t *testing.T) {
	// The same logical schema declared as raw JSON and as a map must
	// fingerprint identically after bridging.
	raw := []openai.Tool{{
		Type: "function",
		Function: &openai.FunctionDefinition{
			Name:       "read_file",
			Parameters: json.RawMessage(`{"properties":{"path":{"type":"string"}},"type":"object"}`),
		},
	}}
	asMap := []openai.Tool{{
		Type: "function",
		Function: &openai.FunctionDefinition{
			Name: "read_file",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"path": map[string]any{"type": "string"}},
			},
		},
	}}
	a := Compute(Input{Model: "m", Tools: SchemasFromTools(raw)})
	b := Compute(Input{Model: "m", Tools: SchemasFromTools(asMap)})
	if a != b {
		t.Fatalf("encoding of tool parameters changed fingerprint")
	}
}
