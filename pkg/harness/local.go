package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/systmms/rotatefn/internal/errors"
)

// TestDocument is an ordered batch of events for local replay. It is
// accepted as JSON or YAML; YAML is normalized to JSON before schema
// validation so both forms are held to the same shape.
type TestDocument[E any] struct {
	Region      string `json:"region"`
	Invocations []E    `json:"invocations"`
}

const testDocumentSchema = `{
	"type": "object",
	"required": ["region", "invocations"],
	"properties": {
		"region": {"type": "string", "minLength": 1},
		"invocations": {"type": "array"}
	}
}`

// LoadTestDocument parses and validates a test document. Malformed
// documents are configuration errors and fail before any invocation
// runs.
func LoadTestDocument[E any](data []byte) (*TestDocument[E], error) {
	normalized := data
	if !json.Valid(data) {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &errors.ConfigError{
				Field:      "document",
				Message:    fmt.Sprintf("not valid JSON or YAML: %v", err),
				Suggestion: "check the document syntax; both JSON and YAML are accepted",
			}
		}
		var err error
		normalized, err = json.Marshal(raw)
		if err != nil {
			return nil, &errors.ConfigError{
				Field:   "document",
				Message: fmt.Sprintf("cannot normalize YAML document: %v", err),
			}
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(testDocumentSchema),
		gojsonschema.NewBytesLoader(normalized),
	)
	if err != nil {
		return nil, &errors.ConfigError{
			Field:   "document",
			Message: fmt.Sprintf("schema validation failed: %v", err),
		}
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, &errors.ConfigError{
			Field:      "document",
			Message:    strings.Join(problems, "; "),
			Suggestion: "a test document needs a non-empty region and an invocations array",
		}
	}

	var doc TestDocument[E]
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, &errors.ConfigError{
			Field:   "invocations",
			Message: fmt.Sprintf("cannot parse events: %v", err),
		}
	}
	return &doc, nil
}

// LoadTestDocumentFile reads and parses a test document from disk.
func LoadTestDocumentFile[E any](path string) (*TestDocument[E], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.ConfigError{
			Field:   "document",
			Message: fmt.Sprintf("cannot read %s: %v", path, err),
		}
	}
	return LoadTestDocument[E](data)
}

// Replay drives each event of the document through the same invocation
// path as production, sequentially and with no deadline. The document's
// region overrides the harness region for the duration of the replay.
// The first error aborts the replay; results of completed invocations
// are returned alongside it.
func (h *Harness[S, E, R]) Replay(ctx context.Context, doc *TestDocument[E]) ([]R, error) {
	results := make([]R, 0, len(doc.Invocations))
	for i, event := range doc.Invocations {
		ret, err := h.invoke(ctx, event, 0, doc.Region)
		if err != nil {
			return results, fmt.Errorf("invocation %d: %w", i, err)
		}
		results = append(results, ret)
	}
	return results, nil
}
