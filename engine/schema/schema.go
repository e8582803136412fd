package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kaptinlin/jsonschema"
)

// ErrInvalid is wrapped by every schema validation failure.
var ErrInvalid = errors.New("schema validation failed")

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

// Schema is a JSON schema document attached to a parameter.
type Schema map[string]any
type Result = jsonschema.EvaluationResult

const compiledCacheSize = 128

var compiled, _ = lru.New[string, *jsonschema.Schema](compiledCacheSize)

func (s *Schema) String() string {
	bytes, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(bytes)
}

// Compile compiles the schema, reusing an earlier compilation of an identical
// document.
func (s *Schema) Compile() (*jsonschema.Schema, error) {
	if s == nil || *s == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	key := string(bytes)
	if schema, ok := compiled.Get(key); ok {
		return schema, nil
	}
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	compiled.Add(key, schema)
	return schema, nil
}

// Validate checks value against the schema. Go values are normalized through
// their JSON form first so typed slices and maps validate like decoded JSON.
func (s *Schema) Validate(_ context.Context, value any) (*Result, error) {
	schema, err := s.Compile()
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, nil
	}
	normalized, err := normalize(value)
	if err != nil {
		return nil, err
	}
	result := schema.Validate(normalized)
	if result.Valid {
		return result, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalid, describe(result))
}

func normalize(value any) (any, error) {
	bytes, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON compatible: %w", err)
	}
	var out any
	if err := json.Unmarshal(bytes, &out); err != nil {
		return nil, fmt.Errorf("value is not JSON compatible: %w", err)
	}
	return out, nil
}

func describe(result *Result) string {
	keys := make([]string, 0, len(result.Errors))
	for key := range result.Errors {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", key, result.Errors[key]))
	}
	if len(parts) == 0 {
		return "value does not match schema"
	}
	return strings.Join(parts, "; ")
}
