package tplengine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"
)

// EngineFormat represents the format of the template engine output
type EngineFormat string

const (
	// FormatYAML represents YAML output format
	FormatYAML EngineFormat = "yaml"
	// FormatJSON represents JSON output format
	FormatJSON EngineFormat = "json"
	// FormatText represents plain text output format
	FormatText EngineFormat = "text"
)

// DefaultCacheSize is the number of parsed templates kept by an engine.
const DefaultCacheSize = 256

// TemplateEngine renders sprig-enabled text templates. Parsed templates are
// cached by source text; each render executes a clone so per-call functions
// can be bound without affecting other callers.
type TemplateEngine struct {
	cache        *lru.Cache[string, *template.Template]
	placeholders template.FuncMap
	format       EngineFormat
}

// ProcessResult contains the result of processing a template
type ProcessResult struct {
	Format EngineFormat
	Text   string
	YAML   any
	JSON   any
}

// NewEngine creates a new template engine with the specified format
func NewEngine(format EngineFormat) *TemplateEngine {
	cache, err := lru.New[string, *template.Template](DefaultCacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &TemplateEngine{
		cache:        cache,
		placeholders: template.FuncMap{},
		format:       format,
	}
}

// WithFuncNames declares functions that are bound per render through
// RenderWithFuncs. The names must be known before a template is parsed.
func (e *TemplateEngine) WithFuncNames(names ...string) *TemplateEngine {
	for _, name := range names {
		e.placeholders[name] = func(...any) (any, error) {
			return nil, fmt.Errorf("template function %q is not bound", name)
		}
	}
	e.cache.Purge()
	return e
}

// HasTemplate returns true if the template contains template markers
func HasTemplate(text string) bool {
	return strings.Contains(text, "{{")
}

// Parse returns the parsed template for text, reusing a cached parse when possible.
func (e *TemplateEngine) Parse(text string) (*template.Template, error) {
	if tmpl, ok := e.cache.Get(text); ok {
		return tmpl, nil
	}
	tmpl, err := template.New("inline").
		Option("missingkey=error").
		Funcs(sprig.FuncMap()).
		Funcs(e.placeholders).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	e.cache.Add(text, tmpl)
	return tmpl, nil
}

// RenderWithFuncs renders text with funcs bound for this execution only.
func (e *TemplateEngine) RenderWithFuncs(text string, context map[string]any, funcs template.FuncMap) (string, error) {
	if !HasTemplate(text) {
		return text, nil
	}
	parsed, err := e.Parse(text)
	if err != nil {
		return "", err
	}
	tmpl, err := parsed.Clone()
	if err != nil {
		return "", fmt.Errorf("failed to clone template: %w", err)
	}
	if len(funcs) > 0 {
		tmpl = tmpl.Funcs(funcs)
	}
	if context == nil {
		context = map[string]any{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, context); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return buf.String(), nil
}

// ProcessWithFuncs renders text with funcs bound for this execution only and
// decodes the result according to the engine format.
func (e *TemplateEngine) ProcessWithFuncs(
	text string,
	context map[string]any,
	funcs template.FuncMap,
) (*ProcessResult, error) {
	rendered, err := e.RenderWithFuncs(text, context, funcs)
	if err != nil {
		return nil, err
	}
	result := &ProcessResult{Format: e.format, Text: rendered}
	switch e.format {
	case FormatYAML:
		var yamlObj any
		if err := yaml.Unmarshal([]byte(rendered), &yamlObj); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		result.YAML = yamlObj
	case FormatJSON:
		var jsonObj any
		if err := json.Unmarshal([]byte(rendered), &jsonObj); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		result.JSON = jsonObj
	}
	return result, nil
}

// Value returns the document decoded for the result format, or the rendered
// text for FormatText.
func (r *ProcessResult) Value() any {
	switch r.Format {
	case FormatJSON:
		return r.JSON
	case FormatYAML:
		return r.YAML
	default:
		return r.Text
	}
}
