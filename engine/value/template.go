package value

import (
	"fmt"
	"slices"
	"sync"
	"text/template"

	"github.com/compozy/taskfactory/pkg/tplengine"
)

// Getter is anything exposing parameter reads by name.
type Getter interface {
	Get(name string) (any, error)
}

// Lookuper is anything exposing named runtime arguments.
type Lookuper interface {
	Lookup(name string) (any, bool)
}

func newTemplateEngine(format tplengine.EngineFormat) func() *tplengine.TemplateEngine {
	return sync.OnceValue(func() *tplengine.TemplateEngine {
		return tplengine.NewEngine(format).WithFuncNames("param", "arg")
	})
}

var templateEngines = map[tplengine.EngineFormat]func() *tplengine.TemplateEngine{
	tplengine.FormatText: newTemplateEngine(tplengine.FormatText),
	tplengine.FormatYAML: newTemplateEngine(tplengine.FormatYAML),
	tplengine.FormatJSON: newTemplateEngine(tplengine.FormatJSON),
}

// TemplateValue is a deferred value rendered from a text template. Inside the
// template, {{ param "x" }} reads a parameter of the first context argument
// implementing Getter and {{ arg "x" }} reads a runtime argument from the
// first map-shaped context argument. Sprig functions are available.
type TemplateValue struct {
	format tplengine.EngineFormat
	text   string
	pre    []any
	post   []any
}

// Template returns a deferred value rendering text on every evaluation.
func Template(text string) *TemplateValue {
	return &TemplateValue{format: tplengine.FormatText, text: text}
}

// TemplateAs is Template with the rendered text decoded as a YAML or JSON
// document, so a template can produce lists and maps.
func TemplateAs(format tplengine.EngineFormat, text string) (*TemplateValue, error) {
	if _, ok := templateEngines[format]; !ok {
		return nil, fmt.Errorf("unsupported template format %q", format)
	}
	return &TemplateValue{format: format, text: text}, nil
}

func (t *TemplateValue) Evaluate(args ...any) (any, error) {
	all := make([]any, 0, len(t.pre)+len(args)+len(t.post))
	all = append(all, t.pre...)
	all = append(all, args...)
	all = append(all, t.post...)

	getter, lookup := templateSources(all)
	funcs := template.FuncMap{
		"param": func(name string) (any, error) {
			if getter == nil {
				return nil, fmt.Errorf("param %q: no parameter source in context", name)
			}
			return getter.Get(name)
		},
		"arg": func(name string) (any, error) {
			if lookup == nil {
				return nil, nil
			}
			v, _ := lookup(name)
			return v, nil
		},
	}
	res, err := templateEngines[t.format]().ProcessWithFuncs(t.text, nil, funcs)
	if err != nil {
		return nil, fmt.Errorf("render template value: %w", err)
	}
	return res.Value(), nil
}

func (t *TemplateValue) PrependArgument(arg any) Value {
	return &TemplateValue{
		format: t.format,
		text:   t.text,
		pre:    append([]any{arg}, t.pre...),
		post:   slices.Clone(t.post),
	}
}

func (t *TemplateValue) AppendArgument(arg any) Value {
	return &TemplateValue{
		format: t.format,
		text:   t.text,
		pre:    slices.Clone(t.pre),
		post:   append(slices.Clone(t.post), arg),
	}
}

func templateSources(args []any) (Getter, func(string) (any, bool)) {
	var getter Getter
	var lookup func(string) (any, bool)
	for _, arg := range args {
		switch a := arg.(type) {
		case Getter:
			if getter == nil {
				getter = a
			}
		case Lookuper:
			if lookup == nil {
				lookup = a.Lookup
			}
		case map[string]any:
			if lookup == nil {
				lookup = func(name string) (any, bool) {
					v, ok := a[name]
					return v, ok
				}
			}
		}
	}
	return getter, lookup
}
