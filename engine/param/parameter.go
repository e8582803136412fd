// Package param declares named parameters, the ordered sets blueprints keep
// them in, per-instance storage and the restricted views handed to
// configuration callables.
package param

import (
	"context"

	"github.com/compozy/taskfactory/engine/core"
	"github.com/compozy/taskfactory/engine/schema"
)

// TransformFunc is applied to a resolved value on every read.
type TransformFunc func(v any) (any, error)

// Options is a constructor option map. The presence of a key matters, not
// its value: an explicit nil replaces the default.
type Options map[string]any

// Parameter declares one named field of a blueprint. It never stores an
// instance value.
type Parameter struct {
	Name         string
	Default      any
	Required     bool
	Configurable bool
	Transform    TransformFunc
	Schema       *schema.Schema
}

type Option func(*Parameter)

// New declares a configurable parameter without a default.
func New(name string, opts ...Option) *Parameter {
	p := &Parameter{Name: name, Configurable: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Default sets the parameter default. A nil default means no default.
func Default(v any) Option {
	return func(p *Parameter) { p.Default = v }
}

func Required() Option {
	return func(p *Parameter) { p.Required = true }
}

// NotConfigurable hides the parameter from view writers.
func NotConfigurable() Option {
	return func(p *Parameter) { p.Configurable = false }
}

func Transform(fn TransformFunc) Option {
	return func(p *Parameter) { p.Transform = fn }
}

// WithSchema attaches a JSON schema checked against the value at invocation.
func WithSchema(s *schema.Schema) Option {
	return func(p *Parameter) { p.Schema = s }
}

func (p *Parameter) HasDefault() bool {
	return p.Default != nil
}

func (p *Parameter) Clone() *Parameter {
	clone := *p
	return &clone
}

// ApplyDefaultTo writes the default into o when one was declared. Plain data
// defaults (decoded lists and maps) are copied so instances never share them;
// any other default is stored exactly as declared.
func (p *Parameter) ApplyDefaultTo(o *Object) {
	if !p.HasDefault() {
		return
	}
	o.write(p.Name, core.CloneData(p.Default))
}

// DissatisfiedBy reports whether p is required and reads as nil on g.
func (p *Parameter) DissatisfiedBy(g Getter) (bool, error) {
	if !p.Required {
		return false, nil
	}
	v, err := g.Get(p.Name)
	if err != nil {
		return false, err
	}
	return v == nil, nil
}

func (p *Parameter) SatisfiedBy(g Getter) (bool, error) {
	dissatisfied, err := p.DissatisfiedBy(g)
	return !dissatisfied, err
}

// Validate checks v against the parameter schema. Nil values are left to the
// required check.
func (p *Parameter) Validate(ctx context.Context, v any) error {
	if p.Schema == nil || v == nil {
		return nil
	}
	return schema.NewValueValidator(p.Schema, v).Validate(ctx)
}

func (p *Parameter) transform(v any) (any, error) {
	if p.Transform == nil {
		return v, nil
	}
	return p.Transform(v)
}
