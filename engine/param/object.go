package param

import (
	"fmt"
	"maps"

	"github.com/compozy/taskfactory/engine/value"
)

// Getter reads resolved parameter values by name.
type Getter = value.Getter

// Object is the per-instance parameter storage of an entity. Each slot holds
// a raw value or a value.Value; reads resolve the slot with the owning entity
// as context and apply the parameter transform every time.
type Object struct {
	params *Set
	self   any
	slots  map[string]any
}

// NewObject creates empty storage for params. self is passed as resolution
// context on reads; when nil the object itself is used.
func NewObject(params *Set, self any) *Object {
	o := &Object{params: params, self: self, slots: make(map[string]any, params.Len())}
	if o.self == nil {
		o.self = o
	}
	return o
}

func (o *Object) Params() *Set {
	return o.params
}

// Set stores v exactly as given.
func (o *Object) Set(name string, v any) error {
	if !o.params.Has(name) {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	o.write(name, v)
	return nil
}

// SetIfParameter stores v when name is declared and reports whether it did.
func (o *Object) SetIfParameter(name string, v any) bool {
	if !o.params.Has(name) {
		return false
	}
	o.write(name, v)
	return true
}

// Apply writes every option naming a declared parameter. Unknown keys are ignored.
func (o *Object) Apply(opts Options) {
	for name, v := range opts {
		o.SetIfParameter(name, v)
	}
}

func (o *Object) Get(name string) (any, error) {
	p, ok := o.params.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	resolved, err := value.Evaluate(o.slots[name], o.self)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve parameter %s: %w", name, err)
	}
	out, err := p.transform(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to transform parameter %s: %w", name, err)
	}
	return out, nil
}

// Has reports whether a slot was written, even with nil.
func (o *Object) Has(name string) bool {
	_, ok := o.slots[name]
	return ok
}

// Raw returns the stored slot without resolving it.
func (o *Object) Raw(name string) (any, bool) {
	v, ok := o.slots[name]
	return v, ok
}

// Slots returns a copy of the raw storage.
func (o *Object) Slots() map[string]any {
	return maps.Clone(o.slots)
}

func (o *Object) Values() (map[string]any, error) {
	return o.params.ReadFrom(o)
}

func (o *Object) write(name string, v any) {
	o.slots[name] = v
}
