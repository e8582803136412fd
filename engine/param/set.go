package param

import (
	"context"
	"fmt"
	"iter"
	"slices"
)

// Set is an ordered collection of parameters keyed by name. Sets are built at
// declaration time and only read afterwards.
type Set struct {
	order  []string
	params map[string]*Parameter
}

func NewSet(params ...*Parameter) *Set {
	s := &Set{params: make(map[string]*Parameter, len(params))}
	for _, p := range params {
		s.Add(p)
	}
	return s
}

// Add declares p. Redeclaring a name replaces the earlier parameter in place.
func (s *Set) Add(p *Parameter) *Parameter {
	if _, exists := s.params[p.Name]; !exists {
		s.order = append(s.order, p.Name)
	}
	s.params[p.Name] = p
	return p
}

func (s *Set) Find(name string) (*Parameter, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.params[name]
	return p, ok
}

func (s *Set) Has(name string) bool {
	_, ok := s.Find(name)
	return ok
}

// Configurable reports whether name is declared and configurable.
func (s *Set) Configurable(name string) bool {
	p, ok := s.Find(name)
	return ok && p.Configurable
}

// All iterates parameters in declaration order.
func (s *Set) All() iter.Seq[*Parameter] {
	return func(yield func(*Parameter) bool) {
		if s == nil {
			return
		}
		for _, name := range s.order {
			if !yield(s.params[name]) {
				return
			}
		}
	}
}

func (s *Set) Each(fn func(*Parameter)) {
	for p := range s.All() {
		fn(p)
	}
}

func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.order)
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// UpdateDefault replaces the default of an existing parameter.
func (s *Set) UpdateDefault(name string, v any) error {
	p, ok := s.Find(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	p.Default = v
	return nil
}

// Clone returns an independent copy; updating a default on the clone leaves
// the receiver untouched.
func (s *Set) Clone() *Set {
	clone := &Set{
		order:  slices.Clone(s.order),
		params: make(map[string]*Parameter, len(s.params)),
	}
	for name, p := range s.params {
		clone.params[name] = p.Clone()
	}
	return clone
}

func (s *Set) ApplyDefaultsTo(o *Object) {
	for p := range s.All() {
		p.ApplyDefaultTo(o)
	}
}

// EnforceRequirementsOn fails with a single *RequiredParameterUnsetError
// naming every required parameter that reads as nil.
func (s *Set) EnforceRequirementsOn(g Getter) error {
	var unset []string
	for p := range s.All() {
		dissatisfied, err := p.DissatisfiedBy(g)
		if err != nil {
			return fmt.Errorf("failed to read parameter %s: %w", p.Name, err)
		}
		if dissatisfied {
			unset = append(unset, p.Name)
		}
	}
	if len(unset) == 0 {
		return nil
	}
	return &RequiredParameterUnsetError{Names: unset}
}

// ValidateValuesOn checks every parameter carrying a schema and aggregates
// the violations into an *InvalidParameterError.
func (s *Set) ValidateValuesOn(ctx context.Context, g Getter) error {
	var failures []ParameterFailure
	for p := range s.All() {
		if p.Schema == nil {
			continue
		}
		v, err := g.Get(p.Name)
		if err != nil {
			return fmt.Errorf("failed to read parameter %s: %w", p.Name, err)
		}
		if err := p.Validate(ctx, v); err != nil {
			failures = append(failures, ParameterFailure{Name: p.Name, Err: err})
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &InvalidParameterError{Failures: failures}
}

// ReadFrom snapshots every parameter value of g, including nil ones.
func (s *Set) ReadFrom(g Getter) (map[string]any, error) {
	values := make(map[string]any, s.Len())
	for p := range s.All() {
		v, err := g.Get(p.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to read parameter %s: %w", p.Name, err)
		}
		values[p.Name] = v
	}
	return values, nil
}
