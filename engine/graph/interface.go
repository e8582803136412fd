// Package graph is the boundary between entities and the external work-unit
// graph that schedules and runs them.
package graph

import (
	"context"
	"fmt"
)

// Args holds runtime arguments keyed by the unit's declared argument names.
type Args map[string]any

func (a Args) Get(name string) any {
	return a[name]
}

func (a Args) Lookup(name string) (any, bool) {
	v, ok := a[name]
	return v, ok
}

// String returns the argument formatted as text, or "" when it is absent.
func (a Args) String(name string) string {
	v, ok := a[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// InvokeFunc runs when the graph executes a unit.
type InvokeFunc func(ctx context.Context, args Args) error

// UnitDefinition describes a work unit to register.
type UnitDefinition struct {
	Name                   string
	Prerequisites          []string
	OrderOnlyPrerequisites []string
	ArgumentNames          []string
	// Creator is the entity that defined the unit.
	Creator any
}

// Graph accepts unit definitions.
type Graph interface {
	DefineUnit(ctx context.Context, def UnitDefinition, onInvoke InvokeFunc) (Handle, error)
}

// Handle is the opaque result of a unit definition.
type Handle interface {
	Name() string
	SetDescription(text string)
}

// Namespacer is implemented by graphs that scope unit names.
type Namespacer interface {
	InNamespace(ctx context.Context, name string, fn func(ctx context.Context) error) error
}
