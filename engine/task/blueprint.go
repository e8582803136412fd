// Package task declares task blueprints and the entities instantiated from
// them. A task is constructed unbound, then defined on a graph, and finally
// configured, validated and run when the graph invokes its unit.
package task

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/compozy/taskfactory/engine/graph"
	"github.com/compozy/taskfactory/engine/param"
	"github.com/compozy/taskfactory/engine/value"
)

// Implicit parameters carried by every task blueprint.
const (
	ParamName                   = "name"
	ParamArgumentNames          = "argument_names"
	ParamPrerequisites          = "prerequisites"
	ParamOrderOnlyPrerequisites = "order_only_prerequisites"
	ParamDescription            = "description"
)

// Definer is anything that can register itself with a graph.
type Definer interface {
	Define(ctx context.Context, g graph.Graph) error
}

// Builder constructs unbound entities from a blueprint.
type Builder interface {
	TypeName() string
	Params() *param.Set
	Build(opts param.Options, configure any) (Definer, error)
}

// Blueprint is a task type: its parameter set and attached actions.
// Blueprints are declared up front and only read once tasks are built.
type Blueprint struct {
	typeName string
	params   *param.Set
	actions  []*value.Func
}

// NewBlueprint declares a task type. The default task name is the snake_case
// form of typeName.
func NewBlueprint(typeName string) *Blueprint {
	b := &Blueprint{
		typeName: typeName,
		params: param.NewSet(
			param.New(ParamName, param.NotConfigurable(), param.Transform(nameTransform)),
			param.New(ParamArgumentNames, param.NotConfigurable(), param.Default([]string{})),
			param.New(ParamPrerequisites, param.NotConfigurable(), param.Default([]string{})),
			param.New(ParamOrderOnlyPrerequisites, param.NotConfigurable(), param.Default([]string{})),
			param.New(ParamDescription, param.NotConfigurable()),
		),
	}
	if name := DefaultNameFor(typeName); name != "" {
		b.DefaultName(name)
	}
	return b
}

// DefaultNameFor derives a task name from a possibly qualified type name.
func DefaultNameFor(typeName string) string {
	if i := strings.LastIndexAny(typeName, ".:"); i >= 0 {
		typeName = typeName[i+1:]
	}
	return strcase.ToSnake(typeName)
}

func nameTransform(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case string:
		return n, nil
	case fmt.Stringer:
		return n.String(), nil
	default:
		return fmt.Sprint(n), nil
	}
}

func (b *Blueprint) TypeName() string {
	return b.typeName
}

func (b *Blueprint) Params() *param.Set {
	return b.params
}

// Parameter declares a parameter. Redeclaring a name replaces it.
func (b *Blueprint) Parameter(name string, opts ...param.Option) *Blueprint {
	b.params.Add(param.New(name, opts...))
	return b
}

// Action attaches a callable run with (task, args) truncated to its arity.
// It panics when fn is not a callable.
func (b *Blueprint) Action(fn any) *Blueprint {
	if err := b.AddAction(fn); err != nil {
		panic(err)
	}
	return b
}

func (b *Blueprint) AddAction(fn any) error {
	f, err := value.NewFunc(fn)
	if err != nil {
		return fmt.Errorf("invalid action for %s: %w", b.typeName, err)
	}
	b.actions = append(b.actions, f)
	return nil
}

// ActionCount returns how many actions are attached.
func (b *Blueprint) ActionCount() int {
	return len(b.actions)
}

func (b *Blueprint) DefaultName(name any) *Blueprint {
	return b.updateDefault(ParamName, name)
}

func (b *Blueprint) DefaultArgumentNames(names ...string) *Blueprint {
	return b.updateDefault(ParamArgumentNames, names)
}

func (b *Blueprint) DefaultPrerequisites(prerequisites ...string) *Blueprint {
	return b.updateDefault(ParamPrerequisites, prerequisites)
}

func (b *Blueprint) DefaultOrderOnlyPrerequisites(prerequisites ...string) *Blueprint {
	return b.updateDefault(ParamOrderOnlyPrerequisites, prerequisites)
}

func (b *Blueprint) DefaultDescription(description any) *Blueprint {
	return b.updateDefault(ParamDescription, description)
}

// UpdateDefault replaces the default of any declared parameter.
func (b *Blueprint) UpdateDefault(name string, v any) error {
	return b.params.UpdateDefault(name, v)
}

func (b *Blueprint) updateDefault(name string, v any) *Blueprint {
	// implicit parameters always exist
	_ = b.params.UpdateDefault(name, v)
	return b
}

// Derive returns an independent blueprint inheriting parameters and actions.
// Default updates on the derived blueprint never reach b.
func (b *Blueprint) Derive(typeName string) *Blueprint {
	d := &Blueprint{
		typeName: typeName,
		params:   b.params.Clone(),
		actions:  slices.Clone(b.actions),
	}
	if name := DefaultNameFor(typeName); name != "" {
		d.DefaultName(name)
	}
	return d
}

// New constructs an unbound task: defaults first, then options naming known
// parameters, then the configure callable is captured.
func (b *Blueprint) New(opts param.Options, configure any) (*Task, error) {
	return newTask(b, opts, configure)
}

func (b *Blueprint) Build(opts param.Options, configure any) (Definer, error) {
	return b.New(opts, configure)
}

// Define constructs a task and defines it on g.
func (b *Blueprint) Define(ctx context.Context, g graph.Graph, opts param.Options, configure any) (*Task, error) {
	t, err := b.New(opts, configure)
	if err != nil {
		return nil, err
	}
	if err := t.Define(ctx, g); err != nil {
		return nil, err
	}
	return t, nil
}
