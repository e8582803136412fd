// Package taskset composes task blueprints into groups whose parameters are
// pushed down into the tasks they contain. Values declared on a contained
// task take precedence over the group's own values.
package taskset

import (
	"context"
	"fmt"
	"slices"

	"github.com/compozy/taskfactory/engine/graph"
	"github.com/compozy/taskfactory/engine/param"
	"github.com/compozy/taskfactory/engine/task"
	"github.com/compozy/taskfactory/engine/value"
)

// ParamNamespace scopes contained tasks when the blueprint is namespaceable.
const ParamNamespace = "namespace"

// Blueprint is a task set type: its parameters and contained task specs.
type Blueprint struct {
	typeName   string
	params     *param.Set
	specs      []*Spec
	namespaced bool
}

func NewBlueprint(typeName string) *Blueprint {
	return &Blueprint{typeName: typeName, params: param.NewSet()}
}

func (b *Blueprint) TypeName() string {
	return b.typeName
}

func (b *Blueprint) Params() *param.Set {
	return b.params
}

func (b *Blueprint) Parameter(name string, opts ...param.Option) *Blueprint {
	b.params.Add(param.New(name, opts...))
	return b
}

// Namespaceable declares the namespace parameter. Contained tasks are defined
// inside that namespace when the graph supports namespaces.
func (b *Blueprint) Namespaceable() *Blueprint {
	b.params.Add(param.New(ParamNamespace, param.Transform(namespaceTransform)))
	b.namespaced = true
	return b
}

func (b *Blueprint) IsNamespaceable() bool {
	return b.namespaced
}

func namespaceTransform(v any) (any, error) {
	switch ns := v.(type) {
	case nil:
		return nil, nil
	case string:
		return ns, nil
	case fmt.Stringer:
		return ns.String(), nil
	default:
		return nil, fmt.Errorf("expected a string for a namespace name, got %T", v)
	}
}

// Task declares a contained task. opts may be nil, in which case the group
// values are used verbatim. configure is called with (group, child view, args)
// truncated to its arity.
func (b *Blueprint) Task(builder task.Builder, opts param.Options, configure any) *Spec {
	spec := &Spec{builder: builder, opts: opts}
	if configure != nil {
		spec.configure = value.MustFunc(configure)
	}
	b.specs = append(b.specs, spec)
	return spec
}

func (b *Blueprint) Specs() []*Spec {
	return slices.Clone(b.specs)
}

func (b *Blueprint) New(opts param.Options, configure any) (*TaskSet, error) {
	return newTaskSet(b, opts, configure)
}

func (b *Blueprint) Build(opts param.Options, configure any) (task.Definer, error) {
	return b.New(opts, configure)
}

func (b *Blueprint) Define(ctx context.Context, g graph.Graph, opts param.Options, configure any) (*TaskSet, error) {
	s, err := b.New(opts, configure)
	if err != nil {
		return nil, err
	}
	if err := s.Define(ctx, g); err != nil {
		return s, err
	}
	return s, nil
}

// -----------------------------------------------------------------------------
// Spec
// -----------------------------------------------------------------------------

// Spec is a contained task declaration.
type Spec struct {
	builder   task.Builder
	opts      param.Options
	configure *value.Func
	defineIf  *value.Func
}

// DefineIf sets a predicate called with the group (or nothing); the task is
// skipped when it returns false.
func (s *Spec) DefineIf(fn any) *Spec {
	s.defineIf = value.MustFunc(fn)
	return s
}

func (s *Spec) Builder() task.Builder {
	return s.builder
}

func (s *Spec) Options() param.Options {
	return s.opts
}

func (s *Spec) shouldDefine(group *TaskSet) (bool, error) {
	if s.defineIf == nil {
		return true, nil
	}
	out, err := s.defineIf.Call(group)
	if err != nil {
		return false, err
	}
	switch v := out.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return false, fmt.Errorf("define_if returned %T, want bool", out)
	}
}
