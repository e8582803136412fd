package taskset

import (
	"context"
	"fmt"
	"slices"

	"github.com/compozy/taskfactory/engine/core"
	"github.com/compozy/taskfactory/engine/graph"
	"github.com/compozy/taskfactory/engine/param"
	"github.com/compozy/taskfactory/engine/task"
	"github.com/compozy/taskfactory/engine/value"
	"github.com/compozy/taskfactory/pkg/logger"
)

// TaskSet is a group entity. It has no work unit of its own.
type TaskSet struct {
	id        core.ID
	blueprint *Blueprint
	params    *param.Object
	configure *value.Func
	children  []task.Definer
	defined   bool
}

func newTaskSet(b *Blueprint, opts param.Options, configure any) (*TaskSet, error) {
	id, err := core.NewID()
	if err != nil {
		return nil, err
	}
	s := &TaskSet{id: id, blueprint: b}
	s.params = param.NewObject(b.params, s)
	b.params.ApplyDefaultsTo(s.params)
	s.params.Apply(opts)
	if configure != nil {
		fn, err := value.NewFunc(configure)
		if err != nil {
			return nil, fmt.Errorf("invalid configure callable for %s: %w", b.typeName, err)
		}
		s.configure = fn
	}
	return s, nil
}

func (s *TaskSet) ID() core.ID {
	return s.id
}

func (s *TaskSet) Blueprint() *Blueprint {
	return s.blueprint
}

func (s *TaskSet) Params() *param.Set {
	return s.blueprint.params
}

func (s *TaskSet) Get(name string) (any, error) {
	return s.params.Get(name)
}

func (s *TaskSet) Set(name string, v any) error {
	return s.params.Set(name, v)
}

func (s *TaskSet) Values() (map[string]any, error) {
	return s.params.Values()
}

// Children returns the entities defined by the last Define, in order.
func (s *TaskSet) Children() []task.Definer {
	return slices.Clone(s.children)
}

// Namespace returns the resolved namespace, or "" when unset.
func (s *TaskSet) Namespace() (string, error) {
	if !s.blueprint.namespaced {
		return "", nil
	}
	return param.Get[string](s, ParamNamespace)
}

// Define builds and defines every contained task whose predicate allows it.
// Tasks defined before a failure stay defined.
func (s *TaskSet) Define(ctx context.Context, g graph.Graph) error {
	if s.defined {
		return fmt.Errorf("%w: task set %s", task.ErrAlreadyDefined, s.blueprint.typeName)
	}
	ns, err := s.Namespace()
	if err != nil {
		return err
	}
	s.defined = true
	if ns != "" {
		if namespacer, ok := g.(graph.Namespacer); ok {
			return namespacer.InNamespace(ctx, ns, func(ctx context.Context) error {
				return s.defineChildren(ctx, g)
			})
		}
		logger.FromContext(ctx).Debug("Graph has no namespaces, defining unscoped", "namespace", ns)
	}
	return s.defineChildren(ctx, g)
}

func (s *TaskSet) defineChildren(ctx context.Context, g graph.Graph) error {
	log := logger.FromContext(ctx).With("task_set", s.blueprint.typeName, "id", s.id.String())
	overrides, err := s.overrides()
	if err != nil {
		return err
	}
	for i, spec := range s.blueprint.specs {
		ok, err := spec.shouldDefine(s)
		if err != nil {
			return fmt.Errorf("task set %s: spec %d: %w", s.blueprint.typeName, i, err)
		}
		if !ok {
			log.Debug("Skipping contained task", "index", i, "type", spec.builder.TypeName())
			continue
		}
		child, err := spec.builder.Build(s.mergeOptions(spec, overrides), s.composeConfigure(spec))
		if err != nil {
			return fmt.Errorf("task set %s: spec %d: %w", s.blueprint.typeName, i, err)
		}
		if err := child.Define(ctx, g); err != nil {
			return fmt.Errorf("task set %s: spec %d: %w", s.blueprint.typeName, i, err)
		}
		s.children = append(s.children, child)
	}
	log.Debug("Task set defined", "children", len(s.children))
	return nil
}

// overrides snapshots the group values, nil included: a group parameter left
// unset replaces the matching child default.
func (s *TaskSet) overrides() (map[string]any, error) {
	values, err := s.Values()
	if err != nil {
		return nil, fmt.Errorf("task set %s: %w", s.blueprint.typeName, err)
	}
	return values, nil
}

// mergeOptions applies spec values over group values. Spec values resolve
// with the group prepended to their context.
func (s *TaskSet) mergeOptions(spec *Spec, overrides map[string]any) param.Options {
	merged := param.Options(core.CopyMaps(overrides))
	for name, v := range spec.opts {
		merged[name] = value.Resolve(v).PrependArgument(s)
	}
	return merged
}

func (s *TaskSet) composeConfigure(spec *Spec) func(view *param.View, args graph.Args) error {
	return func(view *param.View, args graph.Args) error {
		if spec.configure != nil {
			if _, err := spec.configure.Call(s, view, args); err != nil {
				return err
			}
		}
		if s.configure == nil {
			return nil
		}
		_, err := s.configure.Call(view.Restrict(s.blueprint.params), args)
		return err
	}
}
