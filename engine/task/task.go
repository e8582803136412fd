package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/taskfactory/engine/core"
	"github.com/compozy/taskfactory/engine/graph"
	"github.com/compozy/taskfactory/engine/param"
	"github.com/compozy/taskfactory/engine/value"
	"github.com/compozy/taskfactory/pkg/logger"
)

var (
	ErrAlreadyDefined = errors.New("task already defined")
	ErrNameUnset      = errors.New("task name unset")
)

type State int

const (
	StateUnbound State = iota
	StateDefined
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateDefined:
		return "defined"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Task is an entity instantiated from a Blueprint.
type Task struct {
	id        core.ID
	blueprint *Blueprint
	params    *param.Object
	configure *value.Func
	state     State
	unit      graph.Handle
}

func newTask(b *Blueprint, opts param.Options, configure any) (*Task, error) {
	id, err := core.NewID()
	if err != nil {
		return nil, err
	}
	t := &Task{id: id, blueprint: b}
	t.params = param.NewObject(b.params, t)
	b.params.ApplyDefaultsTo(t.params)
	t.params.Apply(opts)
	if configure != nil {
		fn, err := value.NewFunc(configure)
		if err != nil {
			return nil, fmt.Errorf("invalid configure callable for %s: %w", b.typeName, err)
		}
		t.configure = fn
	}
	return t, nil
}

func (t *Task) ID() core.ID {
	return t.id
}

func (t *Task) Blueprint() *Blueprint {
	return t.blueprint
}

func (t *Task) State() State {
	return t.state
}

// Unit returns the graph handle once the task is defined.
func (t *Task) Unit() graph.Handle {
	return t.unit
}

func (t *Task) Params() *param.Set {
	return t.blueprint.params
}

// Object exposes the parameter storage backing the task.
func (t *Task) Object() *param.Object {
	return t.params
}

func (t *Task) Get(name string) (any, error) {
	return t.params.Get(name)
}

func (t *Task) Set(name string, v any) error {
	return t.params.Set(name, v)
}

func (t *Task) Values() (map[string]any, error) {
	return t.params.Values()
}

// Name returns the resolved task name, or "" when it cannot be read.
func (t *Task) Name() string {
	name, err := param.Get[string](t, ParamName)
	if err != nil {
		return ""
	}
	return name
}

// Define registers the task with g. A task can be defined once.
func (t *Task) Define(ctx context.Context, g graph.Graph) error {
	if t.state == StateDefined {
		return fmt.Errorf("%w: %s", ErrAlreadyDefined, t.Name())
	}
	def, description, err := t.unitDefinition()
	if err != nil {
		return err
	}
	handle, err := g.DefineUnit(ctx, def, t.invoke)
	if err != nil {
		return fmt.Errorf("failed to define task %s: %w", def.Name, err)
	}
	if description != nil {
		handle.SetDescription(fmt.Sprint(description))
	}
	t.unit = handle
	t.state = StateDefined
	logger.FromContext(ctx).Debug("Task defined",
		"task", handle.Name(),
		"type", t.blueprint.typeName,
		"id", t.id.String(),
	)
	return nil
}

func (t *Task) unitDefinition() (graph.UnitDefinition, any, error) {
	name, err := param.Get[string](t, ParamName)
	if err != nil {
		return graph.UnitDefinition{}, nil, err
	}
	if name == "" {
		return graph.UnitDefinition{}, nil, fmt.Errorf("%w: %s", ErrNameUnset, t.blueprint.typeName)
	}
	argumentNames, err := param.Strings(t, ParamArgumentNames)
	if err != nil {
		return graph.UnitDefinition{}, nil, err
	}
	prerequisites, err := param.Strings(t, ParamPrerequisites)
	if err != nil {
		return graph.UnitDefinition{}, nil, err
	}
	orderOnly, err := param.Strings(t, ParamOrderOnlyPrerequisites)
	if err != nil {
		return graph.UnitDefinition{}, nil, err
	}
	description, err := t.Get(ParamDescription)
	if err != nil {
		return graph.UnitDefinition{}, nil, err
	}
	return graph.UnitDefinition{
		Name:                   name,
		Prerequisites:          prerequisites,
		OrderOnlyPrerequisites: orderOnly,
		ArgumentNames:          argumentNames,
		Creator:                t,
	}, description, nil
}

// invoke runs when the graph executes the unit: configure through a view,
// validate, then run actions in declaration order.
func (t *Task) invoke(ctx context.Context, args graph.Args) error {
	name := t.Name()
	log := logger.FromContext(ctx).With("task", name)
	if err := t.runConfigure(args); err != nil {
		return fmt.Errorf("task %s: configure: %w", name, err)
	}
	set := t.blueprint.params
	if err := set.EnforceRequirementsOn(t); err != nil {
		return fmt.Errorf("task %s: %w", name, err)
	}
	if err := set.ValidateValuesOn(ctx, t); err != nil {
		return fmt.Errorf("task %s: %w", name, err)
	}
	for i, action := range t.blueprint.actions {
		log.Debug("Running action", "index", i)
		if _, err := action.Call(t, args); err != nil {
			return fmt.Errorf("task %s: action %d: %w", name, i, err)
		}
	}
	return nil
}

func (t *Task) runConfigure(args graph.Args) error {
	if t.configure == nil {
		return nil
	}
	set := t.blueprint.params
	view := param.NewView(t.params, set, set, args)
	_, err := t.configure.Call(view, args)
	return err
}
