// Package catalog keeps named task and task set blueprints together with the
// actions manifests can attach to them.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/compozy/taskfactory/engine/graph"
	"github.com/compozy/taskfactory/engine/param"
	"github.com/compozy/taskfactory/engine/task"
	"github.com/compozy/taskfactory/engine/taskset"
	"github.com/compozy/taskfactory/engine/value"
	"github.com/compozy/taskfactory/pkg/logger"
)

var (
	ErrDuplicate = errors.New("already registered")
	ErrNotFound  = errors.New("not registered")
)

// Catalog is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	tasks   map[string]*task.Blueprint
	sets    map[string]*taskset.Blueprint
	actions map[string]*value.Func
}

func New() *Catalog {
	return &Catalog{
		tasks:   make(map[string]*task.Blueprint),
		sets:    make(map[string]*taskset.Blueprint),
		actions: make(map[string]*value.Func),
	}
}

// RegisterTask registers bp under its type name. Task and task set names
// share one namespace.
func (c *Catalog) RegisterTask(ctx context.Context, bp *task.Blueprint) error {
	if bp == nil || bp.TypeName() == "" {
		return fmt.Errorf("catalog: task blueprint needs a type name")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkFree(bp.TypeName()); err != nil {
		return err
	}
	c.tasks[bp.TypeName()] = bp
	logger.FromContext(ctx).Debug("Registered task blueprint", "type", bp.TypeName())
	return nil
}

func (c *Catalog) MustRegisterTask(ctx context.Context, bp *task.Blueprint) {
	if err := c.RegisterTask(ctx, bp); err != nil {
		panic(err)
	}
}

func (c *Catalog) RegisterTaskSet(ctx context.Context, bp *taskset.Blueprint) error {
	if bp == nil || bp.TypeName() == "" {
		return fmt.Errorf("catalog: task set blueprint needs a type name")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkFree(bp.TypeName()); err != nil {
		return err
	}
	c.sets[bp.TypeName()] = bp
	logger.FromContext(ctx).Debug("Registered task set blueprint", "type", bp.TypeName())
	return nil
}

// RegisterAction registers a named action callable.
func (c *Catalog) RegisterAction(name string, fn any) error {
	if name == "" {
		return fmt.Errorf("catalog: action name is required")
	}
	f, err := value.NewFunc(fn)
	if err != nil {
		return fmt.Errorf("catalog: action %s: %w", name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.actions[name]; exists {
		return fmt.Errorf("catalog: action %s %w", name, ErrDuplicate)
	}
	c.actions[name] = f
	return nil
}

func (c *Catalog) checkFree(name string) error {
	_, isTask := c.tasks[name]
	_, isSet := c.sets[name]
	if isTask || isSet {
		return fmt.Errorf("catalog: %s %w", name, ErrDuplicate)
	}
	return nil
}

func (c *Catalog) Task(name string) (*task.Blueprint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bp, ok := c.tasks[name]
	return bp, ok
}

func (c *Catalog) TaskSet(name string) (*taskset.Blueprint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bp, ok := c.sets[name]
	return bp, ok
}

// Builder returns the task or task set blueprint registered as name.
func (c *Catalog) Builder(name string) (task.Builder, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if bp, ok := c.tasks[name]; ok {
		return bp, nil
	}
	if bp, ok := c.sets[name]; ok {
		return bp, nil
	}
	return nil, fmt.Errorf("catalog: blueprint %s %w", name, ErrNotFound)
}

func (c *Catalog) Action(name string) (*value.Func, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.actions[name]
	if !ok {
		return nil, fmt.Errorf("catalog: action %s %w", name, ErrNotFound)
	}
	return f, nil
}

// Names returns every registered blueprint name, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tasks)+len(c.sets))
	for name := range c.tasks {
		names = append(names, name)
	}
	for name := range c.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) ActionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.actions))
	for name := range c.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyDefaults replaces parameter defaults, keyed by blueprint then
// parameter name. It stops at the first unknown blueprint or parameter.
func (c *Catalog) ApplyDefaults(ctx context.Context, overrides map[string]map[string]any) error {
	blueprints := make([]string, 0, len(overrides))
	for name := range overrides {
		blueprints = append(blueprints, name)
	}
	sort.Strings(blueprints)
	log := logger.FromContext(ctx)
	for _, name := range blueprints {
		builder, err := c.Builder(name)
		if err != nil {
			return err
		}
		params := builder.Params()
		for paramName, v := range overrides[name] {
			if err := params.UpdateDefault(paramName, v); err != nil {
				return fmt.Errorf("catalog: %s: %w", name, err)
			}
			log.Debug("Overrode parameter default", "type", name, "parameter", paramName)
		}
	}
	return nil
}

// Define builds the named blueprint and defines it on g.
func (c *Catalog) Define(ctx context.Context, g graph.Graph, name string, opts param.Options, configure any) (task.Definer, error) {
	builder, err := c.Builder(name)
	if err != nil {
		return nil, err
	}
	entity, err := builder.Build(opts, configure)
	if err != nil {
		return nil, err
	}
	if err := entity.Define(ctx, g); err != nil {
		return entity, err
	}
	return entity, nil
}
