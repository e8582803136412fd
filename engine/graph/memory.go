package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/compozy/taskfactory/pkg/logger"
)

// DefaultSeparator joins namespace segments and unit names.
const DefaultSeparator = ":"

var (
	ErrUnitExists   = errors.New("unit already defined")
	ErrUnitNotFound = errors.New("unit not found")
	ErrEmptyName    = errors.New("unit name is empty")
)

type namespaceKey struct{}

// Unit is a work unit registered with a Memory graph.
type Unit struct {
	def    UnitDefinition
	invoke InvokeFunc

	mu          sync.RWMutex
	description string
}

func (u *Unit) Name() string {
	return u.def.Name
}

func (u *Unit) SetDescription(text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.description = text
}

func (u *Unit) Description() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.description
}

// Definition returns the definition with its fully qualified name.
func (u *Unit) Definition() UnitDefinition {
	def := u.def
	def.Prerequisites = slices.Clone(u.def.Prerequisites)
	def.OrderOnlyPrerequisites = slices.Clone(u.def.OrderOnlyPrerequisites)
	def.ArgumentNames = slices.Clone(u.def.ArgumentNames)
	return def
}

// Memory is an in-process Graph and Namespacer. It records definitions and
// runs units on demand; it never traverses prerequisites.
type Memory struct {
	mu        sync.RWMutex
	separator string
	units     map[string]*Unit
	order     []string
}

type MemoryOption func(*Memory)

func WithSeparator(sep string) MemoryOption {
	return func(m *Memory) {
		if sep != "" {
			m.separator = sep
		}
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{separator: DefaultSeparator, units: make(map[string]*Unit)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InNamespace runs fn with name pushed onto the namespace scope carried by ctx.
func (m *Memory) InNamespace(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	scope := namespaceFrom(ctx)
	next := append(slices.Clone(scope), name)
	return fn(context.WithValue(ctx, namespaceKey{}, next))
}

// Qualify prefixes name with the namespace scope carried by ctx.
func (m *Memory) Qualify(ctx context.Context, name string) string {
	scope := namespaceFrom(ctx)
	if len(scope) == 0 {
		return name
	}
	return strings.Join(append(slices.Clone(scope), name), m.separator)
}

func (m *Memory) DefineUnit(ctx context.Context, def UnitDefinition, onInvoke InvokeFunc) (Handle, error) {
	if def.Name == "" {
		return nil, ErrEmptyName
	}
	def.Name = m.Qualify(ctx, def.Name)
	unit := &Unit{def: def, invoke: onInvoke}

	m.mu.Lock()
	if _, exists := m.units[def.Name]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnitExists, def.Name)
	}
	m.units[def.Name] = unit
	m.order = append(m.order, def.Name)
	m.mu.Unlock()

	logger.FromContext(ctx).Debug("Unit defined",
		"unit", def.Name,
		"prerequisites", def.Prerequisites,
		"arguments", def.ArgumentNames,
	)
	return unit, nil
}

// Invoke runs the named unit, filling Args positionally from its argument
// names. Extra positional values are dropped.
func (m *Memory) Invoke(ctx context.Context, name string, positional ...any) error {
	unit, ok := m.Unit(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnitNotFound, name)
	}
	args := make(Args, len(unit.def.ArgumentNames))
	for i, argName := range unit.def.ArgumentNames {
		if i >= len(positional) {
			break
		}
		args[argName] = positional[i]
	}
	log := logger.FromContext(ctx).With("unit", name)
	log.Debug("Invoking unit")
	if unit.invoke == nil {
		return nil
	}
	if err := unit.invoke(ctx, args); err != nil {
		log.Error("Unit failed", "error", err)
		return err
	}
	return nil
}

func (m *Memory) Unit(name string) (*Unit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.units[name]
	return u, ok
}

func (m *Memory) Defined(name string) bool {
	_, ok := m.Unit(name)
	return ok
}

// Names returns qualified unit names in definition order.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

func namespaceFrom(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	scope, _ := ctx.Value(namespaceKey{}).([]string)
	return scope
}
