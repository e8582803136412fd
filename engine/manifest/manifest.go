// Package manifest declares task and task set blueprints from YAML or HCL
// documents and registers them in a catalog.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/compozy/taskfactory/engine/catalog"
	"github.com/compozy/taskfactory/engine/core"
	"github.com/compozy/taskfactory/engine/param"
	"github.com/compozy/taskfactory/engine/schema"
	"github.com/compozy/taskfactory/engine/task"
	"github.com/compozy/taskfactory/engine/taskset"
	"github.com/compozy/taskfactory/engine/value"
	"github.com/compozy/taskfactory/pkg/logger"
	"github.com/compozy/taskfactory/pkg/tplengine"
)

var ErrExtendsCycle = errors.New("manifest: extends cycle")

// -----------------------------------------------------------------------------
// Declarations
// -----------------------------------------------------------------------------

type ParameterDecl struct {
	Name           string         `yaml:"name"            validate:"required"`
	Default        any            `yaml:"default"`
	Required       bool           `yaml:"required"`
	Configurable   *bool          `yaml:"configurable"`
	Template       bool           `yaml:"template"`
	TemplateFormat string         `yaml:"template_format" validate:"omitempty,oneof=text yaml json"`
	Schema         map[string]any `yaml:"schema"`
}

type TaskDecl struct {
	Name                   string          `yaml:"name"                     validate:"required"`
	Extends                string          `yaml:"extends"`
	TaskName               string          `yaml:"task_name"`
	Description            string          `yaml:"description"`
	ArgumentNames          []string        `yaml:"argument_names"`
	Prerequisites          []string        `yaml:"prerequisites"`
	OrderOnlyPrerequisites []string        `yaml:"order_only_prerequisites"`
	Parameters             []ParameterDecl `yaml:"parameters"               validate:"dive"`
	Actions                []string        `yaml:"actions"`
}

// ConditionDecl guards a contained task. It either compares a group parameter
// with a constant or evaluates a CEL expression over the group values, which
// are bound as params.
type ConditionDecl struct {
	Parameter  string `yaml:"parameter"  validate:"required_without=Expression,excluded_with=Expression"`
	Equals     any    `yaml:"equals"`
	Expression string `yaml:"expression"`
}

type ContainedDecl struct {
	Blueprint string         `yaml:"blueprint" validate:"required"`
	Options   map[string]any `yaml:"options"`
	DefineIf  *ConditionDecl `yaml:"define_if"`
}

type TaskSetDecl struct {
	Name          string          `yaml:"name"          validate:"required"`
	Namespaceable bool            `yaml:"namespaceable"`
	Parameters    []ParameterDecl `yaml:"parameters"    validate:"dive"`
	Tasks         []ContainedDecl `yaml:"tasks"         validate:"dive"`
}

// Manifest is the format-independent form of a manifest document.
type Manifest struct {
	Tasks    []TaskDecl    `yaml:"tasks"     validate:"dive"`
	TaskSets []TaskSetDecl `yaml:"task_sets" validate:"dive"`
}

// Validate checks the declaration tags, then every literal parameter default
// against the schema declared next to it.
func (m *Manifest) Validate(ctx context.Context) error {
	v := schema.NewCompositeValidator(schema.NewStructValidator(m))
	for i := range m.Tasks {
		addDefaultValidators(v, m.Tasks[i].Parameters)
	}
	for i := range m.TaskSets {
		addDefaultValidators(v, m.TaskSets[i].Parameters)
	}
	return v.Validate(ctx)
}

func addDefaultValidators(v *schema.CompositeValidator, params []ParameterDecl) {
	for i := range params {
		p := &params[i]
		if p.Schema == nil || p.Default == nil || p.Template {
			continue
		}
		s := schema.Schema(normalize(p.Schema).(map[string]any))
		v.AddValidator(schema.NewValueValidator(&s, normalize(p.Default)))
	}
}

// -----------------------------------------------------------------------------
// Registration
// -----------------------------------------------------------------------------

// Register validates m, resolves extends and registers every blueprint in
// cat. Tasks are registered before task sets, each in declaration order.
func (m *Manifest) Register(ctx context.Context, cat *catalog.Catalog) error {
	if err := m.Validate(ctx); err != nil {
		return fmt.Errorf("manifest: invalid declaration: %w", err)
	}
	tasks, err := m.resolveExtends()
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	for i := range tasks {
		bp, err := buildTask(&tasks[i], cat)
		if err != nil {
			return err
		}
		if err := cat.RegisterTask(ctx, bp); err != nil {
			return err
		}
	}
	for i := range m.TaskSets {
		bp, err := buildTaskSet(&m.TaskSets[i], cat)
		if err != nil {
			return err
		}
		if err := cat.RegisterTaskSet(ctx, bp); err != nil {
			return err
		}
	}
	log.Debug("Manifest registered", "tasks", len(m.Tasks), "task_sets", len(m.TaskSets))
	return nil
}

// resolveExtends returns the task declarations with inherited fields filled
// in from their parents.
func (m *Manifest) resolveExtends() ([]TaskDecl, error) {
	byName := make(map[string]int, len(m.Tasks))
	for i := range m.Tasks {
		byName[m.Tasks[i].Name] = i
	}
	resolved := make(map[string]*TaskDecl, len(m.Tasks))
	var resolve func(name string, visiting map[string]bool) (*TaskDecl, error)
	resolve = func(name string, visiting map[string]bool) (*TaskDecl, error) {
		if decl, ok := resolved[name]; ok {
			return decl, nil
		}
		i, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("manifest: extends unknown task %q", name)
		}
		if visiting[name] {
			return nil, fmt.Errorf("%w: %s", ErrExtendsCycle, name)
		}
		visiting[name] = true
		decl := m.Tasks[i]
		if decl.Extends != "" {
			parent, err := resolve(decl.Extends, visiting)
			if err != nil {
				return nil, err
			}
			inherited := *parent
			inherited.TaskName = ""
			inherited.Parameters = mergeParameters(parent.Parameters, decl.Parameters)
			inherited.Actions = append(slices.Clone(parent.Actions), decl.Actions...)
			decl.Parameters, decl.Actions = nil, nil
			if err := core.MergeDefaults(&decl, &inherited); err != nil {
				return nil, err
			}
		}
		resolved[name] = &decl
		return &decl, nil
	}
	out := make([]TaskDecl, 0, len(m.Tasks))
	for i := range m.Tasks {
		decl, err := resolve(m.Tasks[i].Name, map[string]bool{})
		if err != nil {
			return nil, err
		}
		out = append(out, *decl)
	}
	return out, nil
}

// mergeParameters keeps the inherited parameters in declaration order, replaces
// those the derived task redeclares and appends the new ones.
func mergeParameters(inherited, declared []ParameterDecl) []ParameterDecl {
	out := slices.Clone(inherited)
	for _, p := range declared {
		i := slices.IndexFunc(out, func(q ParameterDecl) bool { return q.Name == p.Name })
		if i >= 0 {
			out[i] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func buildTask(decl *TaskDecl, cat *catalog.Catalog) (*task.Blueprint, error) {
	bp := task.NewBlueprint(decl.Name)
	if decl.TaskName != "" {
		bp.DefaultName(decl.TaskName)
	}
	if decl.Description != "" {
		bp.DefaultDescription(decl.Description)
	}
	if decl.ArgumentNames != nil {
		bp.DefaultArgumentNames(decl.ArgumentNames...)
	}
	if decl.Prerequisites != nil {
		bp.DefaultPrerequisites(decl.Prerequisites...)
	}
	if decl.OrderOnlyPrerequisites != nil {
		bp.DefaultOrderOnlyPrerequisites(decl.OrderOnlyPrerequisites...)
	}
	for i := range decl.Parameters {
		opts, err := parameterOptions(&decl.Parameters[i])
		if err != nil {
			return nil, fmt.Errorf("manifest: task %s: %w", decl.Name, err)
		}
		bp.Parameter(decl.Parameters[i].Name, opts...)
	}
	for _, name := range decl.Actions {
		action, err := cat.Action(name)
		if err != nil {
			return nil, fmt.Errorf("manifest: task %s: %w", decl.Name, err)
		}
		if err := bp.AddAction(action); err != nil {
			return nil, err
		}
	}
	return bp, nil
}

func buildTaskSet(decl *TaskSetDecl, cat *catalog.Catalog) (*taskset.Blueprint, error) {
	bp := taskset.NewBlueprint(decl.Name)
	for i := range decl.Parameters {
		opts, err := parameterOptions(&decl.Parameters[i])
		if err != nil {
			return nil, fmt.Errorf("manifest: task set %s: %w", decl.Name, err)
		}
		bp.Parameter(decl.Parameters[i].Name, opts...)
	}
	if decl.Namespaceable {
		bp.Namespaceable()
	}
	for _, contained := range decl.Tasks {
		builder, err := cat.Builder(contained.Blueprint)
		if err != nil {
			return nil, fmt.Errorf("manifest: task set %s: %w", decl.Name, err)
		}
		var opts param.Options
		if contained.Options != nil {
			opts = param.Options(normalize(contained.Options).(map[string]any))
		}
		spec := bp.Task(builder, opts, nil)
		if contained.DefineIf != nil {
			predicate, err := contained.DefineIf.predicate()
			if err != nil {
				return nil, fmt.Errorf("manifest: task set %s: %w", decl.Name, err)
			}
			spec.DefineIf(predicate)
		}
	}
	return bp, nil
}

func parameterOptions(decl *ParameterDecl) ([]param.Option, error) {
	var opts []param.Option
	if decl.Default != nil {
		def := normalize(decl.Default)
		if s, ok := def.(string); ok && decl.Template {
			format := tplengine.FormatText
			if decl.TemplateFormat != "" {
				format = tplengine.EngineFormat(decl.TemplateFormat)
			}
			tmpl, err := value.TemplateAs(format, s)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", decl.Name, err)
			}
			opts = append(opts, param.Default(tmpl))
		} else {
			opts = append(opts, param.Default(def))
		}
	}
	if decl.Required {
		opts = append(opts, param.Required())
	}
	if decl.Configurable != nil && !*decl.Configurable {
		opts = append(opts, param.NotConfigurable())
	}
	if decl.Schema != nil {
		s := schema.Schema(normalize(decl.Schema).(map[string]any))
		opts = append(opts, param.WithSchema(&s))
	}
	return opts, nil
}

// normalize converts decoded documents to plain Go values: every integer
// becomes int and every map key a string.
func normalize(v any) any {
	switch x := v.(type) {
	case int64:
		return int(x)
	case uint64:
		return int(x)
	case int32:
		return int(x)
	case uint32:
		return int(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}
