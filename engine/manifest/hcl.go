package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/compozy/taskfactory/engine/catalog"
)

// hclFile mirrors Manifest in block form:
//
//	task "Greeter" {
//	  argument_names = ["who"]
//	  parameter "message" { default = "hi" }
//	}
//	task_set "Pipeline" {
//	  contains "Greeter" { options = { subject = "world" } }
//	}
type hclFile struct {
	Tasks    []*hclTask    `hcl:"task,block"`
	TaskSets []*hclTaskSet `hcl:"task_set,block"`
}

type hclTask struct {
	Name                   string          `hcl:"name,label"`
	Extends                string          `hcl:"extends,optional"`
	TaskName               string          `hcl:"task_name,optional"`
	Description            string          `hcl:"description,optional"`
	ArgumentNames          []string        `hcl:"argument_names,optional"`
	Prerequisites          []string        `hcl:"prerequisites,optional"`
	OrderOnlyPrerequisites []string        `hcl:"order_only_prerequisites,optional"`
	Actions                []string        `hcl:"actions,optional"`
	Parameters             []*hclParameter `hcl:"parameter,block"`
}

type hclParameter struct {
	Name           string         `hcl:"name,label"`
	Default        hcl.Expression `hcl:"default,optional"`
	Required       bool           `hcl:"required,optional"`
	Configurable   *bool          `hcl:"configurable,optional"`
	Template       bool           `hcl:"template,optional"`
	TemplateFormat string         `hcl:"template_format,optional"`
	Schema         hcl.Expression `hcl:"schema,optional"`
}

type hclTaskSet struct {
	Name          string          `hcl:"name,label"`
	Namespaceable bool            `hcl:"namespaceable,optional"`
	Parameters    []*hclParameter `hcl:"parameter,block"`
	Contains      []*hclContained `hcl:"contains,block"`
}

type hclContained struct {
	Blueprint string         `hcl:"blueprint,label"`
	Options   hcl.Expression `hcl:"options,optional"`
	DefineIf  *hclCondition  `hcl:"define_if,block"`
}

type hclCondition struct {
	Parameter  string         `hcl:"parameter,optional"`
	Equals     hcl.Expression `hcl:"equals,optional"`
	Expression string         `hcl:"expression,optional"`
}

// ParseHCL decodes an HCL manifest. filename is used in diagnostics.
func ParseHCL(filename string, data []byte) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("manifest: failed to parse HCL file %s: %w", filename, diags)
	}
	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("manifest: failed to decode HCL file %s: %w", filename, diags)
	}
	return parsed.toManifest()
}

// LoadHCL decodes an HCL manifest and registers its blueprints in cat.
func LoadHCL(ctx context.Context, filename string, data []byte, cat *catalog.Catalog) (*Manifest, error) {
	m, err := ParseHCL(filename, data)
	if err != nil {
		return nil, err
	}
	if err := m.Register(ctx, cat); err != nil {
		return nil, err
	}
	return m, nil
}

func (f *hclFile) toManifest() (*Manifest, error) {
	m := &Manifest{}
	for _, t := range f.Tasks {
		params, err := convertParameters(t.Parameters)
		if err != nil {
			return nil, fmt.Errorf("manifest: task %s: %w", t.Name, err)
		}
		m.Tasks = append(m.Tasks, TaskDecl{
			Name:                   t.Name,
			Extends:                t.Extends,
			TaskName:               t.TaskName,
			Description:            t.Description,
			ArgumentNames:          t.ArgumentNames,
			Prerequisites:          t.Prerequisites,
			OrderOnlyPrerequisites: t.OrderOnlyPrerequisites,
			Parameters:             params,
			Actions:                t.Actions,
		})
	}
	for _, s := range f.TaskSets {
		params, err := convertParameters(s.Parameters)
		if err != nil {
			return nil, fmt.Errorf("manifest: task set %s: %w", s.Name, err)
		}
		decl := TaskSetDecl{Name: s.Name, Namespaceable: s.Namespaceable, Parameters: params}
		for _, c := range s.Contains {
			contained, err := c.convert()
			if err != nil {
				return nil, fmt.Errorf("manifest: task set %s: %w", s.Name, err)
			}
			decl.Tasks = append(decl.Tasks, contained)
		}
		m.TaskSets = append(m.TaskSets, decl)
	}
	return m, nil
}

func convertParameters(params []*hclParameter) ([]ParameterDecl, error) {
	out := make([]ParameterDecl, 0, len(params))
	for _, p := range params {
		def, err := expressionValue(p.Default)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: default: %w", p.Name, err)
		}
		rawSchema, err := expressionValue(p.Schema)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: schema: %w", p.Name, err)
		}
		decl := ParameterDecl{
			Name:           p.Name,
			Default:        def,
			Required:       p.Required,
			Configurable:   p.Configurable,
			Template:       p.Template,
			TemplateFormat: p.TemplateFormat,
		}
		if rawSchema != nil {
			s, ok := rawSchema.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("parameter %s: schema must be an object", p.Name)
			}
			decl.Schema = s
		}
		out = append(out, decl)
	}
	return out, nil
}

func (c *hclContained) convert() (ContainedDecl, error) {
	decl := ContainedDecl{Blueprint: c.Blueprint}
	opts, err := expressionValue(c.Options)
	if err != nil {
		return decl, fmt.Errorf("contains %s: options: %w", c.Blueprint, err)
	}
	if opts != nil {
		m, ok := opts.(map[string]any)
		if !ok {
			return decl, fmt.Errorf("contains %s: options must be an object", c.Blueprint)
		}
		decl.Options = m
	}
	if c.DefineIf != nil {
		equals, err := expressionValue(c.DefineIf.Equals)
		if err != nil {
			return decl, fmt.Errorf("contains %s: define_if: %w", c.Blueprint, err)
		}
		decl.DefineIf = &ConditionDecl{
			Parameter:  c.DefineIf.Parameter,
			Equals:     equals,
			Expression: c.DefineIf.Expression,
		}
	}
	return decl, nil
}

func expressionValue(expr hcl.Expression) (any, error) {
	if expr == nil {
		return nil, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	return ctyToNative(v)
}

// ctyToNative converts a cty.Value to plain Go values. Whole numbers become
// int, other numbers float64.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, accuracy := bf.Int64(); accuracy == 0 {
				return int(i), nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number: %w", err)
		}
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, item := it.Element()
			native, err := ctyToNative(item)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			key, item := it.Element()
			native, err := ctyToNative(item)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
