package manifest

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/compozy/taskfactory/engine/taskset"
)

// celEnv exposes the group values to define_if expressions as params.
var celEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)))
})

func compileExpression(expr string) (cel.Program, error) {
	env, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to create expression environment: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("manifest: invalid define_if expression %q: %w", expr, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("manifest: invalid define_if expression %q: %w", expr, err)
	}
	return prg, nil
}

// predicate builds the define_if callable. Expressions are compiled once, at
// registration.
func (c *ConditionDecl) predicate() (func(*taskset.TaskSet) (bool, error), error) {
	if c.Expression != "" {
		prg, err := compileExpression(c.Expression)
		if err != nil {
			return nil, err
		}
		expr := c.Expression
		return func(s *taskset.TaskSet) (bool, error) {
			values, err := s.Values()
			if err != nil {
				return false, err
			}
			out, _, err := prg.Eval(map[string]any{"params": values})
			if err != nil {
				return false, fmt.Errorf("define_if %q: %w", expr, err)
			}
			b, ok := out.Value().(bool)
			if !ok {
				return false, fmt.Errorf("define_if %q: expected bool, got %T", expr, out.Value())
			}
			return b, nil
		}, nil
	}
	name := c.Parameter
	want := normalize(c.Equals)
	return func(s *taskset.TaskSet) (bool, error) {
		got, err := s.Get(name)
		if err != nil {
			return false, err
		}
		return reflect.DeepEqual(normalize(got), want), nil
	}, nil
}
