package taskset_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/taskfactory/engine/graph"
	"github.com/compozy/taskfactory/engine/param"
	"github.com/compozy/taskfactory/engine/task"
	"github.com/compozy/taskfactory/engine/taskset"
	"github.com/compozy/taskfactory/engine/value"
)

// recorded captures the values a task saw when its unit ran.
type recorded map[string]map[string]any

func recordingTask(typeName string, seen recorded, params ...string) *task.Blueprint {
	bp := task.NewBlueprint(typeName)
	for _, p := range params {
		bp.Parameter(p)
	}
	return bp.Action(func(t *task.Task) error {
		values, err := t.Values()
		if err != nil {
			return err
		}
		seen[t.Name()] = values
		return nil
	})
}

func childOf(t *testing.T, s *taskset.TaskSet, i int) *task.Task {
	t.Helper()
	children := s.Children()
	require.Greater(t, len(children), i)
	child, ok := children[i].(*task.Task)
	require.True(t, ok)
	return child
}

func TestTaskSet_Precedence(t *testing.T) {
	t.Run("Should let the contained task's value win", func(t *testing.T) {
		seen := recorded{}
		child := recordingTask("Child", seen, "x")
		group := taskset.NewBlueprint("Group").Parameter("x", param.Default("base"))
		group.Task(child, param.Options{"x": "child"}, nil)

		s, err := group.Define(t.Context(), graph.NewMemory(), nil, nil)
		require.NoError(t, err)
		got, err := childOf(t, s, 0).Get("x")
		require.NoError(t, err)
		assert.Equal(t, "child", got)
	})

	t.Run("Should fall through to the group value", func(t *testing.T) {
		seen := recorded{}
		child := recordingTask("Child", seen, "x", "y")
		group := taskset.NewBlueprint("Group").Parameter("x", param.Default("base"))
		group.Task(child, param.Options{"y": "own"}, nil)

		s, err := group.Define(t.Context(), graph.NewMemory(), nil, nil)
		require.NoError(t, err)
		x, err := childOf(t, s, 0).Get("x")
		require.NoError(t, err)
		assert.Equal(t, "base", x)
	})

	t.Run("Should use group values verbatim without spec options", func(t *testing.T) {
		child := task.NewBlueprint("Child").Parameter("x")
		group := taskset.NewBlueprint("Group").Parameter("x")
		group.Task(child, nil, nil)

		s, err := group.Define(t.Context(), graph.NewMemory(), param.Options{"x": "from define"}, nil)
		require.NoError(t, err)
		x, err := childOf(t, s, 0).Get("x")
		require.NoError(t, err)
		assert.Equal(t, "from define", x)
	})

	t.Run("Should replace child defaults with nil group values", func(t *testing.T) {
		child := task.NewBlueprint("Child").Parameter("x", param.Default("child default"))
		group := taskset.NewBlueprint("Group").Parameter("x")
		group.Task(child, nil, nil)

		s, err := group.Define(t.Context(), graph.NewMemory(), nil, nil)
		require.NoError(t, err)
		x, err := childOf(t, s, 0).Get("x")
		require.NoError(t, err)
		assert.Nil(t, x)
	})

	t.Run("Should keep child defaults the group does not declare", func(t *testing.T) {
		child := task.NewBlueprint("Child").Parameter("x", param.Default("child default"))
		group := taskset.NewBlueprint("Group").Parameter("other")
		group.Task(child, nil, nil)

		s, err := group.Define(t.Context(), graph.NewMemory(), nil, nil)
		require.NoError(t, err)
		x, err := childOf(t, s, 0).Get("x")
		require.NoError(t, err)
		assert.Equal(t, "child default", x)
	})

	t.Run("Should push group values into implicit parameters", func(t *testing.T) {
		child := task.NewBlueprint("Child")
		group := taskset.NewBlueprint("Group").Parameter(task.ParamPrerequisites)
		group.Task(child, nil, nil)

		g := graph.NewMemory()
		_, err := group.Define(t.Context(), g, param.Options{task.ParamPrerequisites: []string{"setup"}}, nil)
		require.NoError(t, err)
		unit, ok := g.Unit("child")
		require.True(t, ok)
		assert.Equal(t, []string{"setup"}, unit.Definition().Prerequisites)
	})

	t.Run("Should resolve spec values with the group and the child", func(t *testing.T) {
		child := task.NewBlueprint("Child").Parameter("label")
		group := taskset.NewBlueprint("Group").Parameter("prefix", param.Default("grp"))
		group.Task(child, param.Options{
			"label": value.Dynamic(func(s *taskset.TaskSet, c *task.Task) (string, error) {
				prefix, err := param.Get[string](s, "prefix")
				return prefix + "/" + c.Name(), err
			}),
		}, nil)

		s, err := group.Define(t.Context(), graph.NewMemory(), nil, nil)
		require.NoError(t, err)
		label, err := childOf(t, s, 0).Get("label")
		require.NoError(t, err)
		assert.Equal(t, "grp/child", label)
	})

	t.Run("Should allow distinct names for repeated blueprints", func(t *testing.T) {
		child := task.NewBlueprint("Child")
		group := taskset.NewBlueprint("Group")
		group.Task(child, param.Options{"name": "first"}, nil)
		group.Task(child, param.Options{"name": "second"}, nil)

		g := graph.NewMemory()
		_, err := group.Define(t.Context(), g, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, g.Names())
	})
}

func TestTaskSet_DefineIf(t *testing.T) {
	newGroup := func() *taskset.Blueprint {
		child := task.NewBlueprint("Choice")
		group := taskset.NewBlueprint("Chooser").Parameter("choice")
		group.Task(child, param.Options{"name": "a"}, nil).
			DefineIf(func(s *taskset.TaskSet) (bool, error) {
				choice, err := param.Get[string](s, "choice")
				return choice == "a", err
			})
		group.Task(child, param.Options{"name": "b"}, nil).
			DefineIf(func(s *taskset.TaskSet) (bool, error) {
				choice, err := param.Get[string](s, "choice")
				return choice == "b", err
			})
		return group
	}

	t.Run("Should register only the chosen specification", func(t *testing.T) {
		g := graph.NewMemory()
		_, err := newGroup().Define(t.Context(), g, param.Options{"choice": "a"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, g.Names())
		assert.False(t, g.Defined("b"))
	})

	t.Run("Should accept zero argument predicates", func(t *testing.T) {
		child := task.NewBlueprint("Never")
		group := taskset.NewBlueprint("Group")
		group.Task(child, nil, nil).DefineIf(func() bool { return false })
		g := graph.NewMemory()
		s, err := group.Define(t.Context(), g, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, g.Names())
		assert.Empty(t, s.Children())
	})

	t.Run("Should reject non boolean predicate results", func(t *testing.T) {
		group := taskset.NewBlueprint("Group")
		group.Task(task.NewBlueprint("X"), nil, nil).DefineIf(func() string { return "yes" })
		_, err := group.Define(t.Context(), graph.NewMemory(), nil, nil)
		assert.Error(t, err)
	})
}

func TestTaskSet_Failures(t *testing.T) {
	t.Run("Should keep earlier tasks defined when a later one fails", func(t *testing.T) {
		group := taskset.NewBlueprint("Group")
		group.Task(task.NewBlueprint("Dup"), nil, nil)
		group.Task(task.NewBlueprint("Dup"), nil, nil)

		g := graph.NewMemory()
		s, err := group.Define(t.Context(), g, nil, nil)
		assert.ErrorIs(t, err, graph.ErrUnitExists)
		assert.True(t, g.Defined("dup"))
		assert.Len(t, s.Children(), 1)
	})

	t.Run("Should reject a second definition", func(t *testing.T) {
		group := taskset.NewBlueprint("Group")
		s, err := group.Define(t.Context(), graph.NewMemory(), nil, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, s.Define(t.Context(), graph.NewMemory()), task.ErrAlreadyDefined)
	})
}

func TestTaskSet_Configure(t *testing.T) {
	t.Run("Should chain the spec callable before the group callable", func(t *testing.T) {
		var order []string
		seen := recorded{}
		child := recordingTask("Child", seen, "x", "y").DefaultArgumentNames("who")
		group := taskset.NewBlueprint("Group").Parameter("x")
		group.Task(child, nil, func(s *taskset.TaskSet, v *param.View, args graph.Args) {
			order = append(order, "spec")
			v.Set("y", "spec:"+args.String("who"))
			v.Set("x", "spec")
		})

		g := graph.NewMemory()
		_, err := group.Define(t.Context(), g, nil, func(v *param.View, args graph.Args) {
			order = append(order, "group")
			v.Set("x", "group:"+args.String("who"))
			v.Set("y", "not writable through the group")
		})
		require.NoError(t, err)
		require.NoError(t, g.Invoke(t.Context(), "child", "bob"))

		assert.Equal(t, []string{"spec", "group"}, order)
		assert.Equal(t, "group:bob", seen["child"]["x"])
		assert.Equal(t, "spec:bob", seen["child"]["y"])
	})

	t.Run("Should expose child parameters for reading to the group callable", func(t *testing.T) {
		var read any
		child := task.NewBlueprint("Child").Parameter("only_child", param.Default("visible"))
		group := taskset.NewBlueprint("Group")
		group.Task(child, nil, nil)

		g := graph.NewMemory()
		_, err := group.Define(t.Context(), g, nil, func(v *param.View) error {
			var err error
			read, err = v.Get("only_child")
			return err
		})
		require.NoError(t, err)
		require.NoError(t, g.Invoke(t.Context(), "child"))
		assert.Equal(t, "visible", read)
	})

	t.Run("Should fail invocation when the group leaves a requirement unset", func(t *testing.T) {
		child := task.NewBlueprint("Child").Parameter("needed", param.Required())
		group := taskset.NewBlueprint("Group").Parameter("needed")
		group.Task(child, nil, nil)

		g := graph.NewMemory()
		_, err := group.Define(t.Context(), g, nil, func(*param.View) {})
		require.NoError(t, err)
		err = g.Invoke(t.Context(), "child")
		var unset *param.RequiredParameterUnsetError
		assert.ErrorAs(t, err, &unset)
	})

	t.Run("Should propagate spec callable errors", func(t *testing.T) {
		boom := errors.New("boom")
		group := taskset.NewBlueprint("Group")
		group.Task(task.NewBlueprint("Child"), nil, func() error { return boom })
		g := graph.NewMemory()
		_, err := group.Define(t.Context(), g, nil, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, g.Invoke(t.Context(), "child"), boom)
	})
}

type nsName string

func (n nsName) String() string { return string(n) }

func TestTaskSet_Namespace(t *testing.T) {
	newGroup := func() *taskset.Blueprint {
		group := taskset.NewBlueprint("Group").Namespaceable()
		group.Task(task.NewBlueprint("Child"), nil, nil)
		return group
	}

	t.Run("Should define contained tasks inside the namespace", func(t *testing.T) {
		g := graph.NewMemory()
		s, err := newGroup().Define(t.Context(), g, param.Options{taskset.ParamNamespace: "ns"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"ns:child"}, g.Names())
		ns, err := s.Namespace()
		require.NoError(t, err)
		assert.Equal(t, "ns", ns)
	})

	t.Run("Should accept stringers", func(t *testing.T) {
		g := graph.NewMemory()
		_, err := newGroup().Define(t.Context(), g, param.Options{taskset.ParamNamespace: nsName("db")}, nil)
		require.NoError(t, err)
		assert.True(t, g.Defined("db:child"))
	})

	t.Run("Should define unscoped without a namespace", func(t *testing.T) {
		g := graph.NewMemory()
		_, err := newGroup().Define(t.Context(), g, nil, nil)
		require.NoError(t, err)
		assert.True(t, g.Defined("child"))
	})

	t.Run("Should reject non string namespaces", func(t *testing.T) {
		_, err := newGroup().Define(t.Context(), graph.NewMemory(), param.Options{taskset.ParamNamespace: 12}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected a string")
	})

	t.Run("Should allow defining again after an invalid namespace", func(t *testing.T) {
		g := graph.NewMemory()
		s, err := newGroup().Define(t.Context(), g, param.Options{taskset.ParamNamespace: 12}, nil)
		require.Error(t, err)
		require.NoError(t, s.Set(taskset.ParamNamespace, "ns"))
		require.NoError(t, s.Define(t.Context(), g))
		assert.True(t, g.Defined("ns:child"))
	})

	t.Run("Should ignore namespaces on graphs without scopes", func(t *testing.T) {
		g := &flatGraph{inner: graph.NewMemory()}
		_, err := newGroup().Define(t.Context(), g, param.Options{taskset.ParamNamespace: "ns"}, nil)
		require.NoError(t, err)
		assert.True(t, g.inner.Defined("child"))
	})
}

// flatGraph hides the Namespacer implementation of Memory.
type flatGraph struct {
	inner *graph.Memory
}

func (f *flatGraph) DefineUnit(ctx context.Context, def graph.UnitDefinition, fn graph.InvokeFunc) (graph.Handle, error) {
	return f.inner.DefineUnit(ctx, def, fn)
}

func TestTaskSet_Nested(t *testing.T) {
	t.Run("Should push values through nested task sets", func(t *testing.T) {
		leaf := task.NewBlueprint("Leaf").Parameter("region")
		inner := taskset.NewBlueprint("Inner").Parameter("region")
		inner.Task(leaf, nil, nil)
		outer := taskset.NewBlueprint("Outer").Parameter("region", param.Default("eu")).Namespaceable()
		outer.Task(inner, nil, nil)

		g := graph.NewMemory()
		s, err := outer.Define(t.Context(), g, param.Options{taskset.ParamNamespace: "infra"}, func(v *param.View) {
			v.Set("region", "us")
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"infra:leaf"}, g.Names())

		innerSet, ok := s.Children()[0].(*taskset.TaskSet)
		require.True(t, ok)
		region, err := innerSet.Get("region")
		require.NoError(t, err)
		assert.Equal(t, "eu", region)

		var leafRegion any
		unit, _ := g.Unit("infra:leaf")
		leafTask := unit.Definition().Creator.(*task.Task)
		require.NoError(t, g.Invoke(t.Context(), "infra:leaf"))
		leafRegion, err = leafTask.Get("region")
		require.NoError(t, err)
		assert.Equal(t, "us", leafRegion)
	})
}
