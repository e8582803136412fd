package param_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/taskfactory/engine/param"
	"github.com/compozy/taskfactory/engine/value"
)

type entity struct {
	label string
}

func TestObject_Get(t *testing.T) {
	t.Run("Should return the default passed through the transform", func(t *testing.T) {
		set := param.NewSet(param.New("m", param.Default("hi"), param.Transform(upper)))
		obj := param.NewObject(set, nil)
		set.ApplyDefaultsTo(obj)
		got, err := obj.Get("m")
		require.NoError(t, err)
		assert.Equal(t, "HI", got)
	})

	t.Run("Should resolve deferred slots with the owning entity", func(t *testing.T) {
		set := param.NewSet(param.New("greeting"))
		owner := &entity{label: "owner"}
		obj := param.NewObject(set, owner)
		require.NoError(t, obj.Set("greeting", value.Dynamic(func(e *entity) string { return "hello " + e.label })))
		got, err := obj.Get("greeting")
		require.NoError(t, err)
		assert.Equal(t, "hello owner", got)
	})

	t.Run("Should use the object itself when no owner is given", func(t *testing.T) {
		set := param.NewSet(param.New("a", param.Default("x")), param.New("b"))
		obj := param.NewObject(set, nil)
		set.ApplyDefaultsTo(obj)
		require.NoError(t, obj.Set("b", value.Dynamic(func(g param.Getter) (any, error) {
			a, err := g.Get("a")
			return "b-" + a.(string), err
		})))
		got, err := obj.Get("b")
		require.NoError(t, err)
		assert.Equal(t, "b-x", got)
	})

	t.Run("Should run the transform and resolution on every read", func(t *testing.T) {
		reads := 0
		set := param.NewSet(param.New("n", param.Transform(func(v any) (any, error) {
			reads++
			return v, nil
		})))
		obj := param.NewObject(set, nil)
		calls := 0
		require.NoError(t, obj.Set("n", value.Dynamic(func() int { calls++; return calls })))
		first, _ := obj.Get("n")
		second, _ := obj.Get("n")
		assert.Equal(t, 1, first)
		assert.Equal(t, 2, second)
		assert.Equal(t, 2, reads)
	})

	t.Run("Should reject unknown parameters", func(t *testing.T) {
		_, err := param.NewObject(param.NewSet(), nil).Get("nope")
		assert.ErrorIs(t, err, param.ErrUnknownParameter)
	})

	t.Run("Should wrap resolution errors with the parameter name", func(t *testing.T) {
		set := param.NewSet(param.New("pair"))
		obj := param.NewObject(set, nil)
		require.NoError(t, obj.Set("pair", value.Dynamic(func(a, b any) any { return a })))
		_, err := obj.Get("pair")
		assert.ErrorIs(t, err, value.ErrArity)
		assert.Contains(t, err.Error(), "pair")
	})
}

func TestObject_Set(t *testing.T) {
	t.Run("Should store values exactly as given", func(t *testing.T) {
		set := param.NewSet(param.New("d"))
		obj := param.NewObject(set, nil)
		d := value.Dynamic(func() int { return 1 })
		require.NoError(t, obj.Set("d", d))
		raw, ok := obj.Raw("d")
		require.True(t, ok)
		assert.Same(t, d, raw)
	})

	t.Run("Should reject unknown names on the public writer", func(t *testing.T) {
		err := param.NewObject(param.NewSet(), nil).Set("nope", 1)
		assert.ErrorIs(t, err, param.ErrUnknownParameter)
	})

	t.Run("Should write non-configurable parameters at construction", func(t *testing.T) {
		set := param.NewSet(param.New("name", param.NotConfigurable()))
		obj := param.NewObject(set, nil)
		assert.True(t, obj.SetIfParameter("name", "fixed"))
		assert.False(t, obj.SetIfParameter("unknown", "x"))
	})
}

func TestObject_Apply(t *testing.T) {
	set := param.NewSet(param.New("a", param.Default("default")), param.New("b"))

	t.Run("Should ignore unknown option keys", func(t *testing.T) {
		obj := param.NewObject(set, nil)
		set.ApplyDefaultsTo(obj)
		obj.Apply(param.Options{"b": "given", "zzz": "ignored"})
		values, err := obj.Values()
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": "default", "b": "given"}, values)
	})

	t.Run("Should let an explicit nil replace the default", func(t *testing.T) {
		obj := param.NewObject(set, nil)
		set.ApplyDefaultsTo(obj)
		obj.Apply(param.Options{"a": nil})
		got, err := obj.Get("a")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.True(t, obj.Has("a"))
	})

	t.Run("Should retain raw callables as data", func(t *testing.T) {
		set := param.NewSet(param.New("fn"))
		obj := param.NewObject(set, nil)
		obj.Apply(param.Options{"fn": func(a, b int) int { return a * b }})
		got, err := param.Get[func(int, int) int](obj, "fn")
		require.NoError(t, err)
		assert.Equal(t, 6, got(2, 3))
	})
}

func TestGet(t *testing.T) {
	set := param.NewSet(param.New("s"), param.New("list"), param.New("mixed"))
	obj := param.NewObject(set, nil)
	require.NoError(t, obj.Set("s", "text"))
	require.NoError(t, obj.Set("list", []any{"a", "b"}))
	require.NoError(t, obj.Set("mixed", []any{"a", 1}))

	t.Run("Should assert the requested type", func(t *testing.T) {
		s, err := param.Get[string](obj, "s")
		require.NoError(t, err)
		assert.Equal(t, "text", s)
	})

	t.Run("Should fail on type mismatch", func(t *testing.T) {
		_, err := param.Get[int](obj, "s")
		assert.ErrorIs(t, err, param.ErrWrongType)
	})

	t.Run("Should convert generic lists to strings", func(t *testing.T) {
		list, err := param.Strings(obj, "list")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, list)
		_, err = param.Strings(obj, "mixed")
		assert.ErrorIs(t, err, param.ErrWrongType)
	})
}
