package param_test

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/taskfactory/engine/param"
	"github.com/compozy/taskfactory/engine/schema"
	"github.com/compozy/taskfactory/engine/value"
)

func upper(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return strings.ToUpper(fmt.Sprint(v)), nil
}

func TestParameter_Options(t *testing.T) {
	t.Run("Should be configurable without a default by default", func(t *testing.T) {
		p := param.New("subject")
		assert.True(t, p.Configurable)
		assert.False(t, p.Required)
		assert.False(t, p.HasDefault())
	})

	t.Run("Should apply every option", func(t *testing.T) {
		s := &schema.Schema{"type": "string"}
		p := param.New("message",
			param.Default("hi"),
			param.Required(),
			param.NotConfigurable(),
			param.Transform(upper),
			param.WithSchema(s),
		)
		assert.Equal(t, "hi", p.Default)
		assert.True(t, p.Required)
		assert.False(t, p.Configurable)
		assert.NotNil(t, p.Transform)
		assert.Same(t, s, p.Schema)
	})

	t.Run("Should treat a nil default as no default", func(t *testing.T) {
		assert.False(t, param.New("x", param.Default(nil)).HasDefault())
	})
}

func TestParameter_ApplyDefaultTo(t *testing.T) {
	t.Run("Should leave earlier values intact when no default is declared", func(t *testing.T) {
		set := param.NewSet(param.New("x"))
		obj := param.NewObject(set, nil)
		require.NoError(t, obj.Set("x", "earlier"))
		set.ApplyDefaultsTo(obj)
		got, err := obj.Get("x")
		require.NoError(t, err)
		assert.Equal(t, "earlier", got)
	})

	t.Run("Should not share raw defaults between instances", func(t *testing.T) {
		set := param.NewSet(param.New("list", param.Default([]string{"a"})))
		first := param.NewObject(set, nil)
		second := param.NewObject(set, nil)
		set.ApplyDefaultsTo(first)
		set.ApplyDefaultsTo(second)

		raw, ok := first.Raw("list")
		require.True(t, ok)
		raw.([]string)[0] = "changed"

		got, err := second.Get("list")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, got)
	})

	t.Run("Should not share map defaults between instances", func(t *testing.T) {
		set := param.NewSet(param.New("labels", param.Default(map[string]any{"tier": []any{"web"}})))
		first := param.NewObject(set, nil)
		second := param.NewObject(set, nil)
		set.ApplyDefaultsTo(first)
		set.ApplyDefaultsTo(second)

		raw, _ := first.Raw("labels")
		raw.(map[string]any)["tier"].([]any)[0] = "db"

		got, err := second.Get("labels")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"tier": []any{"web"}}, got)
	})

	t.Run("Should keep pointer defaults with unexported state intact", func(t *testing.T) {
		limit := big.NewInt(42)
		cause := errors.New("boom")
		set := param.NewSet(
			param.New("limit", param.Default(limit)),
			param.New("cause", param.Default(cause)),
		)
		obj := param.NewObject(set, nil)
		set.ApplyDefaultsTo(obj)

		got, err := param.Get[*big.Int](obj, "limit")
		require.NoError(t, err)
		assert.Same(t, limit, got)
		assert.Equal(t, int64(42), got.Int64())

		gotCause, err := param.Get[error](obj, "cause")
		require.NoError(t, err)
		assert.EqualError(t, gotCause, "boom")
	})

	t.Run("Should store deferred defaults as given", func(t *testing.T) {
		d := value.Dynamic(func() string { return "lazy" })
		set := param.NewSet(param.New("x", param.Default(d)))
		obj := param.NewObject(set, nil)
		set.ApplyDefaultsTo(obj)
		raw, _ := obj.Raw("x")
		assert.Same(t, d, raw)
	})
}

func TestParameter_SatisfiedBy(t *testing.T) {
	set := param.NewSet(param.New("subject", param.Required()), param.New("optional"))
	obj := param.NewObject(set, nil)

	t.Run("Should be dissatisfied when a required value reads as nil", func(t *testing.T) {
		p, _ := set.Find("subject")
		ok, err := p.SatisfiedBy(obj)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Should always be satisfied when not required", func(t *testing.T) {
		p, _ := set.Find("optional")
		ok, err := p.SatisfiedBy(obj)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Should check the resolved value rather than the slot", func(t *testing.T) {
		require.NoError(t, obj.Set("subject", value.Dynamic(func() any { return nil })))
		p, _ := set.Find("subject")
		dissatisfied, err := p.DissatisfiedBy(obj)
		require.NoError(t, err)
		assert.True(t, dissatisfied)
	})

	t.Run("Should surface read errors", func(t *testing.T) {
		boom := errors.New("boom")
		require.NoError(t, obj.Set("subject", value.Dynamic(func() (any, error) { return nil, boom })))
		p, _ := set.Find("subject")
		_, err := p.SatisfiedBy(obj)
		assert.ErrorIs(t, err, boom)
	})
}
