// Package value provides the uniform wrapper for parameter values that may be
// known now (Static) or computed later from contextual arguments (Dynamic).
//
// Values are immutable: PrependArgument and AppendArgument return new values,
// and evaluating a value never changes it.
package value

import "slices"

// Value is either a Static or a Dynamic value.
type Value interface {
	// Evaluate resolves the value using args as resolution context.
	Evaluate(args ...any) (any, error)
	// PrependArgument returns a value that receives arg before any
	// resolution-time arguments.
	PrependArgument(arg any) Value
	// AppendArgument returns a value that receives arg after any
	// resolution-time arguments.
	AppendArgument(arg any) Value
}

// -----------------------------------------------------------------------------
// Static
// -----------------------------------------------------------------------------

type staticValue struct {
	value any
}

// Static wraps v so that it always evaluates to v, whatever the context.
func Static(v any) Value {
	return staticValue{value: v}
}

func (s staticValue) Evaluate(...any) (any, error) {
	return s.value, nil
}

func (s staticValue) PrependArgument(any) Value {
	return s
}

func (s staticValue) AppendArgument(any) Value {
	return s
}

// -----------------------------------------------------------------------------
// Dynamic
// -----------------------------------------------------------------------------

// DynamicValue defers to a callable invoked with pre ++ context ++ post,
// truncated to the number of parameters the callable declares.
type DynamicValue struct {
	fn   *Func
	pre  []any
	post []any
}

// Dynamic wraps fn as a deferred value. It panics when fn is not a supported
// callable, since that is a declaration-time programming error.
func Dynamic(fn any) *DynamicValue {
	return &DynamicValue{fn: MustFunc(fn)}
}

// NewDynamic is Dynamic for callables that are not known to be valid.
func NewDynamic(fn any) (*DynamicValue, error) {
	f, err := NewFunc(fn)
	if err != nil {
		return nil, err
	}
	return &DynamicValue{fn: f}, nil
}

func (d *DynamicValue) Evaluate(args ...any) (any, error) {
	resolved := make([]any, 0, len(d.pre)+len(args)+len(d.post))
	resolved = append(resolved, d.pre...)
	resolved = append(resolved, args...)
	resolved = append(resolved, d.post...)
	return d.fn.Call(resolved...)
}

func (d *DynamicValue) PrependArgument(arg any) Value {
	return &DynamicValue{
		fn:   d.fn,
		pre:  append([]any{arg}, d.pre...),
		post: slices.Clone(d.post),
	}
}

func (d *DynamicValue) AppendArgument(arg any) Value {
	return &DynamicValue{
		fn:   d.fn,
		pre:  slices.Clone(d.pre),
		post: append(slices.Clone(d.post), arg),
	}
}

// Arity reports how many context arguments the underlying callable consumes.
func (d *DynamicValue) Arity() int {
	return d.fn.Arity()
}

// -----------------------------------------------------------------------------
// Resolution
// -----------------------------------------------------------------------------

// Resolve returns stored unchanged when it already is a Value and wraps it in
// Static otherwise.
func Resolve(stored any) Value {
	if d, ok := stored.(*DynamicValue); ok && d == nil {
		return Static(nil)
	}
	if v, ok := stored.(Value); ok && v != nil {
		return v
	}
	return Static(stored)
}

// Evaluate resolves stored and evaluates it with args as context.
func Evaluate(stored any, args ...any) (any, error) {
	return Resolve(stored).Evaluate(args...)
}

// IsDeferred reports whether stored needs context to produce its value.
func IsDeferred(stored any) bool {
	v, ok := stored.(Value)
	if !ok {
		return false
	}
	_, static := v.(staticValue)
	return !static
}
