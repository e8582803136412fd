package value

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrArity is returned when a callable declares more parameters than the
	// context supplies. Missing arguments are never padded.
	ErrArity = errors.New("wrong number of arguments")
	// ErrArgumentType is returned when a context argument cannot be passed to
	// the declared parameter type.
	ErrArgumentType = errors.New("argument type mismatch")
	// ErrNotCallable is returned by NewFunc for anything that is not a func
	// with a supported result shape.
	ErrNotCallable = errors.New("value is not a supported callable")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Func wraps a user callable and invokes it with as many leading context
// arguments as it declares. Supported result shapes are (), (T), (error) and
// (T, error).
type Func struct {
	fn       reflect.Value
	typ      reflect.Type
	arity    int
	variadic bool
}

// NewFunc validates fn and captures its declared arity.
func NewFunc(fn any) (*Func, error) {
	if f, ok := fn.(*Func); ok {
		if f == nil {
			return nil, fmt.Errorf("%w: nil", ErrNotCallable)
		}
		return f, nil
	}
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, fmt.Errorf("%w: %T", ErrNotCallable, fn)
	}
	typ := rv.Type()
	switch typ.NumOut() {
	case 0, 1:
	case 2:
		if !typ.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("%w: second result of %s must be error", ErrNotCallable, typ)
		}
	default:
		return nil, fmt.Errorf("%w: %s returns too many results", ErrNotCallable, typ)
	}
	arity := typ.NumIn()
	if typ.IsVariadic() {
		arity--
	}
	return &Func{fn: rv, typ: typ, arity: arity, variadic: typ.IsVariadic()}, nil
}

// MustFunc is NewFunc for declaration-time callables; it panics on invalid input.
func MustFunc(fn any) *Func {
	f, err := NewFunc(fn)
	if err != nil {
		panic(err)
	}
	return f
}

// Arity is the number of fixed parameters the callable declares.
func (f *Func) Arity() int {
	return f.arity
}

// Call invokes the callable with args truncated to its arity. Variadic
// callables receive every remaining argument.
func (f *Func) Call(args ...any) (any, error) {
	if len(args) < f.arity {
		return nil, fmt.Errorf("%w: %s expects %d, given %d", ErrArity, f.typ, f.arity, len(args))
	}
	n := f.arity
	if f.variadic {
		n = len(args)
	}
	in := make([]reflect.Value, n)
	for i := 0; i < n; i++ {
		v, err := f.argument(i, args[i])
		if err != nil {
			return nil, err
		}
		in[i] = v
	}
	return f.results(f.fn.Call(in))
}

func (f *Func) parameterType(i int) reflect.Type {
	if f.variadic && i >= f.arity {
		return f.typ.In(f.typ.NumIn() - 1).Elem()
	}
	return f.typ.In(i)
}

func (f *Func) argument(i int, arg any) (reflect.Value, error) {
	pt := f.parameterType(i)
	if arg == nil {
		if nilable(pt) {
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: argument %d: nil is not a valid %s", ErrArgumentType, i, pt)
	}
	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(pt) {
		return av, nil
	}
	if av.Type().ConvertibleTo(pt) && av.Kind() == pt.Kind() {
		return av.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: argument %d: cannot use %T as %s", ErrArgumentType, i, arg, pt)
}

func (f *Func) results(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if f.typ.Out(0).Implements(errorType) && f.typ.Out(0).Kind() == reflect.Interface {
			return nil, asError(out[0])
		}
		return asAny(out[0]), nil
	default:
		return asAny(out[0]), asError(out[1])
	}
}

func asAny(v reflect.Value) any {
	if nilable(v.Type()) && v.IsNil() {
		return nil
	}
	return v.Interface()
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	err, _ := v.Interface().(error)
	return err
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
