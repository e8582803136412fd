package param

import "fmt"

// Get reads name from g and asserts it to T. A nil value yields the zero T.
func Get[T any](g Getter, name string) (T, error) {
	var zero T
	v, err := g.Get(name)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, want %T", ErrWrongType, name, v, zero)
	}
	return typed, nil
}

// Strings reads name as a string list, accepting []string and []any of strings.
func Strings(g Getter, name string) ([]string, error) {
	v, err := g.Get(name)
	if err != nil {
		return nil, err
	}
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] is %T, want string", ErrWrongType, name, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s is %T, want a string list", ErrWrongType, name, v)
	}
}
