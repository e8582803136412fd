package param

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownParameter is returned by public writers for names the set does not declare.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrWrongType is returned by Get when a value cannot be asserted to the requested type.
	ErrWrongType = errors.New("parameter has unexpected type")
)

// RequiredParameterUnsetError names every required parameter whose value
// resolved to nil at validation time.
type RequiredParameterUnsetError struct {
	Names []string
}

func (e *RequiredParameterUnsetError) Error() string {
	plural := ""
	if len(e.Names) > 1 {
		plural = "s"
	}
	return fmt.Sprintf("Required parameter%s %s unset.", plural, strings.Join(e.Names, ","))
}

// ParameterFailure is a single schema violation.
type ParameterFailure struct {
	Name string
	Err  error
}

// InvalidParameterError aggregates schema violations in declaration order.
type InvalidParameterError struct {
	Failures []ParameterFailure
}

func (e *InvalidParameterError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Name, f.Err))
	}
	plural := ""
	if len(e.Failures) > 1 {
		plural = "s"
	}
	return fmt.Sprintf("Invalid parameter%s %s", plural, strings.Join(parts, "; "))
}

func (e *InvalidParameterError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Names returns the offending parameter names.
func (e *InvalidParameterError) Names() []string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Name)
	}
	return names
}
