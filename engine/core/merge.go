package core

import (
	"fmt"

	"dario.cat/mergo"
)

// MergeDefaults fills every zero-valued field of dst with the matching field
// of src. Fields already set on dst are kept.
func MergeDefaults[T any](dst *T, src *T) error {
	if dst == nil || src == nil {
		return nil
	}
	if err := mergo.Merge(dst, src); err != nil {
		return fmt.Errorf("failed to merge defaults: %w", err)
	}
	return nil
}
