package core

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// ID identifies a single task or task set instance.
type ID string

func (c ID) String() string {
	return string(c)
}

func (c ID) IsZero() bool {
	return c == ""
}

// NewID returns a new KSUID-based identifier.
func NewID() (ID, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}
	return ID(id.String()), nil
}
