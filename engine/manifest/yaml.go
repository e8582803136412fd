package manifest

import (
	"context"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/compozy/taskfactory/engine/catalog"
)

// ParseYAML decodes a YAML manifest. Unknown fields are rejected.
func ParseYAML(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalWithOptions(data, &m, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("manifest: failed to decode YAML: %w", err)
	}
	return &m, nil
}

// LoadYAML decodes a YAML manifest and registers its blueprints in cat.
func LoadYAML(ctx context.Context, data []byte, cat *catalog.Catalog) (*Manifest, error) {
	m, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	if err := m.Register(ctx, cat); err != nil {
		return nil, err
	}
	return m, nil
}
