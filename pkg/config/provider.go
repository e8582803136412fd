package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type yamlProvider struct {
	path string
}

// NewYAMLProvider reads configuration from a YAML file. A missing file
// contributes nothing.
func NewYAMLProvider(path string) Source {
	return &yamlProvider{path: path}
}

func (y *yamlProvider) Load() (map[string]any, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", y.path, err)
	}
	return filterNilValues(config), nil
}

func (y *yamlProvider) Type() SourceType {
	return SourceYAML
}

// filterNilValues drops nil entries so they do not replace lower layers.
func filterNilValues(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			if filtered := filterNilValues(nested); len(filtered) > 0 {
				result[k] = filtered
			}
			continue
		}
		result[k] = v
	}
	return result
}

type mapProvider struct {
	values map[string]any
}

// NewMapProvider layers an in-memory nested map, such as programmatic
// overrides, over the other sources.
func NewMapProvider(values map[string]any) Source {
	return &mapProvider{values: values}
}

func (m *mapProvider) Load() (map[string]any, error) {
	if m.values == nil {
		return map[string]any{}, nil
	}
	return filterNilValues(m.values), nil
}

func (m *mapProvider) Type() SourceType {
	return SourceMap
}

type dotEnvProvider struct {
	path string
}

// NewDotEnvProvider reads TASKFACTORY_ variables from a dotenv file. Other
// keys are ignored and a missing file contributes nothing.
func NewDotEnvProvider(path string) Source {
	return &dotEnvProvider{path: path}
}

func (d *dotEnvProvider) Load() (map[string]any, error) {
	vars, err := godotenv.Read(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	config := make(map[string]any)
	for key, value := range vars {
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if err := setNested(config, transformEnvKey(key), value); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return config, nil
}

func (d *dotEnvProvider) Type() SourceType {
	return SourceDotEnv
}

// setNested sets a value in a nested map using dot notation.
func setNested(m map[string]any, path string, value any) error {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	current := m
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return fmt.Errorf("configuration conflict: key %q is not a map", strings.Join(parts[:i+1], "."))
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
	return nil
}
