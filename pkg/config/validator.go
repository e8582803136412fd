package config

import (
	"fmt"
	"sort"
)

func validateBlueprints(overrides map[string]map[string]any) error {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == "" {
			return fmt.Errorf("blueprints: empty blueprint name")
		}
		for param := range overrides[name] {
			if param == "" {
				return fmt.Errorf("blueprints.%s: empty parameter name", name)
			}
		}
	}
	return nil
}
