package core

import (
	"maps"

	"github.com/mohae/deepcopy"
)

// CloneData deep-copies v when it is plain decoded data: scalars and nested
// []any, []string, map[string]any or map[string]string. Any other value,
// pointers and structs included, is returned as is.
func CloneData(v any) any {
	if !isPlainData(v) {
		return v
	}
	return deepcopy.Copy(v)
}

func isPlainData(v any) bool {
	switch x := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	case []string, map[string]string:
		return true
	case []any:
		for _, item := range x {
			if !isPlainData(item) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, item := range x {
			if !isPlainData(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// CopyMaps merges the given maps into a new map. Later maps override earlier ones.
func CopyMaps[K comparable, V any](sources ...map[K]V) map[K]V {
	size := 0
	for _, m := range sources {
		size += len(m)
	}
	result := make(map[K]V, size)
	for _, m := range sources {
		maps.Copy(result, m)
	}
	return result
}
