package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/compozy/taskfactory/engine/catalog"
	"github.com/compozy/taskfactory/pkg/logger"
)

func isManifestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".hcl":
		return true
	default:
		return false
	}
}

// LoadFile loads a manifest, choosing the format from the file extension.
func LoadFile(ctx context.Context, path string, cat *catalog.Catalog) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to read %s: %w", path, err)
	}
	logger.FromContext(ctx).Debug("Loading manifest", "path", path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(ctx, data, cat)
	case ".hcl":
		return LoadHCL(ctx, path, data, cat)
	default:
		return nil, fmt.Errorf("manifest: unsupported file type %s", path)
	}
}

// LoadPaths loads every manifest named by paths. A path is a file, a
// directory whose manifest files load in lexical order (subdirectories are
// not visited), or a doublestar glob such as "tasks/**/*.hcl".
func LoadPaths(ctx context.Context, paths []string, cat *catalog.Catalog) ([]*Manifest, error) {
	var manifests []*Manifest
	for _, path := range paths {
		files, err := expand(path)
		if err != nil {
			return manifests, err
		}
		for _, file := range files {
			m, err := LoadFile(ctx, file, cat)
			if err != nil {
				return manifests, err
			}
			manifests = append(manifests, m)
		}
	}
	return manifests, nil
}

func expand(path string) ([]string, error) {
	if strings.ContainsAny(path, "*?[{") {
		return glob(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isManifestFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	slices.Sort(files)
	return files, nil
}

func glob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("manifest: invalid glob pattern %q: %w", pattern, err)
	}
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		if isManifestFile(match) {
			files = append(files, match)
		}
	}
	slices.Sort(files)
	return files, nil
}
