// Package factory assembles a catalog and a task graph from configuration:
// it builds the logger, loads manifests, applies default overrides and
// creates the graph with the configured namespace separator.
package factory

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/compozy/taskfactory/engine/catalog"
	"github.com/compozy/taskfactory/engine/graph"
	"github.com/compozy/taskfactory/engine/manifest"
	"github.com/compozy/taskfactory/engine/param"
	"github.com/compozy/taskfactory/engine/task"
	"github.com/compozy/taskfactory/pkg/config"
	"github.com/compozy/taskfactory/pkg/logger"
)

type Factory struct {
	config    *config.Config
	catalog   *catalog.Catalog
	graph     *graph.Memory
	log       logger.Logger
	manifests []*manifest.Manifest
}

// New prepares a factory. Blueprints and actions registered in cat before the
// call are visible to manifests; a nil cfg or cat is replaced with defaults.
func New(ctx context.Context, cfg *config.Config, cat *catalog.Catalog) (*Factory, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if cat == nil {
		cat = catalog.New()
	}
	f := &Factory{
		config:  cfg,
		catalog: cat,
		graph:   graph.NewMemory(graph.WithSeparator(cfg.Graph.NamespaceSeparator)),
		log:     logger.NewLogger(logger.ConfigFrom(cfg.Log.Level, cfg.Log.JSON, cfg.Log.Source)),
	}
	ctx = f.Context(ctx)
	manifests, err := manifest.LoadPaths(ctx, cfg.Manifests.Paths, cat)
	if err != nil {
		return nil, fmt.Errorf("factory: %w", err)
	}
	f.manifests = manifests
	if err := cat.ApplyDefaults(ctx, cfg.Blueprints); err != nil {
		return nil, fmt.Errorf("factory: %w", err)
	}
	f.log.Debug("Task factory ready", "manifests", len(manifests), "blueprints", len(cat.Names()))
	return f, nil
}

// Open loads the configuration file at path and the .env file next to it,
// then calls New.
func Open(ctx context.Context, path string, cat *catalog.Catalog) (*Factory, error) {
	cfg, err := config.Load(ctx,
		config.NewYAMLProvider(path),
		config.NewDotEnvProvider(filepath.Join(filepath.Dir(path), ".env")),
	)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, cat)
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) Catalog() *catalog.Catalog {
	return f.catalog
}

func (f *Factory) Graph() *graph.Memory {
	return f.graph
}

func (f *Factory) Manifests() []*manifest.Manifest {
	return f.manifests
}

// Context attaches the factory logger to ctx.
func (f *Factory) Context(ctx context.Context) context.Context {
	return logger.ContextWithLogger(ctx, f.log)
}

// Define builds the named blueprint and defines it on the factory graph.
func (f *Factory) Define(
	ctx context.Context,
	name string,
	opts param.Options,
	configure any,
) (task.Definer, error) {
	return f.catalog.Define(f.Context(ctx), f.graph, name, opts, configure)
}

// Invoke runs a defined unit with positional arguments.
func (f *Factory) Invoke(ctx context.Context, name string, args ...any) error {
	return f.graph.Invoke(f.Context(ctx), name, args...)
}
