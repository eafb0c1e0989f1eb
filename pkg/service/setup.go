package service

import (
	"fmt"

	"github.com/opd-ai/go-shipyard/pkg/catalog"
	"github.com/opd-ai/go-shipyard/pkg/config"
	"github.com/opd-ai/go-shipyard/pkg/event"
	"github.com/opd-ai/go-shipyard/pkg/logging"
	"github.com/opd-ai/go-shipyard/pkg/metrics"
	"github.com/opd-ai/go-shipyard/pkg/render"
	"github.com/opd-ai/go-shipyard/pkg/upload"
	"github.com/opd-ai/go-shipyard/pkg/validation"
)

// Components are the pieces FromConfig builds, for callers that need more
// than the service itself
type Components struct {
	Service  *Service
	Catalog  *catalog.Table
	Uploader *upload.Client
	Events   *event.Bus
}

// OpenCatalog returns the catalog at path, or the embedded one when path is
// empty
func OpenCatalog(path string) (*catalog.Table, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(path)
}

// FromConfig assembles a service from the application config. m may be nil.
func FromConfig(cfg *config.AppConfig, logger *logging.Logger, m *metrics.Collector) (*Components, error) {
	cat, err := OpenCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load part catalog: %w", err)
	}

	var sprites render.SpriteSource = render.ProceduralSprites{}
	if cfg.Render.SpriteDir != "" {
		sprites = render.NewDirSprites(cfg.Render.SpriteDir, logger)
	}

	bus := event.NewEventBus()
	opts := []Option{
		WithLogger(logger),
		WithEvents(bus),
		WithSprites(sprites),
		WithValidator(validation.NewBlueprintValidator(validation.Limits{
			MaxParts:  cfg.Analysis.MaxParts,
			MaxExtent: cfg.Analysis.MaxExtent,
		})),
		WithCacheSize(cfg.Server.CacheSize),
		WithBatchConcurrency(cfg.Server.BatchConcurrency),
	}
	if m != nil {
		opts = append(opts, WithMetrics(m))
	}

	c := &Components{Catalog: cat, Events: bus}
	if cfg.Upload.Enabled {
		c.Uploader = upload.NewClient(cfg.Upload, upload.WithLogger(logger))
		opts = append(opts, WithUploader(c.Uploader))
	}
	c.Service = New(cat, opts...)
	return c, nil
}

// DefaultOptions maps the analysis and render config sections to request
// options
func DefaultOptions(cfg *config.AppConfig) Options {
	return Options{
		BoostEnabled: cfg.Analysis.BoostEnabled,
		Render:       cfg.Render.Draw,
		Upload:       cfg.Upload.Enabled,
		Overlays:     render.OptionsFromConfig(cfg.Render, cfg.Analysis.BoostEnabled),
	}
}
