// cmd/shipyard-viewer/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/catalog"
	"github.com/opd-ai/go-shipyard/pkg/config"
	"github.com/opd-ai/go-shipyard/pkg/logging"
	"github.com/opd-ai/go-shipyard/pkg/render"
	engorender "github.com/opd-ai/go-shipyard/pkg/render/engo"
	"github.com/opd-ai/go-shipyard/pkg/service"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "shipyard.yaml", "Path to configuration file (JSON or YAML)")
	fullscreen := flag.Bool("fullscreen", false, "Run in fullscreen mode")
	width := flag.Int("width", 1280, "Window width")
	height := flag.Int("height", 960, "Window height")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: shipyard-viewer [flags] blueprint")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, _, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}

	cat, err := service.OpenCatalog(cfg.Catalog.Path)
	if err != nil {
		logger.Error(ctx, "Failed to load part catalog", err)
		os.Exit(1)
	}

	bp, err := blueprint.LoadFile(flag.Arg(0))
	if err != nil {
		logger.Error(ctx, "Failed to load blueprint", err, "path", flag.Arg(0))
		os.Exit(1)
	}
	norm, warnings := blueprint.Normalize(bp, cat.Known)
	for _, w := range warnings {
		logger.Warn(ctx, "Blueprint warning", "warning", w)
	}

	var sprites render.SpriteSource = render.ProceduralSprites{}
	if cfg.Render.SpriteDir != "" {
		sprites = render.NewDirSprites(cfg.Render.SpriteDir, logger)
	}

	startEngoViewer(norm, cat, sprites, render.OptionsFromConfig(cfg.Render, cfg.Analysis.BoostEnabled), logger, *width, *height, *fullscreen)
}

// startEngoViewer opens the viewer window and blocks until it is closed
func startEngoViewer(bp *blueprint.Blueprint, cat catalog.Reader, sprites render.SpriteSource, opts render.Options, logger *logging.Logger, width, height int, fullscreen bool) {
	scene := engorender.NewShipScene(bp, cat, sprites, opts, logger)

	runOpts := engo.RunOptions{
		Title:      "Shipyard - " + bp.Name,
		Width:      width,
		Height:     height,
		Fullscreen: fullscreen,
		VSync:      true,
	}

	engo.Run(runOpts, scene)
}
