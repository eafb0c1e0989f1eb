// cmd/shipyard/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/opd-ai/go-shipyard/pkg/analysis"
	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/config"
	"github.com/opd-ai/go-shipyard/pkg/logging"
	"github.com/opd-ai/go-shipyard/pkg/render"
	"github.com/opd-ai/go-shipyard/pkg/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "shipyard:", err)
		}
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string
	jsonOut    bool
	ascii      bool
	outDir     string
	legend     string
	priceChart bool
	boost      bool
	drawAll    bool
	flip       bool
	upload     bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("shipyard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f cliFlags
	fs.StringVar(&f.configPath, "config", "shipyard.yaml", "Path to configuration file (JSON or YAML)")
	fs.BoolVar(&f.jsonOut, "json", false, "Print reports as JSON")
	fs.BoolVar(&f.ascii, "ascii", false, "Print an ASCII picture of each ship")
	fs.StringVar(&f.outDir, "out", "", "Directory for diagnostic images (enables drawing)")
	fs.StringVar(&f.legend, "legend", "", "Write the overlay legend PNG to this path")
	fs.BoolVar(&f.priceChart, "price-chart", false, "Also write a price chart per ship (needs -out)")
	fs.BoolVar(&f.boost, "boost", true, "Count boost thrusters at full power")
	fs.BoolVar(&f.drawAll, "all", false, "Draw per-part centers of mass and every thrust vector")
	fs.BoolVar(&f.flip, "flip", false, "Draw thrust vectors pointing the other way")
	fs.BoolVar(&f.upload, "upload", false, "Upload diagnostic images to the configured image host")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: shipyard [flags] blueprint...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	logger := logging.NewLoggerWithWriter(stderr, logging.ParseLevel(os.Getenv(logging.LevelEnvVar)))

	cfg, found, err := config.LoadOrDefault(f.configPath)
	if err != nil {
		return err
	}
	if !found && set["config"] {
		return fmt.Errorf("configuration file %s not found", f.configPath)
	}
	if f.upload {
		cfg.Upload.Enabled = true
	}

	if f.legend != "" {
		if err := writePNG(f.legend, render.Legend()); err != nil {
			return err
		}
	}
	if fs.NArg() == 0 {
		if f.legend != "" {
			return nil
		}
		fs.Usage()
		return fmt.Errorf("no blueprint files given")
	}

	comps, err := service.FromConfig(cfg, logger, nil)
	if err != nil {
		return err
	}

	opts := service.DefaultOptions(cfg)
	opts.Render = f.outDir != "" || f.upload
	opts.Upload = cfg.Upload.Enabled && opts.Render
	if set["boost"] {
		opts.BoostEnabled = f.boost
	}
	if f.drawAll {
		opts.Overlays.DrawAllCoM, opts.Overlays.DrawAllCoT = true, true
	}
	if set["flip"] {
		opts.Overlays.FlipVectors = f.flip
	}

	files := fs.Args()
	bps := make([]*blueprint.Blueprint, len(files))
	for i, path := range files {
		bp, err := blueprint.LoadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		bps[i] = bp
	}

	reports, err := comps.Service.AnalyzeBatch(ctx, bps, opts)
	if err != nil {
		return err
	}

	if f.outDir != "" {
		if err := os.MkdirAll(f.outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	for i, report := range reports {
		base := strings.TrimSuffix(filepath.Base(files[i]), filepath.Ext(files[i]))
		if f.outDir != "" && len(report.Image) > 0 {
			if err := os.WriteFile(filepath.Join(f.outDir, base+".png"), report.Image, 0o644); err != nil {
				return fmt.Errorf("failed to write image: %w", err)
			}
		}
		if f.outDir != "" && f.priceChart {
			if err := writePNG(filepath.Join(f.outDir, base+"_price.png"), render.PriceChart(report.Breakdown)); err != nil {
				return err
			}
		}
	}

	if f.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if len(reports) == 1 {
			return enc.Encode(reports[0])
		}
		return enc.Encode(reports)
	}

	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(stdout)
		}
		printReport(stdout, report)
		if f.ascii {
			norm, _ := blueprint.Normalize(bps[i], comps.Catalog.Known)
			scene, err := render.BuildScene(norm.Parts, comps.Catalog, report.Analysis,
				analysis.Direction(norm.FlightDirection), render.Options{})
			if err != nil {
				return err
			}
			if err := render.NewTerminalRenderer(stdout).Render(ctx, scene); err != nil {
				return err
			}
		}
	}
	return nil
}

func printReport(w io.Writer, r *service.Report) {
	title := r.Name
	if r.Author != "" {
		title += " by " + r.Author
	}
	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "  center of mass  (%.3f, %.3f)\n", r.CenterOfMassX, r.CenterOfMassY)
	fmt.Fprintf(w, "  total mass      %.2f\n", r.TotalMass)
	fmt.Fprintf(w, "  top speed       %.2f (%s)\n", r.TopSpeed, r.FlightDirection)

	speeds := make([]string, 0, len(r.AllDirectionSpeeds))
	for _, d := range analysis.Directions() {
		speeds = append(speeds, fmt.Sprintf("%s %.1f", d, r.AllDirectionSpeeds[d.String()]))
	}
	fmt.Fprintf(w, "  speeds          %s\n", strings.Join(speeds, "  "))
	fmt.Fprintf(w, "  price           %.0f  crew %d\n", r.Price, r.Crew)
	for _, c := range r.Breakdown.SortedCategories() {
		if share := r.Breakdown.Share(c); share > 0 {
			fmt.Fprintf(w, "    %-10s %5.1f%%\n", c, 100*share)
		}
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(w, "  tags            %s\n", strings.Join(r.Tags, ", "))
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	if r.ImageURL != "" {
		fmt.Fprintf(w, "  image           %s\n", r.ImageURL)
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
