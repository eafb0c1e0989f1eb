// Package service runs the full blueprint pipeline: normalization,
// validation, analysis, pricing and the optional diagnostic image and
// upload. Results are cached by blueprint fingerprint.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opd-ai/go-shipyard/pkg/analysis"
	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/catalog"
	"github.com/opd-ai/go-shipyard/pkg/event"
	"github.com/opd-ai/go-shipyard/pkg/logging"
	"github.com/opd-ai/go-shipyard/pkg/metrics"
	"github.com/opd-ai/go-shipyard/pkg/pricing"
	"github.com/opd-ai/go-shipyard/pkg/render"
	"github.com/opd-ai/go-shipyard/pkg/upload"
	"github.com/opd-ai/go-shipyard/pkg/validation"
)

// ErrRateLimited is returned to clients that exceed their request budget
var ErrRateLimited = errors.New("rate limit exceeded")

// Defaults used when no option overrides them
const (
	DefaultCacheSize        = 256
	DefaultBatchConcurrency = 4
)

const unknownPartPrefix = "unknown part: "

// Options controls one analysis request
type Options struct {
	BoostEnabled bool
	// Render produces the diagnostic PNG
	Render bool
	// Upload sends the PNG to the image host; implies Render
	Upload   bool
	Overlays render.Options
}

// Report is the result of analysing one blueprint
type Report struct {
	ID                 string                       `json:"id"`
	Name               string                       `json:"name,omitempty"`
	CenterOfMassX      float64                      `json:"center_of_mass_x"`
	CenterOfMassY      float64                      `json:"center_of_mass_y"`
	TotalMass          float64                      `json:"total_mass"`
	TopSpeed           float64                      `json:"top_speed"`
	FlightDirection    string                       `json:"flight_direction"`
	AllDirectionSpeeds map[string]float64           `json:"all_direction_speeds"`
	Crew               int                          `json:"crew"`
	Price              float64                      `json:"price"`
	PriceBreakdown     map[catalog.Category]float64 `json:"price_breakdown"`
	Tags               []string                     `json:"tags"`
	Author             string                       `json:"author"`
	Warnings           []string                     `json:"warnings"`
	ImageURL           string                       `json:"image_url,omitempty"`

	// Image holds the PNG when rendering was requested
	Image []byte `json:"-"`
	// Analysis and Breakdown keep the raw results for callers that draw
	// their own output
	Analysis  analysis.ShipAnalysis `json:"-"`
	Breakdown pricing.Breakdown     `json:"-"`
	Cached    bool                  `json:"-"`
}

// clone copies the report so cached entries are never shared
func (r *Report) clone() *Report {
	c := *r
	c.AllDirectionSpeeds = make(map[string]float64, len(r.AllDirectionSpeeds))
	for k, v := range r.AllDirectionSpeeds {
		c.AllDirectionSpeeds[k] = v
	}
	c.PriceBreakdown = make(map[catalog.Category]float64, len(r.PriceBreakdown))
	for k, v := range r.PriceBreakdown {
		c.PriceBreakdown[k] = v
	}
	c.Tags = append([]string(nil), r.Tags...)
	c.Warnings = append([]string(nil), r.Warnings...)
	c.Image = append([]byte(nil), r.Image...)
	return &c
}

// Service analyses blueprints against one catalog and price table
type Service struct {
	catalog   catalog.Reader
	prices    *pricing.Table
	validator *validation.BlueprintValidator
	sprites   render.SpriteSource
	uploader  upload.Uploader
	events    *event.Bus
	metrics   *metrics.Collector
	logger    *logging.Logger
	cache     *reportCache
	batch     int
}

// Option configures a Service
type Option func(*Service)

// WithPrices replaces the embedded price table
func WithPrices(t *pricing.Table) Option {
	return func(s *Service) { s.prices = t }
}

// WithValidator replaces the default limits
func WithValidator(v *validation.BlueprintValidator) Option {
	return func(s *Service) { s.validator = v }
}

// WithSprites sets the sprite source used for diagnostic images
func WithSprites(src render.SpriteSource) Option {
	return func(s *Service) { s.sprites = src }
}

// WithUploader enables image uploads
func WithUploader(u upload.Uploader) Option {
	return func(s *Service) { s.uploader = u }
}

// WithEvents publishes pipeline events on bus
func WithEvents(bus *event.Bus) Option {
	return func(s *Service) { s.events = bus }
}

// WithMetrics records pipeline metrics in m
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithCacheSize bounds the report cache. Zero or less disables caching.
func WithCacheSize(n int) Option {
	return func(s *Service) { s.cache = newReportCache(n) }
}

// WithBatchConcurrency bounds the number of blueprints AnalyzeBatch works
// on at once
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batch = n
		}
	}
}

// New creates a service backed by cat
func New(cat catalog.Reader, opts ...Option) *Service {
	s := &Service{
		catalog:   cat,
		prices:    pricing.Default(),
		validator: validation.NewBlueprintValidator(validation.DefaultLimits()),
		sprites:   render.ProceduralSprites{},
		events:    event.NewEventBus(),
		logger:    logging.NewLogger(),
		cache:     newReportCache(DefaultCacheSize),
		batch:     DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the bus the service publishes on
func (s *Service) Events() *event.Bus {
	return s.events
}

// CacheLen returns the number of cached reports
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

func (s *Service) known(id blueprint.PartID) bool {
	_, ok := s.catalog.Lookup(id)
	return ok
}

// Analyze runs the pipeline for one blueprint. The caller's blueprint is
// never modified.
func (s *Service) Analyze(ctx context.Context, bp *blueprint.Blueprint, opts Options) (*Report, error) {
	if logging.GetCorrelationID(ctx) == "" {
		ctx = logging.WithCorrelationID(ctx, logging.GenerateCorrelationID())
	}
	if bp == nil {
		return nil, fmt.Errorf("%w: no blueprint", blueprint.ErrMalformed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Upload {
		opts.Render = true
	}
	start := time.Now()

	norm, warnings := blueprint.Normalize(bp, s.known)
	if err := validation.SanitizeMetadata(norm); err != nil {
		return nil, s.fail(ctx, norm, start, err)
	}
	if err := s.validator.Validate(norm); err != nil {
		return nil, s.fail(ctx, norm, start, err)
	}

	key := Fingerprint(norm, opts)
	if cached, ok := s.cache.Get(key); ok {
		report := cached.clone()
		report.ID = uuid.NewString()
		report.Cached = true
		s.recordAnalysis("cached", start)
		s.publish(event.AnalysisCompleted, report.ID, norm, true, nil)
		s.logger.Debug(ctx, "analysis served from cache", "ship", norm.Name, "report_id", report.ID)
		return report, nil
	}

	res, err := analysis.Analyze(norm.Parts, s.catalog, analysis.Options{BoostEnabled: opts.BoostEnabled})
	if err != nil {
		return nil, s.fail(ctx, norm, start, err)
	}
	breakdown := pricing.Price(norm, s.catalog, s.prices)
	flight := analysis.Direction(norm.FlightDirection)

	report := &Report{
		ID:                 uuid.NewString(),
		Name:               norm.Name,
		CenterOfMassX:      res.CenterOfMass.X,
		CenterOfMassY:      res.CenterOfMass.Y,
		TotalMass:          res.TotalMass,
		TopSpeed:           res.Speed(flight),
		FlightDirection:    flight.String(),
		AllDirectionSpeeds: res.SpeedByDirection(),
		Crew:               breakdown.Crew,
		Price:              breakdown.Total,
		PriceBreakdown:     breakdown.Categories,
		Tags:               append([]string{}, norm.Tags...),
		Author:             norm.Author,
		Warnings:           append([]string{}, warnings...),
		Analysis:           res,
		Breakdown:          breakdown,
	}

	if unknown := countUnknown(warnings); unknown > 0 {
		if s.metrics != nil {
			s.metrics.RecordUnknownParts(unknown)
		}
		s.events.Publish(event.NewUnknownPartsEvent(s, norm.Name, warnings))
		s.logger.Warn(ctx, "blueprint has unknown parts", "ship", norm.Name, "unknown", unknown)
	}

	if opts.Render {
		img, err := s.draw(ctx, norm, res, flight, opts)
		switch {
		case errors.Is(err, render.ErrEmptyImage):
			report.Warnings = append(report.Warnings, "nothing to draw")
		case err != nil:
			return nil, s.fail(ctx, norm, start, err)
		default:
			report.Image = img
		}
	}
	uploadFailed := false
	if opts.Upload && len(report.Image) > 0 {
		report.ImageURL, report.Warnings = s.upload(ctx, report.Image, report.Warnings)
		uploadFailed = report.ImageURL == ""
	}

	// A failed upload is retried on the next identical request.
	if !uploadFailed {
		s.cache.Put(key, report.clone())
		if s.metrics != nil {
			s.metrics.SetCacheEntries(s.cache.Len())
		}
	}
	s.recordAnalysis("ok", start)
	s.publish(event.AnalysisCompleted, report.ID, norm, false, nil)
	s.logger.Info(ctx, "analysis completed",
		"ship", norm.Name,
		"report_id", report.ID,
		"parts", len(norm.Parts),
		"top_speed", report.TopSpeed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

func (s *Service) draw(ctx context.Context, bp *blueprint.Blueprint, res analysis.ShipAnalysis, flight analysis.Direction, opts Options) ([]byte, error) {
	overlays := opts.Overlays
	overlays.BoostEnabled = opts.BoostEnabled
	scene, err := render.BuildScene(bp.Parts, s.catalog, res, flight, overlays)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := render.NewImageRenderer(&buf, s.sprites, s.logger).Render(ctx, scene); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// upload failures only add a warning; the analysis itself succeeded
func (s *Service) upload(ctx context.Context, png []byte, warnings []string) (string, []string) {
	if s.uploader == nil {
		return "", append(warnings, "image upload is not configured")
	}
	url, err := s.uploader.Upload(ctx, png)
	if s.metrics != nil {
		s.metrics.RecordUpload(err == nil)
	}
	s.events.Publish(event.NewUploadEvent(s, url, err))
	if err != nil {
		s.logger.Error(ctx, "image upload failed", err)
		return "", append(warnings, "image upload failed: "+err.Error())
	}
	return url, warnings
}

func (s *Service) fail(ctx context.Context, bp *blueprint.Blueprint, start time.Time, err error) error {
	s.recordAnalysis("error", start)
	s.publish(event.AnalysisFailed, "", bp, false, err)
	s.logger.Error(ctx, "analysis failed", err, "ship", bp.Name, "parts", len(bp.Parts))
	return err
}

func (s *Service) recordAnalysis(result string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordAnalysis(result, time.Since(start))
	}
}

func (s *Service) publish(t event.Type, reportID string, bp *blueprint.Blueprint, cached bool, err error) {
	e := event.NewAnalysisEvent(t, s, reportID, bp.Name, len(bp.Parts))
	e.Cached = cached
	e.Err = err
	s.events.Publish(e)
}

func countUnknown(warnings []string) int {
	n := 0
	for _, w := range warnings {
		if strings.HasPrefix(w, unknownPartPrefix) {
			n++
		}
	}
	return n
}
