// Package render draws analysed ships: a composited PNG with center of mass
// and thrust overlays, an ASCII grid for terminals, and a null target that
// only logs.
package render

import (
	"context"

	"github.com/opd-ai/go-shipyard/pkg/logging"
)

// Renderer draws a scene onto its target
type Renderer interface {
	Render(ctx context.Context, s *Scene) error
}

// NullRenderer discards scenes after logging a summary
type NullRenderer struct {
	logger *logging.Logger
}

// NewNullRenderer creates a NullRenderer that logs at debug level
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &NullRenderer{logger: logger}
}

// Render implements Renderer.
func (d *NullRenderer) Render(ctx context.Context, s *Scene) error {
	if s == nil {
		d.logger.Debug(ctx, "Render called with nil scene")
		return nil
	}
	d.logger.Debug(ctx, "Render called",
		"parts", len(s.Parts),
		"markers", len(s.Markers),
		"arrows", len(s.Arrows),
		"flight", s.Flight.String(),
	)
	return nil
}
