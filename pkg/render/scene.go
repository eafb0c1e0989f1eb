// pkg/render/scene.go
package render

import (
	"errors"
	"fmt"
	"image/color"
	"sort"

	"github.com/opd-ai/go-shipyard/pkg/analysis"
	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/catalog"
	"github.com/opd-ai/go-shipyard/pkg/config"
	"github.com/opd-ai/go-shipyard/pkg/physics"
)

// Drawing grid. Ship space is shifted by GridOffset so the whole grid is
// positive; each tile is TilePixels wide.
const (
	GridTiles   = 120
	GridOffset  = 60
	TilePixels  = 16
	SpriteScale = 4

	thrustArrowDivisor = 2000.0
	octantArrowLength  = 35.0
	partDotRadius      = 1
	arrowDotRadius     = 3
)

// ErrOutOfBounds is returned when a part lies outside the drawing grid
var ErrOutOfBounds = errors.New("error drawing ship: out of bounds")

// Colors used for the overlays
var (
	ColorMass     = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	ColorEngine   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	ColorStrafe   = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	ColorFlight   = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	colorFrame    = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	colorText     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorDarkText = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// Options selects the overlays drawn over the ship
type Options struct {
	DrawCoM      bool
	DrawAllCoM   bool
	DrawCoT      bool
	DrawAllCoT   bool
	FlipVectors  bool
	BoostEnabled bool
}

// OptionsFromConfig maps the render section of the app config
func OptionsFromConfig(cfg config.RenderConfig, boost bool) Options {
	return Options{
		DrawCoM:      cfg.DrawCoM,
		DrawAllCoM:   cfg.DrawAllCoM,
		DrawCoT:      cfg.DrawCoT,
		DrawAllCoT:   cfg.DrawAllCoT,
		FlipVectors:  cfg.FlipVectors,
		BoostEnabled: boost,
	}
}

// PlacedPart is a known part with the tile its sprite starts on
type PlacedPart struct {
	Part blueprint.Part
	Spec catalog.PartSpec
	// Sprite is the upper-left tile of the sprite in ship space
	Sprite physics.Tile
}

// Footprint returns the tiles the part occupies
func (p PlacedPart) Footprint() physics.TileRect {
	return p.Part.Footprint(p.Spec.Size[0], p.Spec.Size[1])
}

// Marker is a filled disk; Radius is in pixels
type Marker struct {
	At     physics.Vector2D
	Radius float64
	Color  color.RGBA
}

// Arrow runs From -> To in ship space with a dot of DotRadius pixels at
// its start. TipLength is the head length as a fraction of the arrow.
type Arrow struct {
	From      physics.Vector2D
	To        physics.Vector2D
	Color     color.RGBA
	TipLength float64
	DotRadius float64
}

// Scene is everything needed to draw one analysed ship
type Scene struct {
	Parts    []PlacedPart
	Markers  []Marker
	Arrows   []Arrow
	Analysis analysis.ShipAnalysis
	Flight   analysis.Direction
}

// BuildScene lays out parts and overlays for a ship analysis. Unknown
// parts are skipped; overlay parts are moved to the end so they draw on top.
func BuildScene(parts []blueprint.Part, cat catalog.Reader, res analysis.ShipAnalysis, flight analysis.Direction, opts Options) (*Scene, error) {
	s := &Scene{Analysis: res, Flight: flight}

	for i, p := range parts {
		x, y := p.Location[0]+GridOffset, p.Location[1]+GridOffset
		if x < 0 || x > GridTiles || y < 0 || y > GridTiles {
			return nil, fmt.Errorf("%w: part %d (%s) at %v", ErrOutOfBounds, i, p.ID, p.Location)
		}
		spec, ok := cat.Lookup(p.ID)
		if !ok {
			continue
		}
		dx, dy := spec.SpriteOffset(int(p.Rotation))
		s.Parts = append(s.Parts, PlacedPart{
			Part:   p,
			Spec:   spec,
			Sprite: physics.Tile{X: p.Location[0] + dx, Y: p.Location[1] + dy},
		})
	}
	sort.SliceStable(s.Parts, func(i, j int) bool {
		return !s.Parts[i].Spec.Overlay && s.Parts[j].Spec.Overlay
	})

	if opts.DrawCoM {
		s.Markers = append(s.Markers, Marker{At: res.CenterOfMass, Radius: TilePixels, Color: ColorMass})
		if opts.DrawAllCoM {
			for _, pp := range s.Parts {
				com, err := analysis.CenterOfMassOfPart(pp.Part, pp.Spec)
				if err != nil {
					return nil, err
				}
				s.Markers = append(s.Markers, Marker{At: com, Radius: partDotRadius, Color: ColorMass})
			}
		}
	}

	if opts.DrawAllCoT {
		for _, pp := range s.Parts {
			th, ok := cat.ThrusterLookup(pp.Part.ID)
			if !ok {
				continue
			}
			points, err := analysis.AbsoluteThrustPoints(pp.Part, pp.Spec, th, opts.BoostEnabled)
			if err != nil {
				return nil, err
			}
			for _, tp := range points {
				end := tp.Position.Add(analysis.Axis(tp.Orientation).Scale(tp.Thrust / thrustArrowDivisor))
				if opts.FlipVectors {
					end = tp.Position.Scale(2).Sub(end)
				}
				s.Arrows = append(s.Arrows, Arrow{
					From: tp.Position, To: end, Color: ColorEngine,
					TipLength: 0.3, DotRadius: arrowDotRadius,
				})
			}
		}
	}

	if opts.DrawCoT {
		s.Arrows = append(s.Arrows, octantArrows(res.Octant, flight, opts)...)
	}
	return s, nil
}

// octantArrows draws the flight direction last so it stays on top
func octantArrows(oct analysis.OctantThrust, flight analysis.Direction, opts Options) []Arrow {
	var total float64
	for _, d := range oct {
		total += d.Magnitude
	}
	if total == 0 {
		return nil
	}

	order := make([]analysis.Direction, 0, len(oct))
	for _, d := range analysis.Directions() {
		if d != flight {
			order = append(order, d)
		}
	}
	order = append(order, flight)

	var arrows []Arrow
	for _, d := range order {
		if d < 0 || int(d) >= len(oct) {
			continue
		}
		isFlight := d == flight
		if !opts.DrawAllCoT && !isFlight {
			continue
		}
		dt := oct[d]
		if dt.Magnitude == 0 {
			continue
		}
		thrust := dt.Vector.Sub(dt.Origin).Div(total)
		if opts.FlipVectors {
			thrust = thrust.Scale(-1)
		}
		c := ColorStrafe
		if isFlight {
			c = ColorFlight
		}
		arrows = append(arrows, Arrow{
			From:      dt.Origin,
			To:        dt.Origin.Add(thrust.Scale(octantArrowLength)),
			Color:     c,
			TipLength: 0.2,
			DotRadius: arrowDotRadius,
		})
	}
	return arrows
}
