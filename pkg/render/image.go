// pkg/render/image.go
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"

	"github.com/opd-ai/go-shipyard/pkg/logging"
)

const (
	darkenFactor = 0.8
	cropMargin   = 10
	arrowWidth   = 2
)

// ErrEmptyImage is returned when a scene produces no visible pixels
var ErrEmptyImage = errors.New("nothing to draw")

// ImageRenderer composites sprites and overlays into a PNG written to w
type ImageRenderer struct {
	w       io.Writer
	sprites SpriteSource
	logger  *logging.Logger
}

// NewImageRenderer creates an image renderer. A nil sprite source draws
// procedural tiles.
func NewImageRenderer(w io.Writer, sprites SpriteSource, logger *logging.Logger) *ImageRenderer {
	if sprites == nil {
		sprites = ProceduralSprites{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &ImageRenderer{w: w, sprites: sprites, logger: logger}
}

// Render implements Renderer
func (r *ImageRenderer) Render(ctx context.Context, s *Scene) error {
	img, err := r.Draw(s)
	if err != nil {
		return err
	}
	if err := png.Encode(r.w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	r.logger.Debug(ctx, "ship image rendered",
		"parts", len(s.Parts),
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
	)
	return nil
}

// Draw rasterises the scene and returns the cropped square image
func (r *ImageRenderer) Draw(s *Scene) (*image.RGBA, error) {
	const side = GridTiles * TilePixels
	canvas := image.NewRGBA(image.Rect(0, 0, side, side))
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, xdraw.Src)

	for _, pp := range s.Parts {
		sprite := Orient(r.sprites.Sprite(pp.Part.ID, pp.Spec), pp.Part.Rotation, pp.Part.FlipX)
		at := image.Pt((pp.Sprite.X+GridOffset)*TilePixels, (pp.Sprite.Y+GridOffset)*TilePixels)
		dst := sprite.Bounds().Add(at)
		if !dst.In(canvas.Bounds()) {
			r.logger.Warn(context.Background(), "sprite exceeds canvas",
				"part_id", string(pp.Part.ID),
				"x", at.X,
				"y", at.Y,
			)
			continue
		}
		xdraw.Draw(canvas, dst, sprite, image.Point{}, xdraw.Over)
	}

	darken(canvas, darkenFactor)

	DrawOverlay(canvas, s)

	crop, ok := cropSquare(canvas, cropMargin)
	if !ok {
		return nil, ErrEmptyImage
	}
	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	xdraw.Draw(out, out.Bounds(), canvas, crop.Min, xdraw.Src)
	return out, nil
}

// DrawOverlay draws the scene's markers and arrows onto a grid-sized canvas
func DrawOverlay(dst *image.RGBA, s *Scene) {
	for _, m := range s.Markers {
		fillDisk(dst, toPixel(m.At), m.Radius, m.Color)
	}
	for _, a := range s.Arrows {
		from := toPixel(a.From)
		strokeArrow(dst, from, toPixel(a.To), arrowWidth, a.TipLength, a.Color)
		if a.DotRadius > 0 {
			fillDisk(dst, from, a.DotRadius, a.Color)
		}
	}
}
