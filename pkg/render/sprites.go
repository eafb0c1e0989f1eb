// pkg/render/sprites.go
package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/catalog"
	"github.com/opd-ai/go-shipyard/pkg/logging"
)

// SpriteSource returns the unrotated sprite of a part, TilePixels per tile
type SpriteSource interface {
	Sprite(id blueprint.PartID, spec catalog.PartSpec) image.Image
}

var categoryColors = map[catalog.Category]color.RGBA{
	catalog.Armor:    {R: 150, G: 150, B: 160, A: 255},
	catalog.Crew:     {R: 90, G: 140, B: 200, A: 255},
	catalog.Movement: {R: 220, G: 130, B: 50, A: 255},
	catalog.Power:    {R: 230, G: 210, B: 60, A: 255},
	catalog.Shield:   {R: 70, G: 200, B: 220, A: 255},
	catalog.Storage:  {R: 140, G: 110, B: 80, A: 255},
	catalog.Utility:  {R: 120, G: 180, B: 110, A: 255},
	catalog.Weapons:  {R: 200, G: 70, B: 70, A: 255},
}

// ProceduralSprites draws flat tiles colored by part category. Overhanging
// sprites get a narrower barrel on the overhang side.
type ProceduralSprites struct{}

// Sprite implements SpriteSource
func (ProceduralSprites) Sprite(_ blueprint.PartID, spec catalog.PartSpec) image.Image {
	size := spec.Size
	if spec.SpriteSize != nil {
		size = *spec.SpriteSize
	}
	img := image.NewRGBA(image.Rect(0, 0, size[0]*TilePixels, size[1]*TilePixels))

	body := categoryColors[spec.Category]
	if body.A == 0 {
		body = color.RGBA{R: 110, G: 110, B: 110, A: 255}
	}
	edge := color.RGBA{R: body.R / 2, G: body.G / 2, B: body.B / 2, A: 255}

	extra := (size[1] - spec.Size[1]) * TilePixels
	bodyRect := image.Rect(0, 0, spec.Size[0]*TilePixels, spec.Size[1]*TilePixels)
	barrel := image.Rectangle{}
	if extra > 0 {
		w := img.Bounds().Dx()
		inset := w / 3
		switch spec.Overhang {
		case catalog.OverhangDown:
			barrel = image.Rect(inset, bodyRect.Max.Y, w-inset, bodyRect.Max.Y+extra)
		default:
			bodyRect = bodyRect.Add(image.Pt(0, extra))
			barrel = image.Rect(inset, 0, w-inset, extra)
		}
	}

	xdraw.Draw(img, bodyRect, image.NewUniform(edge), image.Point{}, xdraw.Src)
	xdraw.Draw(img, bodyRect.Inset(1), image.NewUniform(body), image.Point{}, xdraw.Src)
	if !barrel.Empty() {
		xdraw.Draw(img, barrel, image.NewUniform(edge), image.Point{}, xdraw.Src)
	}
	return img
}

// DirSprites loads "<short id>.png" files from a directory and scales them
// down by SpriteScale. Missing or unreadable files fall back to procedural
// sprites. Loaded sprites are cached.
type DirSprites struct {
	dir      string
	logger   *logging.Logger
	fallback ProceduralSprites

	mu    sync.Mutex
	cache map[blueprint.PartID]image.Image
}

// NewDirSprites creates a sprite source rooted at dir
func NewDirSprites(dir string, logger *logging.Logger) *DirSprites {
	if logger == nil {
		logger = logging.Discard()
	}
	return &DirSprites{dir: dir, logger: logger, cache: make(map[blueprint.PartID]image.Image)}
}

// Sprite implements SpriteSource
func (d *DirSprites) Sprite(id blueprint.PartID, spec catalog.PartSpec) image.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	if img, ok := d.cache[id]; ok {
		return img
	}

	img, err := d.load(id)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			d.logger.Warn(context.Background(), "sprite unreadable, using generated tile",
				"part_id", string(id),
				"error", err,
			)
		}
		img = d.fallback.Sprite(id, spec)
	}
	d.cache[id] = img
	return img
}

func (d *DirSprites) load(id blueprint.PartID) (image.Image, error) {
	f, err := os.Open(filepath.Join(d.dir, id.Short()+".png"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	w, h := (b.Dx()+SpriteScale/2)/SpriteScale, (b.Dy()+SpriteScale/2)/SpriteScale
	if w == 0 || h == 0 {
		return nil, errors.New("sprite too small")
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst, nil
}

// Orient mirrors the sprite when flip is set, then turns it clockwise by
// rotation quarter turns.
func Orient(src image.Image, rotation blueprint.Rotation, flip bool) *image.RGBA {
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	// Source to destination affine: x' = m[0]x + m[1]y + m[2], y' = m[3]x + m[4]y + m[5]
	m := f64.Aff3{1, 0, 0, 0, 1, 0}
	if flip {
		m = f64.Aff3{-1, 0, w, 0, 1, 0}
	}
	var turn f64.Aff3
	dw, dh := b.Dx(), b.Dy()
	switch rotation {
	case 1:
		turn = f64.Aff3{0, -1, h, 1, 0, 0}
		dw, dh = dh, dw
	case 2:
		turn = f64.Aff3{-1, 0, w, 0, -1, h}
	case 3:
		turn = f64.Aff3{0, 1, 0, -1, 0, w}
		dw, dh = dh, dw
	default:
		turn = f64.Aff3{1, 0, 0, 0, 1, 0}
	}
	s2d := compose(turn, m)
	// Account for a source rectangle that does not start at the origin.
	s2d[2] -= s2d[0]*float64(b.Min.X) + s2d[1]*float64(b.Min.Y)
	s2d[5] -= s2d[3]*float64(b.Min.X) + s2d[4]*float64(b.Min.Y)

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.NearestNeighbor.Transform(dst, s2d, src, b, xdraw.Src, nil)
	return dst
}

// compose returns a after b
func compose(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
