// pkg/render/engo/textures.go
package engo

import (
	"image"
	"image/draw"

	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/render"
)

// TextureCache turns part sprites into engo drawables. Each part type,
// rotation and mirror combination is uploaded once.
type TextureCache struct {
	sprites render.SpriteSource
	convert func(image.Image) common.Drawable
	cache   map[textureKey]common.Drawable
}

type textureKey struct {
	id       blueprint.PartID
	rotation blueprint.Rotation
	flip     bool
}

// NewTextureCache creates a cache backed by sprites
func NewTextureCache(sprites render.SpriteSource) *TextureCache {
	if sprites == nil {
		sprites = render.ProceduralSprites{}
	}
	return &TextureCache{
		sprites: sprites,
		convert: ToDrawable,
		cache:   make(map[textureKey]common.Drawable),
	}
}

// Part returns the oriented drawable of a placed part and its pixel size
func (tc *TextureCache) Part(pp render.PlacedPart) (common.Drawable, image.Point) {
	img := render.Orient(tc.sprites.Sprite(pp.Part.ID, pp.Spec), pp.Part.Rotation, pp.Part.FlipX)
	key := textureKey{id: pp.Part.ID, rotation: pp.Part.Rotation, flip: pp.Part.FlipX}
	if d, ok := tc.cache[key]; ok {
		return d, img.Bounds().Size()
	}
	d := tc.convert(img)
	tc.cache[key] = d
	return d, img.Bounds().Size()
}

// Len returns the number of cached textures
func (tc *TextureCache) Len() int {
	return len(tc.cache)
}

// toNRGBA copies img into a non-premultiplied buffer as engo expects
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// ToDrawable uploads an image as a single texture. It needs a live GL
// context.
func ToDrawable(img image.Image) common.Drawable {
	return common.NewTextureSingle(common.NewImageObject(toNRGBA(img)))
}
