// Package engo is an interactive desktop viewer for a blueprint and its
// center of mass and thrust overlays.
package engo

import (
	"context"
	"image"
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-shipyard/pkg/analysis"
	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/catalog"
	"github.com/opd-ai/go-shipyard/pkg/logging"
	"github.com/opd-ai/go-shipyard/pkg/physics"
	"github.com/opd-ai/go-shipyard/pkg/render"
)

// Draw order
const (
	zParts   = 0
	zOverlay = 1
	zVectors = 2
	zHUD     = 10
)

// Sprites are tinted like the darkened PNG output
var partTint = color.RGBA{204, 204, 204, 255}

type spriteEntity struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

// ShipScene shows one ship. Overlays are rebuilt whenever the input system
// changes the options.
type ShipScene struct {
	name   string
	parts  []blueprint.Part
	cat    catalog.Reader
	flight analysis.Direction
	opts   render.Options
	logger *logging.Logger

	textures     *TextureCache
	convert      func(image.Image) common.Drawable
	renderSystem *common.RenderSystem
	camera       *CameraSystem
	hud          *HUDSystem

	partEntities []*spriteEntity
	overlay      *spriteEntity
	current      *render.Scene
}

// NewShipScene creates a viewer scene for bp
func NewShipScene(bp *blueprint.Blueprint, cat catalog.Reader, sprites render.SpriteSource, opts render.Options, logger *logging.Logger) *ShipScene {
	if logger == nil {
		logger = logging.NewLogger()
	}
	name := bp.Name
	if name == "" {
		name = "unnamed ship"
	}
	return &ShipScene{
		name:     name,
		parts:    bp.Parts,
		cat:      cat,
		flight:   analysis.Direction(bp.FlightDirection),
		opts:     opts,
		logger:   logger,
		textures: NewTextureCache(sprites),
		convert:  ToDrawable,
	}
}

// Type returns the scene type (required by Engo)
func (s *ShipScene) Type() string {
	return "ShipScene"
}

// Preload is called before the scene starts (required by Engo)
func (s *ShipScene) Preload() {}

// Setup is called when the scene starts (required by Engo)
func (s *ShipScene) Setup(u engo.Updater) {
	world, ok := u.(*ecs.World)
	if !ok {
		panic("ship viewer needs an *ecs.World updater")
	}
	common.SetBackground(color.Black)
	SetupInputBindings()

	s.renderSystem = &common.RenderSystem{}
	world.AddSystem(s.renderSystem)

	s.camera = NewCameraSystem()
	world.AddSystem(s.camera)

	s.hud = NewHUDSystem(s.renderSystem)
	world.AddSystem(s.hud)

	world.AddSystem(NewInputSystem(s.opts, s.apply))

	s.apply(s.opts)
}

// Exit is called when the scene is exiting (required by Engo)
func (s *ShipScene) Exit() {}

// Build analyses the ship and lays out a scene for opts
func (s *ShipScene) Build(opts render.Options) (*render.Scene, error) {
	res, err := analysis.Analyze(s.parts, s.cat, analysis.Options{BoostEnabled: opts.BoostEnabled})
	if err != nil {
		return nil, err
	}
	return render.BuildScene(s.parts, s.cat, res, s.flight, opts)
}

func (s *ShipScene) apply(opts render.Options) {
	ctx := context.Background()
	sc, err := s.Build(opts)
	if err != nil {
		s.logger.Error(ctx, "ship layout failed", err, "ship", s.name)
		s.hud.SetLines([]string{s.name, err.Error()})
		return
	}
	s.opts = opts
	s.current = sc

	if s.partEntities == nil {
		s.addParts(sc)
	}
	s.replaceOverlay(sc)
	s.camera.SetTarget(canvasPoint(sc.Analysis.CenterOfMass))
	s.hud.SetLines(StatusLines(s.name, sc.Analysis, s.flight, opts))

	s.logger.Debug(ctx, "viewer scene rebuilt",
		"ship", s.name,
		"parts", len(sc.Parts),
		"arrows", len(sc.Arrows),
	)
}

func (s *ShipScene) addParts(sc *render.Scene) {
	for _, pp := range sc.Parts {
		drawable, size := s.textures.Part(pp)
		e := &spriteEntity{BasicEntity: ecs.NewBasic()}
		e.RenderComponent = common.RenderComponent{Drawable: drawable, Color: partTint, Scale: engo.Point{X: 1, Y: 1}}
		z := float32(zParts)
		if pp.Spec.Overlay {
			z = zOverlay
		}
		e.RenderComponent.SetZIndex(z)
		e.SpaceComponent = common.SpaceComponent{
			Position: engo.Point{
				X: float32((pp.Sprite.X + render.GridOffset) * render.TilePixels),
				Y: float32((pp.Sprite.Y + render.GridOffset) * render.TilePixels),
			},
			Width:  float32(size.X),
			Height: float32(size.Y),
		}
		s.renderSystem.Add(&e.BasicEntity, &e.RenderComponent, &e.SpaceComponent)
		s.partEntities = append(s.partEntities, e)
	}
}

func (s *ShipScene) replaceOverlay(sc *render.Scene) {
	if s.overlay != nil {
		s.renderSystem.Remove(s.overlay.BasicEntity)
		s.overlay = nil
	}
	img := OverlayImage(sc)
	if img == nil {
		return
	}
	e := &spriteEntity{BasicEntity: ecs.NewBasic()}
	e.RenderComponent = common.RenderComponent{Drawable: s.convert(img), Scale: engo.Point{X: 1, Y: 1}}
	e.RenderComponent.SetZIndex(zVectors)
	side := float32(img.Bounds().Dx())
	e.SpaceComponent = common.SpaceComponent{Width: side, Height: side}
	s.renderSystem.Add(&e.BasicEntity, &e.RenderComponent, &e.SpaceComponent)
	s.overlay = e
}

// OverlayImage draws the markers and arrows of sc on a transparent
// grid-sized image, or returns nil when there is nothing to draw.
func OverlayImage(sc *render.Scene) *image.RGBA {
	if len(sc.Markers) == 0 && len(sc.Arrows) == 0 {
		return nil
	}
	const side = render.GridTiles * render.TilePixels
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	render.DrawOverlay(img, sc)
	return img
}

// canvasPoint maps ship space to viewer pixels
func canvasPoint(v physics.Vector2D) physics.Vector2D {
	return physics.Vector2D{
		X: (v.X + render.GridOffset) * render.TilePixels,
		Y: (v.Y + render.GridOffset) * render.TilePixels,
	}
}
