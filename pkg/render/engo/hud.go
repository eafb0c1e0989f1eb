// pkg/render/engo/hud.go
package engo

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-shipyard/pkg/analysis"
	"github.com/opd-ai/go-shipyard/pkg/render"
)

const hudMargin = 10

var (
	hudText       = color.RGBA{255, 255, 255, 255}
	hudBackground = color.RGBA{20, 20, 30, 200}
)

// HUDSystem shows the ship status panel and the overlay legend
type HUDSystem struct {
	renderer *common.RenderSystem
	convert  func(image.Image) common.Drawable
	pressed  func(string) bool

	lines      []string
	dirty      bool
	showLegend bool

	panel  *spriteEntity
	legend *spriteEntity
}

// NewHUDSystem creates a HUD drawing through rs
func NewHUDSystem(rs *common.RenderSystem) *HUDSystem {
	return &HUDSystem{
		renderer: rs,
		convert:  ToDrawable,
		pressed: func(button string) bool {
			return engo.Input.Button(button).JustPressed()
		},
	}
}

// Remove satisfies the ecs.System interface
func (hud *HUDSystem) Remove(ecs.BasicEntity) {}

// Update redraws the panel when its text changed and handles the legend key
func (hud *HUDSystem) Update(float32) {
	if hud.pressed(buttonToggleLegend) {
		hud.ToggleLegend()
	}
	if hud.dirty {
		hud.redraw()
		hud.dirty = false
	}
}

// SetLines replaces the status text
func (hud *HUDSystem) SetLines(lines []string) {
	hud.lines = append(hud.lines[:0], lines...)
	hud.dirty = true
}

// Lines returns the status text
func (hud *HUDSystem) Lines() []string {
	return hud.lines
}

// ToggleLegend shows or hides the legend panel
func (hud *HUDSystem) ToggleLegend() {
	hud.showLegend = !hud.showLegend
	if hud.legend == nil && hud.showLegend {
		img := render.Legend()
		hud.legend = hud.add(img, engo.Point{X: hudMargin, Y: engo.GameHeight() - float32(img.Bounds().Dy()) - hudMargin})
	}
	if hud.legend != nil {
		hud.legend.Hidden = !hud.showLegend
	}
}

func (hud *HUDSystem) redraw() {
	if hud.panel != nil {
		hud.renderer.Remove(hud.panel.BasicEntity)
	}
	img := render.TextPanel(hud.lines, hudText, hudBackground)
	hud.panel = hud.add(img, engo.Point{X: hudMargin, Y: hudMargin})
}

func (hud *HUDSystem) add(img image.Image, at engo.Point) *spriteEntity {
	size := img.Bounds().Size()
	e := &spriteEntity{BasicEntity: ecs.NewBasic()}
	e.RenderComponent = common.RenderComponent{Drawable: hud.convert(img), Scale: engo.Point{X: 1, Y: 1}}
	e.RenderComponent.SetShader(common.HUDShader)
	e.RenderComponent.SetZIndex(zHUD)
	e.SpaceComponent = common.SpaceComponent{Position: at, Width: float32(size.X), Height: float32(size.Y)}
	hud.renderer.Add(&e.BasicEntity, &e.RenderComponent, &e.SpaceComponent)
	return e
}

// StatusLines formats the analysis for the status panel
func StatusLines(name string, res analysis.ShipAnalysis, flight analysis.Direction, opts render.Options) []string {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}

	speeds := make([]string, 0, len(res.Speeds))
	for _, d := range analysis.Directions() {
		speeds = append(speeds, fmt.Sprintf("%s %.1f", d, res.Speed(d)))
	}

	lines := []string{
		name,
		fmt.Sprintf("mass %.1f  center (%.2f, %.2f)", res.TotalMass, res.CenterOfMass.X, res.CenterOfMass.Y),
		fmt.Sprintf("top speed %.2f towards %s", res.Speed(flight), flight),
		strings.Join(speeds, "  "),
		fmt.Sprintf("boost %s  flip %s", onOff(opts.BoostEnabled), onOff(opts.FlipVectors)),
	}
	return append(lines, KeyHelp()...)
}
