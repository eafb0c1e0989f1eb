// pkg/render/engo/camera.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-shipyard/pkg/physics"
)

// CameraSystem keeps the view centered on the ship and handles zoom
type CameraSystem struct {
	target    physics.Vector2D
	targetSet bool

	zoom    float32
	minZoom float32
	maxZoom float32

	followSpeed float32
	smoothing   bool

	currentPos physics.Vector2D
	dirty      bool
}

// NewCameraSystem creates a new camera system
func NewCameraSystem() *CameraSystem {
	return &CameraSystem{
		zoom:        1.0,
		minZoom:     0.25,
		maxZoom:     4.0,
		followSpeed: 4.0,
		smoothing:   true,
		dirty:       true,
	}
}

// Remove satisfies the ecs.System interface
func (cs *CameraSystem) Remove(ecs.BasicEntity) {}

// Update moves and zooms the camera
func (cs *CameraSystem) Update(dt float32) {
	cs.handleZoomInput()
	if cs.targetSet {
		cs.updateCameraPosition(dt)
	}
	if cs.dirty {
		cs.applyCameraTransform()
		cs.dirty = false
	}
}

func (cs *CameraSystem) handleZoomInput() {
	if scrollY := engo.Input.Mouse.ScrollY; scrollY != 0 {
		cs.SetZoom(cs.zoom * (1.0 + scrollY*0.1))
	}
	if engo.Input.Button(buttonZoomIn).Down() {
		cs.SetZoom(cs.zoom * 1.02)
	}
	if engo.Input.Button(buttonZoomOut).Down() {
		cs.SetZoom(cs.zoom * 0.98)
	}
	if engo.Input.Button(buttonResetZoom).JustPressed() {
		cs.SetZoom(1.0)
	}
}

func (cs *CameraSystem) updateCameraPosition(dt float32) {
	if cs.currentPos == cs.target {
		return
	}
	if !cs.smoothing {
		cs.currentPos = cs.target
		cs.dirty = true
		return
	}
	step := float64(cs.followSpeed * dt)
	if step > 1 {
		step = 1
	}
	cs.currentPos = physics.Lerp(cs.currentPos, cs.target, step)
	if cs.currentPos.Sub(cs.target).Length() < 0.01 {
		cs.currentPos = cs.target
	}
	cs.dirty = true
}

func (cs *CameraSystem) applyCameraTransform() {
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.XAxis, Value: float32(cs.currentPos.X)})
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.YAxis, Value: float32(cs.currentPos.Y)})
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.ZAxis, Value: 1 / cs.zoom})
}

// SetTarget centers the camera on a pixel position
func (cs *CameraSystem) SetTarget(target physics.Vector2D) {
	first := !cs.targetSet
	cs.target = target
	cs.targetSet = true
	if first || !cs.smoothing {
		cs.currentPos = target
	}
	cs.dirty = true
}

// SetZoom sets the zoom factor, clamped to the limits
func (cs *CameraSystem) SetZoom(zoom float32) {
	z := cs.clampZoom(zoom)
	if z != cs.zoom {
		cs.zoom = z
		cs.dirty = true
	}
}

// Zoom returns the current zoom factor
func (cs *CameraSystem) Zoom() float32 {
	return cs.zoom
}

func (cs *CameraSystem) clampZoom(zoom float32) float32 {
	if zoom < cs.minZoom {
		return cs.minZoom
	}
	if zoom > cs.maxZoom {
		return cs.maxZoom
	}
	return zoom
}

// EnableSmoothing toggles eased camera moves
func (cs *CameraSystem) EnableSmoothing(enabled bool) {
	cs.smoothing = enabled
}

// CurrentPosition returns the point the camera looks at
func (cs *CameraSystem) CurrentPosition() physics.Vector2D {
	return cs.currentPos
}

// WorldToScreen converts a canvas pixel position to window coordinates for
// a window of the given size.
func (cs *CameraSystem) WorldToScreen(p physics.Vector2D, width, height float64) physics.Vector2D {
	return physics.Vector2D{
		X: (p.X-cs.currentPos.X)*float64(cs.zoom) + width/2,
		Y: (p.Y-cs.currentPos.Y)*float64(cs.zoom) + height/2,
	}
}

// ScreenToWorld is the inverse of WorldToScreen
func (cs *CameraSystem) ScreenToWorld(p physics.Vector2D, width, height float64) physics.Vector2D {
	return physics.Vector2D{
		X: (p.X-width/2)/float64(cs.zoom) + cs.currentPos.X,
		Y: (p.Y-height/2)/float64(cs.zoom) + cs.currentPos.Y,
	}
}
