// pkg/render/engo/input.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-shipyard/pkg/render"
)

// Button names
const (
	buttonToggleCoM    = "toggleCoM"
	buttonToggleCoT    = "toggleCoT"
	buttonToggleAll    = "toggleAll"
	buttonFlip         = "flipVectors"
	buttonBoost        = "boost"
	buttonZoomIn       = "zoomIn"
	buttonZoomOut      = "zoomOut"
	buttonResetZoom    = "resetZoom"
	buttonToggleLegend = "toggleLegend"
)

var toggleButtons = []string{buttonToggleCoM, buttonToggleCoT, buttonToggleAll, buttonFlip, buttonBoost}

// applyToggle flips the overlay option bound to button
func applyToggle(opts render.Options, button string) render.Options {
	switch button {
	case buttonToggleCoM:
		opts.DrawCoM = !opts.DrawCoM
	case buttonToggleCoT:
		opts.DrawCoT = !opts.DrawCoT
	case buttonToggleAll:
		all := !(opts.DrawAllCoM && opts.DrawAllCoT)
		opts.DrawAllCoM, opts.DrawAllCoT = all, all
	case buttonFlip:
		opts.FlipVectors = !opts.FlipVectors
	case buttonBoost:
		opts.BoostEnabled = !opts.BoostEnabled
	}
	return opts
}

// InputSystem turns key presses into overlay option changes
type InputSystem struct {
	opts     render.Options
	onChange func(render.Options)
	pressed  func(button string) bool
}

// NewInputSystem creates an input system starting from opts. onChange is
// called with the new options after every toggle.
func NewInputSystem(opts render.Options, onChange func(render.Options)) *InputSystem {
	return &InputSystem{
		opts:     opts,
		onChange: onChange,
		pressed: func(button string) bool {
			return engo.Input.Button(button).JustPressed()
		},
	}
}

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(ecs.BasicEntity) {}

// Update polls the toggle buttons
func (is *InputSystem) Update(float32) {
	changed := false
	for _, b := range toggleButtons {
		if is.pressed(b) {
			is.opts = applyToggle(is.opts, b)
			changed = true
		}
	}
	if changed && is.onChange != nil {
		is.onChange(is.opts)
	}
}

// Options returns the current overlay options
func (is *InputSystem) Options() render.Options {
	return is.opts
}

// SetupInputBindings registers the viewer key bindings
func SetupInputBindings() {
	engo.Input.RegisterButton(buttonToggleCoM, engo.KeyM)
	engo.Input.RegisterButton(buttonToggleCoT, engo.KeyT)
	engo.Input.RegisterButton(buttonToggleAll, engo.KeyA)
	engo.Input.RegisterButton(buttonFlip, engo.KeyF)
	engo.Input.RegisterButton(buttonBoost, engo.KeyB)
	engo.Input.RegisterButton(buttonZoomIn, engo.KeyZ)
	engo.Input.RegisterButton(buttonZoomOut, engo.KeyX)
	engo.Input.RegisterButton(buttonResetZoom, engo.KeyR)
	engo.Input.RegisterButton(buttonToggleLegend, engo.KeyL)
}

// KeyHelp lists the bindings for the HUD
func KeyHelp() []string {
	return []string{
		"M center of mass  T thrust  A all parts",
		"F flip vectors  B boost  L legend",
		"Z/X zoom  R reset zoom",
	}
}
