package render

import (
	"errors"
	"math"
	"testing"

	"github.com/opd-ai/go-shipyard/pkg/analysis"
	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/catalog"
	"github.com/opd-ai/go-shipyard/pkg/physics"
)

func testCatalog() *catalog.Memory {
	unit := catalog.PartSpec{Size: [2]int{1, 1}, Mass: 1, Category: catalog.Armor}
	return catalog.NewMemory().
		AddPart("t.hull", unit).
		AddPart("t.deck", catalog.PartSpec{Size: [2]int{1, 1}, Mass: 1, Category: catalog.Weapons, Overlay: true}).
		AddPart("t.gun", catalog.PartSpec{
			Size: [2]int{1, 1}, Mass: 1, Category: catalog.Weapons,
			SpriteSize: &[2]int{1, 3}, Overhang: catalog.OverhangUp,
		}).
		AddThruster("t.thruster", catalog.PartSpec{Size: [2]int{1, 1}, Mass: 1, Category: catalog.Movement}, catalog.ThrusterSpec{
			Thrust: 2000,
			Points: []catalog.ThrustPoint{{X: 0.5, Y: 1, Orientation: analysis.Up}},
		})
}

func part(id string, x, y int, rotation blueprint.Rotation) blueprint.Part {
	return blueprint.Part{ID: blueprint.PartID(id), Location: [2]int{x, y}, Rotation: rotation}
}

func near(a, b physics.Vector2D) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func analyse(t *testing.T, parts []blueprint.Part, cat catalog.Reader) analysis.ShipAnalysis {
	t.Helper()
	res, err := analysis.Analyze(parts, cat, analysis.Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return res
}

func TestBuildScene_OutOfBounds(t *testing.T) {
	cat := testCatalog()
	tests := []struct {
		name string
		loc  [2]int
		ok   bool
	}{
		{"origin", [2]int{0, 0}, true},
		{"upper edge", [2]int{-60, -60}, true},
		{"lower edge", [2]int{60, 60}, true},
		{"left of grid", [2]int{-61, 0}, false},
		{"below grid", [2]int{0, 61}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := []blueprint.Part{{ID: "t.hull", Location: tt.loc}}
			_, err := BuildScene(parts, cat, analysis.ShipAnalysis{}, analysis.North, Options{})
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrOutOfBounds) {
				t.Fatalf("expected ErrOutOfBounds, got %v", err)
			}
		})
	}
}

func TestBuildScene_PartOrderAndOffsets(t *testing.T) {
	cat := testCatalog()
	parts := []blueprint.Part{
		part("t.deck", 0, 0, 0),
		part("t.unknown", 1, 0, 0),
		part("t.gun", 2, 0, 0),
		part("t.hull", 3, 0, 0),
	}
	s, err := BuildScene(parts, cat, analysis.ShipAnalysis{}, analysis.North, Options{})
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	if len(s.Parts) != 3 {
		t.Fatalf("expected unknown part to be skipped, got %d parts", len(s.Parts))
	}
	if s.Parts[len(s.Parts)-1].Part.ID != "t.deck" {
		t.Errorf("overlay part should be drawn last, got order %v", s.Parts)
	}
	if s.Parts[0].Part.ID != "t.gun" || s.Parts[0].Sprite != (physics.Tile{X: 2, Y: -2}) {
		t.Errorf("gun sprite should start two tiles above its location, got %+v", s.Parts[0].Sprite)
	}
}

func TestBuildScene_Markers(t *testing.T) {
	cat := testCatalog()
	parts := []blueprint.Part{part("t.hull", 0, 0, 0), part("t.hull", 1, 0, 0)}
	res := analyse(t, parts, cat)

	s, err := BuildScene(parts, cat, res, analysis.North, Options{DrawCoM: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Markers) != 1 || !near(s.Markers[0].At, physics.Vector2D{X: 1, Y: 0.5}) {
		t.Fatalf("expected one ship center of mass marker, got %+v", s.Markers)
	}
	if s.Markers[0].Radius != TilePixels {
		t.Errorf("center of mass radius = %v", s.Markers[0].Radius)
	}

	s, err = BuildScene(parts, cat, res, analysis.North, Options{DrawCoM: true, DrawAllCoM: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Markers) != 3 {
		t.Fatalf("expected ship + two part markers, got %d", len(s.Markers))
	}

	s, _ = BuildScene(parts, cat, res, analysis.North, Options{DrawAllCoM: true})
	if len(s.Markers) != 0 {
		t.Errorf("part markers need the center of mass overlay enabled")
	}
}

func TestBuildScene_ThrustArrows(t *testing.T) {
	cat := testCatalog()
	parts := []blueprint.Part{part("t.thruster", 0, 0, 0)}
	res := analyse(t, parts, cat)

	s, err := BuildScene(parts, cat, res, analysis.North, Options{DrawAllCoT: true})
	if err != nil {
		t.Fatal(err)
	}
	// Main nozzle plus two bleed entries.
	if len(s.Arrows) != 3 {
		t.Fatalf("expected 3 arrows, got %d", len(s.Arrows))
	}
	main := s.Arrows[0]
	if !near(main.From, physics.Vector2D{X: 0.5, Y: 1}) || !near(main.To, physics.Vector2D{X: 0.5, Y: 0}) {
		t.Errorf("main arrow = %+v", main)
	}
	if main.Color != ColorEngine {
		t.Errorf("thrust arrows should be red")
	}

	s, _ = BuildScene(parts, cat, res, analysis.North, Options{DrawAllCoT: true, FlipVectors: true})
	if !near(s.Arrows[0].To, physics.Vector2D{X: 0.5, Y: 2}) {
		t.Errorf("flipped arrow should point down, got %+v", s.Arrows[0].To)
	}
}

func TestBuildScene_OctantArrows(t *testing.T) {
	cat := testCatalog()
	parts := []blueprint.Part{part("t.thruster", 0, 0, 0), part("t.hull", 0, 1, 0)}
	res := analyse(t, parts, cat)

	s, err := BuildScene(parts, cat, res, analysis.North, Options{DrawCoT: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Arrows) != 1 {
		t.Fatalf("only the flight direction should be drawn, got %d arrows", len(s.Arrows))
	}
	a := s.Arrows[0]
	if a.Color != ColorFlight {
		t.Errorf("flight arrow color = %v", a.Color)
	}
	if a.To.Y >= a.From.Y {
		t.Errorf("north arrow should point up, got %+v", a)
	}

	s, _ = BuildScene(parts, cat, res, analysis.North, Options{DrawCoT: true, DrawAllCoT: true})
	last := s.Arrows[len(s.Arrows)-1]
	if last.Color != ColorFlight {
		t.Errorf("flight arrow should be drawn last")
	}
	for _, a := range s.Arrows[:len(s.Arrows)-1] {
		if a.Color == ColorFlight {
			t.Errorf("only one flight arrow expected")
		}
	}
}

func TestBuildScene_NoThrustNoOctantArrows(t *testing.T) {
	cat := testCatalog()
	parts := []blueprint.Part{part("t.hull", 0, 0, 0)}
	s, err := BuildScene(parts, cat, analyse(t, parts, cat), analysis.North, Options{DrawCoT: true, DrawAllCoT: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Arrows) != 0 {
		t.Errorf("expected no arrows, got %d", len(s.Arrows))
	}
}
