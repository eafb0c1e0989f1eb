// Package catalog provides read-only lookups of part footprints, masses and
// thruster layouts. The default table is embedded; a YAML file with the same
// layout can replace it at start-up.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-shipyard/pkg/blueprint"
)

// ErrNotFound is returned by loaders when a catalog file does not exist
var ErrNotFound = errors.New("catalog not found")

//go:embed data/parts.yaml
var defaultTable []byte

// Category groups parts for price breakdowns and drawing order
type Category string

const (
	Armor    Category = "armor"
	Crew     Category = "crew"
	Movement Category = "movement"
	Power    Category = "power"
	Shield   Category = "shield"
	Storage  Category = "storage"
	Utility  Category = "utility"
	Weapons  Category = "weapons"
)

// PartSpec describes the static properties of a part type
type PartSpec struct {
	// Size is the unrotated footprint in tiles (width, height)
	Size [2]int `yaml:"size"`
	Mass float64 `yaml:"mass"`
	// SpriteSize is set when the sprite overhangs the footprint
	SpriteSize *[2]int  `yaml:"sprite_size,omitempty"`
	Category   Category `yaml:"category"`
	EngineRoom bool     `yaml:"engine_room,omitempty"`
	// Overlay parts are drawn after everything else
	Overlay bool `yaml:"overlay,omitempty"`
	// Overhang is the side of the footprint the sprite extends past
	Overhang Overhang `yaml:"overhang,omitempty"`
	// SpriteOffsets overrides the overhang rule with one tile offset per
	// rotation
	SpriteOffsets [][2]int `yaml:"sprite_offsets,omitempty"`
}

// Overhang names the side of a part its sprite sticks out of
type Overhang string

const (
	OverhangNone Overhang = ""
	OverhangUp   Overhang = "up"
	OverhangDown Overhang = "down"
)

// SpriteOffset returns how far, in tiles, the sprite's upper-left corner sits
// from the part location for the given rotation.
func (s PartSpec) SpriteOffset(rotation int) (dx, dy int) {
	if len(s.SpriteOffsets) == 4 && rotation >= 0 && rotation < 4 {
		return s.SpriteOffsets[rotation][0], s.SpriteOffsets[rotation][1]
	}
	if s.SpriteSize == nil {
		return 0, 0
	}
	extra := s.SpriteSize[1] - s.Size[1]
	switch {
	case s.Overhang == OverhangUp && rotation == 0:
		return 0, -extra
	case s.Overhang == OverhangUp && rotation == 3:
		return -extra, 0
	case s.Overhang == OverhangDown && rotation == 1:
		return -extra, 0
	case s.Overhang == OverhangDown && rotation == 2:
		return 0, -extra
	}
	return 0, 0
}

// ThrustPoint is a nozzle in unrotated part-local tile coordinates
type ThrustPoint struct {
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	Orientation int     `yaml:"orientation"`
}

// ThrusterSpec describes the nozzles of a thruster part. Every point fires
// with the full Thrust.
type ThrusterSpec struct {
	Points []ThrustPoint `yaml:"points"`
	Thrust float64       `yaml:"thrust"`
	// Boost thrusters only reach Thrust when boosting, a third otherwise
	Boost bool `yaml:"boost,omitempty"`
}

// Validate rejects thrust points whose orientation is outside 0..3
func (s ThrusterSpec) Validate() error {
	for _, p := range s.Points {
		if p.Orientation < 0 || p.Orientation > 3 {
			return fmt.Errorf("thrust orientation %d out of range", p.Orientation)
		}
	}
	return nil
}

// Reader is the lookup surface the analysis core depends on
type Reader interface {
	Lookup(id blueprint.PartID) (PartSpec, bool)
	ThrusterLookup(id blueprint.PartID) (ThrusterSpec, bool)
}

type tableEntry struct {
	PartSpec `yaml:",inline"`
	Thruster *ThrusterSpec `yaml:"thruster,omitempty"`
}

// Table is an immutable catalog. It is safe for concurrent reads.
type Table struct {
	parts     map[blueprint.PartID]PartSpec
	thrusters map[blueprint.PartID]ThrusterSpec
}

// Default returns the embedded catalog
func Default() *Table {
	t, err := Decode(bytes.NewReader(defaultTable))
	if err != nil {
		panic(fmt.Sprintf("embedded part catalog is invalid: %v", err))
	}
	return t
}

// Decode reads a YAML catalog keyed by part id
func Decode(r io.Reader) (*Table, error) {
	var entries map[blueprint.PartID]tableEntry
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse part catalog: %w", err)
	}

	t := &Table{
		parts:     make(map[blueprint.PartID]PartSpec, len(entries)),
		thrusters: make(map[blueprint.PartID]ThrusterSpec),
	}
	for id, entry := range entries {
		if entry.Size[0] <= 0 || entry.Size[1] <= 0 {
			return nil, fmt.Errorf("part %s: size must be positive, got %v", id, entry.Size)
		}
		if entry.Mass < 0 {
			return nil, fmt.Errorf("part %s: negative mass %v", id, entry.Mass)
		}
		if n := len(entry.SpriteOffsets); n != 0 && n != 4 {
			return nil, fmt.Errorf("part %s: need 4 sprite offsets, got %d", id, n)
		}
		switch entry.Overhang {
		case OverhangNone, OverhangUp, OverhangDown:
		default:
			return nil, fmt.Errorf("part %s: unknown overhang %q", id, entry.Overhang)
		}
		t.parts[id] = entry.PartSpec
		if entry.Thruster != nil {
			if err := entry.Thruster.Validate(); err != nil {
				return nil, fmt.Errorf("part %s: %w", id, err)
			}
			t.thrusters[id] = *entry.Thruster
		}
	}
	return t, nil
}

// LoadFile reads a catalog from disk
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open part catalog: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Lookup implements Reader
func (t *Table) Lookup(id blueprint.PartID) (PartSpec, bool) {
	spec, ok := t.parts[id]
	return spec, ok
}

// ThrusterLookup implements Reader
func (t *Table) ThrusterLookup(id blueprint.PartID) (ThrusterSpec, bool) {
	spec, ok := t.thrusters[id]
	return spec, ok
}

// Known reports whether the catalog has an entry for id
func (t *Table) Known(id blueprint.PartID) bool {
	_, ok := t.parts[id]
	return ok
}

// IDs lists every part id in sorted order
func (t *Table) IDs() []blueprint.PartID {
	ids := make([]blueprint.PartID, 0, len(t.parts))
	for id := range t.parts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of part types
func (t *Table) Len() int {
	return len(t.parts)
}
