// pkg/blueprint/blueprint.go
package blueprint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformed is returned when a blueprint document cannot be decoded
var ErrMalformed = errors.New("malformed blueprint")

// Door is a door placed between two tiles
type Door struct {
	ID          PartID `json:"id" yaml:"id"`
	Location    [2]int `json:"location" yaml:"location"`
	Orientation int    `json:"orientation" yaml:"orientation"`
}

// Blueprint is a decoded ship design
type Blueprint struct {
	Name            string   `json:"name,omitempty" yaml:"name,omitempty" jsonschema:"description=Ship name"`
	Author          string   `json:"author,omitempty" yaml:"author,omitempty" jsonschema:"description=Ship author"`
	Tags            []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	FlightDirection int      `json:"flight_direction" yaml:"flight_direction" jsonschema:"minimum=0,maximum=7,description=Octant the ship flies towards (0=NW clockwise to 7=W)"`
	Parts           []Part   `json:"parts" yaml:"parts" jsonschema:"required"`
	Doors           []Door   `json:"doors,omitempty" yaml:"doors,omitempty"`
	MissileTypes    []string `json:"missile_types,omitempty" yaml:"missile_types,omitempty" jsonschema:"description=Missile loadouts, one entry per launcher"`
	Storage         []string `json:"storage,omitempty" yaml:"storage,omitempty" jsonschema:"description=Resource id stored in each flex storage cell"`
}

// Clone returns a deep copy so normalization never touches caller data
func (b *Blueprint) Clone() *Blueprint {
	if b == nil {
		return nil
	}
	c := *b
	c.Tags = append([]string(nil), b.Tags...)
	c.Parts = append([]Part(nil), b.Parts...)
	c.Doors = append([]Door(nil), b.Doors...)
	c.MissileTypes = append([]string(nil), b.MissileTypes...)
	c.Storage = append([]string(nil), b.Storage...)
	return &c
}

// DecodeJSON reads a JSON blueprint
func DecodeJSON(r io.Reader) (*Blueprint, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var b Blueprint
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return &b, nil
}

// DecodeYAML reads a YAML blueprint
func DecodeYAML(r io.Reader) (*Blueprint, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var b Blueprint
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return &b, nil
}

// Decode sniffs the document: anything starting with '{' is JSON, the rest YAML
func Decode(data []byte) (*Blueprint, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	if trimmed[0] == '{' {
		return DecodeJSON(bytes.NewReader(trimmed))
	}
	return DecodeYAML(bytes.NewReader(trimmed))
}

// LoadFile reads a blueprint from disk, choosing the decoder by extension
func LoadFile(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint file: %w", err)
	}

	var b *Blueprint
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		b, err = DecodeJSON(bytes.NewReader(data))
	case ".yaml", ".yml":
		b, err = DecodeYAML(bytes.NewReader(data))
	default:
		b, err = Decode(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if b.Name == "" {
		b.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return b, nil
}
