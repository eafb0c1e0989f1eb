// pkg/catalog/memory.go
package catalog

import (
	"fmt"

	"github.com/opd-ai/go-shipyard/pkg/blueprint"
)

// Memory is a mutable catalog for tests and tools. Build it up front and
// treat it as read-only once it is shared.
type Memory struct {
	Parts     map[blueprint.PartID]PartSpec
	Thrusters map[blueprint.PartID]ThrusterSpec
}

// NewMemory returns an empty in-memory catalog
func NewMemory() *Memory {
	return &Memory{
		Parts:     make(map[blueprint.PartID]PartSpec),
		Thrusters: make(map[blueprint.PartID]ThrusterSpec),
	}
}

// AddPart registers a part and returns the catalog for chaining
func (m *Memory) AddPart(id blueprint.PartID, spec PartSpec) *Memory {
	m.Parts[id] = spec
	return m
}

// AddThruster registers a thruster part. It panics on a thruster entry the
// file loader would reject.
func (m *Memory) AddThruster(id blueprint.PartID, spec PartSpec, thruster ThrusterSpec) *Memory {
	if err := thruster.Validate(); err != nil {
		panic(fmt.Sprintf("catalog: part %s: %v", id, err))
	}
	m.Parts[id] = spec
	m.Thrusters[id] = thruster
	return m
}

// Lookup implements Reader
func (m *Memory) Lookup(id blueprint.PartID) (PartSpec, bool) {
	spec, ok := m.Parts[id]
	return spec, ok
}

// ThrusterLookup implements Reader
func (m *Memory) ThrusterLookup(id blueprint.PartID) (ThrusterSpec, bool) {
	spec, ok := m.Thrusters[id]
	return spec, ok
}

// Known reports whether the catalog has an entry for id
func (m *Memory) Known(id blueprint.PartID) bool {
	_, ok := m.Parts[id]
	return ok
}
