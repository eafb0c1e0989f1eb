// pkg/blueprint/normalize.go
package blueprint

import (
	"sort"
	"strings"
)

// ClassicWarning is reported when deprecated part ids had to be rewritten
const ClassicWarning = "classic ships are not supported, com and cot may be wrong"

// renamedParts maps retired part ids onto their replacements
var renamedParts = map[PartID]PartID{
	"cosmoteer.ammo_factory":         "cosmoteer.factory_ammo",
	"cosmoteer.missile_factory_nuke": "cosmoteer.factory_nuke",
	"cosmoteer.missile_factory_he":   "cosmoteer.factory_he",
	"cosmoteer.electro_bolter":       "cosmoteer.disruptor",
}

// handedWedges were split into left and right ids before mirroring existed
var handedWedges = map[PartID]bool{
	"cosmoteer.structure_1x2_wedge": true,
	"cosmoteer.structure_1x3_wedge": true,
	"cosmoteer.armor_1x2_wedge":     true,
	"cosmoteer.armor_1x3_wedge":     true,
}

// KnownFunc reports whether a part id exists in the catalog
type KnownFunc func(PartID) bool

// Normalize returns a copy of the blueprint whose part ids are all known.
// Retired ids are rewritten, handed wedges become mirrored base wedges and
// anything else the catalog does not know becomes UnknownPart. The warnings
// list one line per distinct unknown id, sorted, followed by ClassicWarning
// when any rewrite happened.
func Normalize(b *Blueprint, known KnownFunc) (*Blueprint, []string) {
	out := b.Clone()
	unknown := map[PartID]bool{}
	classic := false

	for i := range out.Parts {
		part := &out.Parts[i]
		if known(part.ID) {
			continue
		}
		if renamed, ok := renamedParts[part.ID]; ok {
			part.ID = renamed
			classic = true
			continue
		}
		if base, flip, ok := splitHandedWedge(part.ID); ok {
			part.ID = base
			part.FlipX = flip
			classic = true
			continue
		}
		unknown[part.ID] = true
		part.ID = UnknownPart
	}

	var warnings []string
	for id := range unknown {
		warnings = append(warnings, "unknown part: "+string(id))
	}
	sort.Strings(warnings)
	if classic {
		warnings = append(warnings, ClassicWarning)
	}
	return out, warnings
}

func splitHandedWedge(id PartID) (PartID, bool, bool) {
	s := string(id)
	switch {
	case strings.HasSuffix(s, "_L"):
		base := PartID(strings.TrimSuffix(s, "_L"))
		return base, false, handedWedges[base]
	case strings.HasSuffix(s, "_R"):
		base := PartID(strings.TrimSuffix(s, "_R"))
		return base, true, handedWedges[base]
	}
	return "", false, false
}
