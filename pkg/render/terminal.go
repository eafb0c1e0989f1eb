package render

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/opd-ai/go-shipyard/pkg/analysis"
	"github.com/opd-ai/go-shipyard/pkg/physics"
)

var cardinalGlyphs = [4]rune{'^', '>', 'v', '<'}

// TerminalRenderer provides a simple ASCII rendering of a ship: '#' for
// occupied tiles, 'M' for the center of mass and ^ > v < for the cardinal
// centers of thrust.
type TerminalRenderer struct {
	w io.Writer
}

// NewTerminalRenderer creates a terminal renderer writing to w
func NewTerminalRenderer(w io.Writer) *TerminalRenderer {
	return &TerminalRenderer{w: w}
}

type grid struct {
	minX, minY int
	buffer     [][]rune
}

func (g *grid) set(t physics.Tile, r rune) {
	y, x := t.Y-g.minY, t.X-g.minX
	if y < 0 || y >= len(g.buffer) || x < 0 || x >= len(g.buffer[y]) {
		return
	}
	g.buffer[y][x] = r
}

func tileOf(v physics.Vector2D) physics.Tile {
	return physics.Tile{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y))}
}

// Lines returns the framed rows of the drawing
func (r *TerminalRenderer) Lines(s *Scene) []string {
	var tiles []physics.Tile
	for _, pp := range s.Parts {
		tiles = append(tiles, pp.Footprint().Tiles()...)
	}
	var marks []physics.Tile
	var glyphs []rune
	if len(tiles) > 0 {
		// Weakest thrust first so the dominant glyph wins a shared tile.
		cardinals := []int{analysis.Up, analysis.Right, analysis.Down, analysis.Left}
		sort.SliceStable(cardinals, func(i, j int) bool {
			return s.Analysis.Octant.Cardinal(cardinals[i]).Magnitude < s.Analysis.Octant.Cardinal(cardinals[j]).Magnitude
		})
		for _, o := range cardinals {
			ct := s.Analysis.Octant.Cardinal(o)
			if ct.Magnitude == 0 {
				continue
			}
			marks = append(marks, tileOf(ct.Origin))
			glyphs = append(glyphs, cardinalGlyphs[o])
		}
		marks = append(marks, tileOf(s.Analysis.CenterOfMass))
		glyphs = append(glyphs, 'M')
	}
	if len(tiles) == 0 {
		return []string{"++", "++"}
	}

	minX, minY := math.MaxInt, math.MaxInt
	maxX, maxY := math.MinInt, math.MinInt
	for _, t := range append(append([]physics.Tile{}, tiles...), marks...) {
		minX, maxX = min(minX, t.X), max(maxX, t.X)
		minY, maxY = min(minY, t.Y), max(maxY, t.Y)
	}

	width, height := maxX-minX+1, maxY-minY+1
	g := &grid{minX: minX, minY: minY, buffer: make([][]rune, height)}
	for y := range g.buffer {
		g.buffer[y] = []rune(strings.Repeat(" ", width))
	}
	for _, t := range tiles {
		g.set(t, '#')
	}
	for i, t := range marks {
		g.set(t, glyphs[i])
	}

	lines := make([]string, 0, height+2)
	lines = append(lines, "+"+strings.Repeat("-", width)+"+")
	for _, row := range g.buffer {
		lines = append(lines, "|"+string(row)+"|")
	}
	lines = append(lines, "+"+strings.Repeat("-", width)+"+")
	return lines
}

// Render implements Renderer
func (r *TerminalRenderer) Render(_ context.Context, s *Scene) error {
	for _, line := range r.Lines(s) {
		if _, err := fmt.Fprintln(r.w, line); err != nil {
			return err
		}
	}
	return nil
}
