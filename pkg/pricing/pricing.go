// Package pricing totals the resource cost of a blueprint and splits it into
// part categories.
package pricing

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/catalog"
)

//go:embed data/costs.yaml
var defaultCosts []byte

// Resource is a raw material with its market price
type Resource struct {
	Price float64 `yaml:"price"`
	Stack int     `yaml:"stack"`
}

// Recipe lists what one item costs to build
type Recipe struct {
	Resources map[string]int `yaml:"resources"`
	// Crew housed by the item
	Crew int `yaml:"crew,omitempty"`
	// Surcharge is a flat amount added on top of the resources
	Surcharge float64 `yaml:"surcharge,omitempty"`
}

// Table holds resource prices and item recipes
type Table struct {
	Resources map[string]Resource `yaml:"resources"`
	Recipes   map[string]Recipe   `yaml:"recipes"`
	// Missiles maps a launcher toggle index to the missile recipe it loads
	Missiles []string `yaml:"missiles"`
}

// Default returns the embedded cost table
func Default() *Table {
	t, err := Decode(bytes.NewReader(defaultCosts))
	if err != nil {
		panic(fmt.Sprintf("embedded cost table is invalid: %v", err))
	}
	return t
}

// Decode reads a YAML cost table and checks that every recipe only uses
// priced resources
func Decode(r io.Reader) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to parse cost table: %w", err)
	}
	for id, recipe := range t.Recipes {
		for res := range recipe.Resources {
			if _, ok := t.Resources[res]; !ok {
				return nil, fmt.Errorf("recipe %s uses unpriced resource %s", id, res)
			}
		}
	}
	for _, m := range t.Missiles {
		if _, ok := t.Recipes[m]; !ok {
			return nil, fmt.Errorf("missile %s has no recipe", m)
		}
	}
	return &t, nil
}

// ItemPrice returns the build cost of one item, or false if it has no recipe
func (t *Table) ItemPrice(id string) (float64, bool) {
	recipe, ok := t.Recipes[id]
	if !ok {
		return 0, false
	}
	var price float64
	for res, qty := range recipe.Resources {
		price += t.Resources[res].Price * float64(qty)
	}
	return price + recipe.Surcharge, true
}

// missileRecipe resolves a loadout given as a recipe id or a toggle index
func (t *Table) missileRecipe(loadout string) (string, bool) {
	if _, ok := t.Recipes[loadout]; ok {
		return loadout, true
	}
	i, err := strconv.Atoi(loadout)
	if err != nil || i < 0 || i >= len(t.Missiles) {
		return "", false
	}
	return t.Missiles[i], true
}

// Breakdown is the price of a ship split by category
type Breakdown struct {
	Total      float64                      `json:"total"`
	Categories map[catalog.Category]float64 `json:"categories"`
	Crew       int                          `json:"crew"`
}

// Share returns the fraction of the total spent on a category
func (b Breakdown) Share(c catalog.Category) float64 {
	if b.Total == 0 {
		return 0
	}
	return b.Categories[c] / b.Total
}

// SortedCategories lists the categories with a price, most expensive first
func (b Breakdown) SortedCategories() []catalog.Category {
	out := make([]catalog.Category, 0, len(b.Categories))
	for c := range b.Categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if b.Categories[out[i]] != b.Categories[out[j]] {
			return b.Categories[out[i]] > b.Categories[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// Categories is the fixed set of categories every breakdown reports
var Categories = []catalog.Category{
	catalog.Armor, catalog.Crew, catalog.Movement, catalog.Power,
	catalog.Shield, catalog.Storage, catalog.Utility, catalog.Weapons,
}

// Price totals parts, missile loadouts, doors and stored resources. Parts
// take their category from the catalog; missiles count as weapons, doors as
// utility and stored resources as storage. Items without a recipe are free.
func Price(bp *blueprint.Blueprint, cat catalog.Reader, t *Table) Breakdown {
	b := Breakdown{Categories: make(map[catalog.Category]float64, len(Categories))}
	for _, c := range Categories {
		b.Categories[c] = 0
	}
	add := func(c catalog.Category, amount float64) {
		b.Total += amount
		if c != "" {
			b.Categories[c] += amount
		}
	}

	for _, part := range bp.Parts {
		price, ok := t.ItemPrice(string(part.ID))
		if !ok {
			continue
		}
		var category catalog.Category
		if spec, ok := cat.Lookup(part.ID); ok {
			category = spec.Category
		}
		add(category, price)
		b.Crew += t.Recipes[string(part.ID)].Crew
	}

	for _, loadout := range bp.MissileTypes {
		id, ok := t.missileRecipe(loadout)
		if !ok {
			continue
		}
		price, _ := t.ItemPrice(id)
		add(catalog.Weapons, price)
	}

	for _, door := range bp.Doors {
		if price, ok := t.ItemPrice(string(door.ID)); ok {
			add(catalog.Utility, price)
		}
	}

	for _, res := range bp.Storage {
		if r, ok := t.Resources[res]; ok {
			add(catalog.Storage, r.Price*float64(r.Stack))
		}
	}
	return b
}
