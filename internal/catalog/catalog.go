package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCatalog = errors.New("invalid_catalog")

// Template is a candidate task description. MaxHolders caps how many players
// may hold it at once within a round; zero means uncapped.
type Template struct {
	Name       string `yaml:"name"`
	MaxHolders int    `yaml:"max_holders,omitempty"`
}

func (t Template) Capped() bool {
	return t.MaxHolders > 0
}

// Category groups templates. A shared category hands the same per-round draw
// to every player; other categories are drawn per player.
type Category struct {
	Name      string     `yaml:"name"`
	Shared    bool       `yaml:"shared,omitempty"`
	Count     int        `yaml:"count"`
	Templates []Template `yaml:"tasks"`
}

type Catalog struct {
	Categories []Category `yaml:"categories"`
}

func (c *Catalog) Category(name string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return Category{}, false
}

// DefaultCounts returns the per-category task counts a new lobby starts with.
func (c *Catalog) DefaultCounts() map[string]int {
	out := make(map[string]int, len(c.Categories))
	for _, cat := range c.Categories {
		out[cat.Name] = cat.Count
	}
	return out
}

func (c *Catalog) Validate() error {
	if c == nil || len(c.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalidCatalog)
	}
	seen := map[string]bool{}
	shared := 0
	for i, cat := range c.Categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return fmt.Errorf("%w: category %d has no name", ErrInvalidCatalog, i)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidCatalog, name)
		}
		seen[name] = true
		if cat.Shared {
			shared++
		}
		if cat.Count < 0 {
			return fmt.Errorf("%w: category %q has negative count", ErrInvalidCatalog, name)
		}
		for j, tpl := range cat.Templates {
			if strings.TrimSpace(tpl.Name) == "" {
				return fmt.Errorf("%w: category %q task %d has no name", ErrInvalidCatalog, name, j)
			}
			if tpl.MaxHolders < 0 {
				return fmt.Errorf("%w: task %q has negative max_holders", ErrInvalidCatalog, tpl.Name)
			}
		}
	}
	if shared > 1 {
		return fmt.Errorf("%w: at most one shared category", ErrInvalidCatalog)
	}
	return nil
}

func Default() *Catalog {
	return &Catalog{Categories: []Category{
		{
			Name:   "common",
			Shared: true,
			Count:  1,
			Templates: []Template{
				{Name: "Scan ID card"},
				{Name: "Fix wiring in cafeteria"},
				{Name: "Swipe admin badge"},
			},
		},
		{
			Name:  "long",
			Count: 1,
			Templates: []Template{
				{Name: "Calibrate distributor", MaxHolders: 2},
				{Name: "Fuel engines", MaxHolders: 2},
				{Name: "Inspect sample", MaxHolders: 2},
				{Name: "Align engine output", MaxHolders: 2},
			},
		},
		{
			Name:  "fast",
			Count: 3,
			Templates: []Template{
				{Name: "Prime shields"},
				{Name: "Chart course"},
				{Name: "Empty garbage"},
				{Name: "Stabilize steering"},
				{Name: "Download data in weapons"},
				{Name: "Submit asteroid report"},
				{Name: "Divert power to navigation"},
			},
		},
	}}
}
