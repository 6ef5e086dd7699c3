// Package catalog holds the static building catalog: the templates a
// participant may place and the base every participant starts a match with.
// A Catalog is immutable after construction and safe for concurrent reads.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/rts-session/internal/engine"
)

var ErrDuplicateTemplate = errors.New("duplicate template id")
var ErrInvalidTemplate = errors.New("invalid template")
var ErrNoBase = errors.New("catalog has no base template")

//go:embed default.yaml
var defaultYAML []byte

type BuildingTemplate struct {
	ID        int              `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	Price     int              `json:"price" yaml:"price"`
	Health    int              `json:"health" yaml:"health"`
	Footprint engine.Footprint `json:"footprint" yaml:"footprint"`
}

// BaseTemplate describes the entity spawned for each participant at match start.
type BaseTemplate struct {
	Health    int              `json:"health" yaml:"health"`
	Footprint engine.Footprint `json:"footprint" yaml:"footprint"`
}

type Catalog struct {
	base      BaseTemplate
	templates []BuildingTemplate
	byID      map[int]int
}

type file struct {
	Base      *BaseTemplate      `yaml:"base"`
	Buildings []BuildingTemplate `yaml:"buildings"`
}

// New validates templates and builds a catalog preserving their order.
func New(base BaseTemplate, templates []BuildingTemplate) (*Catalog, error) {
	if base.Health <= 0 {
		return nil, fmt.Errorf("base health %d: %w", base.Health, ErrInvalidTemplate)
	}
	c := &Catalog{
		base:      base,
		templates: make([]BuildingTemplate, 0, len(templates)),
		byID:      make(map[int]int, len(templates)),
	}
	for _, t := range templates {
		if _, ok := c.byID[t.ID]; ok {
			return nil, fmt.Errorf("template %d: %w", t.ID, ErrDuplicateTemplate)
		}
		if t.ID <= 0 || t.Price < 0 || t.Health <= 0 {
			return nil, fmt.Errorf("template %d: %w", t.ID, ErrInvalidTemplate)
		}
		c.byID[t.ID] = len(c.templates)
		c.templates = append(c.templates, t)
	}
	return c, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if f.Base == nil {
		return nil, ErrNoBase
	}
	return New(*f.Base, f.Buildings)
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

func (c *Catalog) Lookup(id int) (BuildingTemplate, bool) {
	i, ok := c.byID[id]
	if !ok {
		return BuildingTemplate{}, false
	}
	return c.templates[i], true
}

// Templates returns the templates in load order.
func (c *Catalog) Templates() []BuildingTemplate {
	out := make([]BuildingTemplate, len(c.templates))
	copy(out, c.templates)
	return out
}

func (c *Catalog) Base() BaseTemplate { return c.base }
