// Package world provides the default scene collaborators a session depends
// on: a map loader yielding start positions and static obstacles, and the
// obstacle set used as the spatial occupancy query.
package world

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/rts-session/internal/engine"
)

var ErrUnknownMap = errors.New("unknown map")

//go:embed maps.yaml
var defaultMapsYAML []byte

// Obstacles is a flat list of blocking volumes.
type Obstacles []engine.Box

func (o Obstacles) Overlaps(box engine.Box) bool {
	for _, b := range o {
		if b.Overlaps(box) {
			return true
		}
	}
	return false
}

// Union blocks wherever any member blocks. Nil members are skipped.
type Union []engine.BlockingQuery

func (u Union) Overlaps(box engine.Box) bool {
	for _, q := range u {
		if q != nil && q.Overlaps(box) {
			return true
		}
	}
	return false
}

type Map struct {
	ID             string        `yaml:"id"`
	StartPositions []engine.Vec3 `yaml:"start_positions"`
	Obstacles      Obstacles     `yaml:"obstacles"`
}

// Loader performs the scene transition for a map and reports what the
// session needs from the loaded scene.
type Loader interface {
	Load(ctx context.Context, mapID string) (Map, error)
}

// StaticLoader serves maps held in memory, optionally after a delay that
// stands in for scene loading time.
type StaticLoader struct {
	maps  map[string]Map
	delay time.Duration
}

func NewStaticLoader(maps []Map, delay time.Duration) *StaticLoader {
	l := &StaticLoader{maps: make(map[string]Map, len(maps)), delay: delay}
	for _, m := range maps {
		l.maps[m.ID] = m
	}
	return l
}

func (l *StaticLoader) Load(ctx context.Context, mapID string) (Map, error) {
	if l.delay > 0 {
		t := time.NewTimer(l.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Map{}, ctx.Err()
		case <-t.C:
		}
	}
	m, ok := l.maps[mapID]
	if !ok {
		return Map{}, fmt.Errorf("%q: %w", mapID, ErrUnknownMap)
	}
	return m, nil
}

func ParseMaps(data []byte) ([]Map, error) {
	var doc struct {
		Maps []Map `yaml:"maps"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode maps: %w", err)
	}
	return doc.Maps, nil
}

func LoadMapsFile(path string) ([]Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read maps: %w", err)
	}
	return ParseMaps(data)
}

// DefaultMaps returns the maps compiled into the binary.
func DefaultMaps() []Map {
	maps, err := ParseMaps(defaultMapsYAML)
	if err != nil {
		panic(fmt.Sprintf("world: embedded maps are invalid: %v", err))
	}
	return maps
}
