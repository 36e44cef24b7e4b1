package data

import (
	"errors"
	"fmt"
	"os"

	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/core/ecs"
	"gopkg.in/yaml.v3"
)

var ErrUnknownTemplate = errors.New("unknown spawn template")

// SpawnTemplate describes one kind of body.
type SpawnTemplate struct {
	Name      string          `yaml:"name"`
	Type      ecs.EntityType  `yaml:"type"`
	Shape     component.Shape `yaml:"shape"`
	Width     float64         `yaml:"width"`
	Height    float64         `yaml:"height"`
	Radius    float64         `yaml:"radius"`
	Length    float64         `yaml:"length"`     // laser
	Angle     float64         `yaml:"angle"`      // laser, radians
	HalfWidth float64         `yaml:"half_width"` // laser
	Trigger   bool            `yaml:"trigger"`
	Immovable bool            `yaml:"immovable"`
	MaxSpeed  float64         `yaml:"max_speed"` // 0 = static body
	HP        int             `yaml:"hp"`
	Damage    int             `yaml:"damage"`
	Pierce    bool            `yaml:"pierce"`
}

// Collider returns the collider props the template describes.
func (t *SpawnTemplate) Collider() component.ColliderProps {
	return component.ColliderProps{
		Shape:     t.Shape,
		Width:     t.Width,
		Height:    t.Height,
		Radius:    t.Radius,
		Length:    t.Length,
		Angle:     t.Angle,
		HalfWidth: t.HalfWidth,
		Trigger:   t.Trigger,
		Immovable: t.Immovable,
	}
}

// SpawnEntry places Count copies of a template around (X, Y).
type SpawnEntry struct {
	Template string  `yaml:"template"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Count    int     `yaml:"count"`
	RandomX  float64 `yaml:"random_x"` // ± scatter
	RandomY  float64 `yaml:"random_y"`
	VX       float64 `yaml:"vx"`
	VY       float64 `yaml:"vy"`
}

type spawnListFile struct {
	Templates []SpawnTemplate `yaml:"templates"`
	Spawns    []SpawnEntry    `yaml:"spawns"`
}

// SpawnList holds templates by name plus the ordered spawn entries.
type SpawnList struct {
	templates map[string]*SpawnTemplate
	Spawns    []SpawnEntry
}

// LoadSpawnList loads spawn_list.yaml. Every entry must name a known
// template.
func LoadSpawnList(path string) (*SpawnList, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	l := &SpawnList{
		templates: make(map[string]*SpawnTemplate, len(f.Templates)),
		Spawns:    f.Spawns,
	}
	for i := range f.Templates {
		t := &f.Templates[i]
		l.templates[t.Name] = t
	}
	for i := range l.Spawns {
		s := &l.Spawns[i]
		if _, ok := l.templates[s.Template]; !ok {
			return nil, fmt.Errorf("spawn_list entry %d: %w: %q", i, ErrUnknownTemplate, s.Template)
		}
		if s.Count <= 0 {
			s.Count = 1
		}
	}
	return l, nil
}

// Template returns a template by name, or nil if not found.
func (l *SpawnList) Template(name string) *SpawnTemplate {
	return l.templates[name]
}

// Count returns the number of bodies the list spawns.
func (l *SpawnList) Count() int {
	n := 0
	for _, s := range l.Spawns {
		n += s.Count
	}
	return n
}
