package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/collision/internal/collision"
	"github.com/l1jgo/collision/internal/component"
	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippedMatrixMatchesDefaults(t *testing.T) {
	rules, err := LoadCollisionMatrix("../../data/yaml/collision_matrix.yaml")
	require.NoError(t, err)
	assert.Equal(t, collision.NewMatrix(collision.DefaultRules()), collision.NewMatrix(rules))
}

func TestMatrixRejectsUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - { a: dragon, b: player, collide: true }\n"), 0o644))
	_, err := LoadCollisionMatrix(path)
	assert.Error(t, err)
}

func TestShippedSpawnList(t *testing.T) {
	l, err := LoadSpawnList("../../data/yaml/spawn_list.yaml")
	require.NoError(t, err)

	hero := l.Template("hero")
	require.NotNil(t, hero)
	assert.Equal(t, ecs.TypePlayer, hero.Type)
	beam := l.Template("fire_beam")
	require.NotNil(t, beam)
	assert.Equal(t, component.ShapeLaser, beam.Collider().Shape)
	assert.True(t, beam.Collider().Trigger)
	assert.Nil(t, l.Template("dragon"))
	assert.Equal(t, 1, l.Spawns[0].Count, "count defaults to one")
	assert.Greater(t, l.Count(), 1500)
}

func TestSpawnListUnknownTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates: []\nspawns:\n  - { template: ghost }\n"), 0o644))
	_, err := LoadSpawnList(path)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}
