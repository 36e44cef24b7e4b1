package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collided.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[simulation]
tick_rate = "20ms"
scenario = "spawn_list"

[grid]
cell_size = 64.0

[grid.queries.pickup]
ttl = "250ms"
radius_multiplier = 2.0
update_frequency = 8
types = ["pickup"]

[parallel]
workers = 3
task_timeout = "1s"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 20*time.Millisecond, cfg.Simulation.TickRate)
	assert.Equal(t, "spawn_list", cfg.Simulation.Scenario)
	assert.Equal(t, 64.0, cfg.Grid.CellSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Grid.Queries["pickup"].TTL)
	assert.Equal(t, 3, cfg.Parallel.Workers)
	assert.Equal(t, time.Second, cfg.Parallel.TaskTimeout)

	// untouched sections keep their defaults
	assert.Equal(t, 60, cfg.Grid.SweepInterval)
	assert.Equal(t, 0.8, cfg.Parallel.Bias)
	assert.Len(t, cfg.Collision.Tiers, 3)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero cell size", "[grid]\ncell_size = 0.0\n"},
		{"unknown scenario", "[simulation]\nscenario = \"benchmark\"\n"},
		{"bias above one", "[parallel]\nbias = 1.5\n"},
		{"no task deadline", "[parallel]\nenabled = true\ntask_timeout = \"0s\"\n"},
		{"tier without query", "[[collision.tiers]]\nname = \"near\"\nmax_distance = 50.0\nevery = 1\nquery = \"\"\n"},
		{"tiers out of order", `
[[collision.tiers]]
name = "near"
max_distance = 200.0
query = "critical"

[[collision.tiers]]
name = "far"
max_distance = 100.0
query = "distant"
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestTaskTimeoutOnlyMattersWhenParallel(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[parallel]\nenabled = false\ntask_timeout = \"0s\"\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Parallel.Enabled)
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := Load("../../config/collided.toml")
	require.NoError(t, err)
	assert.Equal(t, Default().Collision, cfg.Collision)
	assert.False(t, cfg.Database.Enabled)
}
