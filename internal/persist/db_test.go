package persist

import (
	"testing"
	"time"

	"github.com/l1jgo/collision/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	pc, err := poolConfig(config.DatabaseConfig{
		DSN:             "postgres://u:p@db.local:5432/collided?sslmode=disable",
		MaxOpenConns:    3,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), pc.MaxConns)
	assert.Equal(t, int32(3), pc.MinConns, "idle is clamped to the open limit")
	assert.Equal(t, time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "db.local", pc.ConnConfig.Host)
	assert.Equal(t, "collided", pc.ConnConfig.Database)

	_, err = poolConfig(config.DatabaseConfig{DSN: "postgres://%zz"})
	assert.Error(t, err)
}
