package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestShippedContactScript(t *testing.T) {
	e, err := NewEngine("../../scripts", zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	arrow := e.CalcContactDamage(ContactContext{SourceType: "projectile", TargetType: "enemy", BaseDamage: 8, TargetHP: 20, TargetMaxHP: 20})
	assert.Equal(t, ContactResult{Damage: 8, Consume: true}, arrow)

	bump := e.CalcContactDamage(ContactContext{SourceType: "enemy", TargetType: "player", BaseDamage: 6, TargetHP: 100, TargetMaxHP: 100})
	assert.Equal(t, ContactResult{Damage: 3}, bump)

	beam := e.CalcContactDamage(ContactContext{SourceType: "areaEffect", TargetType: "enemy", BaseDamage: 2, Pierce: true, OverlapX: 7, OverlapY: 7, TargetHP: 20, TargetMaxHP: 20})
	assert.Equal(t, ContactResult{Damage: 3}, beam)
}

func TestContactFallbacks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "combat"), 0o755))

	// no function defined
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	ctx := ContactContext{SourceType: "projectile", BaseDamage: 5}
	assert.Equal(t, FallbackContact(ctx), e.CalcContactDamage(ctx))
	e.Close()

	// runtime error inside the function
	require.NoError(t, os.WriteFile(filepath.Join(dir, "combat", "broken.lua"),
		[]byte("function calc_contact_damage(ctx) return ctx.nope.field end\n"), 0o644))
	e, err = NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, ContactResult{Damage: 5, Consume: true}, e.CalcContactDamage(ctx))
}

func TestSyntaxErrorFailsLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "core"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core", "bad.lua"), []byte("function (\n"), 0o644))
	_, err := NewEngine(dir, zap.NewNop())
	assert.Error(t, err)
}
