package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlap(t *testing.T) {
	a := BoxAt(V(0, 0), 10, 10)

	ox, oy, hit := Overlap(a, BoxAt(V(5, 0), 10, 10))
	assert.Equal(t, 5.0, ox)
	assert.Equal(t, 10.0, oy)
	assert.True(t, hit)

	_, _, hit = Overlap(a, BoxAt(V(20, 0), 10, 10))
	assert.False(t, hit)

	// touching edges
	_, _, hit = Overlap(a, BoxAt(V(10, 0), 10, 10))
	assert.False(t, hit)
}

func TestSegmentDistance(t *testing.T) {
	a, b := V(0, 0), V(100, 0)
	assert.InDelta(t, 5.0, SegmentDistance(V(50, 5), a, b), 1e-9)
	assert.InDelta(t, 10.0, SegmentDistance(V(-10, 0), a, b), 1e-9)
	assert.InDelta(t, 5.0, SegmentDistance(V(103, 4), a, b), 1e-9)
	assert.InDelta(t, 5.0, SegmentDistance(V(3, 4), a, a), 1e-9)
}

func TestNormalizeZero(t *testing.T) {
	assert.True(t, Vec2{}.Normalize().IsZero())
	assert.InDelta(t, 1.0, V(3, 4).Normalize().Len(), 1e-9)
}
