package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []EntityAdded
	Subscribe(b, func(ev EntityAdded) { got = append(got, ev) })

	Emit(b, EntityAdded{NID: 1, ID: "player_1"})
	assert.Equal(t, 1, b.Pending())

	b.DispatchAll()
	assert.Empty(t, got, "events are not visible before the swap")

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1)
	assert.Equal(t, "player_1", got[0].ID)
	assert.Equal(t, 0, b.Pending())

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1, "front buffer is drained after a second swap")
}

func TestBusTypeIsolation(t *testing.T) {
	b := NewBus()
	removed := 0
	Subscribe(b, func(EntityRemoved) { removed++ })
	Emit(b, EntityAdded{NID: 2})
	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, 0, removed)
}
