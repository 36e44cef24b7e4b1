package worker

import "sync/atomic"

// Marks is a shared write-once flag per sample. Workers set a slot when they
// finish producing it; any goroutine may read it with an atomic load.
type Marks struct {
	slots []atomic.Uint32
	set   atomic.Int64
}

func NewMarks(n int) *Marks {
	return &Marks{slots: make([]atomic.Uint32, n)}
}

// Mark sets slot i and reports whether this call was the first to do so.
// Out of range indices are ignored.
func (m *Marks) Mark(i int) bool {
	if i < 0 || i >= len(m.slots) {
		return false
	}
	if m.slots[i].CompareAndSwap(0, 1) {
		m.set.Add(1)
		return true
	}
	return false
}

func (m *Marks) Marked(i int) bool {
	if i < 0 || i >= len(m.slots) {
		return false
	}
	return m.slots[i].Load() == 1
}

// Count returns how many slots are set.
func (m *Marks) Count() int { return int(m.set.Load()) }

func (m *Marks) Len() int { return len(m.slots) }

// Complete reports whether every slot has been produced.
func (m *Marks) Complete() bool { return m.Count() == len(m.slots) }
