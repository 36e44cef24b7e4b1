package ecs

// Each2 calls fn for every entity holding both an A and a B, in ascending id
// order. The smaller store drives the walk.
func Each2[A, B Component](sa *Store[A], sb *Store[B], fn func(EntityID, A, B)) {
	if sa.Len() <= sb.Len() {
		for _, id := range sa.IDs() {
			a, ok := sa.data[id]
			if !ok {
				continue
			}
			if b, ok := sb.data[id]; ok {
				fn(id, a, b)
			}
		}
		return
	}
	for _, id := range sb.IDs() {
		b, ok := sb.data[id]
		if !ok {
			continue
		}
		if a, ok := sa.data[id]; ok {
			fn(id, a, b)
		}
	}
}
