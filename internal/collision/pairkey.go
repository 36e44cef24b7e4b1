package collision

import "github.com/l1jgo/collision/internal/core/ecs"

// PairKey identifies an unordered pair of entities: the lower numeric id in
// the high 32 bits, the higher id in the low 32 bits. Numeric ids are 32-bit
// and never reused, so distinct pairs never share a key.
type PairKey uint64

func MakePairKey(a, b ecs.EntityID) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey(uint64(a)<<32 | uint64(b))
}

func (k PairKey) IDs() (lo, hi ecs.EntityID) {
	return ecs.EntityID(k >> 32), ecs.EntityID(uint32(k))
}

// Pair is a candidate or confirmed colliding pair, ordered lo < hi.
type Pair struct {
	A ecs.EntityID `msgpack:"a"`
	B ecs.EntityID `msgpack:"b"`
}

func NewPair(a, b ecs.EntityID) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func (p Pair) Key() PairKey { return MakePairKey(p.A, p.B) }
