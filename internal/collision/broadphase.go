package collision

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/geom"
	"github.com/l1jgo/collision/internal/spatial"
	"github.com/l1jgo/collision/internal/worker"
	"github.com/vmihailenco/msgpack/v5"
)

// KindBroadphase is the worker task kind for cell-partitioned pair detection.
const KindBroadphase = "collision.broadphase"

var ErrBadPayload = errors.New("broadphase: unexpected payload")

// BodySnapshot is the minimal copy of one entity a worker needs.
type BodySnapshot struct {
	ID       string         `msgpack:"id"`
	NID      ecs.EntityID   `msgpack:"n"`
	Sleeping bool           `msgpack:"s"`
	Pos      geom.Vec2      `msgpack:"p"`
	Box      geom.AABB      `msgpack:"b"`
	Size     geom.Vec2      `msgpack:"sz"`
	Type     ecs.EntityType `msgpack:"t"`
}

// CellSnapshot lists the snapshot bodies in one grid cell.
type CellSnapshot struct {
	Key spatial.CellKey `msgpack:"k"`
	IDs []ecs.EntityID  `msgpack:"i"`
}

// Frame is the immutable per-tick input shared by every broad-phase task.
type Frame struct {
	Bodies []BodySnapshot `msgpack:"b"`
	Cells  []CellSnapshot `msgpack:"c"`
}

// EncodeFrame serializes f for handoff to workers.
func EncodeFrame(f *Frame) ([]byte, error) {
	b, err := msgpack.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return b, nil
}

// DecodeFrame is the inverse of EncodeFrame.
func DecodeFrame(b []byte) (*Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &f, nil
}

// FrameIndex is a Frame with lookup maps built. Read-only after
// construction, so one index may be shared by all workers.
type FrameIndex struct {
	bodies map[ecs.EntityID]*BodySnapshot
	cells  map[spatial.CellKey][]ecs.EntityID
}

func IndexFrame(f *Frame) *FrameIndex {
	ix := &FrameIndex{
		bodies: make(map[ecs.EntityID]*BodySnapshot, len(f.Bodies)),
		cells:  make(map[spatial.CellKey][]ecs.EntityID, len(f.Cells)),
	}
	for i := range f.Bodies {
		ix.bodies[f.Bodies[i].NID] = &f.Bodies[i]
	}
	for _, c := range f.Cells {
		ix.cells[c.Key] = c.IDs
	}
	return ix
}

func (ix *FrameIndex) Body(id ecs.EntityID) (*BodySnapshot, bool) {
	b, ok := ix.bodies[id]
	return b, ok
}

// BroadphaseTask is one worker's share of the occupied cells. Exactly one of
// Encoded or Index is set. Offset is the position of Cells[0] in the sorted
// cell list, used to address Marks.
type BroadphaseTask struct {
	Cells   []spatial.CellKey
	Offset  int
	Encoded []byte
	Index   *FrameIndex
	Marks   *worker.Marks
}

// BroadphaseHandler is the worker.Handler for KindBroadphase. It returns
// []Pair.
func BroadphaseHandler(ctx context.Context, payload any) (any, error) {
	t, ok := payload.(*BroadphaseTask)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadPayload, payload)
	}
	ix := t.Index
	if ix == nil {
		f, err := DecodeFrame(t.Encoded)
		if err != nil {
			return nil, err
		}
		ix = IndexFrame(f)
	}
	seen := make(map[PairKey]struct{}, 256)
	var out []Pair
	for i, k := range t.Cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = ix.scanCell(k, seen, out)
		if t.Marks != nil {
			t.Marks.Mark(t.Offset + i)
		}
	}
	return out, nil
}

// Broadphase scans every cell on the calling goroutine.
func Broadphase(ix *FrameIndex, cells []spatial.CellKey) []Pair {
	seen := make(map[PairKey]struct{}, 256)
	var out []Pair
	for _, k := range cells {
		out = ix.scanCell(k, seen, out)
	}
	return out
}

// scanCell pairs each body in center against every body of its 3×3
// neighborhood.
func (ix *FrameIndex) scanCell(center spatial.CellKey, seen map[PairKey]struct{}, out []Pair) []Pair {
	own := ix.cells[center]
	if len(own) == 0 {
		return out
	}
	near := make([]ecs.EntityID, 0, len(own)*9)
	for dy := int32(-1); dy <= 1; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			near = append(near, ix.cells[center.Neighbor(dx, dy)]...)
		}
	}
	for _, aid := range own {
		a, ok := ix.bodies[aid]
		if !ok {
			continue
		}
		for _, bid := range near {
			if bid == aid {
				continue
			}
			key := MakePairKey(aid, bid)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			b, ok := ix.bodies[bid]
			if !ok || (a.Sleeping && b.Sleeping) {
				continue
			}
			if _, _, hit := geom.Overlap(a.Box, b.Box); hit {
				out = append(out, NewPair(aid, bid))
			}
		}
	}
	return out
}

// Partition splits keys into n contiguous, near-equal chunks. Empty chunks
// are omitted.
func Partition(keys []spatial.CellKey, n int) [][]spatial.CellKey {
	if n <= 0 {
		n = 1
	}
	out := make([][]spatial.CellKey, 0, n)
	for i := 0; i < n; i++ {
		lo, hi := i*len(keys)/n, (i+1)*len(keys)/n
		if lo < hi {
			out = append(out, keys[lo:hi])
		}
	}
	return out
}

// DedupePairs merges per-task results into one key-ordered slice.
func DedupePairs(groups ...[]Pair) []Pair {
	set := make(map[PairKey]Pair)
	for _, g := range groups {
		for _, p := range g {
			set[p.Key()] = p
		}
	}
	out := make([]Pair, 0, len(set))
	for _, p := range set {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Pair) int { return cmp.Compare(a.Key(), b.Key()) })
	return out
}
