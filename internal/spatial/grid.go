package spatial

import (
	"math"
	"slices"
	"time"

	"github.com/l1jgo/collision/internal/core/ecs"
	"github.com/l1jgo/collision/internal/geom"
	"go.uber.org/zap"
)

// CellKey packs the integer cell coordinates floor(x/cellSize),
// floor(y/cellSize) into one comparable value.
type CellKey int64

func MakeKey(cx, cy int32) CellKey {
	return CellKey(int64(cx)<<32 | int64(uint32(cy)))
}

func (k CellKey) Coords() (cx, cy int32) {
	return int32(k >> 32), int32(uint32(k))
}

// Neighbor returns the key offset by (dx, dy) cells.
func (k CellKey) Neighbor(dx, dy int32) CellKey {
	cx, cy := k.Coords()
	return MakeKey(cx+dx, cy+dy)
}

// Entry is one rebuild input.
type Entry struct {
	ID   ecs.EntityID
	Pos  geom.Vec2
	Type ecs.EntityType
}

type cell struct {
	ids   map[ecs.EntityID]struct{}
	types map[ecs.EntityID]ecs.EntityType
}

func newCell() *cell {
	return &cell{
		ids:   make(map[ecs.EntityID]struct{}, 8),
		types: make(map[ecs.EntityID]ecs.EntityType, 8),
	}
}

type cacheKey struct {
	query string
	cell  CellKey
	ring  int32
}

type cacheEntry struct {
	ids []ecs.EntityID
	at  time.Time
	ttl time.Duration
}

// Stats counts cache traffic.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Purged   uint64
	Flushes  uint64 // full invalidations caused by structural change
	Rebuilds uint64
}

type Config struct {
	CellSize      float64
	SweepInterval int // frames between cache sweeps
	Policies      map[string]Policy
}

type Option func(*Grid)

// WithClock replaces time.Now for cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Grid) { g.now = now }
}

// Grid is a uniform spatial hash with per-query-type result caching.
// Cell membership matches component positions only right after Rebuild.
// Accessed only from the game loop goroutine, no locks.
//
// Cache policy: entries expire by TTL. Inserts and removals that only change
// the membership of an existing cell leave the cache alone; a cell being
// created or deleted drops every entry.
type Grid struct {
	cellSize      float64
	invCellSize   float64
	cells         map[CellKey]*cell
	policies      map[string]*policy
	cache         map[cacheKey]*cacheEntry
	frame         uint64
	sweepInterval uint64
	now           func() time.Time
	stats         Stats
	spare         []*cell
	log           *zap.Logger
}

func New(cfg Config, log *zap.Logger, opts ...Option) *Grid {
	if cfg.CellSize <= 0 {
		cfg.CellSize = 100
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 60
	}
	if cfg.Policies == nil {
		cfg.Policies = DefaultPolicies()
	}
	g := &Grid{
		cellSize:      cfg.CellSize,
		invCellSize:   1 / cfg.CellSize,
		cells:         make(map[CellKey]*cell, 512),
		policies:      make(map[string]*policy, len(cfg.Policies)),
		cache:         make(map[cacheKey]*cacheEntry, 1024),
		sweepInterval: uint64(cfg.SweepInterval),
		now:           time.Now,
		log:           log,
	}
	for name, p := range cfg.Policies {
		g.policies[name] = compile(p)
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Grid) CellSize() float64 { return g.cellSize }
func (g *Grid) Frame() uint64     { return g.frame }
func (g *Grid) Stats() Stats      { return g.stats }
func (g *Grid) CellCount() int    { return len(g.cells) }
func (g *Grid) CacheSize() int    { return len(g.cache) }

// HasQueryType reports whether a policy named q is registered.
func (g *Grid) HasQueryType(q string) bool {
	_, ok := g.policies[q]
	return ok
}

// KeyFor returns the cell key containing pos.
func (g *Grid) KeyFor(pos geom.Vec2) CellKey {
	return MakeKey(
		int32(math.Floor(pos.X*g.invCellSize)),
		int32(math.Floor(pos.Y*g.invCellSize)),
	)
}

// Insert registers id at pos. Creating a new cell invalidates the cache.
func (g *Grid) Insert(id ecs.EntityID, pos geom.Vec2, typ ecs.EntityType) {
	if g.insert(id, pos, typ) {
		g.invalidate()
	}
}

func (g *Grid) insert(id ecs.EntityID, pos geom.Vec2, typ ecs.EntityType) (created bool) {
	k := g.KeyFor(pos)
	c := g.cells[k]
	if c == nil {
		c = g.takeCell()
		g.cells[k] = c
		created = true
	}
	c.ids[id] = struct{}{}
	c.types[id] = typ
	return created
}

// Remove takes id out of the cell at pos. Deleting the last member deletes
// the cell and invalidates the cache.
func (g *Grid) Remove(id ecs.EntityID, pos geom.Vec2) bool {
	k := g.KeyFor(pos)
	c := g.cells[k]
	if c == nil {
		return false
	}
	if _, ok := c.ids[id]; !ok {
		return false
	}
	delete(c.ids, id)
	delete(c.types, id)
	if len(c.ids) == 0 {
		delete(g.cells, k)
		g.putCell(c)
		g.invalidate()
	}
	return true
}

// Clear empties the grid and the cache.
func (g *Grid) Clear() {
	for k, c := range g.cells {
		delete(g.cells, k)
		g.putCell(c)
	}
	g.invalidate()
}

// Rebuild replaces the grid contents with entries. Cell structs are reused;
// the cache is dropped only if the set of occupied cells changed.
func (g *Grid) Rebuild(entries []Entry) {
	g.stats.Rebuilds++
	for _, c := range g.cells {
		clear(c.ids)
		clear(c.types)
	}
	structural := false
	for _, e := range entries {
		if g.insert(e.ID, e.Pos, e.Type) {
			structural = true
		}
	}
	for k, c := range g.cells {
		if len(c.ids) == 0 {
			delete(g.cells, k)
			g.putCell(c)
			structural = true
		}
	}
	if structural {
		g.invalidate()
	}
}

func (g *Grid) invalidate() {
	if len(g.cache) == 0 {
		return
	}
	clear(g.cache)
	g.stats.Flushes++
}

func (g *Grid) takeCell() *cell {
	if n := len(g.spare); n > 0 {
		c := g.spare[n-1]
		g.spare = g.spare[:n-1]
		return c
	}
	return newCell()
}

func (g *Grid) putCell(c *cell) {
	clear(c.ids)
	clear(c.types)
	if len(g.spare) < 256 {
		g.spare = append(g.spare, c)
	}
}

// NearbyEntities returns candidate ids within ceil(radius×multiplier/cellSize)
// cells of pos, filtered to the query type's entity types. The result may be
// shared with the cache and must not be modified.
func (g *Grid) NearbyEntities(pos geom.Vec2, radius float64, query string) ([]ecs.EntityID, error) {
	p, ok := g.policies[query]
	if !ok {
		return nil, ErrUnknownQueryType
	}
	center := g.KeyFor(pos)
	ring := int32(math.Ceil(radius * p.mult / g.cellSize))
	if ring < 0 {
		ring = 0
	}
	key := cacheKey{query: query, cell: center, ring: ring}
	now := g.now()

	if e, ok := g.cache[key]; ok {
		if g.frame%p.frequency != 0 || now.Sub(e.at) < p.ttl {
			g.stats.Hits++
			return e.ids, nil
		}
	}

	g.stats.Misses++
	ids := g.collect(center, ring, &p.mask)
	g.cache[key] = &cacheEntry{ids: ids, at: now, ttl: p.ttl}
	return ids, nil
}

func (g *Grid) collect(center CellKey, ring int32, mask *[ecs.NumEntityTypes]bool) []ecs.EntityID {
	var out []ecs.EntityID
	for dx := -ring; dx <= ring; dx++ {
		for dy := -ring; dy <= ring; dy++ {
			c := g.cells[center.Neighbor(dx, dy)]
			if c == nil {
				continue
			}
			for id, typ := range c.types {
				if mask[typ] {
					out = append(out, id)
				}
			}
		}
	}
	slices.Sort(out)
	return out
}

// Tick advances the frame counter and runs the cache sweep on schedule.
func (g *Grid) Tick() {
	g.frame++
	if g.frame%g.sweepInterval == 0 {
		if n := g.Sweep(); n > 0 {
			g.log.Debug("grid cache sweep", zap.Int("purged", n), zap.Int("remaining", len(g.cache)))
		}
	}
}

// Sweep purges cache entries older than 4× their query type's TTL.
func (g *Grid) Sweep() int {
	now := g.now()
	n := 0
	for k, e := range g.cache {
		if now.Sub(e.at) > 4*e.ttl {
			delete(g.cache, k)
			n++
		}
	}
	g.stats.Purged += uint64(n)
	return n
}

// Keys returns every occupied cell key in ascending order.
func (g *Grid) Keys() []CellKey {
	keys := make([]CellKey, 0, len(g.cells))
	for k := range g.cells {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Members returns the sorted ids in the cell at k.
func (g *Grid) Members(k CellKey) []ecs.EntityID {
	c := g.cells[k]
	if c == nil {
		return nil
	}
	out := make([]ecs.EntityID, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Snapshot copies the cell partition for use off the game loop.
func (g *Grid) Snapshot() map[CellKey][]ecs.EntityID {
	out := make(map[CellKey][]ecs.EntityID, len(g.cells))
	for k := range g.cells {
		out[k] = g.Members(k)
	}
	return out
}

// Occupancy returns the number of occupied cells and the summed entity count.
func (g *Grid) Occupancy() (cells, entities int) {
	for _, c := range g.cells {
		entities += len(c.ids)
	}
	return len(g.cells), entities
}
