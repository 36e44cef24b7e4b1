package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// TickStats is one row of per-tick simulation counters.
type TickStats struct {
	Tick           uint64
	Entities       int
	Cells          int
	CacheHits      uint64
	CacheMisses    uint64
	TieredChecks   int
	TieredResults  int
	ParallelPairs  int
	ParallelFailed int
	ResolveIters   int
	DamageEvents   int
	Removed        int
	PoolReused     uint64
	PoolCreated    uint64
	Elapsed        time.Duration
}

// RunInfo describes one simulation run.
type RunInfo struct {
	Name     string
	CellSize float64
	Workers  int
}

type StatsRepo struct {
	db *DB
}

func NewStatsRepo(db *DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// BeginRun records a new run and returns its id.
func (r *StatsRepo) BeginRun(ctx context.Context, info RunInfo) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO sim_runs (name, cell_size, workers) VALUES ($1, $2, $3) RETURNING id`,
		info.Name, info.CellSize, info.Workers,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run's end time.
func (r *StatsRepo) FinishRun(ctx context.Context, runID int64) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE sim_runs SET finished_at = now() WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", runID, err)
	}
	return nil
}

// WriteBatch atomically writes a batch of tick rows in a single transaction.
func (r *StatsRepo) WriteBatch(ctx context.Context, runID int64, rows []TickStats) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("stats begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, s := range rows {
		batch.Queue(
			`INSERT INTO tick_stats (run_id, tick, entities, cells, cache_hits, cache_misses,
			   tiered_checks, tiered_results, parallel_pairs, parallel_failed, resolve_iters,
			   damage_events, removed, pool_reused, pool_created, elapsed_us)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			 ON CONFLICT (run_id, tick) DO NOTHING`,
			runID, int64(s.Tick), s.Entities, s.Cells, int64(s.CacheHits), int64(s.CacheMisses),
			s.TieredChecks, s.TieredResults, s.ParallelPairs, s.ParallelFailed, s.ResolveIters,
			s.DamageEvents, s.Removed, int64(s.PoolReused), int64(s.PoolCreated), s.Elapsed.Microseconds(),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("stats insert: %w", err)
	}
	return tx.Commit(ctx)
}

// Count returns the number of rows stored for a run.
func (r *StatsRepo) Count(ctx context.Context, runID int64) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM tick_stats WHERE run_id = $1`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stats: %w", err)
	}
	return n, nil
}
