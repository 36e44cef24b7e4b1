package sim

import (
	"context"

	"github.com/l1jgo/collision/internal/persist"
)

// RunSink writes stats batches under one run id.
type RunSink struct {
	Repo  *persist.StatsRepo
	RunID int64
}

func (s RunSink) WriteBatch(ctx context.Context, rows []persist.TickStats) error {
	return s.Repo.WriteBatch(ctx, s.RunID, rows)
}
