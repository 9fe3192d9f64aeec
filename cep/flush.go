package cep

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/untoldecay/graphcep/internal/schema"
	"github.com/untoldecay/graphcep/internal/store"
)

// FlushAll promotes every frame's pending rows to archived and persists
// them, one table per errgroup goroutine. The store's single-writer
// model (internal/store.Open sets SetMaxOpenConns(1)) already serializes
// the actual writes; running the promote-then-persist sequence
// concurrently across tables only overlaps the CPU-bound CSV bookkeeping
// ahead of each table's write, not the writes themselves.
//
// Returns the total rows written, or 0 and the first error encountered.
// The zero-value errgroup.Group does not cancel ctx, so when one table
// fails the other tables' goroutines still run to completion; the walk as
// a whole then reports the error instead of a total.
func (a *Arena) FlushAll(ctx context.Context, h *store.Handle, mgr *schema.Manager) (int, error) {
	names := a.AllTableNames()

	var g errgroup.Group
	written := make([]int, len(names))

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if _, _, err := a.MovePendingToArchived(name); err != nil {
				return err
			}
			n, err := a.PersistArchived(ctx, h, mgr, name)
			if err != nil {
				return err
			}
			written[i] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range written {
		total += n
	}
	return total, nil
}
