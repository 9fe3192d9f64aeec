package graph

import (
	"context"
	"fmt"

	"github.com/untoldecay/graphcep/internal/store"
)

// subtreeRow captures one node's identity and its interval relative to
// the subtree root, so the subtree can be re-inserted elsewhere with its
// internal shape intact.
type subtreeRow struct {
	id              string
	relLeft, relRight int64
}

// Connect resolves Open Question #1 (spec.md §9): it implements the
// standard Nested Sets "insert at the rightmost child" algorithm,
// generalised to three starting states. After Connect(a, b) succeeds, a
// is b's parent. See SPEC_FULL.md §5.4.1 for the full case analysis.
//
// All of Connect's reads and writes happen inside one transaction; any
// failure rolls back, leaving every row's interval exactly as it was.
func (s *Store) Connect(ctx context.Context, h *store.Handle, a, b string) error {
	if a == b {
		return ErrSelfConnect
	}

	tx, ok := h.Begin(ctx)
	if !ok {
		return fmt.Errorf("graph: failed to begin transaction for Connect")
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	aIv, err := s.getIntervalTx(ctx, tx, a)
	if err != nil {
		return fmt.Errorf("graph: Connect: lookup %q: %w", a, err)
	}
	bIv, err := s.getIntervalTx(ctx, tx, b)
	if err != nil {
		return fmt.Errorf("graph: Connect: lookup %q: %w", b, err)
	}

	switch {
	case !aIv.assigned && !bIv.assigned:
		if err := s.connectFreshPair(ctx, tx, a, b); err != nil {
			return err
		}
	case aIv.assigned && !bIv.assigned:
		if err := s.connectUnderAnchor(ctx, tx, a, aIv, b); err != nil {
			return err
		}
	case !aIv.assigned && bIv.assigned:
		// a is the anchor that must receive b as a child, but a has no
		// interval yet: give a a fresh single-node interval first (as a
		// new root, shifting everything else right by 2), then attach b.
		if err := s.connectFreshSingleton(ctx, tx, a); err != nil {
			return err
		}
		aIv, err = s.getIntervalTx(ctx, tx, a)
		if err != nil {
			return fmt.Errorf("graph: Connect: re-lookup %q: %w", a, err)
		}
		// b shifted right by 2 along with everything else; re-read it.
		bIv, err = s.getIntervalTx(ctx, tx, b)
		if err != nil {
			return fmt.Errorf("graph: Connect: re-lookup %q: %w", b, err)
		}
		if err := s.reparent(ctx, tx, a, aIv, b, bIv); err != nil {
			return err
		}
	default:
		if err := s.reparent(ctx, tx, a, aIv, b, bIv); err != nil {
			return err
		}
	}

	if !tx.Commit() {
		return fmt.Errorf("graph: Connect: commit failed")
	}
	committed = true
	return nil
}

func (s *Store) getIntervalTx(ctx context.Context, tx *store.Tx, id string) (interval, error) {
	stmt, err := tx.Prepare(fmt.Sprintf(`SELECT left, right FROM %s WHERE id = ?`, NodeTable))
	if err != nil {
		return interval{}, err
	}
	defer stmt.Finalise()
	stmt.BindText(1, id)
	res := stmt.Step(ctx)
	if res != store.StepRow {
		return interval{}, ErrNotFound
	}
	var left, right *int64
	if err := stmt.Scan(&left, &right); err != nil {
		return interval{}, err
	}
	if left == nil || right == nil {
		return interval{}, nil
	}
	return interval{left: *left, right: *right, assigned: true}, nil
}

// connectFreshPair handles neither node having an interval yet: shift
// every existing assigned interval right by 4 to make room, then plant
// a=(1,4) as parent of b=(2,3) at the head of the forest.
func (s *Store) connectFreshPair(ctx context.Context, tx *store.Tx, a, b string) error {
	if err := s.shiftColumn(ctx, tx, "left", ">=", 1, 4); err != nil {
		return err
	}
	if err := s.shiftColumn(ctx, tx, "right", ">=", 1, 4); err != nil {
		return err
	}
	if err := s.writeInterval(ctx, tx, a, 1, 4); err != nil {
		return err
	}
	return s.writeInterval(ctx, tx, b, 2, 3)
}

// connectFreshSingleton gives id a brand-new single-node interval as a
// root, shifting every existing assigned interval right by 2.
func (s *Store) connectFreshSingleton(ctx context.Context, tx *store.Tx, id string) error {
	if err := s.shiftColumn(ctx, tx, "left", ">=", 1, 2); err != nil {
		return err
	}
	if err := s.shiftColumn(ctx, tx, "right", ">=", 1, 2); err != nil {
		return err
	}
	return s.writeInterval(ctx, tx, id, 1, 2)
}

// connectUnderAnchor inserts fresh node c as the rightmost child of the
// already-positioned anchor p (spec.md §5.4.1, "one anchor" case).
func (s *Store) connectUnderAnchor(ctx context.Context, tx *store.Tx, p string, pIv interval, c string) error {
	gap := pIv.right
	if err := s.shiftColumn(ctx, tx, "right", ">=", gap, 2); err != nil {
		return err
	}
	if err := s.shiftColumn(ctx, tx, "left", ">", gap, 2); err != nil {
		return err
	}
	return s.writeInterval(ctx, tx, c, gap, gap+1)
}

// reparent moves b's entire subtree to become a's rightmost child.
func (s *Store) reparent(ctx context.Context, tx *store.Tx, a string, aIv interval, b string, bIv interval) error {
	if aIv.assigned && bIv.assigned && aIv.left > bIv.left && aIv.right < bIv.right {
		return ErrCyclicConnect
	}

	rows, err := s.fetchSubtree(ctx, tx, bIv)
	if err != nil {
		return err
	}
	width := bIv.right - bIv.left + 1

	// Close the gap left behind by removing b's subtree.
	if err := s.shiftColumn(ctx, tx, "right", ">", bIv.right, -width); err != nil {
		return err
	}
	if err := s.shiftColumn(ctx, tx, "left", ">", bIv.right, -width); err != nil {
		return err
	}

	// a may itself have shifted (e.g. it was an ancestor of b, or
	// positioned after b) — re-read its post-shift interval.
	newAIv, err := s.getIntervalTx(ctx, tx, a)
	if err != nil {
		return fmt.Errorf("graph: reparent: re-lookup anchor: %w", err)
	}

	gap := newAIv.right
	if err := s.shiftColumn(ctx, tx, "right", ">=", gap, width); err != nil {
		return err
	}
	if err := s.shiftColumn(ctx, tx, "left", ">", gap, width); err != nil {
		return err
	}

	return s.reinsertSubtree(ctx, tx, rows, gap)
}

// fetchSubtree returns every row whose interval is contained in root
// (including root itself), with intervals expressed relative to root's
// left edge so the subtree's internal shape can be replayed elsewhere.
func (s *Store) fetchSubtree(ctx context.Context, tx *store.Tx, root interval) ([]subtreeRow, error) {
	stmt, err := tx.Prepare(fmt.Sprintf(
		`SELECT id, left, right FROM %s WHERE left >= ? AND right <= ? ORDER BY left ASC`, NodeTable))
	if err != nil {
		return nil, err
	}
	defer stmt.Finalise()
	stmt.BindInt64(1, root.left)
	stmt.BindInt64(2, root.right)

	var rows []subtreeRow
	for {
		res := stmt.Step(ctx)
		if res == store.StepError {
			return nil, fmt.Errorf("graph: fetchSubtree: step failed")
		}
		if res == store.StepDone {
			break
		}
		var id string
		var left, right int64
		if err := stmt.Scan(&id, &left, &right); err != nil {
			return nil, err
		}
		rows = append(rows, subtreeRow{id: id, relLeft: left - root.left, relRight: right - root.left})
	}
	return rows, nil
}

// reinsertSubtree writes every captured row back at gap+relOffset.
func (s *Store) reinsertSubtree(ctx context.Context, tx *store.Tx, rows []subtreeRow, gap int64) error {
	stmt, err := tx.Prepare(fmt.Sprintf(`UPDATE %s SET left = ?, right = ? WHERE id = ?`, NodeTable))
	if err != nil {
		return err
	}
	defer stmt.Finalise()
	for _, r := range rows {
		stmt.BindInt64(1, gap+r.relLeft)
		stmt.BindInt64(2, gap+r.relRight)
		stmt.BindText(3, r.id)
		if stmt.Step(ctx) != store.StepDone {
			return fmt.Errorf("graph: reinsertSubtree: update failed for %q", r.id)
		}
		stmt.Reset()
	}
	return nil
}

// shiftColumn adds delta to column for every row whose assigned value of
// that column satisfies "value OP threshold". Only assigned (non-NULL)
// rows participate, since unassigned rows have no position to shift.
func (s *Store) shiftColumn(ctx context.Context, tx *store.Tx, column, op string, threshold, delta int64) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = %s + ? WHERE %s IS NOT NULL AND %s %s ?`,
		NodeTable, column, column, column, column, op)
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("graph: shiftColumn prepare: %w", err)
	}
	defer stmt.Finalise()
	stmt.BindInt64(1, delta)
	stmt.BindInt64(2, threshold)
	if stmt.Step(ctx) != store.StepDone {
		return fmt.Errorf("graph: shiftColumn failed for column %q", column)
	}
	return nil
}

// writeInterval assigns a node's interval directly (bypassing the
// public SetNestedSetsInterval validation, which Connect's internal
// bookkeeping does not need since it always computes valid endpoints).
func (s *Store) writeInterval(ctx context.Context, tx *store.Tx, id string, left, right int64) error {
	stmt, err := tx.Prepare(fmt.Sprintf(`UPDATE %s SET left = ?, right = ? WHERE id = ?`, NodeTable))
	if err != nil {
		return err
	}
	defer stmt.Finalise()
	stmt.BindInt64(1, left)
	stmt.BindInt64(2, right)
	stmt.BindText(3, id)
	if stmt.Step(ctx) != store.StepDone {
		return fmt.Errorf("graph: writeInterval failed for %q", id)
	}
	return nil
}
