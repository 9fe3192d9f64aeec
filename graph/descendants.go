package graph

import (
	"context"
	"fmt"

	"github.com/untoldecay/graphcep/internal/store"
)

// Descendants returns every node strictly contained in id's interval,
// ordered by interval left ascending (pre-order), which is a single
// range predicate thanks to the Nested Sets encoding — no recursive
// query needed, unlike an adjacency-list representation.
func (s *Store) Descendants(ctx context.Context, h *store.Handle, id string) ([]string, error) {
	iv, err := s.getInterval(ctx, h, id)
	if err != nil {
		return nil, err
	}
	if !iv.assigned {
		return nil, nil
	}

	rows, err := h.DB().QueryContext(ctx, fmt.Sprintf(
		`SELECT id FROM %s WHERE left > ? AND right < ? ORDER BY left ASC`, NodeTable),
		iv.left, iv.right)
	if err != nil {
		return nil, fmt.Errorf("graph: Descendants query: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// Ancestors returns every node whose interval strictly contains id's,
// nearest ancestor first: a strict ancestor's interval is narrower the
// closer it sits to id, so ordering by interval width ascending gives
// nearest-first without walking the tree.
func (s *Store) Ancestors(ctx context.Context, h *store.Handle, id string) ([]string, error) {
	iv, err := s.getInterval(ctx, h, id)
	if err != nil {
		return nil, err
	}
	if !iv.assigned {
		return nil, nil
	}

	rows, err := h.DB().QueryContext(ctx, fmt.Sprintf(
		`SELECT id FROM %s WHERE left < ? AND right > ? ORDER BY (right - left) ASC`, NodeTable),
		iv.left, iv.right)
	if err != nil {
		return nil, fmt.Errorf("graph: Ancestors query: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]string, error) {
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("graph: scanIDs: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graph: scanIDs iteration: %w", err)
	}
	return out, nil
}
