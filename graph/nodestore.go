// Package graph implements the Nested Sets node store and the facade that
// exposes it: the central core described in spec.md §4.4-4.5.
package graph

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/untoldecay/graphcep/internal/applog"
	"github.com/untoldecay/graphcep/internal/idgen"
	"github.com/untoldecay/graphcep/internal/store"
)

// NodeTable is the table name the node store bootstraps and reads/writes.
// Renamed from the original source's m2m_node (§4 Data Model).
const NodeTable = "graph_node"

const createNodeTableSQL = `CREATE TABLE ` + NodeTable + ` (
  id       TEXT    PRIMARY KEY NOT NULL UNIQUE,
  name     TEXT,
  property TEXT,
  left     NUMERIC,
  right    NUMERIC
)`

const maxIDRetries = 5

// Store is the Node Store: node record CRUD plus Nested Sets interval
// read/write, keyed by a randomised hex-8 identifier. A Store owns one id
// generator; it does not own a database handle (that is the Facade's
// job) so the same Store can, in principle, serve several handles.
type Store struct {
	gen *idgen.Generator
	log *applog.Logger
}

// NewStore returns a Store with a fresh crypto-seeded id generator.
func NewStore(log *applog.Logger) *Store {
	if log == nil {
		log = applog.Discard()
	}
	return &Store{gen: idgen.New(), log: log}
}

// ensureTable bootstraps graph_node the first time it's needed. Safe to
// call repeatedly (spec.md §8 property 5: idempotent table creation).
func (s *Store) ensureTable(ctx context.Context, h *store.Handle) error {
	if h.TableExists(ctx, NodeTable) {
		return nil
	}
	tx, ok := h.Begin(ctx)
	if !ok {
		return fmt.Errorf("graph: failed to begin transaction for table bootstrap")
	}
	if !tx.ExecuteUpdate(createNodeTableSQL) {
		tx.Rollback()
		return fmt.Errorf("graph: failed to create %s", NodeTable)
	}
	if !tx.Commit() {
		return fmt.Errorf("graph: failed to commit table bootstrap")
	}
	return nil
}

// AddNode inserts a new node with a freshly generated id and unassigned
// interval, retrying on id collision up to maxIDRetries times.
func (s *Store) AddNode(ctx context.Context, h *store.Handle, name string, property string, hasProperty bool) (string, error) {
	if name == "" {
		s.log.Error("graph", "AddNode", "empty name rejected")
		return "", ErrEmptyName
	}
	if err := s.ensureTable(ctx, h); err != nil {
		return "", err
	}

	for attempt := 0; attempt < maxIDRetries; attempt++ {
		id := s.gen.NextHex8()

		tx, ok := h.Begin(ctx)
		if !ok {
			return "", fmt.Errorf("graph: failed to begin transaction for AddNode")
		}

		stmt, err := tx.Prepare(fmt.Sprintf(
			`INSERT INTO %s (id, name, property, left, right) VALUES (?, ?, ?, NULL, NULL)`, NodeTable))
		if err != nil {
			tx.Rollback()
			return "", fmt.Errorf("graph: prepare insert: %w", err)
		}

		stmt.BindText(1, id)
		stmt.BindText(2, name)
		stmt.BindNullText(3, property, hasProperty)

		result := stmt.Step(ctx)
		stmt.Finalise()

		if result == store.StepDone {
			if !tx.Commit() {
				return "", fmt.Errorf("graph: failed to commit AddNode")
			}
			return id, nil
		}

		tx.Rollback()
		s.log.Warn("graph", "AddNode", "id collision or insert failure, retrying", "attempt", attempt, "id", id)
	}

	s.log.Error("graph", "AddNode", "exhausted retries", "name", name)
	return "", ErrIDCollision
}

// DeleteNode removes exactly the row with the given id. No cascade
// (spec.md §3 Node lifecycle).
func (s *Store) DeleteNode(ctx context.Context, h *store.Handle, id string) error {
	stmt, err := h.Prepare(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, NodeTable))
	if err != nil {
		return fmt.Errorf("graph: prepare delete: %w", err)
	}
	defer stmt.Finalise()
	stmt.BindText(1, id)
	if stmt.Step(ctx) != store.StepDone {
		return fmt.Errorf("graph: delete failed for id %q", id)
	}
	return nil
}

// GetID looks up a node's id by exact name match. If multiple nodes
// share the name the first encountered (unspecified order beyond
// spec.md, which does not constrain uniqueness of name) is returned.
func (s *Store) GetID(ctx context.Context, h *store.Handle, name string) (string, error) {
	var id string
	err := h.DB().QueryRowContext(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE name = ?`, NodeTable), name).Scan(&id)
	if err != nil {
		return "", ErrNotFound
	}
	return id, nil
}

// GetName looks up a node's name by id.
func (s *Store) GetName(ctx context.Context, h *store.Handle, id string) (string, error) {
	var name string
	err := h.DB().QueryRowContext(ctx, fmt.Sprintf(`SELECT name FROM %s WHERE id = ?`, NodeTable), id).Scan(&name)
	if err != nil {
		return "", ErrNotFound
	}
	return name, nil
}

// GetProperty looks up a node's property by id. ok is false when the
// property column is NULL or the node doesn't exist.
func (s *Store) GetProperty(ctx context.Context, h *store.Handle, id string) (value string, ok bool, err error) {
	var prop *string
	dbErr := h.DB().QueryRowContext(ctx, fmt.Sprintf(`SELECT property FROM %s WHERE id = ?`, NodeTable), id).Scan(&prop)
	if dbErr != nil {
		return "", false, ErrNotFound
	}
	if prop == nil {
		return "", false, nil
	}
	return *prop, true, nil
}

// GetIDList returns every node id, ordered by name ascending, rendering
// each underlying SQL value according to its runtime type (spec.md
// §4.4.6): integer/float render as decimal text, text passes through,
// blob is base64-encoded, null is skipped.
func (s *Store) GetIDList(ctx context.Context, h *store.Handle) ([]string, error) {
	rows, err := h.DB().QueryContext(ctx, fmt.Sprintf(`SELECT id FROM %s ORDER BY name ASC`, NodeTable))
	if err != nil {
		return nil, fmt.Errorf("graph: GetIDList query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("graph: GetIDList scan: %w", err)
		}
		rendered, skip := renderCell(raw)
		if skip {
			continue
		}
		out = append(out, rendered)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graph: GetIDList iteration: %w", err)
	}
	return out, nil
}

func renderCell(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", true
	case int64:
		return strconv.FormatInt(v, 10), false
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), false
	case string:
		return v, false
	case []byte:
		return base64.StdEncoding.EncodeToString(v), false
	default:
		return fmt.Sprintf("%v", v), false
	}
}

// interval is the Nested Sets (left, right) pair. Assigned reports
// whether both endpoints are set.
type interval struct {
	left, right int64
	assigned    bool
}

// getInterval reads a node's current interval.
func (s *Store) getInterval(ctx context.Context, h *store.Handle, id string) (interval, error) {
	var left, right *int64
	err := h.DB().QueryRowContext(ctx, fmt.Sprintf(`SELECT left, right FROM %s WHERE id = ?`, NodeTable), id).Scan(&left, &right)
	if err != nil {
		return interval{}, ErrNotFound
	}
	if left == nil || right == nil {
		return interval{}, nil
	}
	return interval{left: *left, right: *right, assigned: true}, nil
}

// SetNestedSetsInterval updates or resets a node's interval per spec.md
// §4.4.7: (left>0, right>0, left!=right) assigns; (0,0) resets to
// unassigned; anything else is rejected without modifying the row. The
// storage layer does not enforce invariants 1-2 here — that is Connect's
// job (§5.4.1).
func (s *Store) SetNestedSetsInterval(ctx context.Context, h *store.Handle, id string, left, right int64) (string, error) {
	if left == 0 && right == 0 {
		stmt, err := h.Prepare(ctx, fmt.Sprintf(`UPDATE %s SET left = NULL, right = NULL WHERE id = ?`, NodeTable))
		if err != nil {
			return "", fmt.Errorf("graph: prepare interval reset: %w", err)
		}
		defer stmt.Finalise()
		stmt.BindText(1, id)
		if stmt.Step(ctx) != store.StepDone {
			return "", fmt.Errorf("graph: interval reset failed for %q", id)
		}
		return id, nil
	}

	if left <= 0 || right <= 0 || left == right {
		s.log.Error("graph", "SetNestedSetsInterval", "rejected invalid interval", "id", id, "left", left, "right", right)
		return "", ErrInvalidInterval
	}

	stmt, err := h.Prepare(ctx, fmt.Sprintf(`UPDATE %s SET left = ?, right = ? WHERE id = ?`, NodeTable))
	if err != nil {
		return "", fmt.Errorf("graph: prepare interval update: %w", err)
	}
	defer stmt.Finalise()
	stmt.BindInt64(1, left)
	stmt.BindInt64(2, right)
	stmt.BindText(3, id)
	if stmt.Step(ctx) != store.StepDone {
		return "", fmt.Errorf("graph: interval update failed for %q", id)
	}
	return id, nil
}
