package store

import (
	"context"
	"testing"
)

func TestOpenAndPragmas(t *testing.T) {
	ctx := context.Background()
	h, err := Open(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if !h.SetUTF8(ctx) {
		t.Fatalf("SetUTF8 failed")
	}
	if !h.SetAutoVacuum(ctx, true) {
		t.Fatalf("SetAutoVacuum failed")
	}
	if !h.SetSynchronousNormalOrOff(ctx, false) {
		t.Fatalf("SetSynchronousNormalOrOff failed")
	}
}

func TestExecuteUpdateAndTableExists(t *testing.T) {
	ctx := context.Background()
	h, err := Open(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if h.TableExists(ctx, "widgets") {
		t.Fatalf("TableExists(widgets) = true before creation")
	}
	if !h.ExecuteUpdate(ctx, `CREATE TABLE widgets (id TEXT PRIMARY KEY)`) {
		t.Fatalf("ExecuteUpdate CREATE TABLE failed")
	}
	if !h.TableExists(ctx, "widgets") {
		t.Fatalf("TableExists(widgets) = false after creation")
	}
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	h, err := Open(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if !h.ExecuteUpdate(ctx, `CREATE TABLE widgets (id TEXT PRIMARY KEY)`) {
		t.Fatalf("ExecuteUpdate CREATE TABLE failed")
	}

	tx, ok := h.Begin(ctx)
	if !ok {
		t.Fatalf("Begin failed")
	}
	stmt, err := tx.Prepare(`INSERT INTO widgets (id) VALUES (?)`)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	stmt.BindText(1, "a")
	if stmt.Step(ctx) != StepDone {
		t.Fatalf("insert step did not complete")
	}
	stmt.Finalise()
	tx.Rollback()

	var count int
	if err := h.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM widgets`).Scan(&count); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d after rollback, want 0", count)
	}
}

func TestStatementReuseWithReset(t *testing.T) {
	ctx := context.Background()
	h, err := Open(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if !h.ExecuteUpdate(ctx, `CREATE TABLE widgets (id TEXT PRIMARY KEY)`) {
		t.Fatalf("ExecuteUpdate CREATE TABLE failed")
	}

	stmt, err := h.Prepare(ctx, `INSERT INTO widgets (id) VALUES (?)`)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer stmt.Finalise()

	for _, id := range []string{"a", "b", "c"} {
		stmt.BindText(1, id)
		if stmt.Step(ctx) != StepDone {
			t.Fatalf("insert step for %q did not complete", id)
		}
		stmt.Reset()
	}

	var count int
	if err := h.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM widgets`).Scan(&count); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}
