package cep

import (
	"context"
	"testing"

	"github.com/untoldecay/graphcep/internal/schema"
	"github.com/untoldecay/graphcep/internal/store"
)

func TestIngestCSVRejectsEmptyTableName(t *testing.T) {
	a := NewArena(nil)
	if _, err := a.IngestCSV("", "a,b\r\n1,2\r\n"); err != ErrEmptyTableName {
		t.Fatalf("IngestCSV(\"\") = %v, want ErrEmptyTableName", err)
	}
}

func TestIngestCSVRejectsBareLF(t *testing.T) {
	a := NewArena(nil)
	if _, err := a.IngestCSV("t", "a,b\n1,2\n"); err != ErrBadLineEnding {
		t.Fatalf("IngestCSV(bare LF) = %v, want ErrBadLineEnding", err)
	}
}

func TestIngestCSVRejectsHeaderOnly(t *testing.T) {
	a := NewArena(nil)
	if _, err := a.IngestCSV("t", "a,b\r\n"); err != ErrNoDataRows {
		t.Fatalf("IngestCSV(header only) = %v, want ErrNoDataRows", err)
	}
}

func TestIngestCSVRejectsArityMismatch(t *testing.T) {
	a := NewArena(nil)
	if _, err := a.IngestCSV("t", "a,b,c\r\n1,2\r\n"); err != ErrArityMismatch {
		t.Fatalf("IngestCSV(arity mismatch) = %v, want ErrArityMismatch", err)
	}
}

// TestIngestCSVArityMismatchLeavesNoFrame checks spec.md §4.6.4: a
// frame-creation failure must leave no trace. A first ingest for a new
// table that fails arity validation must not register a ghost frame a
// later, valid ingest would otherwise collide with or silently adopt.
func TestIngestCSVArityMismatchLeavesNoFrame(t *testing.T) {
	a := NewArena(nil)
	if _, err := a.IngestCSV("t", "a,b,c\r\n1,2\r\n"); err != ErrArityMismatch {
		t.Fatalf("IngestCSV(arity mismatch) = %v, want ErrArityMismatch", err)
	}
	if _, ok := a.Find("t"); ok {
		t.Fatalf("Find(t) = true after a failed first ingest, want no frame registered")
	}
	if a.Size() != 0 {
		t.Fatalf("Size() = %d after a failed first ingest, want 0", a.Size())
	}

	n, err := a.IngestCSV("t", "a,b,c\r\n1,2,3\r\n")
	if err != nil {
		t.Fatalf("IngestCSV after prior failure: %v", err)
	}
	if n != 1 {
		t.Fatalf("IngestCSV returned %d rows, want 1", n)
	}
	frame, ok := a.Find("t")
	if !ok || frame.ColumnHeader != "a,b,c" {
		t.Fatalf("Find(t) = %v, %v, want a fresh frame with header \"a,b,c\"", frame, ok)
	}
}

// TestIngestCSVSkipsBlankInteriorRows checks spec.md §4.6.2: only
// non-empty rows are appended to PendingRows; a blank interior line is
// skipped rather than rejected as a zero-arity row.
func TestIngestCSVSkipsBlankInteriorRows(t *testing.T) {
	a := NewArena(nil)
	n, err := a.IngestCSV("t", "a,b\r\n1,2\r\n\r\n3,4\r\n")
	if err != nil {
		t.Fatalf("IngestCSV with a blank interior row: %v", err)
	}
	if n != 2 {
		t.Fatalf("IngestCSV returned %d rows, want 2 (blank row skipped)", n)
	}
	frame, _ := a.Find("t")
	want := []string{"1,2", "3,4"}
	if len(frame.PendingRows) != len(want) {
		t.Fatalf("PendingRows = %v, want %v", frame.PendingRows, want)
	}
	for i, row := range want {
		if frame.PendingRows[i] != row {
			t.Fatalf("PendingRows = %v, want %v", frame.PendingRows, want)
		}
	}
}

func TestIngestCSVAccumulatesPendingRows(t *testing.T) {
	a := NewArena(nil)

	n, err := a.IngestCSV("events", "ts,code\r\n1,ok\r\n2,ok\r\n")
	if err != nil {
		t.Fatalf("IngestCSV: %v", err)
	}
	if n != 2 {
		t.Fatalf("IngestCSV returned %d rows, want 2", n)
	}

	n, err = a.IngestCSV("events", "ts,code\r\n3,ok\r\n")
	if err != nil {
		t.Fatalf("second IngestCSV: %v", err)
	}
	if n != 1 {
		t.Fatalf("second IngestCSV returned %d rows, want 1", n)
	}

	frame, ok := a.Find("events")
	if !ok {
		t.Fatalf("Find(events) = false, want true")
	}
	if len(frame.PendingRows) != 3 {
		t.Fatalf("PendingRows has %d entries, want 3", len(frame.PendingRows))
	}
}

func TestMovePendingToArchived(t *testing.T) {
	a := NewArena(nil)
	if _, err := a.IngestCSV("events", "ts,code\r\n1,ok\r\n2,ok\r\n"); err != nil {
		t.Fatalf("IngestCSV: %v", err)
	}

	batchID, moved, err := a.MovePendingToArchived("events")
	if err != nil {
		t.Fatalf("MovePendingToArchived: %v", err)
	}
	if moved != 2 {
		t.Fatalf("moved = %d, want 2", moved)
	}
	if batchID == "" {
		t.Fatalf("batchID is empty")
	}

	frame, _ := a.Find("events")
	if len(frame.PendingRows) != 0 {
		t.Fatalf("PendingRows not cleared after move: %v", frame.PendingRows)
	}
	if len(frame.ArchivedRows) != 2 {
		t.Fatalf("ArchivedRows has %d entries, want 2", len(frame.ArchivedRows))
	}
}

func TestMovePendingToArchivedUnknownTable(t *testing.T) {
	a := NewArena(nil)
	if _, _, err := a.MovePendingToArchived("nope"); err != ErrNotFound {
		t.Fatalf("MovePendingToArchived(unknown) = %v, want ErrNotFound", err)
	}
}

func TestArenaRemove(t *testing.T) {
	a := NewArena(nil)
	a.IngestCSV("t1", "a\r\n1\r\n")
	a.IngestCSV("t2", "a\r\n1\r\n")
	a.IngestCSV("t3", "a\r\n1\r\n")

	if !a.Remove("t2") {
		t.Fatalf("Remove(t2) = false, want true")
	}
	if a.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", a.Size())
	}
	if _, ok := a.Find("t2"); ok {
		t.Fatalf("Find(t2) after remove = true, want false")
	}
	if _, ok := a.Find("t3"); !ok {
		t.Fatalf("Find(t3) after removing t2 = false, want true (index rebuilt)")
	}
}

func TestPersistArchivedWritesRows(t *testing.T) {
	ctx := context.Background()
	h, err := store.Open(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer h.Close()

	a := NewArena(nil)
	if _, err := a.IngestCSV("events", "ts,code\r\n1,ok\r\n2,fail\r\n"); err != nil {
		t.Fatalf("IngestCSV: %v", err)
	}
	if _, _, err := a.MovePendingToArchived("events"); err != nil {
		t.Fatalf("MovePendingToArchived: %v", err)
	}

	mgr := schema.NewManager(nil)
	written, err := a.PersistArchived(ctx, h, mgr, "events")
	if err != nil {
		t.Fatalf("PersistArchived: %v", err)
	}
	if written != 2 {
		t.Fatalf("PersistArchived wrote %d rows, want 2", written)
	}

	frame, _ := a.Find("events")
	if len(frame.ArchivedRows) != 0 {
		t.Fatalf("ArchivedRows not cleared after persist: %v", frame.ArchivedRows)
	}

	var count int
	if err := h.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM 'events'`).Scan(&count); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 2 {
		t.Fatalf("events table has %d rows, want 2", count)
	}
}

func TestFlushAllPersistsEveryTable(t *testing.T) {
	ctx := context.Background()
	h, err := store.Open(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer h.Close()

	a := NewArena(nil)
	if _, err := a.IngestCSV("events", "ts,code\r\n1,ok\r\n"); err != nil {
		t.Fatalf("IngestCSV(events): %v", err)
	}
	if _, err := a.IngestCSV("alerts", "ts,sev\r\n1,high\r\n2,low\r\n"); err != nil {
		t.Fatalf("IngestCSV(alerts): %v", err)
	}

	mgr := schema.NewManager(nil)
	total, err := a.FlushAll(ctx, h, mgr)
	if err != nil {
		t.Fatalf("FlushAll: %v", err)
	}
	if total != 3 {
		t.Fatalf("FlushAll wrote %d rows total, want 3", total)
	}

	for _, tbl := range []string{"events", "alerts"} {
		var count int
		if err := h.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM '`+tbl+`'`).Scan(&count); err != nil {
			t.Fatalf("count query for %q: %v", tbl, err)
		}
		if count == 0 {
			t.Fatalf("table %q has no rows after FlushAll", tbl)
		}
	}
}
