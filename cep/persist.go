package cep

import (
	"context"
	"fmt"
	"strings"

	"github.com/untoldecay/graphcep/internal/schema"
	"github.com/untoldecay/graphcep/internal/sqltype"
	"github.com/untoldecay/graphcep/internal/store"
)

// PersistArchived drains a frame's ArchivedRows into the relational
// store via the table manager and store facade, then clears the
// in-memory archive. This is a reference persister, not part of the
// distilled spec's CEP Data Frame contract — spec.md §4.7 documents the
// end-to-end flow assuming *some* persister exists; this lets the CEP
// subsystem be exercised without an external one.
//
// The destination table is created on first use with one TEXT column
// per header field (feeder data is untyped CSV text, so every column is
// TEXT — a caller wanting typed columns should pre-register the table's
// descriptor with its own schema.Manager instead).
func (a *Arena) PersistArchived(ctx context.Context, h *store.Handle, mgr *schema.Manager, tableName string) (int, error) {
	frame, ok := a.Find(tableName)
	if !ok {
		return 0, ErrNotFound
	}
	if len(frame.ArchivedRows) == 0 {
		return 0, nil
	}

	if mgr.FindColumnList(tableName) == nil {
		cols := schema.NewColumnList()
		for _, field := range strings.Split(frame.ColumnHeader, ",") {
			col := schema.NewColumn(field, sqltype.Text)
			if col == nil {
				return 0, fmt.Errorf("cep: invalid column name %q in header for table %q", field, tableName)
			}
			col.WithNullable()
			cols.Append(col)
		}
		mgr.Register(tableName, cols)
	}

	if err := mgr.CreateAllTables(ctx, h); err != nil {
		return 0, fmt.Errorf("cep: PersistArchived: %w", err)
	}

	columns := mgr.FindColumnList(tableName)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", columns.Len()), ", ")
	insertSQL := fmt.Sprintf(`INSERT INTO '%s' VALUES (%s)`, tableName, placeholders)

	tx, ok := h.Begin(ctx)
	if !ok {
		return 0, fmt.Errorf("cep: PersistArchived: failed to begin transaction")
	}
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("cep: PersistArchived: prepare: %w", err)
	}

	written := 0
	for _, row := range frame.ArchivedRows {
		fields := strings.Split(row, ",")
		if len(fields) != columns.Len() {
			stmt.Finalise()
			tx.Rollback()
			return 0, fmt.Errorf("cep: PersistArchived: row %q has %d fields, want %d", row, len(fields), columns.Len())
		}
		for i, field := range fields {
			stmt.BindText(i+1, field)
		}
		if stmt.Step(ctx) != store.StepDone {
			stmt.Finalise()
			tx.Rollback()
			return 0, fmt.Errorf("cep: PersistArchived: insert failed for row %q", row)
		}
		stmt.Reset()
		written++
	}
	stmt.Finalise()

	if !tx.Commit() {
		return 0, fmt.Errorf("cep: PersistArchived: commit failed")
	}

	frame.ArchivedRows = frame.ArchivedRows[:0]
	return written, nil
}
