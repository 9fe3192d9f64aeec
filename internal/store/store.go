// Package store is the relational-store facade: the only place in this
// repository that imports database/sql and the sqlite driver directly.
// The node store, the table manager, and the CEP persister all speak to
// the backing database exclusively through this package.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver" // registers the "sqlite3" driver
	_ "github.com/ncruces/go-sqlite3/embed"   // embeds the WASM sqlite3 build, no cgo

	"github.com/untoldecay/graphcep/internal/applog"
	"github.com/untoldecay/graphcep/internal/sqltype"
)

// ErrInvalidArgument names the invalid-argument error category. The
// facade's own methods do not return it: they report a rejected argument
// by logging and returning false.
var ErrInvalidArgument = errors.New("store: invalid argument")

// Handle is an opaque reference to an opened database session, matching
// the spec's Handle concept. It owns exactly one *sql.DB.
type Handle struct {
	db     *sql.DB
	path   string
	log    *applog.Logger
	maxCol int
}

const defaultMaxColumnsPerTable = 2000

// Open opens path (or the literal ":memory:") as a SQLite database. If
// path has no file extension and isn't ":memory:", ".sqlite" is appended.
// Foreign keys are enabled at open time through the DSN; the DSN sets no
// option for extended result codes.
func Open(ctx context.Context, path string, log *applog.Logger) (*Handle, error) {
	if log == nil {
		log = applog.Discard()
	}
	resolved := path
	if path != ":memory:" && filepath.Ext(path) == "" {
		resolved = path + ".sqlite"
	}

	dsn := resolved
	if resolved != ":memory:" {
		dsn = "file:" + resolved + "?_pragma=foreign_keys(1)"
	} else {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Error("store", "Open", "failed to open database", "path", resolved, "err", err)
		return nil, fmt.Errorf("store: open %q: %w", resolved, err)
	}
	db.SetMaxOpenConns(1) // single-writer model, §5 concurrency

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		log.Error("store", "Open", "failed to ping database", "path", resolved, "err", err)
		return nil, fmt.Errorf("store: ping %q: %w", resolved, err)
	}

	h := &Handle{db: db, path: resolved, log: log, maxCol: defaultMaxColumnsPerTable}
	return h, nil
}

// Close releases every outstanding resource and closes the database. Safe
// to call on a partially-initialised Handle (nil db).
func (h *Handle) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	if err := h.db.Close(); err != nil {
		h.log.Error("store", "Close", "failed to close database", "err", err)
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// DB exposes the underlying *sql.DB for callers (schema, graph, cep) that
// need database/sql's richer query surface beyond Prepare/Bind/Step. The
// facade still owns transaction bracketing.
func (h *Handle) DB() *sql.DB { return h.db }

// Path returns the resolved on-disk path (or ":memory:").
func (h *Handle) Path() string { return h.path }

// MaxColumnsPerTable returns the store's configured limit.
func (h *Handle) MaxColumnsPerTable() int { return h.maxCol }

// Tx wraps an open transaction bracket.
type Tx struct {
	tx  *sql.Tx
	h   *Handle
	ctx context.Context
}

// Begin starts a transaction. Returns the Tx and true on success.
func (h *Handle) Begin(ctx context.Context) (*Tx, bool) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		h.log.Error("store", "Begin", "failed to begin transaction", "err", err)
		return nil, false
	}
	return &Tx{tx: tx, h: h, ctx: ctx}, true
}

// Commit commits the transaction. Returns false (and logs) on failure.
func (t *Tx) Commit() bool {
	if err := t.tx.Commit(); err != nil {
		t.h.log.Error("store", "Commit", "failed to commit transaction", "err", err)
		return false
	}
	return true
}

// Rollback rolls back the transaction. Returns false (and logs) on
// failure; rolling back an already-committed/rolled-back Tx is not an
// error from the caller's perspective (sql.ErrTxDone is swallowed).
func (t *Tx) Rollback() bool {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		t.h.log.Error("store", "Rollback", "failed to roll back transaction", "err", err)
		return false
	}
	return true
}

// ExecuteUpdate prepares sql, steps it once expecting completion, and
// finalises it. Intended for DDL and single-shot statements, not hot
// insert loops — callers doing hot writes should Prepare once via
// Prepare (or Tx.Prepare) and reuse the Statement.
func (h *Handle) ExecuteUpdate(ctx context.Context, sql string) bool {
	return h.executeUpdate(ctx, h.db, sql)
}

// ExecuteUpdate is Handle.ExecuteUpdate scoped to an open transaction.
func (t *Tx) ExecuteUpdate(sql string) bool {
	return t.h.executeUpdate(t.ctx, t.tx, sql)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (h *Handle) executeUpdate(ctx context.Context, e execer, query string) bool {
	if _, err := e.ExecContext(ctx, query); err != nil {
		h.log.Error("store", "ExecuteUpdate", "statement failed", "sql", query, "err", err)
		return false
	}
	return true
}

// Statement is a prepared, bindable, reusable representation of one SQL
// statement. Bindings accumulate via Bind and take effect on Step.
type Statement struct {
	raw    *sql.Stmt
	h      *Handle
	ctx    context.Context
	query  string
	args   []any
	rows   *sql.Rows
	cols   []string
	opened bool
}

// Prepare returns a prepared statement with bindings reset. Callers must
// call Finalise when done.
func (h *Handle) Prepare(ctx context.Context, query string) (*Statement, error) {
	return h.prepareOn(ctx, h.db, query)
}

// Prepare scoped to an open transaction.
func (t *Tx) Prepare(query string) (*Statement, error) {
	return t.h.prepareOn(t.ctx, t.tx, query)
}

type preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (h *Handle) prepareOn(ctx context.Context, p preparer, query string) (*Statement, error) {
	raw, err := p.PrepareContext(ctx, query)
	if err != nil {
		h.log.Error("store", "Prepare", "failed to prepare statement", "sql", query, "err", err)
		return nil, fmt.Errorf("store: prepare: %w", err)
	}
	return &Statement{raw: raw, h: h, ctx: ctx, query: query}, nil
}

// StepResult is the outcome of one Step call.
type StepResult int

const (
	StepError StepResult = iota
	StepRow
	StepDone
)

// Bind switches on tag and binds value (raw bytes, parsed according to
// tag) at the given 1-based index, per the wire contract external
// feeders rely on.
func (s *Statement) Bind(index int, tag sqltype.Tag, value []byte) bool {
	if index < 1 {
		s.h.log.Error("store", "Bind", "index must be 1-based", "index", index)
		return false
	}
	for len(s.args) < index {
		s.args = append(s.args, nil)
	}

	var bound any
	switch tag {
	case sqltype.Blob:
		buf := make([]byte, len(value))
		copy(buf, value)
		bound = buf
	case sqltype.Bool:
		text := string(value)
		if text == "true" || text == "TRUE" {
			bound = int64(1)
		} else {
			bound = int64(0)
		}
	case sqltype.Char, sqltype.Text:
		bound = string(value)
	case sqltype.Varchar:
		bound = string(value)
	case sqltype.Datetime, sqltype.Numeric:
		n, err := strconv.ParseInt(strings.TrimSpace(string(value)), 10, 64)
		if err != nil {
			s.h.log.Error("store", "Bind", "failed to parse integer", "tag", tag, "err", err)
			return false
		}
		bound = n
	case sqltype.Integer:
		n, err := strconv.ParseInt(strings.TrimSpace(string(value)), 10, 32)
		if err != nil {
			s.h.log.Error("store", "Bind", "failed to parse int32", "err", err)
			return false
		}
		bound = int32(n)
	case sqltype.Double, sqltype.Float, sqltype.Real:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(value)), 64)
		if err != nil {
			s.h.log.Error("store", "Bind", "failed to parse float", "err", err)
			return false
		}
		bound = f
	case sqltype.Null:
		bound = nil
	default:
		s.h.log.Error("store", "Bind", "unknown type tag", "tag", tag)
		return false
	}

	s.args[index-1] = bound
	return true
}

// BindText is a convenience wrapper used throughout graph and cep for
// the common case of binding a Go string: it calls Bind with the Text
// tag, which stores the bytes as a string without parsing them.
func (s *Statement) BindText(index int, value string) bool {
	return s.Bind(index, sqltype.Text, []byte(value))
}

// BindNullText binds a string, or NULL when ok is false.
func (s *Statement) BindNullText(index int, value string, ok bool) bool {
	if !ok {
		return s.Bind(index, sqltype.Null, nil)
	}
	return s.BindText(index, value)
}

// BindInt64 binds a signed 64-bit integer directly.
func (s *Statement) BindInt64(index int, value int64) bool {
	for len(s.args) < index {
		s.args = append(s.args, nil)
	}
	s.args[index-1] = value
	return true
}

// BindNullInt64 binds an int64, or NULL when ok is false.
func (s *Statement) BindNullInt64(index int, value int64, ok bool) bool {
	if !ok {
		return s.Bind(index, sqltype.Null, nil)
	}
	return s.BindInt64(index, value)
}

// Step executes the statement (on first call) and advances one row.
// Busy errors are retried in a bounded tight loop (§5.1 redesign: capped
// rather than unbounded) until progress is made or the cap is reached.
func (s *Statement) Step(ctx context.Context) StepResult {
	const maxBusyRetries = 50
	if !s.opened {
		s.opened = true
		if isQuery(s.query) {
			var rows *sql.Rows
			var err error
			for attempt := 0; attempt < maxBusyRetries; attempt++ {
				rows, err = s.raw.QueryContext(ctx, s.args...)
				if err == nil || !isBusy(err) {
					break
				}
				time.Sleep(time.Millisecond)
			}
			if err != nil {
				s.h.log.Error("store", "Step", "query failed", "sql", s.query, "err", err)
				return StepError
			}
			s.rows = rows
			cols, _ := rows.Columns()
			s.cols = cols
		} else {
			var err error
			for attempt := 0; attempt < maxBusyRetries; attempt++ {
				_, err = s.raw.ExecContext(ctx, s.args...)
				if err == nil || !isBusy(err) {
					break
				}
				time.Sleep(time.Millisecond)
			}
			if err != nil {
				s.h.log.Error("store", "Step", "exec failed", "sql", s.query, "err", err)
				return StepError
			}
			return StepDone
		}
	}
	if s.rows == nil {
		return StepDone
	}
	if s.rows.Next() {
		return StepRow
	}
	if err := s.rows.Err(); err != nil {
		s.h.log.Error("store", "Step", "row iteration failed", "err", err)
		return StepError
	}
	return StepDone
}

// Scan copies the current row's columns into dest, as database/sql.Rows.Scan.
func (s *Statement) Scan(dest ...any) error {
	if s.rows == nil {
		return fmt.Errorf("store: Scan called with no open row cursor")
	}
	return s.rows.Scan(dest...)
}

// ColumnCount returns the number of columns in the current result set.
func (s *Statement) ColumnCount() int { return len(s.cols) }

// Reset clears bindings and execution state so a prepared Statement can
// be stepped again with new bound values — the "prepare once, reuse" hot
// path spec.md §4.1 calls out for hot write loops.
func (s *Statement) Reset() {
	if s.rows != nil {
		_ = s.rows.Close()
		s.rows = nil
	}
	s.opened = false
	s.args = nil
}

// Finalise releases the prepared statement and any open row cursor.
func (s *Statement) Finalise() {
	if s.rows != nil {
		_ = s.rows.Close()
		s.rows = nil
	}
	if s.raw != nil {
		_ = s.raw.Close()
		s.raw = nil
	}
	s.args = nil
}

func isQuery(q string) bool {
	trimmed := strings.TrimSpace(strings.ToUpper(q))
	return strings.HasPrefix(trimmed, "SELECT") || strings.HasPrefix(trimmed, "PRAGMA") || strings.HasPrefix(trimmed, "WITH")
}

func isBusy(err error) bool {
	return strings.Contains(strings.ToUpper(err.Error()), "BUSY")
}

// TableExists runs a single-row query against sqlite_master.
func (h *Handle) TableExists(ctx context.Context, tableName string) bool {
	var count int
	err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, tableName,
	).Scan(&count)
	if err != nil {
		h.log.Error("store", "TableExists", "query failed", "table", tableName, "err", err)
		return false
	}
	return count > 0
}

// BuildTableInfoSQL produces the PRAGMA table_info statement for tableName.
// tableName is embedded directly because SQLite does not support binding
// identifiers in PRAGMA statements; callers must only pass
// already-validated table names (never untrusted input).
func BuildTableInfoSQL(tableName string) string {
	return fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName))
}

func quoteIdent(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// --- Pragma helpers -------------------------------------------------------

func (h *Handle) SetAutoVacuum(ctx context.Context, on bool) bool {
	mode := "NONE"
	if on {
		mode = "FULL"
	}
	return h.ExecuteUpdate(ctx, "PRAGMA auto_vacuum = "+mode)
}

func (h *Handle) SetSynchronousNormalOrOff(ctx context.Context, normal bool) bool {
	mode := "OFF"
	if normal {
		mode = "NORMAL"
	}
	return h.ExecuteUpdate(ctx, "PRAGMA synchronous = "+mode)
}

func (h *Handle) SetUTF8(ctx context.Context) bool {
	return h.ExecuteUpdate(ctx, "PRAGMA encoding = 'UTF-8'")
}

func (h *Handle) SetWALJournal(ctx context.Context) bool {
	return h.ExecuteUpdate(ctx, "PRAGMA journal_mode = WAL")
}

func (h *Handle) Vacuum(ctx context.Context) bool {
	return h.ExecuteUpdate(ctx, "VACUUM")
}
