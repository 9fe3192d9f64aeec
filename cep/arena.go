package cep

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/untoldecay/graphcep/internal/applog"
)

// Arena holds the per-table frame sequence as an index-addressed slice,
// replacing the source's doubly-linked self-loop list (spec.md §9 Design
// Notes, option (b) — frames are small, numerous, and benefit from
// locality).
type Arena struct {
	frames []*Frame
	byName map[string]int
	log    *applog.Logger
}

// NewArena returns an empty arena.
func NewArena(log *applog.Logger) *Arena {
	if log == nil {
		log = applog.Discard()
	}
	return &Arena{byName: make(map[string]int), log: log}
}

// Find does a linear-cost-free (map) lookup by exact table name.
func (a *Arena) Find(tableName string) (*Frame, bool) {
	idx, ok := a.byName[tableName]
	if !ok {
		return nil, false
	}
	return a.frames[idx], true
}

// Size returns the number of frames in the arena.
func (a *Arena) Size() int { return len(a.frames) }

// Remove unlinks the frame for tableName. Siblings are untouched; the
// slice is compacted and the name index rebuilt for the shifted tail.
func (a *Arena) Remove(tableName string) bool {
	idx, ok := a.byName[tableName]
	if !ok {
		return false
	}
	a.frames = append(a.frames[:idx], a.frames[idx+1:]...)
	delete(a.byName, tableName)
	for i := idx; i < len(a.frames); i++ {
		a.byName[a.frames[i].TableName] = i
	}
	return true
}

// IngestCSV locates (or creates) the frame for tableName and appends its
// data rows to PendingRows, per spec.md §4.6.2. The header row becomes
// the frame's ColumnHeader only on the first ingest for that table.
//
// Open Question #3 (spec.md §9) resolution: a header mismatch on a later
// ingest is not treated as an error — matching source behaviour — but is
// logged at debug level so drift is observable without failing ingest.
func (a *Arena) IngestCSV(tableName, csvText string) (int, error) {
	if tableName == "" {
		return -1, ErrEmptyTableName
	}

	lines, err := splitCSVLines(csvText)
	if err != nil {
		a.log.Error("cep", "IngestCSV", "failed to parse csv", "table", tableName, "err", err)
		return -1, err
	}
	if len(lines) < 2 {
		// Header only, no data rows.
		a.log.Error("cep", "IngestCSV", "no data rows present", "table", tableName)
		return -1, ErrNoDataRows
	}

	header := lines[0]
	dataRows := lines[1:]

	frame, exists := a.Find(tableName)

	// Validate every row's arity against the governing header (the stored
	// header for an existing frame, the incoming one for a new frame)
	// *before* registering anything: a frame-creation failure must leave no
	// trace (spec.md §4.6.4), so a bad row must never reach an append or an
	// index entry.
	governingHeader := header
	if exists {
		governingHeader = frame.ColumnHeader
	}
	arity := countCommas(governingHeader) + 1
	for _, row := range dataRows {
		if countCommas(row)+1 != arity {
			a.log.Error("cep", "IngestCSV", "row arity mismatch", "table", tableName, "row", row, "want", arity)
			return -1, ErrArityMismatch
		}
	}

	if !exists {
		frame = &Frame{TableName: tableName, ColumnHeader: header}
		a.frames = append(a.frames, frame)
		a.byName[tableName] = len(a.frames) - 1
	} else if frame.ColumnHeader != header {
		a.log.Debug("cep", "IngestCSV", "header differs from stored header, ignoring",
			"table", tableName, "stored", frame.ColumnHeader, "incoming", header)
	}

	frame.PendingRows = append(frame.PendingRows, dataRows...)
	return len(dataRows), nil
}

// MovePendingToArchived appends every PendingRows element to the tail of
// ArchivedRows in order and empties PendingRows. Returns a batch id a
// downstream persister can key on for idempotent draining (domain-stack
// wiring: google/uuid, SPEC_FULL.md §3).
func (a *Arena) MovePendingToArchived(tableName string) (batchID string, movedCount int, err error) {
	frame, ok := a.Find(tableName)
	if !ok {
		return "", 0, ErrNotFound
	}
	if len(frame.PendingRows) == 0 {
		return "", 0, nil
	}

	moved := make([]string, len(frame.PendingRows))
	copy(moved, frame.PendingRows)

	frame.ArchivedRows = append(frame.ArchivedRows, moved...)
	frame.PendingRows = frame.PendingRows[:0]

	return uuid.NewString(), len(moved), nil
}

// AllTableNames returns every frame's table name, head to tail, mostly
// useful for a persister's sweep loop.
func (a *Arena) AllTableNames() []string {
	names := make([]string, len(a.frames))
	for i, f := range a.frames {
		names[i] = f.TableName
	}
	return names
}

// String implements a compact arena summary, handy for debug logging.
func (a *Arena) String() string {
	return fmt.Sprintf("cep.Arena{frames=%d}", len(a.frames))
}
