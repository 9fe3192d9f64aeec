package cep

// Frame is one node in the arena: the CEP buffer unit for one logical
// table (spec.md §3 — "Data frame" in the glossary, not a tabular
// in-memory structure).
type Frame struct {
	// TableName is the unique key within the arena.
	TableName string
	// ColumnHeader is the CSV header row verbatim (CRLF stripped),
	// immutable once set (spec.md §3 CEP invariant 2).
	ColumnHeader string
	// PendingRows are CSV data lines not yet promoted, oldest first.
	PendingRows []string
	// ArchivedRows are CSV data lines already promoted, oldest first.
	ArchivedRows []string
}
