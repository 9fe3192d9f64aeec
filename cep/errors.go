// Package cep implements the per-table CEP record buffer: an arena of
// frames that stage CSV rows between an external feeder and a persister
// (spec.md §4.6).
package cep

import "errors"

var (
	// ErrEmptyTableName is returned when a table name argument is empty.
	ErrEmptyTableName = errors.New("cep: table name must not be empty")
	// ErrNoDataRows is returned when csvText has a header but no data
	// rows, or is entirely empty.
	ErrNoDataRows = errors.New("cep: no data rows present")
	// ErrBadLineEnding is returned when csvText uses bare LF instead of
	// CRLF row separators (spec.md §4.6.2: LF-only input is rejected).
	ErrBadLineEnding = errors.New("cep: expected CRLF row separator")
	// ErrNotFound is returned by operations on a table name the arena
	// has no frame for.
	ErrNotFound = errors.New("cep: no frame for table")
	// ErrArityMismatch is returned when an ingested row's comma count
	// does not match the governing header: the frame's stored header, or
	// the incoming header for a table with no frame yet (spec.md §3 CEP
	// invariant 3).
	ErrArityMismatch = errors.New("cep: row arity does not match header")
)
