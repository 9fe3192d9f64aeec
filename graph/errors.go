package graph

import "errors"

var (
	// ErrEmptyName is returned by AddNode when name is empty.
	ErrEmptyName = errors.New("graph: name must not be empty")
	// ErrNotFound is returned by lookups that find no matching row.
	ErrNotFound = errors.New("graph: node not found")
	// ErrInvalidInterval is returned by SetNestedSetsInterval for any
	// combination of left/right other than "both positive and distinct"
	// or "both exactly zero" (spec.md §4.4.7).
	ErrInvalidInterval = errors.New("graph: invalid nested-sets interval")
	// ErrIDCollision is returned after exhausting the bounded retry
	// budget on a primary-key collision.
	ErrIDCollision = errors.New("graph: exhausted id generation retries")
	// ErrSelfConnect is returned when Connect is called with the same id
	// for both ends.
	ErrSelfConnect = errors.New("graph: cannot connect a node to itself")
	// ErrCyclicConnect is returned when Connect would re-parent a node
	// under one of its own descendants.
	ErrCyclicConnect = errors.New("graph: cannot connect a node to its own descendant")
)
