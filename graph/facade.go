package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/untoldecay/graphcep/internal/applog"
	"github.com/untoldecay/graphcep/internal/store"
)

// Facade owns a path string, a lazily-opened database handle, and a
// logger for the lifetime of the graph it exposes (spec.md §4.5).
type Facade struct {
	path  string
	log   *applog.Logger
	store *Store

	mu sync.Mutex
	h  *store.Handle
}

// Open validates path (appending ".sqlite" when it has no extension and
// isn't ":memory:") but does not open the database yet.
func Open(path string, log *applog.Logger) (*Facade, error) {
	if path == "" {
		return nil, fmt.Errorf("graph: path must not be empty")
	}
	resolved := path
	if path != ":memory:" && filepath.Ext(path) == "" {
		resolved = path + ".sqlite"
	}
	if log == nil {
		log = applog.Discard()
	}
	return &Facade{path: resolved, log: log, store: NewStore(log)}, nil
}

// handle opens the database on first use and caches it.
func (f *Facade) handle(ctx context.Context) (*store.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.h != nil {
		return f.h, nil
	}
	h, err := store.Open(ctx, f.path, f.log)
	if err != nil {
		return nil, err
	}
	h.SetUTF8(ctx)
	f.h = h
	return h, nil
}

// Handle exposes the lazily-opened database handle for callers that need
// to apply store-level tuning (internal/dbconfig pragma knobs) before
// driving the facade further.
func (f *Facade) Handle(ctx context.Context) (*store.Handle, error) {
	return f.handle(ctx)
}

// Close releases the handle, if one was opened.
func (f *Facade) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.h == nil {
		return nil
	}
	err := f.h.Close()
	f.h = nil
	return err
}

// Path returns the resolved on-disk path (or ":memory:").
func (f *Facade) Path() string { return f.path }

// AddNode delegates to the Node Store after resolving the handle.
// property/hasProperty follow Go's "no null strings" convention: pass
// hasProperty=false for an absent property.
func (f *Facade) AddNode(ctx context.Context, name, property string, hasProperty bool) (string, error) {
	h, err := f.handle(ctx)
	if err != nil {
		return "", err
	}
	return f.store.AddNode(ctx, h, name, property, hasProperty)
}

// Connect delegates to the Node Store's Nested Sets insertion algorithm.
func (f *Facade) Connect(ctx context.Context, a, b string) error {
	h, err := f.handle(ctx)
	if err != nil {
		return err
	}
	return f.store.Connect(ctx, h, a, b)
}

// DeleteNode delegates to the Node Store.
func (f *Facade) DeleteNode(ctx context.Context, id string) error {
	h, err := f.handle(ctx)
	if err != nil {
		return err
	}
	return f.store.DeleteNode(ctx, h, id)
}

// GetID delegates to the Node Store.
func (f *Facade) GetID(ctx context.Context, name string) (string, error) {
	h, err := f.handle(ctx)
	if err != nil {
		return "", err
	}
	return f.store.GetID(ctx, h, name)
}

// GetName delegates to the Node Store.
func (f *Facade) GetName(ctx context.Context, id string) (string, error) {
	h, err := f.handle(ctx)
	if err != nil {
		return "", err
	}
	return f.store.GetName(ctx, h, id)
}

// GetProperty delegates to the Node Store.
func (f *Facade) GetProperty(ctx context.Context, id string) (string, bool, error) {
	h, err := f.handle(ctx)
	if err != nil {
		return "", false, err
	}
	return f.store.GetProperty(ctx, h, id)
}

// GetIDList delegates to the Node Store.
func (f *Facade) GetIDList(ctx context.Context) ([]string, error) {
	h, err := f.handle(ctx)
	if err != nil {
		return nil, err
	}
	return f.store.GetIDList(ctx, h)
}

// SetNestedSetsInterval delegates to the Node Store.
func (f *Facade) SetNestedSetsInterval(ctx context.Context, id string, left, right int64) (string, error) {
	h, err := f.handle(ctx)
	if err != nil {
		return "", err
	}
	return f.store.SetNestedSetsInterval(ctx, h, id, left, right)
}

// Descendants returns every node strictly contained in id's interval, in
// pre-order (interval left ascending), using the interval-containment predicate of spec.md §3
// invariant 4. Supplemental to the distilled spec: the Nested Sets model
// exists precisely to make this a single range query.
func (f *Facade) Descendants(ctx context.Context, id string) ([]string, error) {
	h, err := f.handle(ctx)
	if err != nil {
		return nil, err
	}
	return f.store.Descendants(ctx, h, id)
}

// Ancestors returns every node whose interval strictly contains id's,
// nearest first.
func (f *Facade) Ancestors(ctx context.Context, id string) ([]string, error) {
	h, err := f.handle(ctx)
	if err != nil {
		return nil, err
	}
	return f.store.Ancestors(ctx, h, id)
}
