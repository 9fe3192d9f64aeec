package graph

import (
	"context"
	"testing"

	"github.com/untoldecay/graphcep/internal/store"
)

func setupHandle(t *testing.T) (*store.Handle, func()) {
	t.Helper()
	ctx := context.Background()
	h, err := store.Open(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	return h, func() { h.Close() }
}

func TestAddNodeRejectsEmptyName(t *testing.T) {
	h, cleanup := setupHandle(t)
	defer cleanup()

	s := NewStore(nil)
	ctx := context.Background()
	if _, err := s.AddNode(ctx, h, "", "", false); err != ErrEmptyName {
		t.Fatalf("AddNode(\"\") = %v, want ErrEmptyName", err)
	}
}

func TestAddNodeAndLookup(t *testing.T) {
	h, cleanup := setupHandle(t)
	defer cleanup()

	s := NewStore(nil)
	ctx := context.Background()

	id, err := s.AddNode(ctx, h, "root", "color=blue", true)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if id == "" {
		t.Fatalf("AddNode returned empty id")
	}

	name, err := s.GetName(ctx, h, id)
	if err != nil || name != "root" {
		t.Fatalf("GetName(%q) = %q, %v, want \"root\", nil", id, name, err)
	}

	gotID, err := s.GetID(ctx, h, "root")
	if err != nil || gotID != id {
		t.Fatalf("GetID(\"root\") = %q, %v, want %q, nil", gotID, err, id)
	}

	prop, ok, err := s.GetProperty(ctx, h, id)
	if err != nil || !ok || prop != "color=blue" {
		t.Fatalf("GetProperty(%q) = %q, %v, %v, want \"color=blue\", true, nil", id, prop, ok, err)
	}
}

func TestGetPropertyMissingIsNotOK(t *testing.T) {
	h, cleanup := setupHandle(t)
	defer cleanup()

	s := NewStore(nil)
	ctx := context.Background()

	id, err := s.AddNode(ctx, h, "no-prop", "", false)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	_, ok, err := s.GetProperty(ctx, h, id)
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	if ok {
		t.Fatalf("GetProperty(%q) ok=true, want false for a node with no property", id)
	}
}

func TestDeleteNodeRemovesOnlyThatRow(t *testing.T) {
	h, cleanup := setupHandle(t)
	defer cleanup()

	s := NewStore(nil)
	ctx := context.Background()

	parent, err := s.AddNode(ctx, h, "parent", "", false)
	if err != nil {
		t.Fatalf("AddNode parent: %v", err)
	}
	child, err := s.AddNode(ctx, h, "child", "", false)
	if err != nil {
		t.Fatalf("AddNode child: %v", err)
	}
	if err := s.Connect(ctx, h, parent, child); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := s.DeleteNode(ctx, h, parent); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}

	if _, err := s.GetName(ctx, h, parent); err != ErrNotFound {
		t.Fatalf("GetName(parent) after delete = %v, want ErrNotFound", err)
	}
	// Child survives: no cascade (spec.md §3 Node lifecycle).
	if _, err := s.GetName(ctx, h, child); err != nil {
		t.Fatalf("GetName(child) after parent delete: %v, want nil (no cascade)", err)
	}
}

func TestConnectFreshPair(t *testing.T) {
	h, cleanup := setupHandle(t)
	defer cleanup()

	s := NewStore(nil)
	ctx := context.Background()

	a, _ := s.AddNode(ctx, h, "a", "", false)
	b, _ := s.AddNode(ctx, h, "b", "", false)

	if err := s.Connect(ctx, h, a, b); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	aIv, err := s.getInterval(ctx, h, a)
	if err != nil {
		t.Fatalf("getInterval(a): %v", err)
	}
	bIv, err := s.getInterval(ctx, h, b)
	if err != nil {
		t.Fatalf("getInterval(b): %v", err)
	}

	if !(aIv.left < bIv.left && bIv.right < aIv.right) {
		t.Fatalf("a=(%d,%d) does not contain b=(%d,%d)", aIv.left, aIv.right, bIv.left, bIv.right)
	}
}

func TestConnectUnderAnchorAddsRightmostChild(t *testing.T) {
	h, cleanup := setupHandle(t)
	defer cleanup()

	s := NewStore(nil)
	ctx := context.Background()

	root, _ := s.AddNode(ctx, h, "root", "", false)
	child1, _ := s.AddNode(ctx, h, "child1", "", false)
	child2, _ := s.AddNode(ctx, h, "child2", "", false)

	if err := s.Connect(ctx, h, root, child1); err != nil {
		t.Fatalf("Connect root/child1: %v", err)
	}
	if err := s.Connect(ctx, h, root, child2); err != nil {
		t.Fatalf("Connect root/child2: %v", err)
	}

	c1, _ := s.getInterval(ctx, h, child1)
	c2, _ := s.getInterval(ctx, h, child2)
	if !(c1.right < c2.left) {
		t.Fatalf("child1=(%d,%d) should lie entirely to the left of child2=(%d,%d)", c1.left, c1.right, c2.left, c2.right)
	}

	rootIv, _ := s.getInterval(ctx, h, root)
	ids, err := s.Descendants(ctx, h, root)
	if err != nil {
		t.Fatalf("Descendants: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Descendants(root) = %v, want 2 entries", ids)
	}
	width := rootIv.right - rootIv.left + 1
	if width != 6 {
		t.Fatalf("root interval width = %d, want 6 for a root with two leaf children", width)
	}
}

func TestConnectRejectsSelfConnect(t *testing.T) {
	h, cleanup := setupHandle(t)
	defer cleanup()

	s := NewStore(nil)
	ctx := context.Background()

	a, _ := s.AddNode(ctx, h, "a", "", false)
	if err := s.Connect(ctx, h, a, a); err != ErrSelfConnect {
		t.Fatalf("Connect(a, a) = %v, want ErrSelfConnect", err)
	}
}

func TestConnectRejectsCycle(t *testing.T) {
	h, cleanup := setupHandle(t)
	defer cleanup()

	s := NewStore(nil)
	ctx := context.Background()

	a, _ := s.AddNode(ctx, h, "a", "", false)
	b, _ := s.AddNode(ctx, h, "b", "", false)
	if err := s.Connect(ctx, h, a, b); err != nil {
		t.Fatalf("Connect(a, b): %v", err)
	}

	if err := s.Connect(ctx, h, b, a); err != ErrCyclicConnect {
		t.Fatalf("Connect(b, a) = %v, want ErrCyclicConnect (b is already a's child)", err)
	}
}

// TestConnectReparentPreservesSize checks part of SPEC_FULL.md testable
// property 9 ("Connect re-parenting preserves size"): moving mid's subtree
// under a new anchor leaves mid with the same number of descendants, and
// the new anchor becomes an ancestor of leaf.
func TestConnectReparentPreservesSize(t *testing.T) {
	h, cleanup := setupHandle(t)
	defer cleanup()

	s := NewStore(nil)
	ctx := context.Background()

	root1, _ := s.AddNode(ctx, h, "root1", "", false)
	root2, _ := s.AddNode(ctx, h, "root2", "", false)
	mid, _ := s.AddNode(ctx, h, "mid", "", false)
	leaf, _ := s.AddNode(ctx, h, "leaf", "", false)

	if err := s.Connect(ctx, h, root1, mid); err != nil {
		t.Fatalf("Connect root1/mid: %v", err)
	}
	if err := s.Connect(ctx, h, mid, leaf); err != nil {
		t.Fatalf("Connect mid/leaf: %v", err)
	}
	if err := s.Connect(ctx, h, root2, root1); err != nil {
		// root2 has no interval yet and root1 does: this places root2 as a
		// new root and moves root1's subtree under it before the reparent
		// below.
		t.Fatalf("Connect root2/root1: %v", err)
	}

	before, err := s.Descendants(ctx, h, mid)
	if err != nil {
		t.Fatalf("Descendants(mid) before reparent: %v", err)
	}

	other, _ := s.AddNode(ctx, h, "other", "", false)
	if err := s.Connect(ctx, h, other, mid); err != nil {
		t.Fatalf("Connect(other, mid) reparent: %v", err)
	}

	after, err := s.Descendants(ctx, h, mid)
	if err != nil {
		t.Fatalf("Descendants(mid) after reparent: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("mid has %d descendants after reparent, want %d (unchanged)", len(after), len(before))
	}

	ancestors, err := s.Ancestors(ctx, h, leaf)
	if err != nil {
		t.Fatalf("Ancestors(leaf): %v", err)
	}
	found := false
	for _, id := range ancestors {
		if id == other {
			found = true
		}
	}
	if !found {
		t.Fatalf("Ancestors(leaf) = %v, want to contain new anchor %q", ancestors, other)
	}
}

func TestSetNestedSetsIntervalResetAndReject(t *testing.T) {
	h, cleanup := setupHandle(t)
	defer cleanup()

	s := NewStore(nil)
	ctx := context.Background()

	id, _ := s.AddNode(ctx, h, "solo", "", false)

	if _, err := s.SetNestedSetsInterval(ctx, h, id, 5, 5); err != ErrInvalidInterval {
		t.Fatalf("SetNestedSetsInterval(5,5) = %v, want ErrInvalidInterval", err)
	}
	if _, err := s.SetNestedSetsInterval(ctx, h, id, -1, 2); err != ErrInvalidInterval {
		t.Fatalf("SetNestedSetsInterval(-1,2) = %v, want ErrInvalidInterval", err)
	}

	if _, err := s.SetNestedSetsInterval(ctx, h, id, 1, 2); err != nil {
		t.Fatalf("SetNestedSetsInterval(1,2): %v", err)
	}
	iv, err := s.getInterval(ctx, h, id)
	if err != nil || !iv.assigned {
		t.Fatalf("getInterval after assign: %v, assigned=%v, want true", err, iv.assigned)
	}

	if _, err := s.SetNestedSetsInterval(ctx, h, id, 0, 0); err != nil {
		t.Fatalf("SetNestedSetsInterval(0,0) reset: %v", err)
	}
	iv, err = s.getInterval(ctx, h, id)
	if err != nil {
		t.Fatalf("getInterval after reset: %v", err)
	}
	if iv.assigned {
		t.Fatalf("interval still assigned after reset to (0,0)")
	}
}

func TestGetIDListOrderedByName(t *testing.T) {
	h, cleanup := setupHandle(t)
	defer cleanup()

	s := NewStore(nil)
	ctx := context.Background()

	bID, _ := s.AddNode(ctx, h, "bravo", "", false)
	aID, _ := s.AddNode(ctx, h, "alpha", "", false)

	ids, err := s.GetIDList(ctx, h)
	if err != nil {
		t.Fatalf("GetIDList: %v", err)
	}
	if len(ids) != 2 || ids[0] != aID || ids[1] != bID {
		t.Fatalf("GetIDList = %v, want [%q, %q]", ids, aID, bID)
	}
}
