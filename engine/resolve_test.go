package engine

import "testing"

func TestLookupIdempotentOnSharedPrefix(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "/a", KindDir)
	mustCreate(t, e, "/a/b", KindDir)
	mustCreate(t, e, "/a/c", KindDir)

	ls := NewLockSet()
	defer ls.ReleaseAll(e.table)

	// Resolve /a/b for write, then /a/c for write. Both share root and
	// /a; the idempotence check must skip re-locking them instead of
	// self-deadlocking.
	if _, err := lookup(e.table, "/a/b", ls, true, false); err != nil {
		t.Fatalf("lookup /a/b: %v", err)
	}
	if _, err := lookup(e.table, "/a/c", ls, true, false); err != nil {
		t.Fatalf("lookup /a/c: %v", err)
	}

	if ls.Len() != 4 { // root, a, b, c
		t.Fatalf("lock set size = %d, want 4", ls.Len())
	}
}

func TestLookupNotFoundKeepsAcquiredLocksForCaller(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "/a", KindDir)

	ls := NewLockSet()
	_, err := lookup(e.table, "/a/missing/x", ls, false, false)
	if err != ErrNotFound {
		t.Fatalf("lookup missing path = %v, want ErrNotFound", err)
	}
	// root and /a were resolved before the failure and must still be in
	// the ledger for the caller to release.
	if !ls.Contains(RootInumber) {
		t.Fatalf("expected root to remain in the lock set on failure")
	}
	ls.ReleaseAll(e.table)
}

func TestLookupTryFinalFailsOnContendedFinalSegment(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "/a", KindDir)

	inumber, err := e.Lookup("/a")
	if err != nil {
		t.Fatalf("lookup /a: %v", err)
	}
	e.table.Lock(inumber, Write) // simulate a concurrent holder

	ls := NewLockSet()
	defer ls.ReleaseAll(e.table)
	if _, err := lookupTryFinal(e.table, "/a", ls); err != ErrWouldBlock {
		t.Fatalf("lookupTryFinal on contended node = %v, want ErrWouldBlock", err)
	}

	e.table.Unlock(inumber, Write)
}
