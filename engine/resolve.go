package engine

// lockEntry pairs a locked inumber with the mode it was locked in, so the
// ledger can release it correctly.
type lockEntry struct {
	inumber int
	mode    LockMode
}

// LockSet is the caller-owned ledger of every lock a single operation has
// acquired (the glossary's "Lock-set"). It doubles as the deduplication
// set the hand-over-hand resolver consults before acquiring a lock it
// might already hold (§4.D, §9 "Lock-set as caller-owned ledger").
//
// A LockSet is not safe for concurrent use; it belongs to exactly one
// operation invocation.
type LockSet struct {
	order []lockEntry
	index map[int]int // inumber -> position in order
}

// NewLockSet returns an empty ledger.
func NewLockSet() *LockSet {
	return &LockSet{index: make(map[int]int)}
}

// Contains reports whether inumber is already locked by this ledger.
func (ls *LockSet) Contains(inumber int) bool {
	_, ok := ls.index[inumber]
	return ok
}

// add records that inumber was just locked in mode. It must not be
// called twice for the same inumber.
func (ls *LockSet) add(inumber int, mode LockMode) {
	ls.index[inumber] = len(ls.order)
	ls.order = append(ls.order, lockEntry{inumber: inumber, mode: mode})
}

// Len reports how many distinct inodes this ledger currently holds
// locked. Exposed for tests asserting lock-set release (§8 property 3).
func (ls *LockSet) Len() int { return len(ls.order) }

// ReleaseAll unlocks every inode in the ledger, in reverse acquisition
// order, and empties the ledger. It is safe to call on an empty ledger.
// Create, Delete, Move and Lookup each call this exactly once, on every
// exit path; PrintTree locks and unlocks the root directly instead.
func (ls *LockSet) ReleaseAll(t *Table) {
	for i := len(ls.order) - 1; i >= 0; i-- {
		e := ls.order[i]
		t.Unlock(e.inumber, e.mode)
	}
	ls.order = ls.order[:0]
	ls.index = make(map[int]int)
}

// lookup is the hand-over-hand path resolver (§4.D). It walks from the
// root, acquiring each level's lock top-down and recording it in ls,
// before descending to the next segment. If writeFinal, the last
// resolved segment is locked for WRITE and every ancestor for READ;
// otherwise everything is locked READ.
//
// On FAIL, the inumbers resolved so far remain in ls; the caller is
// responsible for releasing them (normally via the operation's single
// defer ls.ReleaseAll(t) at its outer boundary).
//
// tryFinal, when true together with writeFinal, claims the very last
// segment with a non-blocking Table.TryLock instead of a blocking
// Table.Lock call — see lookupTryFinal.
func lookup(t *Table, path string, ls *LockSet, writeFinal bool, tryFinal bool) (int, error) {
	tokens := tokenize(path)

	current := RootInumber
	if !ls.Contains(current) {
		mode := Read
		if len(tokens) == 0 && writeFinal {
			mode = Write
		}
		t.Lock(current, mode)
		ls.add(current, mode)
	}

	for i, tok := range tokens {
		kind, s := t.GetInode(current)
		if kind != KindDir {
			return -1, ErrNotADir
		}

		child, ok := s.dirData.lookup(tok)
		if !ok {
			return -1, ErrNotFound
		}

		last := i == len(tokens)-1
		if !ls.Contains(child) {
			mode := Read
			if last && writeFinal {
				mode = Write
			}
			if last && writeFinal && tryFinal {
				if !t.TryLock(child, Write) {
					return -1, ErrWouldBlock
				}
			} else {
				t.Lock(child, mode)
			}
			ls.add(child, mode)
		}
		current = child
	}

	return current, nil
}

// lookupPublic resolves path for a read-only lookup and releases every
// lock before returning (§4.E lookup_public). The returned inumber is
// advisory: a concurrent delete may invalidate it before the caller acts
// on it.
func lookupPublic(t *Table, path string) (int, error) {
	ls := NewLockSet()
	defer ls.ReleaseAll(t)
	return lookup(t, path, ls, false, false)
}

// lookupWrite resolves path, write-locking the final segment and
// read-locking every ancestor. Used by create/delete for the parent path.
func lookupWrite(t *Table, path string, ls *LockSet) (int, error) {
	return lookup(t, path, ls, true, false)
}

// lookupTryFinal is lookupWrite's try-lock-on-final-segment variant,
// ported from the original implementation's lookupMove (see SPEC_FULL.md
// §12): move uses it for the second of its two parent resolutions, when a
// concurrent delete may be about to free the exact slot it is about to
// lock. Rather than block on that slot, the final segment is claimed with
// TryLock, and contention fails the lookup with ErrWouldBlock.
func lookupTryFinal(t *Table, path string, ls *LockSet) (int, error) {
	return lookup(t, path, ls, true, true)
}
