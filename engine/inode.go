package engine

import (
	"sync"
	"sync/atomic"
)

// Kind tags what an inode slot currently holds. An allocated slot never
// changes Kind during its lifetime; freeing returns it to KindFree and
// reuse re-initializes it (§3 invariant 5, §4.F).
type Kind int

const (
	KindFree Kind = iota
	KindFile
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFree:
		return "free"
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "invalid"
	}
}

// LockMode selects the flavor of lock taken on a slot.
type LockMode int

const (
	Read LockMode = iota
	Write
)

// slot is one inode-table entry. mu guards kind, fileData and dirData;
// the invariant is that whoever holds mu (read or write) may read kind
// and the payload matching it, and whoever holds it for write may mutate
// either.
type slot struct {
	mu sync.RWMutex

	kind Kind

	// fileData is the opaque byte payload when kind == KindFile. File
	// content is never interpreted by the engine (Non-goals: no file
	// content I/O).
	fileData []byte

	// dirData is the child entry array when kind == KindDir.
	dirData *dirEntries

	// parent is the inumber of the directory currently referencing this
	// slot, or -1 if the slot is free or is the root. It exists purely
	// to give move's ancestor-cycle check (see Engine.Move) something to
	// walk without a second tree traversal; it is not part of the spec's
	// core data model. It is atomic rather than mu-guarded because move
	// updates it without holding the moved inode's own lock (§4.E move,
	// final note) — a racing reader only ever sees an old-but-consistent
	// value, which is enough for a best-effort cycle check.
	parent atomic.Int32
}

// Table is the fixed-size inode table (component A). The zero value is
// not usable; use NewTable.
type Table struct {
	opt Options

	// allocMu is the coarse table-level mutex guarding the free-slot
	// scan. It is held only for the instant it takes to claim a slot,
	// never across a blocking per-slot lock acquisition.
	allocMu sync.Mutex
	free    []bool

	slots []slot
}

// NewTable builds a table of opt.MaxInodes slots and creates the root
// directory at slot 0, matching init_fs/inode_table_init in the original
// implementation. The root's write lock is acquired during creation and
// released before NewTable returns (§3 Lifecycle).
func NewTable(opt Options) *Table {
	t := &Table{
		opt:   opt,
		free:  make([]bool, opt.MaxInodes),
		slots: make([]slot, opt.MaxInodes),
	}
	for i := range t.free {
		t.free[i] = true
	}

	root, err := t.CreateInode(KindDir)
	if err != nil || root != RootInumber {
		panic("tecnicofs: failed to allocate root inode")
	}
	t.slots[RootInumber].parent.Store(-1)
	t.Unlock(RootInumber, Write)
	return t
}

// RootInumber is the fixed slot for the filesystem root (§3).
const RootInumber = 0

// CreateInode claims the first free slot, initializes it as kind, and
// returns it write-locked (§4.A inode_create). The caller is responsible
// for unlocking it (normally by appending it to a LockSet).
func (t *Table) CreateInode(kind Kind) (int, error) {
	t.allocMu.Lock()
	idx := -1
	for i, isFree := range t.free {
		if isFree {
			idx = i
			t.free[i] = false
			break
		}
	}
	t.allocMu.Unlock()

	if idx == -1 {
		return -1, ErrNoSpace
	}

	s := &t.slots[idx]
	s.mu.Lock()
	s.kind = kind
	s.parent.Store(-1)
	switch kind {
	case KindDir:
		s.dirData = newDirEntries(t.opt.MaxDirEntries)
		s.fileData = nil
	case KindFile:
		s.fileData = nil
		s.dirData = nil
	}
	return idx, nil
}

// DeleteInode frees a slot. The caller must already hold the slot's
// write lock (normally because it is the last segment of a resolved
// path); DeleteInode does not release it — that happens when the
// caller's LockSet is released, same as for any other locked inumber
// (§4.E delete, step 7).
func (t *Table) DeleteInode(inumber int) error {
	s := &t.slots[inumber]
	if s.kind == KindFree {
		return ErrNotFound
	}
	s.kind = KindFree
	s.fileData = nil
	s.dirData = nil
	s.parent.Store(-1)

	t.allocMu.Lock()
	t.free[inumber] = true
	t.allocMu.Unlock()
	return nil
}

// GetInode returns the kind and a reference to the slot's current
// payload. The caller must hold the slot's lock (read or write) for as
// long as it uses the returned value (§4.A inode_get).
func (t *Table) GetInode(inumber int) (Kind, *slot) {
	s := &t.slots[inumber]
	return s.kind, s
}

// Lock acquires the slot's RW lock in the given mode. A fatal system-level
// lock error (there is none possible with sync.RWMutex short of
// programmer error) would panic the process per §4.A/§7 — sync.RWMutex
// itself cannot fail, so there is nothing to check here.
func (t *Table) Lock(inumber int, mode LockMode) {
	s := &t.slots[inumber]
	if mode == Write {
		s.mu.Lock()
	} else {
		s.mu.RLock()
	}
}

// TryLock attempts to acquire the slot's lock without blocking. It
// reports false when the lock is already held by someone else — a
// would-block result distinct from any other failure, as required by
// §4.A.
func (t *Table) TryLock(inumber int, mode LockMode) bool {
	s := &t.slots[inumber]
	if mode == Write {
		return s.mu.TryLock()
	}
	return s.mu.TryRLock()
}

// Unlock releases a previously acquired lock. Calling Unlock on a slot
// whose lock is not held by the caller is a programmer bug and panics,
// mirroring the original's treatment of system-level lock errors as
// fatal (§7).
func (t *Table) Unlock(inumber int, mode LockMode) {
	s := &t.slots[inumber]
	if mode == Write {
		s.mu.Unlock()
	} else {
		s.mu.RUnlock()
	}
}

func (t *Table) maxDirEntries() int { return t.opt.MaxDirEntries }
