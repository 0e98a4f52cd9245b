package engine

// Engine is the public entry point over a Table: it composes the
// resolver and directory-entry primitives into the five operations the
// wire protocol exposes (component E). One Engine owns one Table; tests
// construct a fresh Engine per test case (§9).
type Engine struct {
	table *Table
	opt   Options
}

// New builds an Engine with a freshly initialized root directory.
func New(opt Options) *Engine {
	return &Engine{table: NewTable(opt), opt: opt}
}

// Table exposes the underlying inode table, mainly so tests and the
// print/dump path can probe lock state directly.
func (e *Engine) Table() *Table { return e.table }

// Create implements §4.E create: allocate nodeKind at path, provided its
// parent exists, is a directory, and does not already have an entry
// named path's final segment.
func (e *Engine) Create(path string, nodeKind Kind) error {
	ls := NewLockSet()
	defer ls.ReleaseAll(e.table)

	parentPath, childName := splitParentChild(path)

	parentInumber, err := lookupWrite(e.table, parentPath, ls)
	if err != nil {
		return wrapErr("create", path, err)
	}

	parentKind, parentSlot := e.table.GetInode(parentInumber)
	if parentKind != KindDir {
		return wrapErr("create", path, ErrNotADir)
	}

	if _, exists := parentSlot.dirData.lookup(childName); exists {
		return wrapErr("create", path, ErrAlreadyExists)
	}

	childInumber, err := e.table.CreateInode(nodeKind)
	if err != nil {
		return wrapErr("create", path, err)
	}
	ls.add(childInumber, Write)

	if err := parentSlot.dirData.add(childInumber, childName); err != nil {
		// Residual cleanup (§9): free the slot we just claimed rather
		// than leaking it the way the original implementation does.
		_ = e.table.DeleteInode(childInumber)
		return wrapErr("create", path, err)
	}
	e.table.slots[childInumber].parent.Store(int32(parentInumber))

	return nil
}

// Delete implements §4.E delete: remove path's entry from its parent and
// free its inode, provided it exists and, if a directory, is empty.
func (e *Engine) Delete(path string) error {
	ls := NewLockSet()
	defer ls.ReleaseAll(e.table)

	parentPath, childName := splitParentChild(path)

	parentInumber, err := lookupWrite(e.table, parentPath, ls)
	if err != nil {
		return wrapErr("delete", path, err)
	}

	parentKind, parentSlot := e.table.GetInode(parentInumber)
	if parentKind != KindDir {
		return wrapErr("delete", path, ErrNotADir)
	}

	childInumber, exists := parentSlot.dirData.lookup(childName)
	if !exists {
		return wrapErr("delete", path, ErrNotFound)
	}

	e.table.Lock(childInumber, Write)
	ls.add(childInumber, Write)

	childKind, childSlot := e.table.GetInode(childInumber)
	if childKind == KindDir && !childSlot.dirData.empty() {
		return wrapErr("delete", path, ErrNotEmpty)
	}

	if err := parentSlot.dirData.reset(childInumber); err != nil {
		return wrapErr("delete", path, err)
	}

	if err := e.table.DeleteInode(childInumber); err != nil {
		return wrapErr("delete", path, err)
	}

	return nil
}

// Lookup implements §4.E lookup_public: resolve path read-only and
// release every lock before returning. The inumber is advisory — a
// concurrent delete may invalidate it before the caller observes it.
func (e *Engine) Lookup(path string) (int, error) {
	inumber, err := lookupPublic(e.table, path)
	if err != nil {
		return -1, wrapErr("lookup", path, err)
	}
	return inumber, nil
}

// Move implements §4.E move: relocate the inode at oldPath to newPath,
// which may rename it, reparent it, or both. Deadlock avoidance locks
// the two parent paths in lexicographic order (§4.E step 2, §5 rule 2).
func (e *Engine) Move(oldPath, newPath string) error {
	ls := NewLockSet()
	defer ls.ReleaseAll(e.table)

	oldParentPath, oldChildName := splitParentChild(oldPath)
	newParentPath, newChildName := splitParentChild(newPath)

	var oldParentInumber, newParentInumber int
	var err error

	switch {
	case oldParentPath == newParentPath:
		oldParentInumber, err = lookupWrite(e.table, oldParentPath, ls)
		if err != nil {
			return wrapErr("move", oldPath, err)
		}
		newParentInumber = oldParentInumber
	case oldParentPath < newParentPath:
		if oldParentInumber, err = lookupWrite(e.table, oldParentPath, ls); err != nil {
			return wrapErr("move", oldPath, err)
		}
		// Second resolution: a concurrent delete could be racing to
		// free newParentPath's final segment right now (see
		// lookupTryFinal).
		if newParentInumber, err = lookupTryFinal(e.table, newParentPath, ls); err != nil {
			return wrapErr("move", newPath, err)
		}
	default:
		if newParentInumber, err = lookupWrite(e.table, newParentPath, ls); err != nil {
			return wrapErr("move", newPath, err)
		}
		if oldParentInumber, err = lookupTryFinal(e.table, oldParentPath, ls); err != nil {
			return wrapErr("move", oldPath, err)
		}
	}

	oldParentKind, oldParentSlot := e.table.GetInode(oldParentInumber)
	if oldParentKind != KindDir {
		return wrapErr("move", oldPath, ErrNotADir)
	}
	newParentKind, newParentSlot := e.table.GetInode(newParentInumber)
	if newParentKind != KindDir {
		return wrapErr("move", newPath, ErrNotADir)
	}

	if _, exists := newParentSlot.dirData.lookup(newChildName); exists {
		return wrapErr("move", newPath, ErrAlreadyExists)
	}

	movingInumber, exists := oldParentSlot.dirData.lookup(oldChildName)
	if !exists {
		return wrapErr("move", oldPath, ErrNotFound)
	}

	if movingInumber == newParentInumber {
		return wrapErr("move", newPath, ErrInvalidMove)
	}

	// Open question resolved (§9, SPEC_FULL.md): reject moving a
	// directory into its own descendant, not just into itself. This is
	// a best-effort walk of parent back-pointers that are maintained
	// without locking the intermediate inodes (see slot.parent); a
	// concurrent reparent of an ancestor can make it miss a cycle, but
	// it can never reject a legitimate move.
	if e.isAncestor(movingInumber, newParentInumber) {
		return wrapErr("move", newPath, ErrInvalidMove)
	}

	if err := oldParentSlot.dirData.reset(movingInumber); err != nil {
		return wrapErr("move", oldPath, err)
	}

	if err := newParentSlot.dirData.add(movingInumber, newChildName); err != nil {
		// Residual cleanup (§9): reinstate the old entry rather than
		// leaving the moving inode unreferenced.
		_ = oldParentSlot.dirData.add(movingInumber, oldChildName)
		return wrapErr("move", newPath, err)
	}
	e.table.slots[movingInumber].parent.Store(int32(newParentInumber))

	return nil
}

// isAncestor reports whether candidate lies on node's path to the root,
// walking parent back-pointers. Bounded by the table size so a
// transiently inconsistent chain can never spin forever.
func (e *Engine) isAncestor(candidate, node int) bool {
	cur := node
	for i := 0; i < e.opt.MaxInodes; i++ {
		if cur == candidate {
			return true
		}
		if cur == RootInumber {
			return false
		}
		next := int(e.table.slots[cur].parent.Load())
		if next < 0 {
			return false
		}
		cur = next
	}
	return false
}
