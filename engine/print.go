package engine

import (
	"fmt"
	"io"
)

// PrintTree implements §4.E print_tree: a single WRITE lock on the root
// acts as a global snapshot barrier (§9 "Open question: print
// concurrency" resolves to the root-only variant), under which the tree
// is walked depth-first, writing "<path>\n" for every non-FREE entry —
// directories before their children, in each directory's slot order.
func (e *Engine) PrintTree(sink io.Writer) error {
	e.table.Lock(RootInumber, Write)
	defer e.table.Unlock(RootInumber, Write)

	return e.printSubtree(sink, RootInumber, "")
}

func (e *Engine) printSubtree(sink io.Writer, inumber int, prefix string) error {
	kind, s := e.table.GetInode(inumber)
	if kind != KindDir {
		return nil
	}

	for _, entry := range s.dirData.ordered() {
		path := prefix + entry.name
		if _, err := fmt.Fprintf(sink, "%s\n", path); err != nil {
			return err
		}

		childKind, _ := e.table.GetInode(entry.inumber)
		if childKind == KindDir {
			if err := e.printSubtree(sink, entry.inumber, path+"/"); err != nil {
				return err
			}
		}
	}
	return nil
}

// DumpTree is a test/debug convenience returning the printed lines as a
// slice instead of writing to an io.Writer, so tests can compare tree
// shape without a temp file.
func (e *Engine) DumpTree() ([]string, error) {
	var buf linesWriter
	if err := e.PrintTree(&buf); err != nil {
		return nil, err
	}
	return buf.lines, nil
}

type linesWriter struct {
	lines []string
	cur   []byte
}

func (w *linesWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			w.lines = append(w.lines, string(w.cur))
			w.cur = w.cur[:0]
			continue
		}
		w.cur = append(w.cur, b)
	}
	return len(p), nil
}
