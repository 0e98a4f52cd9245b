package engine

import (
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"
)

func TestPrintTreeOrderAndShape(t *testing.T) {
	e := newTestEngine(t)

	mustCreate(t, e, "/a", KindDir)
	mustCreate(t, e, "/a/b", KindDir)
	mustCreate(t, e, "/a/b/c", KindFile)
	mustCreate(t, e, "/a/d", KindFile)
	mustCreate(t, e, "/e", KindDir)

	got, err := e.DumpTree()
	if err != nil {
		t.Fatalf("DumpTree: %v", err)
	}

	want := []string{"a", "a/b", "a/b/c", "a/d", "e"}

	if diff := pretty.Compare(want, got); diff != "" {
		t.Fatalf("tree dump mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintTreeToSink(t *testing.T) {
	e := newTestEngine(t)
	mustCreate(t, e, "/a", KindFile)

	var sb strings.Builder
	if err := e.PrintTree(&sb); err != nil {
		t.Fatalf("PrintTree: %v", err)
	}
	if sb.String() != "a\n" {
		t.Fatalf("PrintTree output = %q, want %q", sb.String(), "a\n")
	}
}
