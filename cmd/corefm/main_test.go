package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dstasiuk/corefm/internal/fmlog"
	"github.com/dstasiuk/corefm/key"
	"github.com/dstasiuk/corefm/ops"
	"github.com/dstasiuk/corefm/register"
	"github.com/dstasiuk/corefm/trash"
	"github.com/dstasiuk/corefm/undo"
)

func newTestDemo(t *testing.T) (*demoState, *key.Engine) {
	t.Helper()
	dispatcher := ops.New()
	tr := trash.New(filepath.Join(t.TempDir(), "trash"))
	d := &demoState{
		dispatcher: dispatcher,
		regs:       register.New(),
		trash:      tr,
		undoLog:    undo.Init(dispatcher.Perform, nil, nil, func() int { return 10 }, tr.Dir, fmlog.Discard),
		logger:     fmlog.Discard,
	}
	e := key.New(make([]key.Flags, modeCount), func(bool) {})
	registerDefaultBindings(e, d)
	return d, e
}

func TestDeleteMovesFileIntoTrashAndRegister(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(f, []byte("hi"), 0o600); err != nil {
		t.Fatal(err)
	}

	d, e := newTestDemo(t)
	d.current = f

	if _, result, _ := e.Execute(key.Normal, []key.Key{'d', 'd'}); result != key.OK {
		t.Fatalf("result = %d, want OK", result)
	}

	if _, err := os.Stat(f); !os.IsNotExist(err) {
		t.Fatal("original file still exists after dd")
	}
	if d.current != "" {
		t.Fatal("current not cleared after dd")
	}
	regContents := d.regs.Find(register.Unnamed)
	if len(regContents) != 1 {
		t.Fatalf("unnamed register = %v, want one trashed path", regContents)
	}
	if _, err := os.Stat(regContents[0]); err != nil {
		t.Fatalf("trashed file missing at %s: %v", regContents[0], err)
	}
}

func TestUndoRestoresDeletedFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(f, []byte("hi"), 0o600); err != nil {
		t.Fatal(err)
	}

	d, e := newTestDemo(t)
	d.current = f
	if _, result, _ := e.Execute(key.Normal, []key.Key{'d', 'd'}); result != key.OK {
		t.Fatalf("result = %d, want OK", result)
	}

	if _, result, _ := e.Execute(key.Normal, []key.Key{'u'}); result != key.OK {
		t.Fatalf("result = %d, want OK", result)
	}

	if _, err := os.Stat(f); err != nil {
		t.Fatalf("undo did not restore %s: %v", f, err)
	}
}

func TestYankThenPutCopiesIntoCwd(t *testing.T) {
	srcDir := t.TempDir()
	f := filepath.Join(srcDir, "note.txt")
	if err := os.WriteFile(f, []byte("hi"), 0o600); err != nil {
		t.Fatal(err)
	}

	d, e := newTestDemo(t)
	d.current = f
	if _, result, _ := e.Execute(key.Normal, []key.Key{'y', 'y'}); result != key.OK {
		t.Fatalf("result = %d, want OK", result)
	}

	dstDir := t.TempDir()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldwd)
	if err := os.Chdir(dstDir); err != nil {
		t.Fatal(err)
	}

	if _, result, _ := e.Execute(key.Normal, []key.Key{'p'}); result != key.OK {
		t.Fatalf("result = %d, want OK", result)
	}

	if _, err := os.Stat(filepath.Join(dstDir, "note.txt")); err != nil {
		t.Fatalf("put did not place note.txt in cwd: %v", err)
	}
	if len(d.regs.Find(register.Unnamed)) != 0 {
		t.Fatal("unnamed register not cleared after put")
	}
}

func TestCutPrefixSetsCurrent(t *testing.T) {
	got, ok := cutPrefix("@/tmp/foo", "@")
	if !ok || got != "/tmp/foo" {
		t.Fatalf("cutPrefix = (%q,%v), want (/tmp/foo,true)", got, ok)
	}
	if _, ok := cutPrefix("dd", "@"); ok {
		t.Fatal("cutPrefix matched a line with no @ prefix")
	}
}
