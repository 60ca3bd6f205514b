package config

import (
	"strings"
	"testing"

	"github.com/dstasiuk/corefm/key"
)

func TestParseSetAssignments(t *testing.T) {
	cfg, err := Parse(strings.NewReader("set undo_levels=50 trash_dir=/tmp/.trash\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UndoLevels != 50 {
		t.Fatalf("UndoLevels = %d, want 50", cfg.UndoLevels)
	}
	if cfg.TrashDir != "/tmp/.trash" {
		t.Fatalf("TrashDir = %q, want /tmp/.trash", cfg.TrashDir)
	}
}

func TestParseSkipsCommentsAndBlankLines(t *testing.T) {
	cfg, err := Parse(strings.NewReader("\" a comment\n\nset undo_levels=10\n# also a comment\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UndoLevels != 10 {
		t.Fatalf("UndoLevels = %d, want 10", cfg.UndoLevels)
	}
}

func TestParseNnoremapDirective(t *testing.T) {
	cfg, err := Parse(strings.NewReader("nnoremap ZZ gg\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Maps) != 1 {
		t.Fatalf("Maps = %v, want 1 entry", cfg.Maps)
	}
	m := cfg.Maps[0]
	if m.Mode != key.Normal || !m.NoRemap {
		t.Fatalf("map = %+v, want Normal mode + NoRemap", m)
	}
	if len(m.LHS) != 2 || m.LHS[0] != 'Z' || m.LHS[1] != 'Z' {
		t.Fatalf("LHS = %v, want ZZ", m.LHS)
	}
	if len(m.RHS) != 2 || m.RHS[0] != 'g' || m.RHS[1] != 'g' {
		t.Fatalf("RHS = %v, want gg", m.RHS)
	}
}

func TestParseSilentFlag(t *testing.T) {
	cfg, err := Parse(strings.NewReader("nmap <silent> Q :quit<cr>\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Maps) != 1 || !cfg.Maps[0].Silent {
		t.Fatalf("Maps = %+v, want Silent", cfg.Maps)
	}
	if cfg.Maps[0].NoRemap {
		t.Fatal("nmap should not set NoRemap")
	}
}

func TestApplyRegistersDirectivesOnEngine(t *testing.T) {
	cfg, err := Parse(strings.NewReader("nnoremap ZZ gg\n"))
	if err != nil {
		t.Fatal(err)
	}
	e := key.New([]key.Flags{0}, nil)
	var called bool
	e.AddBuiltin(key.Normal, []key.Key{'g', 'g'}, key.Spec{
		Type: key.Cmd,
		Handler: func(key.Info, *key.ResultInfo) {
			called = true
		},
	})
	if err := cfg.Apply(e); err != nil {
		t.Fatal(err)
	}
	if _, result, _ := e.Execute(key.Normal, []key.Key{'Z', 'Z'}); result != key.OK {
		t.Fatalf("result = %d, want OK", result)
	}
	if !called {
		t.Fatal("ZZ did not dispatch through to gg's handler")
	}
}

func TestParseUnknownDirectiveErrors(t *testing.T) {
	if _, err := Parse(strings.NewReader("bogus thing\n")); err == nil {
		t.Fatal("expected an error for an unrecognised directive")
	}
}
