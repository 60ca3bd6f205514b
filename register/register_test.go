package register

import "testing"

func TestAppendToFoldsUppercaseToLowercase(t *testing.T) {
	s := New()
	s.AppendTo('a', "/one")
	s.AppendTo('A', "/two")

	got := s.Find('a')
	if len(got) != 2 || got[0] != "/one" || got[1] != "/two" {
		t.Fatalf("Find('a') = %v, want [/one /two]", got)
	}
}

func TestPackDropsMissingFiles(t *testing.T) {
	s := New()
	s.Load('a', []string{"/exists", "/gone"})
	s.Pack('a', func(p string) bool { return p == "/exists" })

	got := s.Find('a')
	if len(got) != 1 || got[0] != "/exists" {
		t.Fatalf("Find('a') = %v, want [/exists]", got)
	}
}

func TestUpdateUnnamedMirrorsNamedRegister(t *testing.T) {
	s := New()
	s.Load('a', []string{"/one"})
	s.UpdateUnnamed('a')

	got := s.Find(Unnamed)
	if len(got) != 1 || got[0] != "/one" {
		t.Fatalf("Find(Unnamed) = %v, want [/one]", got)
	}
}

func TestRenameInUpdatesAllRegisters(t *testing.T) {
	s := New()
	s.Load('a', []string{"/old", "/keep"})
	s.RenameIn("/old", "/new")

	got := s.Find('a')
	if len(got) != 2 || got[0] != "/new" || got[1] != "/keep" {
		t.Fatalf("Find('a') = %v, want [/new /keep]", got)
	}
}

func TestCleanWithTrashDropsTrashedFiles(t *testing.T) {
	s := New()
	s.Load('a', []string{"/trash/000_f", "/home/f"})
	s.CleanWithTrash("/trash")

	got := s.Find('a')
	if len(got) != 1 || got[0] != "/home/f" {
		t.Fatalf("Find('a') = %v, want [/home/f]", got)
	}
}
