package trash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNextCloneNameSimple(t *testing.T) {
	dir := t.TempDir()
	if got := NextCloneName(dir, "name"); got != "name(1)" {
		t.Fatalf("got %q, want name(1)", got)
	}
	if got := NextCloneName(dir, "name.ext"); got != "name(1).ext" {
		t.Fatalf("got %q, want name(1).ext", got)
	}
	if got := NextCloneName(dir, "name.ext1.ext2"); got != "name.ext1(1).ext2" {
		t.Fatalf("got %q, want name.ext1(1).ext2", got)
	}
	if got := NextCloneName(dir, "name.tar.ext2"); got != "name(1).tar.ext2" {
		t.Fatalf("got %q, want name(1).tar.ext2", got)
	}
}

func TestNextCloneNameIncrementsValidCounter(t *testing.T) {
	dir := t.TempDir()
	if got := NextCloneName(dir, "name(1).tar.ext2"); got != "name(2).tar.ext2" {
		t.Fatalf("got %q, want name(2).tar.ext2", got)
	}
	if got := NextCloneName(dir, "name(0).tar.ext2"); got != "name(0)(1).tar.ext2" {
		t.Fatalf("got %q, want name(0)(1).tar.ext2 (zero is not a valid counter)", got)
	}
	if got := NextCloneName(dir, "name(-1).tar.ext2"); got != "name(-1)(1).tar.ext2" {
		t.Fatalf("got %q, want name(-1)(1).tar.ext2 (negative is not a valid counter)", got)
	}
}

func TestNextCloneNameDotfiles(t *testing.T) {
	dir := t.TempDir()
	if got := NextCloneName(dir, ".name"); got != ".name(1)" {
		t.Fatalf("got %q, want .name(1)", got)
	}
	if got := NextCloneName(dir, ".config(1).d"); got != ".config(2).d" {
		t.Fatalf("got %q, want .config(2).d", got)
	}
	if got := NextCloneName(dir, ".config.d(1)"); got != ".config(1).d(1)" {
		t.Fatalf("got %q, want .config(1).d(1)", got)
	}
}

func TestNextCloneNameSaturatesAtMaxInt64(t *testing.T) {
	dir := t.TempDir()
	got := NextCloneName(dir, "name(9223372036854775807)")
	if got != "name(9223372036854775807)(1)" {
		t.Fatalf("got %q, want name(9223372036854775807)(1)", got)
	}
}

func TestNextCloneNameAvoidsCollisions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"f(1)", "f(2)"} {
		if err := writeEmpty(dir, name); err != nil {
			t.Fatal(err)
		}
	}
	got := NextCloneName(dir, "f")
	if got != "f(3)" {
		t.Fatalf("got %q, want f(3) after f(1) and f(2) already exist", got)
	}
}

func TestMangleDemangleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	name, err := Mangle(dir, "report.txt")
	if err != nil {
		t.Fatal(err)
	}
	if Demangle(name) != "report.txt" {
		t.Fatalf("Demangle(%q) = %q, want report.txt", name, Demangle(name))
	}
}

func TestMangleAvoidsUsedPrefixes(t *testing.T) {
	dir := t.TempDir()
	if err := writeEmpty(dir, "000_a"); err != nil {
		t.Fatal(err)
	}
	name, err := Mangle(dir, "b")
	if err != nil {
		t.Fatal(err)
	}
	if name != "001_b" {
		t.Fatalf("got %q, want 001_b", name)
	}
}

func writeEmpty(dir, name string) error {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	return f.Close()
}
