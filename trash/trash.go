// Package trash implements the trash-name mangle/demangle scheme
// (spec.md §4) that lets a file moved into the trash directory be
// restored to its original basename later, and the small in-memory
// registry of what went in. gen_trash_name itself isn't part of the
// retrieved original_source/ snapshot (only its call sites in
// fops_misc.c and undo.c are) — the NNN_basename format here is inferred
// from those call sites and from common vifm documentation; see
// DESIGN.md.
package trash

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Entry records one item currently sitting in the trash: its original
// path and the mangled name it was given there.
type Entry struct {
	Path      string
	TrashName string
}

// Trash is the in-memory trash registry (original_source/src/trash.c's
// trash_list), plus the directory it mangles names into.
type Trash struct {
	dir     string
	entries []Entry
}

// New builds a Trash rooted at dir. dir is not created here; callers
// create it lazily the first time something is actually trashed,
// following the teacher's own lazy-mkdir style elsewhere in fops_*.
func New(dir string) *Trash {
	return &Trash{dir: dir}
}

// Dir returns the trash directory path.
func (t *Trash) Dir() string { return t.dir }

var mangleRe = regexp.MustCompile(`^(\d{3,})_(.*)$`)

// Mangle produces the on-disk trash name for a file named base, unique
// within dir: "NNN_base", where NNN is the smallest non-negative integer
// (zero-padded to at least 3 digits) not already used in dir.
func Mangle(dir, base string) (string, error) {
	used := map[int]bool{}
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return "", errors.Wrap(err, "trash: scanning directory for a free name")
	}
	for _, e := range entries {
		if m := mangleRe.FindStringSubmatch(e.Name()); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				used[n] = true
			}
		}
	}
	n := 0
	for used[n] {
		n++
	}
	return fmt.Sprintf("%03d_%s", n, base), nil
}

// Demangle recovers the original basename from a trash name, or returns
// it unchanged if it doesn't match the NNN_ prefix (e.g. it was placed in
// the trash directory by something other than this tool).
func Demangle(trashName string) string {
	if m := mangleRe.FindStringSubmatch(trashName); m != nil {
		return m[2]
	}
	return trashName
}

// Add records that path was moved into the trash under trashName.
func (t *Trash) Add(path, trashName string) {
	t.entries = append(t.entries, Entry{Path: path, TrashName: trashName})
}

// IsTrashed reports whether trashName is currently tracked.
func (t *Trash) IsTrashed(trashName string) bool {
	_, ok := t.find(trashName)
	return ok
}

// Remove drops trashName from the registry (it does not touch the
// filesystem — callers that physically delete or restore a trashed file
// call this afterwards).
func (t *Trash) Remove(trashName string) bool {
	for i, e := range t.entries {
		if e.TrashName == trashName {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// OriginalPath returns the path a trashed entry was moved from.
func (t *Trash) OriginalPath(trashName string) (string, bool) {
	e, ok := t.find(trashName)
	if !ok {
		return "", false
	}
	return e.Path, true
}

// TrashPath joins the trash directory with trashName.
func (t *Trash) TrashPath(trashName string) string {
	return filepath.Join(t.dir, trashName)
}

// List returns every currently-tracked entry.
func (t *Trash) List() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Clear empties the in-memory registry, matching empty_trash_list (the
// actual directory removal is a caller concern driven through ops.Remove).
func (t *Trash) Clear() {
	t.entries = nil
}

func (t *Trash) find(trashName string) (Entry, bool) {
	for _, e := range t.entries {
		if e.TrashName == trashName {
			return e, true
		}
	}
	return Entry{}, false
}

// NextCloneName computes the name fops_misc.c's gen_clone_name would give
// a copy of fname placed alongside it in dir, appending or incrementing a
// "(N)" counter so the result doesn't collide with anything already in
// dir. Grounded on original_source/tests/fileops/gen_clone_name.c.
func NextCloneName(dir, fname string) string {
	stem, ext := splitStemExt(fname)
	candidate := bumpCounter(stem) + ext
	for {
		if _, err := os.Lstat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		stem, ext = splitStemExt(candidate)
		candidate = bumpCounter(stem) + ext
	}
}

// splitStemExt splits name into a stem and an extension suffix (including
// its leading dot), treating a leading dot as part of the stem (dotfiles)
// and folding ".tar" together with whatever follows it into one
// extension, mirroring gen_clone_name's own splitting rules.
func splitStemExt(name string) (stem, ext string) {
	leading := ""
	rest := name
	if strings.HasPrefix(name, ".") {
		leading = "."
		rest = name[1:]
	}
	parts := strings.Split(rest, ".")
	if len(parts) == 1 {
		return name, ""
	}
	extSegs := 1
	if len(parts) >= 3 && parts[len(parts)-2] == "tar" {
		extSegs = 2
	}
	stemParts := parts[:len(parts)-extSegs]
	extParts := parts[len(parts)-extSegs:]
	return leading + strings.Join(stemParts, "."), "." + strings.Join(extParts, ".")
}

var counterRe = regexp.MustCompile(`^(.*)\((\d+)\)$`)

// bumpCounter increments a trailing "(N)" in stem when N is a valid,
// strictly positive counter that fits in an int64 without overflowing on
// increment; otherwise it appends a fresh "(1)".
func bumpCounter(stem string) string {
	if m := counterRe.FindStringSubmatch(stem); m != nil {
		if n, err := strconv.ParseInt(m[2], 10, 64); err == nil && n >= 1 && n < 1<<63-1 {
			return fmt.Sprintf("%s(%d)", m[1], n+1)
		}
	}
	return stem + "(1)"
}
