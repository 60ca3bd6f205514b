// Package register implements the named-register file store used by put
// (spec.md §3 "register"): a small map from a register name byte to the
// list of files last yanked/deleted into it, plus the unnamed ("default")
// register every operation that doesn't name one explicitly falls back
// to. Grounded on original_source/src/registers.h.
package register

import "sort"

// Unnamed is the register name used when the caller doesn't specify one,
// matching vifm's unnamed/default register.
const Unnamed = '"'

// ValidNames lists the register names accepted by AppendTo/Load, mirroring
// the teacher's valid_registers string: lowercase and uppercase letters
// plus the unnamed register itself.
const ValidNames = "\"abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Store holds every register's file list.
type Store struct {
	files map[byte][]string
}

// New builds an empty Store.
func New() *Store {
	return &Store{files: make(map[byte][]string)}
}

// IsValid reports whether name is one of ValidNames.
func IsValid(name byte) bool {
	for i := 0; i < len(ValidNames); i++ {
		if ValidNames[i] == name {
			return true
		}
	}
	return false
}

// Load replaces name's contents with files, matching load_register.
func (s *Store) Load(name byte, files []string) {
	s.files[name] = append([]string(nil), files...)
}

// AppendTo appends file to name's list, matching append_to_register. An
// uppercase register name appends to the lowercase register of the same
// letter instead of starting its own list — vifm uses the uppercase form
// purely as an "append" spelling of the lowercase register at the
// call site, so that's folded in here rather than pushed onto callers.
func (s *Store) AppendTo(name byte, file string) {
	if name >= 'A' && name <= 'Z' {
		name = name - 'A' + 'a'
	}
	s.files[name] = append(s.files[name], file)
}

// Find returns name's file list, matching find_register. The returned
// slice is owned by the Store; callers must not mutate it.
func (s *Store) Find(name byte) []string {
	return s.files[name]
}

// Clear empties name's list, matching clear_register.
func (s *Store) Clear(name byte) {
	delete(s.files, name)
}

// Pack removes files from name's list that no longer point at anything
// real, matching pack_register. exists is injected so callers (and tests)
// don't need a real filesystem to exercise this.
func (s *Store) Pack(name byte, exists func(path string) bool) {
	files := s.files[name]
	kept := files[:0]
	for _, f := range files {
		if exists(f) {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		delete(s.files, name)
		return
	}
	s.files[name] = kept
}

// RenameIn updates any occurrence of oldPath to newPath across every
// register, matching rename_in_registers (called when a file is renamed
// out from under a register that's still holding a reference to it).
func (s *Store) RenameIn(oldPath, newPath string) {
	for name, files := range s.files {
		for i, f := range files {
			if f == oldPath {
				files[i] = newPath
			}
		}
		s.files[name] = files
	}
}

// CleanWithTrash drops every file reference under trashDir from every
// register, matching clean_regs_with_trash (called when the trash
// directory is emptied).
func (s *Store) CleanWithTrash(trashDir string) {
	for name := range s.files {
		s.Pack(name, func(path string) bool {
			return !hasPrefix(path, trashDir)
		})
	}
}

// UpdateUnnamed refreshes the unnamed register to mirror name's contents,
// matching update_unnamed_reg — called after most put-like operations so
// `""p` repeats whatever the last named register held.
func (s *Store) UpdateUnnamed(name byte) {
	if name == Unnamed {
		return
	}
	s.Load(Unnamed, s.files[name])
}

// ListContent renders every register named in names (or every valid
// register, if names is empty) as "name: file, file, ..." lines, sorted
// by name for stable listing output.
func (s *Store) ListContent(names string) []string {
	if names == "" {
		names = ValidNames
	}
	wanted := make([]byte, 0, len(names))
	for i := 0; i < len(names); i++ {
		wanted = append(wanted, names[i])
	}
	sort.Slice(wanted, func(i, j int) bool { return wanted[i] < wanted[j] })

	var out []string
	for _, n := range wanted {
		files, ok := s.files[n]
		if !ok || len(files) == 0 {
			continue
		}
		line := string(n) + ": "
		for i, f := range files {
			if i > 0 {
				line += ", "
			}
			line += f
		}
		out = append(out, line)
	}
	return out
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
