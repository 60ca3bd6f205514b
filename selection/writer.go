// Package selection implements the process boundary described in
// spec.md §6: writing the current selection out as one absolute path
// per line, newline-terminated, to either a file path or an already
// open file descriptor — the hand-off a host shell script reads to act
// on whatever the user picked.
package selection

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// WriteTo writes paths, one per line terminated by '\n', to w. Every
// path must already be absolute; WriteTo does not resolve or clean
// them, matching spec.md §6's framing of this as a pure process
// boundary with no path-handling logic of its own.
func WriteTo(w io.Writer, paths []string) error {
	for _, p := range paths {
		if _, err := io.WriteString(w, p); err != nil {
			return errors.Wrap(err, "selection: write path")
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return errors.Wrap(err, "selection: write newline")
		}
	}
	return nil
}

// WriteFile writes paths to the file at name, creating or truncating
// it as needed.
func WriteFile(name string, paths []string) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "selection: open %s", name)
	}
	defer f.Close()
	return WriteTo(f, paths)
}

// WriteFd writes paths to an already open file descriptor (e.g. one a
// shell passed down via `exec {fd}>&1`), without taking ownership of
// it — the caller opened it and the caller closes it.
func WriteFd(fd uintptr, paths []string) error {
	f := os.NewFile(fd, "selection-fd")
	if f == nil {
		return errors.Errorf("selection: invalid file descriptor %d", fd)
	}
	return WriteTo(f, paths)
}
