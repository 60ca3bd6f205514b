// Package ops implements the OpDispatcher (spec.md §3): a pure function
// table mapping an Op to the os-level action that performs it, shared by
// undo (as its redo path and as the source of inverse operations) and put
// (as the thing it actually drives the filesystem with).
package ops

import (
	"os"

	"github.com/pkg/errors"
)

// Op names one primitive filesystem action. Grounded on the teacher
// corpus's original_source/src/ops.h enum OPS, extended with the Force and
// Append variants that original_source/src/fops_put.c dispatches
// (OP_MOVEF/OP_COPYF/OP_MOVEA) but which the retrieved ops.h snapshot
// predates — see DESIGN.md.
type Op int

const (
	None Op = iota
	Remove
	RemoveSilent // rm -rf, skip the "are you sure" accounting undo does for Remove
	Copy
	CopyForce // copy, replacing an existing destination
	Move
	MoveForce  // move, replacing an existing destination
	MoveAppend // move, appending src's bytes onto an existing destination
	MoveTmp0   // multi-file rename, stage 0: src -> unique scratch name
	MoveTmp1
	MoveTmp2
	MoveTmp3
	MoveTmp4
	Chown
	Chgrp
	Chmod
	ChmodR // recursive chmod
	Symlink
	SymlinkRel // relative-path variant of Symlink
	Mkdir
	Rmdir
	Mkfile
	opCount
)

func (o Op) String() string {
	if n, ok := names[o]; ok {
		return n
	}
	return "unknown-op"
}

var names = map[Op]string{
	None:         "none",
	Remove:       "remove",
	RemoveSilent: "remove-silent",
	Copy:         "copy",
	CopyForce:    "copy-force",
	Move:         "move",
	MoveForce:    "move-force",
	MoveAppend:   "move-append",
	MoveTmp0:     "move-tmp0",
	MoveTmp1:     "move-tmp1",
	MoveTmp2:     "move-tmp2",
	MoveTmp3:     "move-tmp3",
	MoveTmp4:     "move-tmp4",
	Chown:        "chown",
	Chgrp:        "chgrp",
	Chmod:        "chmod",
	ChmodR:       "chmod-r",
	Symlink:      "symlink",
	SymlinkRel:   "symlink-rel",
	Mkdir:        "mkdir",
	Rmdir:        "rmdir",
	Mkfile:       "mkfile",
}

// Result mirrors the teacher's OpsResult: an operation either fully
// succeeded, failed outright, or was skipped by policy (e.g. a background
// cancellation) before it ran at all.
type Result int

const (
	Succeeded Result = iota
	Failed
	Skipped
)

// Data carries the handful of per-call extras some ops need: a mode for
// Chmod/Mkdir, an owner/group id for Chown/Chgrp, and an "is directory"
// hint used by Mkdir to decide whether missing parents should also be
// created.
type Data struct {
	Mode       os.FileMode
	UID        int
	GID        int
	CreateDirs bool
}

// Dispatcher is a pure Op -> executor table (spec.md §3 "OpDispatcher").
// It has no state of its own — it exists so undo and put can share one
// definition of what each Op actually does to the filesystem.
type Dispatcher struct {
	table map[Op]func(data Data, src, dst string) error
}

// New builds a Dispatcher wired to real os.* calls.
func New() *Dispatcher {
	d := &Dispatcher{table: make(map[Op]func(Data, string, string) error)}
	d.table[Remove] = opRemove
	d.table[RemoveSilent] = opRemove
	d.table[Copy] = opCopy
	d.table[CopyForce] = opCopyForce
	d.table[Move] = opMove
	d.table[MoveForce] = opMoveForce
	d.table[MoveAppend] = opMoveAppend
	d.table[MoveTmp0] = opMove
	d.table[MoveTmp1] = opMove
	d.table[MoveTmp2] = opMove
	d.table[MoveTmp3] = opMove
	d.table[MoveTmp4] = opMove
	d.table[Chown] = opChown
	d.table[Chgrp] = opChgrp
	d.table[Chmod] = opChmod
	d.table[ChmodR] = opChmodR
	d.table[Symlink] = opSymlink
	d.table[SymlinkRel] = opSymlink
	d.table[Mkdir] = opMkdir
	d.table[Rmdir] = opRmdir
	d.table[Mkfile] = opMkfile
	return d
}

// Perform runs op, mirroring the teacher's perform_operation entry point.
// Succeeded/Failed is reported rather than a bare error so callers that
// only care about pass/fail (undo eviction, put's retry loop) don't need
// to unwrap errors.Is chains on the hot path; the error itself is still
// returned for logging.
func (d *Dispatcher) Perform(op Op, data Data, src, dst string) (Result, error) {
	fn, ok := d.table[op]
	if !ok || fn == nil {
		return Failed, errors.Errorf("ops: no executor registered for %s", op)
	}
	if err := fn(data, src, dst); err != nil {
		return Failed, errors.Wrapf(err, "ops: %s %s -> %s", op, src, dst)
	}
	return Succeeded, nil
}

func opRemove(_ Data, src, _ string) error {
	err := os.RemoveAll(src)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func opCopy(data Data, src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return errors.Errorf("destination already exists: %s", dst)
	}
	return copyPath(data, src, dst)
}

func opCopyForce(data Data, src, dst string) error {
	if err := os.RemoveAll(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return copyPath(data, src, dst)
}

func opMove(_ Data, src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return errors.Errorf("destination already exists: %s", dst)
	}
	return os.Rename(src, dst)
}

func opMoveForce(_ Data, src, dst string) error {
	if err := os.RemoveAll(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(src, dst)
}

func opMoveAppend(_ Data, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := copyBytes(out, in); err != nil {
		return err
	}
	return os.Remove(src)
}

func opChown(data Data, src, _ string) error {
	return os.Chown(src, data.UID, -1)
}

func opChgrp(data Data, src, _ string) error {
	return os.Chown(src, -1, data.GID)
}

func opChmod(data Data, src, _ string) error {
	return os.Chmod(src, data.Mode)
}

func opChmodR(data Data, src, _ string) error {
	return filepathWalk(src, func(path string) error {
		return os.Chmod(path, data.Mode)
	})
}

func opSymlink(_ Data, src, dst string) error {
	return os.Symlink(src, dst)
}

func opMkdir(data Data, src, _ string) error {
	if data.CreateDirs {
		return os.MkdirAll(src, 0o755)
	}
	return os.Mkdir(src, 0o755)
}

func opRmdir(_ Data, src, _ string) error {
	return os.Remove(src)
}

func opMkfile(_ Data, src, _ string) error {
	f, err := os.OpenFile(src, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
