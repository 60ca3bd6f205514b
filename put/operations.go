package put

import (
	"os"
	"path/filepath"

	"github.com/dstasiuk/corefm/ops"
	"github.com/dstasiuk/corefm/undo"
)

// perform runs op through d and, when it succeeds and u is non-nil, records
// it as its own undo group. Every performed op gets a separate group, so a
// safe overwrite leaves two groups and a merge one per moved entry; the
// whole put is not one group.
func perform(d *ops.Dispatcher, u *undo.Log, op ops.Op, src, dst string) ops.Result {
	res, _ := d.Perform(op, ops.Data{}, src, dst)
	if res == ops.Succeeded && u != nil {
		u.GroupOpen(op.String() + " " + filepath.Base(src))
		u.AddOp(op, ops.Data{}, ops.Data{}, src, dst)
		u.GroupClose()
	}
	return res
}

// putFresh places src at dst, which doesn't exist yet: a plain Copy or
// Move, no conflict possible.
func putFresh(d *ops.Dispatcher, u *undo.Log, src, dst string, move bool) ops.Result {
	if move {
		return perform(d, u, ops.Move, src, dst)
	}
	return perform(d, u, ops.Copy, src, dst)
}

// safeOverwrite replaces an existing dst with src using the three-step
// shuffle the teacher relies on so a crash mid-operation can't destroy
// both copies: move dst aside, place src at dst, then remove (or for a
// move, discard) the displaced original. Grounded on fops_put.c's
// put_next force-overwrite path.
func safeOverwrite(d *ops.Dispatcher, u *undo.Log, src, dst string, move bool) ops.Result {
	tmp := dst + ".corefm-safe-overwrite.tmp"
	_ = os.Remove(tmp)

	if err := os.Rename(dst, tmp); err != nil {
		// Nothing displaced to protect; fall back to a direct force op.
		if move {
			return perform(d, u, ops.MoveForce, src, dst)
		}
		return perform(d, u, ops.CopyForce, src, dst)
	}

	var res ops.Result
	if move {
		res = perform(d, u, ops.Move, src, dst)
	} else {
		res = perform(d, u, ops.Copy, src, dst)
	}

	if res != ops.Succeeded {
		// Put the original back and give up on this file.
		_ = os.Rename(tmp, dst)
		return res
	}

	_ = perform(d, u, ops.RemoveSilent, tmp, "")
	return ops.Succeeded
}

// mergeDirs recursively merges src's contents into dst, matching
// fops_put.c's merge_dirs: files move/copy in, subdirectories recurse,
// and src itself is removed once it's empty.
func mergeDirs(d *ops.Dispatcher, u *undo.Log, src, dst string) ops.Result {
	entries, err := os.ReadDir(src)
	if err != nil {
		return ops.Failed
	}

	for _, entry := range entries {
		childSrc := filepath.Join(src, entry.Name())
		childDst := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if _, err := os.Lstat(childDst); err == nil {
				if res := mergeDirs(d, u, childSrc, childDst); res != ops.Succeeded {
					return res
				}
				continue
			}
			if res := perform(d, u, ops.Move, childSrc, childDst); res != ops.Succeeded {
				return res
			}
			continue
		}

		if _, err := os.Lstat(childDst); err == nil {
			if res := safeOverwrite(d, u, childSrc, childDst, true); res != ops.Succeeded {
				return res
			}
			continue
		}
		if res := perform(d, u, ops.Move, childSrc, childDst); res != ops.Succeeded {
			return res
		}
	}

	return perform(d, u, ops.Rmdir, src, "")
}
