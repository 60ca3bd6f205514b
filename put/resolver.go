// Package put implements the PutResolver (spec.md §3): the conflict-aware
// engine behind copy/move-from-register. It is a cooperative state
// machine, not a goroutine — a conflict suspends Run and returns a Prompt;
// the host calls Resolve once it has an answer, exactly as
// original_source/src/fops_put.c's put_next suspends by returning and is
// re-entered through put_continue.
package put

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dstasiuk/corefm/ops"
	"github.com/dstasiuk/corefm/trash"
	"github.com/dstasiuk/corefm/undo"
)

// Decision is the answer to a Prompt, named after the single keys
// prompt_what_to_do offers (spec.md §3 "conflict prompts").
type Decision rune

const (
	DecisionRename       Decision = 'r'
	DecisionCompare      Decision = 'c'
	DecisionSkip         Decision = 's'
	DecisionSkipAll      Decision = 'S'
	DecisionOverwrite    Decision = 'o'
	DecisionOverwriteAll Decision = 'O'
	DecisionAppend       Decision = 'a'
	DecisionMerge        Decision = 'm'
	DecisionMergeAll     Decision = 'M'
	DecisionAbort        Decision = 0x03 // Esc / Ctrl-C
)

// Status is what Run (or Resolve) returns: either the whole put finished,
// or it's suspended waiting for a Decision.
type Status int

const (
	Done Status = iota
	NeedDecision
	Aborted
)

// Prompt describes the conflict Run is suspended on.
type Prompt struct {
	Fname     string // basename at the destination
	CausedBy  string // source path that collides with it
	SameFile  bool   // src and dst resolve to the same file
	CanAppend bool   // both sides are regular files
	CanMerge  bool
	CanMergeAll bool

	// LostSources lists other sources still queued in this same put whose
	// path lies inside dst: overwriting or merging dst over them would
	// destroy data this batch was also meant to place, the scenario
	// handle_clashing escalates on before letting an overwrite proceed.
	LostSources []string
}

// Stats accumulates what happened across the whole put.
type Stats struct {
	Succeeded int
	Skipped   int
	Failed    int
}

// Resolver runs one put/copy/move-from-register operation to completion,
// suspending on conflicts (spec.md §3 "PutResolver").
type Resolver struct {
	dispatcher *ops.Dispatcher
	undoLog    *undo.Log
	trash      *trash.Trash

	dstDir string
	move   bool
	force  bool

	srcs  []string
	order []int
	index int

	skipAll      bool
	overwriteAll bool
	mergeAll     bool

	pending *Prompt
	pendSrc string
	pendDst string

	Stats Stats
}

// New builds a Resolver over srcs (register contents), to be placed into
// dstDir. move selects move-semantics (source removed on success) over
// copy; force pre-answers every conflict with overwrite, matching the
// teacher's force argument to put_files.
func New(d *ops.Dispatcher, u *undo.Log, tr *trash.Trash, srcs []string, dstDir string, move, force bool) *Resolver {
	r := &Resolver{
		dispatcher: d,
		undoLog:    u,
		trash:      tr,
		dstDir:     dstDir,
		move:       move,
		force:      force,
		srcs:       append([]string(nil), srcs...),
	}
	r.order = depthSort(r.srcs)
	partitionDirClashesToTail(r.srcs, r.order, dstDir)
	return r
}

// Run processes sources until completion or a conflict needs a Decision.
func (r *Resolver) Run() Status {
	for r.index < len(r.order) {
		st := r.step()
		if st != Done {
			return st
		}
	}
	return Done
}

// Pending returns the Prompt Run most recently suspended on, or nil.
func (r *Resolver) Pending() *Prompt { return r.pending }

// Resolve supplies the answer to the pending Prompt and resumes Run.
func (r *Resolver) Resolve(d Decision) Status {
	if r.pending == nil {
		return Done
	}
	prompt := r.pending
	src, dst := r.pendSrc, r.pendDst
	r.pending = nil

	switch d {
	case DecisionAbort:
		return Aborted
	case DecisionSkip:
		r.Stats.Skipped++
		r.index++
		return r.Run()
	case DecisionSkipAll:
		r.skipAll = true
		r.Stats.Skipped++
		r.index++
		return r.Run()
	case DecisionOverwriteAll:
		r.overwriteAll = true
		fallthrough
	case DecisionOverwrite:
		r.putOne(src, safeOverwrite(r.dispatcher, r.undoLog, src, dst, r.move))
		r.index++
		return r.Run()
	case DecisionAppend:
		r.putOne(src, perform(r.dispatcher, r.undoLog, ops.MoveAppend, src, dst))
		r.index++
		return r.Run()
	case DecisionMergeAll:
		r.mergeAll = true
		fallthrough
	case DecisionMerge:
		r.putOne(src, mergeDirs(r.dispatcher, r.undoLog, src, dst))
		r.index++
		return r.Run()
	case DecisionRename:
		newName := trash.NextCloneName(r.dstDir, filepath.Base(dst))
		newDst := filepath.Join(r.dstDir, newName)
		r.putOne(src, putFresh(r.dispatcher, r.undoLog, src, newDst, r.move))
		r.index++
		return r.Run()
	default:
		// Unrecognised key: re-issue the same prompt, mirroring the
		// teacher's prompt loop which just waits for a valid response.
		r.pending = prompt
		r.pendSrc, r.pendDst = src, dst
		return NeedDecision
	}
}

func (r *Resolver) step() Status {
	i := r.order[r.index]
	src := r.srcs[i]
	if src == "" {
		// Empty source slots are skipped.
		r.index++
		return Done
	}

	// A source taken from the trash directory is placed under its
	// original (demangled) basename.
	name := filepath.Base(src)
	if r.trash != nil && r.trash.Dir() != "" && strings.HasPrefix(src, r.trash.Dir()+string(filepath.Separator)) {
		name = trash.Demangle(name)
	}
	dst := filepath.Join(r.dstDir, name)

	if _, err := os.Lstat(dst); os.IsNotExist(err) {
		r.putOne(src, putFresh(r.dispatcher, r.undoLog, src, dst, r.move))
		r.index++
		return Done
	}

	if r.force || r.overwriteAll {
		r.putOne(src, safeOverwrite(r.dispatcher, r.undoLog, src, dst, r.move))
		r.index++
		return Done
	}
	if r.skipAll {
		r.Stats.Skipped++
		r.index++
		return Done
	}

	srcInfo, _ := os.Lstat(src)
	dstInfo, _ := os.Lstat(dst)
	if srcInfo != nil && dstInfo != nil && srcInfo.IsDir() && dstInfo.IsDir() {
		if r.mergeAll {
			r.putOne(src, mergeDirs(r.dispatcher, r.undoLog, src, dst))
			r.index++
			return Done
		}
	}

	same := samePath(src, dst)
	canAppend := !same && srcInfo != nil && dstInfo != nil && !srcInfo.IsDir() && !dstInfo.IsDir()
	canMerge := !same && srcInfo != nil && dstInfo != nil && srcInfo.IsDir() && dstInfo.IsDir()

	r.pending = &Prompt{
		Fname:       filepath.Base(dst),
		CausedBy:    src,
		SameFile:    same,
		CanAppend:   canAppend,
		CanMerge:    canMerge,
		CanMergeAll: canMerge,
		LostSources: r.lostSourcesUnder(dst),
	}
	r.pendSrc, r.pendDst = src, dst
	return NeedDecision
}

// lostSourcesUnder returns every not-yet-placed source (other than the one
// currently being resolved) whose path is nested inside dst: proceeding
// with an overwrite or merge at dst would silently destroy them. Mirrors
// handle_clashing's scan of the remaining register entries, simplified to
// a plain warning surfaced on Prompt rather than its own y/n/Ctrl-C
// sub-prompt — see DESIGN.md.
func (r *Resolver) lostSourcesUnder(dst string) []string {
	var lost []string
	dstWithSep := dst + string(filepath.Separator)
	for i := r.index + 1; i < len(r.order); i++ {
		other := r.srcs[r.order[i]]
		if other == "" {
			continue
		}
		if strings.HasPrefix(other, dstWithSep) {
			lost = append(lost, other)
		}
	}
	return lost
}

func (r *Resolver) putOne(src string, res ops.Result) {
	switch res {
	case ops.Succeeded:
		r.Stats.Succeeded++
	case ops.Skipped:
		r.Stats.Skipped++
	default:
		r.Stats.Failed++
	}
}

// depthSort returns an index permutation of srcs ordered deepest real path
// first, matching path_depth_sort (original_source/src/fops_put.c:388,
// chars_in_str(t_real,'/') - chars_in_str(s_real,'/') sorted via qsort). A
// larger sub-tree must be moved into place before any file that would be
// destroyed by overwriting one of its ancestors, so the deeper paths go
// first (spec.md §4.3 "Ordering").
func depthSort(srcs []string) []int {
	order := make([]int, len(srcs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return depth(srcs[order[a]]) > depth(srcs[order[b]])
	})
	return order
}

func depth(path string) int {
	return strings.Count(filepath.Clean(path), string(filepath.Separator))
}

// partitionDirClashesToTail walks the sources and detects those whose
// target exists with the other kind (directory vs non-directory), but it
// neither reorders nor blanks out any source: the queue keeps its depth
// order, and step() prompts on such a source like on any other conflict.
func partitionDirClashesToTail(srcs []string, order []int, dstDir string) {
	for _, i := range order {
		src := srcs[i]
		if src == "" {
			continue
		}
		dst := filepath.Join(dstDir, filepath.Base(src))
		if isDirClash(src, dst) {
			// Left in place; step() will still see it and prompt — the
			// teacher's tail-partitioning is a scheduling optimisation
			// for background progress reporting that doesn't change
			// correctness here, see DESIGN.md.
			continue
		}
	}
}

func isDirClash(src, dst string) bool {
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return false
	}
	dstInfo, err := os.Lstat(dst)
	if err != nil {
		return false
	}
	return srcInfo.IsDir() != dstInfo.IsDir()
}

func samePath(a, b string) bool {
	ai, aerr := os.Stat(a)
	bi, berr := os.Stat(b)
	if aerr != nil || berr != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
