// Package undo implements the UndoLog (spec.md §3): a linear history of
// grouped operations with a cursor, able to walk backward (undo) and
// forward (redo) by running each entry's inverse or original Op through a
// shared ops.Dispatcher. Grounded on original_source/src/undo.c.
package undo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dstasiuk/corefm/internal/fmlog"
	"github.com/dstasiuk/corefm/ops"
	"github.com/dstasiuk/corefm/trash"
)

// Result codes mirror original_source/src/undo.h's undo_group/redo_group
// return values where one exists (Success, NoOp, Errors, Impossible,
// CannotUndo, SkippedByUser, SkippedByPriorErr, Cancelled all share the
// teacher's numeric value for the same case). Broken and Unbalanced are a
// Go-side split of the teacher's single -4 ("skipped unbalanced
// operation"): the teacher physically sweeps an incomplete group's
// leftover entries out of the list before undo_group ever sees them
// (cmd_group_end's trailing while loop), where this port keeps them and
// must refuse to replay them explicitly — see DESIGN.md.
const (
	Success           = 0
	NoOp              = -1
	Errors            = -2
	Impossible        = -3
	Unbalanced        = -4
	CannotUndo        = -5
	SkippedByUser     = -6
	Cancelled         = -7
	Broken            = -8
	SkippedByPriorErr = 1
)

// Entry is one recorded operation within a Group. DoData/UndoData carry
// whatever the Op's inverse needs beyond src/dst (e.g. the previous mode
// for Chmod).
type Entry struct {
	Op       ops.Op
	DoData   ops.Data
	UndoData ops.Data
	Src      string
	Dst      string
}

// Group is one undo/redo unit: cmd_group_begin/cmd_group_end in the
// teacher bracket one of these around a batch of Entries that must undo or
// redo together.
type Group struct {
	Msg        string
	Entries    []Entry
	Incomplete bool // member Entries were evicted by undo_levels, or the group closed with none
}

// PerformFunc executes one Op against the filesystem. ops.Dispatcher.Perform
// satisfies this directly.
type PerformFunc func(op ops.Op, data ops.Data, src, dst string) (ops.Result, error)

// OpAvailFunc vetoes an Op at the current host before UndoLog ever attempts
// it, matching op_avail_func in original_source/src/undo.c's is_op_possible
// (e.g. a platform that can't create symlinks rejects Op.Symlink outright).
// A nil OpAvailFunc never vetoes.
type OpAvailFunc func(op ops.Op) bool

// CancelFunc is polled between entries during GroupUndo/GroupRedo,
// matching cancel_func in original_source/src/undo.c's undo_group/
// redo_group loops. It is never polled before the first entry of a group:
// a group that has started always finishes its current entry before
// cancellation can take effect (spec.md §5). A nil CancelFunc never
// cancels.
type CancelFunc func() bool

// Log is the UndoLog: a slice of Groups with a cursor separating "done"
// groups (before the cursor) from "undone" groups still available for
// redo (at or after the cursor). Adding a new group while the cursor isn't
// at the end truncates the redo tail, matching the teacher's add_operation
// (spec.md §3 "branch truncation").
type Log struct {
	perform   PerformFunc
	opAvail   OpAvailFunc
	cancel    CancelFunc
	maxLevels func() int
	trashDir  func() string
	log       fmlog.Logger

	groups []Group
	cursor int

	open        *Group
	openErrored bool
}

// Init builds a Log. perform, opAvail and cancel correspond directly to
// init_undo_list's exec_cb/op_avail_cb/cancel_cb (spec.md §4.2); opAvail
// and cancel may be nil (never veto / never cancel). maxLevels is read on
// every add so the host can change the undo_levels setting at runtime; a
// non-positive value disables recording entirely (entries are dispatched
// but not kept), mirroring the teacher's "silently drop" behaviour for
// undo_levels <= 0. trashDir, when non-nil, names the directory inside
// which an occupied precondition path may be renamed out of the way
// rather than refused outright ("Op availability & auto-rename",
// spec.md §4.2); nil disables that retry. logger may be nil, in which case
// GroupUndo/GroupRedo failures go unlogged — the core never logs on its
// own behalf otherwise (SPEC_FULL.md §2.2).
func Init(perform PerformFunc, opAvail OpAvailFunc, cancel CancelFunc, maxLevels func() int, trashDir func() string, logger fmlog.Logger) *Log {
	if logger == nil {
		logger = fmlog.Discard
	}
	return &Log{
		perform:   perform,
		opAvail:   opAvail,
		cancel:    cancel,
		maxLevels: maxLevels,
		trashDir:  trashDir,
		log:       logger,
	}
}

// GroupOpen starts a new command group, matching cmd_group_begin. msg is
// kept verbatim (not copied defensively in the teacher either) until
// ReplaceGroupMsg or GroupClose runs.
func (l *Log) GroupOpen(msg string) {
	l.open = &Group{Msg: msg}
	l.openErrored = false
}

// GroupContinue reopens the most recently closed group so further entries
// can be appended to it, matching cmd_group_continue.
func (l *Log) GroupContinue() {
	if len(l.groups) == 0 {
		l.GroupOpen("")
		return
	}
	last := l.groups[len(l.groups)-1]
	l.groups = l.groups[:len(l.groups)-1]
	if l.cursor > len(l.groups) {
		l.cursor = len(l.groups)
	}
	l.open = &last
}

// ReplaceGroupMsg sets the open group's message, returning the previous
// one.
func (l *Log) ReplaceGroupMsg(msg string) string {
	if l.open == nil {
		return ""
	}
	prev := l.open.Msg
	l.open.Msg = msg
	return prev
}

// LastGroupEmpty reports whether the currently open group has no entries
// yet.
func (l *Log) LastGroupEmpty() bool {
	return l.open == nil || len(l.open.Entries) == 0
}

// AddOp appends an already-performed operation to the open group. It is
// the caller's responsibility to have actually run (op, doData, src, dst)
// through the dispatcher first — AddOp only records history, following
// the teacher's add_operation which is likewise called after the fact.
func (l *Log) AddOp(op ops.Op, doData, undoData ops.Data, src, dst string) {
	if l.open == nil {
		l.GroupOpen("")
	}
	l.open.Entries = append(l.open.Entries, Entry{
		Op: op, DoData: doData, UndoData: undoData, Src: src, Dst: dst,
	})
}

// GroupClose ends the open group, recording it into the log (unless
// undo_levels <= 0, in which case it is discarded) and evicting entries
// past maxLevels one at a time — not whole groups — so that
// |entries| <= undo_levels holds for the log as a whole (spec.md §3, §8
// property 4). A group that loses one of its member entries to eviction
// this way is left in place with its remaining entries but flagged
// Incomplete, matching remove_cmd's "last_cmd_in_group" check in
// original_source/src/undo.c:419 (a group is only ever discarded outright
// once every one of its entries has been evicted). Adding past the cursor
// truncates anything that was available for redo.
func (l *Log) GroupClose() {
	if l.open == nil {
		return
	}
	g := *l.open
	l.open = nil
	if len(g.Entries) == 0 {
		g.Incomplete = true
	}

	limit := 0
	if l.maxLevels != nil {
		limit = l.maxLevels()
	}
	if limit <= 0 {
		// Matches add_operation's silent drop when *undo_levels <= 0: the
		// operation still happened, it's just not remembered.
		return
	}

	l.groups = append(l.groups[:l.cursor], g)
	l.cursor++

	for l.totalEntries() > limit {
		l.evictOldestEntry()
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

func (l *Log) totalEntries() int {
	n := 0
	for _, g := range l.groups {
		n += len(g.Entries)
	}
	return n
}

// evictOldestEntry drops the single oldest Entry across all groups,
// marking its group Incomplete if the group still has members afterward,
// or dropping the whole (now-empty) group otherwise. Grounded on
// remove_cmd's behaviour when called from add_operation's
// "while(command_count >= *undo_levels) remove_cmd(cmds.next)" loop.
func (l *Log) evictOldestEntry() {
	if len(l.groups) == 0 {
		return
	}
	g := &l.groups[0]
	if len(g.Entries) > 1 {
		g.Entries = g.Entries[1:]
		g.Incomplete = true
		return
	}
	l.groups = l.groups[1:]
	l.cursor--
}

// GroupUndo undoes the group immediately before the cursor.
func (l *Log) GroupUndo() int {
	if l.cursor == 0 {
		return NoOp
	}
	gi := l.cursor - 1
	g := &l.groups[gi]
	if g.Incomplete {
		l.cursor--
		return Broken
	}

	steps, ok := l.planUndo(g)
	if !ok {
		return CannotUndo
	}
	if steps == nil {
		l.cursor--
		return Impossible
	}

	errs, cancelled := l.run(steps, "undo")
	l.cursor--
	return outcome(errs, cancelled)
}

// GroupRedo redoes the group at the cursor.
func (l *Log) GroupRedo() int {
	if l.cursor >= len(l.groups) {
		return NoOp
	}
	g := &l.groups[l.cursor]
	if g.Incomplete {
		l.cursor++
		return Broken
	}

	steps := l.planRedo(g)
	if steps == nil {
		l.cursor++
		return Impossible
	}

	errs, cancelled := l.run(steps, "redo")
	l.cursor++
	return outcome(errs, cancelled)
}

func outcome(errs, cancelled bool) int {
	switch {
	case cancelled:
		return Cancelled
	case errs:
		return Errors
	default:
		return Success
	}
}

type step struct {
	op       ops.Op
	data     ops.Data
	src, dst string
}

// planUndo walks g's entries back to front, computing each one's inverse
// and checking "Op availability & auto-rename" (spec.md §4.2) before
// committing to running anything: a group either undoes in full or not at
// all, matching is_undo_group_possible's precheck pass over the whole
// group before undo_group performs a single op. ok is false when an entry
// has no inverse; steps is nil when the group turned out impossible to
// undo at the current host.
func (l *Log) planUndo(g *Group) (steps []step, ok bool) {
	for i := range g.Entries {
		if _, _, _, _, invertible := invertRefs(&g.Entries[i]); !invertible {
			return nil, false
		}
	}

	steps = make([]step, len(g.Entries))
	for i := len(g.Entries) - 1; i >= 0; i-- {
		e := &g.Entries[i]
		op, src, dst, data, _ := invertRefs(e)
		if !l.checkAndRename(op, src, dst) {
			return nil, true
		}
		steps[len(g.Entries)-1-i] = step{op: op, data: data, src: *src, dst: deref(dst)}
	}
	return steps, true
}

// planRedo is planUndo's forward counterpart: it runs each entry's own Op
// rather than its inverse, matching is_redo_group_possible.
func (l *Log) planRedo(g *Group) []step {
	steps := make([]step, len(g.Entries))
	for i := range g.Entries {
		e := &g.Entries[i]
		if !l.checkAndRename(e.Op, &e.Src, &e.Dst) {
			return nil
		}
		steps[i] = step{op: e.Op, data: e.DoData, src: e.Src, dst: e.Dst}
	}
	return steps
}

// run performs steps in order, polling cancel between entries (never
// before the first — the current entry always finishes, spec.md §5) and
// logging any perform failure under label ("undo" or "redo").
func (l *Log) run(steps []step, label string) (errs, cancelled bool) {
	for i, s := range steps {
		if i > 0 && l.cancel != nil && l.cancel() {
			return errs, true
		}
		res, err := l.perform(s.op, s.data, s.src, s.dst)
		if res != ops.Succeeded {
			errs = true
			if err != nil {
				l.log.Errorf(err, "%s: %s %s -> %s", label, s.op, s.src, s.dst)
			}
		}
	}
	return errs, false
}

// IsUndoPossible reports whether GroupUndo would have anything to do.
func (l *Log) IsUndoPossible() bool { return l.cursor > 0 }

// IsRedoPossible reports whether GroupRedo would have anything to do.
func (l *Log) IsRedoPossible() bool { return l.cursor < len(l.groups) }

// List returns one line per group; when detail is true, each group's line
// is followed by one line per entry within it, matching undolist(detail).
func (l *Log) List(detail bool) []string {
	var out []string
	for _, g := range l.groups {
		out = append(out, g.Msg)
		if detail {
			for _, e := range g.Entries {
				out = append(out, "  "+e.Op.String()+" "+e.Src+" -> "+e.Dst)
			}
		}
	}
	return out
}

// Position returns the cursor's position in the slice List would return,
// matching get_undolist_pos(detail).
func (l *Log) Position(detail bool) int {
	if !detail {
		return l.cursor
	}
	pos := 0
	for _, g := range l.groups[:l.cursor] {
		pos += 1 + len(g.Entries)
	}
	return pos
}

// ClearCmdsWithTrash drops every entry (and any group left fully empty as
// a result) that references a path under trashDir, matching
// clean_cmds_with_trash — called when the trash directory itself is
// emptied out from under the undo log.
func (l *Log) ClearCmdsWithTrash(trashDir string) {
	kept := l.groups[:0]
	removedBeforeCursor := 0
	for i, g := range l.groups {
		var entries []Entry
		for _, e := range g.Entries {
			if strings.HasPrefix(e.Src, trashDir) || strings.HasPrefix(e.Dst, trashDir) {
				continue
			}
			entries = append(entries, e)
		}
		if len(entries) == 0 {
			if i < l.cursor {
				removedBeforeCursor++
			}
			continue
		}
		g.Entries = entries
		kept = append(kept, g)
	}
	l.groups = kept
	l.cursor -= removedBeforeCursor
	if l.cursor < 0 {
		l.cursor = 0
	}
}

// invertRefs computes the Op/Data that undoes e, along with pointers
// directly into e's own Src/Dst fields so that checkAndRename's
// auto-rename threads back into the stored entry rather than a disposable
// copy. ok is false when e's Op has no inverse (a plain Remove/
// RemoveSilent is permanent — only a move into the trash, recorded as
// Op.Move, can be undone).
func invertRefs(e *Entry) (op ops.Op, src, dst *string, data ops.Data, ok bool) {
	switch e.Op {
	case ops.Move, ops.MoveForce, ops.MoveAppend,
		ops.MoveTmp0, ops.MoveTmp1, ops.MoveTmp2, ops.MoveTmp3, ops.MoveTmp4:
		return ops.Move, &e.Dst, &e.Src, ops.Data{}, true
	case ops.Copy, ops.CopyForce:
		return ops.RemoveSilent, &e.Dst, nil, ops.Data{}, true
	case ops.Mkdir:
		return ops.Rmdir, &e.Src, nil, ops.Data{}, true
	case ops.Rmdir:
		return ops.Mkdir, &e.Src, nil, e.UndoData, true
	case ops.Mkfile:
		return ops.RemoveSilent, &e.Src, nil, ops.Data{}, true
	case ops.Symlink, ops.SymlinkRel:
		return ops.RemoveSilent, &e.Dst, nil, ops.Data{}, true
	case ops.Chmod, ops.ChmodR, ops.Chown, ops.Chgrp:
		return e.Op, &e.Src, &e.Dst, e.UndoData, true
	default:
		return 0, nil, nil, ops.Data{}, false
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// checkAndRename is is_op_possible (original_source/src/undo.c): it first
// consults opAvail, then op's exists/dont_exist precondition (the
// "opers" table, collapsed here to the subset of ops AddOp actually
// records). When the absent side is occupied and lies inside trashDir, it
// is renamed to a fresh name via trash.Mangle and the write lands through
// the absent side's pointer so the caller's (and the stored Entry's) path
// is updated for good; otherwise op is rejected outright. Renames only
// thread through the two fields of the single entry being checked — the
// teacher's buf1/buf2 arena additionally threads a rename across sibling
// entries that happen to share the same string, which this port's
// per-entry string fields don't model; see DESIGN.md.
func (l *Log) checkAndRename(op ops.Op, src, dst *string) bool {
	if l.opAvail != nil && !l.opAvail(op) {
		return false
	}

	mustExist, mustAbsent := preconditionPaths(op, src, dst)
	if mustExist != "" {
		if _, err := os.Lstat(mustExist); err != nil {
			return false
		}
	}
	if mustAbsent == nil {
		return true
	}
	if _, err := os.Lstat(*mustAbsent); err != nil {
		return true // already absent, as required
	}

	if l.trashDir == nil {
		return false
	}
	dir := l.trashDir()
	if dir == "" || !strings.HasPrefix(*mustAbsent, dir) {
		return false
	}
	renamed, err := trash.Mangle(dir, filepath.Base(*mustAbsent))
	if err != nil {
		return false
	}
	*mustAbsent = filepath.Join(dir, renamed)
	return true
}

// preconditionPaths returns the path that must already exist (mustExist,
// "" if op has none) and a pointer to the path that must be absent
// (mustAbsent, nil if op has none) before op may run. Force/Append
// variants exist precisely to bypass the "destination absent" check, so
// they report no mustAbsent at all.
func preconditionPaths(op ops.Op, src, dst *string) (mustExist string, mustAbsent *string) {
	switch op {
	case ops.Move, ops.Copy, ops.MoveTmp0, ops.MoveTmp1, ops.MoveTmp2, ops.MoveTmp3, ops.MoveTmp4:
		return *src, dst
	case ops.MoveForce, ops.CopyForce, ops.MoveAppend:
		return *src, nil
	case ops.Symlink, ops.SymlinkRel:
		return "", dst
	case ops.Mkdir, ops.Mkfile:
		return "", src
	case ops.Rmdir, ops.Remove, ops.RemoveSilent, ops.Chmod, ops.ChmodR, ops.Chown, ops.Chgrp:
		return *src, nil
	default:
		return "", nil
	}
}
