package key

import (
	"github.com/pkg/errors"

	"github.com/dstasiuk/corefm/internal/util"
)

// Result codes returned by the Execute family and by DefaultHandler.
// Named and scaled after the teacher corpus's tui.Event sentinels
// (src/tui/tui.go) and the magnitude bands from the original engine's
// keys.h (KEYS_UNKNOWN/KEYS_WAIT/KEYS_WAIT_SHORT): kept far apart so a
// caller can never mistake one band for another.
const (
	OK        = 0
	Unknown   = -1024
	Wait      = -2048
	WaitShort = -4096
)

// maxRecursion bounds UserCmd RHS expansion depth, guarding against a
// mapping that (directly or through a chain) maps back to itself.
const maxRecursion = 100

// Engine is the modal keypress engine (spec.md §3 "KeyEngine"): one KeyTree
// and one selector KeyTree per mode, a set of per-mode grammar flags, and
// the default-handler/suspend-UI callbacks a host application supplies at
// Init time.
type Engine struct {
	flags     []Flags
	trees     []*tree
	selectors []*tree
	defaults  []DefaultHandler
	suspendUI func(bool)
	counter   uint64
}

// New builds an Engine with one tree per mode. flags gives each mode's
// grammar flags in Mode order; modes past the end of flags get none.
// suspendUI may be nil, in which case silent mappings simply don't toggle
// anything.
func New(flags []Flags, suspendUI func(bool)) *Engine {
	n := len(flags)
	if n < int(modeCount) {
		n = int(modeCount)
	}
	e := &Engine{
		flags:     make([]Flags, n),
		trees:     make([]*tree, n),
		selectors: make([]*tree, n),
		defaults:  make([]DefaultHandler, n),
		suspendUI: suspendUI,
	}
	copy(e.flags, flags)
	for i := range e.trees {
		e.trees[i] = newTree()
		e.selectors[i] = newTree()
	}
	return e
}

// SetDefaultHandler registers the fallback invoked for a key that resolves
// to Unknown in mode. Mirrors the teacher's default_handler typedef
// (engine/keys.h), used by vifm's modes to eat printable text in
// command-line-like modes instead of bell-and-discard.
func (e *Engine) SetDefaultHandler(mode Mode, h DefaultHandler) {
	e.defaults[int(mode)] = h
}

// AddBuiltin registers a builtin Cmd/NimCmd/WaitPoint node at seq.
func (e *Engine) AddBuiltin(mode Mode, seq []Key, spec Spec) error {
	if len(seq) == 0 {
		return errors.New("key: empty sequence in AddBuiltin")
	}
	if spec.Type == UserCmd || spec.Type == ForeignCmd {
		return errors.New("key: AddBuiltin cannot register a UserCmd or ForeignCmd node")
	}
	spec.Source = SourceBuiltin
	t := e.trees[int(mode)]
	t.addBase(seq, spec)
	if spec.Type == NimCmd {
		if len(seq) < 2 {
			return errors.New("key: NimCmd requires at least two keys")
		}
		t.descend(seq[:1]).nimGap = true
	}
	return nil
}

// AddSelector registers a selector-tree node at seq: a motion or object
// that a FollowSelector command consumes after its own keys.
func (e *Engine) AddSelector(mode Mode, seq []Key, spec Spec) error {
	if len(seq) == 0 {
		return errors.New("key: empty sequence in AddSelector")
	}
	spec.Source = SourceBuiltin
	e.selectors[int(mode)].addBase(seq, spec)
	return nil
}

// UserAdd registers (or overrides) a user key mapping. It succeeds even
// when lhs collides with a builtin, foreign, or another user mapping — the
// overlay always wins until UserRemove or UserClear runs (spec.md §4.1).
func (e *Engine) UserAdd(mode Mode, lhs, rhs []Key, flags UserFlags) error {
	if len(lhs) == 0 {
		return errors.New("key: empty lhs in UserAdd")
	}
	spec := Spec{Type: UserCmd, RHS: append([]Key(nil), rhs...), Flags: flags, Source: SourceUser}
	e.trees[int(mode)].addUser(lhs, spec)
	return nil
}

// ForeignAdd registers a plugin-backed terminal node. Unlike AddBuiltin it
// replaces any existing user mapping at the same path outright, since a
// foreign node is registered by the embedding application rather than the
// end user and should not be silently shadowed (spec.md §4.1).
func (e *Engine) ForeignAdd(mode Mode, seq []Key, handler Handler) error {
	if len(seq) == 0 {
		return errors.New("key: empty sequence in ForeignAdd")
	}
	n := e.trees[int(mode)].descend(seq)
	n.user = nil
	spec := Spec{Type: ForeignCmd, Handler: handler, Source: SourceForeign}
	n.base = &spec
	return nil
}

// UserRemove deletes the user overlay at lhs, if any, letting a shadowed
// builtin or foreign binding reappear. Reports whether anything was there
// to remove.
func (e *Engine) UserRemove(mode Mode, lhs []Key) bool {
	return e.trees[int(mode)].removeUser(lhs)
}

// UserClear wipes every user mapping in mode.
func (e *Engine) UserClear(mode Mode) {
	t := e.trees[int(mode)]
	t.clearUser(t.root)
}

// Counter returns the number of top-level Execute* calls served so far.
// Host applications use it to notice whether anything happened between
// two checks without needing to compare full ResultInfo values.
func (e *Engine) Counter() uint64 { return e.counter }

// Execute resolves keys against mode's tree, expanding user mappings.
func (e *Engine) Execute(mode Mode, keys []Key) (int, int, ResultInfo) {
	return e.run(mode, keys, false, true)
}

// ExecuteNoRemap resolves keys against mode's tree using only builtin and
// foreign bindings — user overlays are bypassed at every node, including
// inside any selector consumed along the way.
func (e *Engine) ExecuteNoRemap(mode Mode, keys []Key) (int, int, ResultInfo) {
	return e.run(mode, keys, false, false)
}

// ExecuteTimedOut resolves keys the same way as Execute, but tells the
// matcher that no further keys are going to arrive: an otherwise-ambiguous
// prefix is resolved now rather than reported as WAIT/WAIT_SHORT.
func (e *Engine) ExecuteTimedOut(mode Mode, keys []Key) (int, int, ResultInfo) {
	return e.run(mode, keys, true, true)
}

// ExecuteTimedOutNoRemap combines ExecuteNoRemap and ExecuteTimedOut.
func (e *Engine) ExecuteTimedOutNoRemap(mode Mode, keys []Key) (int, int, ResultInfo) {
	return e.run(mode, keys, true, false)
}

func (e *Engine) run(mode Mode, keys []Key, timedOut, remap bool) (int, int, ResultInfo) {
	e.counter++
	consumed, result, info := e.dispatch(mode, keys, timedOut, remap, 0)
	return consumed, result, info
}

// dispatch is the shared body behind the four Execute* entry points, and
// also behind a UserCmd's RHS expansion (depth > 0 in that case).
func (e *Engine) dispatch(mode Mode, keys []Key, timedOut, remap bool, depth int) (int, int, ResultInfo) {
	if depth > maxRecursion {
		return len(keys), Unknown, ResultInfo{Recursive: depth > 0}
	}

	flags := e.flags[int(mode)]
	pos := 0
	var info Info
	info.Count = NoCount
	info.Register = NoRegister
	info.Multi = Invalid

	if flags.Has(UsesRegisters) && pos < len(keys) && keys[pos] == Key('"') {
		if pos+1 >= len(keys) {
			if timedOut {
				return len(keys), Unknown, ResultInfo{}
			}
			return 0, Wait, ResultInfo{}
		}
		info.Register = rune(keys[pos+1])
		info.HasReg = true
		pos += 2
	}

	if flags.Has(UsesCount) {
		count, newPos, ambiguous := parseCount(keys, pos, timedOut)
		if ambiguous {
			return 0, Wait, ResultInfo{}
		}
		if newPos > pos {
			info.Count = count
		}
		pos = newPos
	}

	spec, specPos, midCount, result := e.match(e.trees[int(mode)], keys, pos, timedOut, remap)
	switch result {
	case Wait, WaitShort:
		return 0, result, ResultInfo{}
	case Unknown:
		return len(keys), Unknown, ResultInfo{}
	}

	if spec.Type == UserCmd {
		return e.expandUser(mode, *spec, keys, specPos, timedOut, remap, depth)
	}

	if spec.Type == NimCmd && midCount > 0 {
		// vi-style count multiplication: "2d3d" deletes 2*3 lines.
		if info.Count == NoCount {
			info.Count = midCount
		} else {
			info.Count = util.Min(info.Count*midCount, maxCount)
		}
	}

	if info.Count != NoCount {
		// A defensive floor: no parse path should ever produce a count
		// below 1 (parseCount rejects a leading zero, and NimCmd
		// multiplication only runs when midCount > 0), but handlers rely
		// on Count meaning "repeat at least once" so this is clamped
		// rather than trusted.
		info.Count = util.Constrain(info.Count, 1, maxCount)
	}

	return e.dispatchTerminal(mode, *spec, keys, specPos, info, timedOut, remap, depth)
}

// dispatchTerminal resolves a matched Cmd/NimCmd/ForeignCmd's Follow
// requirement (if any) and invokes its handler.
func (e *Engine) dispatchTerminal(mode Mode, spec Spec, keys []Key, p int, info Info, timedOut, remap bool, depth int) (int, int, ResultInfo) {
	var resultInfo ResultInfo
	resultInfo.Recursive = depth > 0

	switch spec.Follow {
	case FollowMultiKey:
		if p >= len(keys) {
			if timedOut {
				return len(keys), Unknown, ResultInfo{}
			}
			return 0, Wait, ResultInfo{}
		}
		info.Multi = keys[p]
		p++
	case FollowSelector:
		selCount, selPos, ambiguous := parseCount(keys, p, timedOut)
		if ambiguous {
			return 0, Wait, ResultInfo{}
		}
		selSpec, selConsumed, _, selResult := e.match(e.selectors[int(mode)], keys, selPos, timedOut, remap)
		switch selResult {
		case Wait, WaitShort:
			return 0, selResult, ResultInfo{}
		case Unknown:
			return len(keys), Unknown, ResultInfo{}
		}
		resultInfo.Selector = true
		if selPos > p {
			resultInfo.Count = selCount
		} else {
			resultInfo.Count = NoCount
		}
		if selSpec.Handler != nil {
			selSpec.Handler(info, &resultInfo)
		}
		p = selConsumed
	}

	if spec.Handler != nil {
		spec.Handler(info, &resultInfo)
	}
	return p, OK, resultInfo
}

// expandUser expands a matched UserCmd's RHS, guarding against runaway
// recursion, and honouring NoRemap/Silent registration flags.
func (e *Engine) expandUser(mode Mode, spec Spec, keys []Key, p int, timedOut, remap bool, depth int) (int, int, ResultInfo) {
	if spec.Flags&Silent != 0 && e.suspendUI != nil {
		e.suspendUI(true)
		defer e.suspendUI(false)
	}

	childRemap := spec.Flags&NoRemap == 0
	// The expansion is resolved as a complete, self-contained sequence:
	// this departs from the original engine, which re-queues the RHS
	// ahead of any remaining typed input so the two can interleave. See
	// DESIGN.md for why that queue-splicing behaviour was not carried
	// over.
	_, result, info := e.dispatch(mode, spec.RHS, true, childRemap, depth+1)
	info.Mapped = true
	info.Recursive = true
	return p, result, info
}

// parseCount consumes a leading run of decimal digits starting at pos,
// saturating at maxCount. A run that could still be extended by more
// digits (we hit the end of keys and the caller says more may arrive) is
// reported as ambiguous so the caller can return Wait. A leading '0' is
// never part of a count — it is left for the tree walk to match (or not)
// as a literal key, per the "leading zero" rule (spec.md §9, see
// DESIGN.md).
func parseCount(keys []Key, pos int, timedOut bool) (count, newPos int, ambiguous bool) {
	if pos >= len(keys) || keys[pos] < '1' || keys[pos] > '9' {
		return NoCount, pos, false
	}
	val := 0
	i := pos
	for i < len(keys) && keys[i] >= '0' && keys[i] <= '9' {
		val = util.Min(val*10+int(keys[i]-'0'), maxCount)
		i++
	}
	if i == len(keys) && !timedOut {
		return 0, pos, true
	}
	return val, i, false
}

// match walks t from its root starting at pos in keys, implementing nim-gap
// digit insertion and the "fallback to the last terminal seen" policy: if
// the walk runs into a key with no matching child, the most recent node
// that was itself a complete binding wins rather than the whole call
// failing outright (spec.md §9's nim leading-zero scenario; see
// DESIGN.md). remap selects whether a node's user overlay or only its base
// binding is visible.
func (e *Engine) match(t *tree, keys []Key, pos int, timedOut, remap bool) (spec *Spec, consumed, midCount, result int) {
	cur := t.root
	var lastTerm *Spec
	lastPos := pos
	lastMid := 0
	mid := 0

	for {
		if s := cur.specFor(remap); s != nil {
			lastTerm = s
			lastPos = pos
			lastMid = mid
		}

		if pos >= len(keys) {
			if len(cur.children) == 0 {
				if s := cur.specFor(remap); s != nil {
					return s, pos, mid, OK
				}
				break
			}
			if !timedOut {
				if cur.specFor(remap) == nil {
					return nil, 0, 0, Wait
				}
				if anyWaitFlagged(cur) {
					return nil, 0, 0, Wait
				}
				return nil, 0, 0, WaitShort
			}
			if s := cur.specFor(remap); s != nil {
				return s, pos, mid, OK
			}
			break
		}

		k := keys[pos]
		if cur.nimGap && k >= '1' && k <= '9' {
			count, newPos, ambiguous := parseCount(keys, pos, timedOut)
			if ambiguous {
				return nil, 0, 0, Wait
			}
			pos = newPos
			mid = count
			continue
		}

		child, ok := cur.children[k]
		if !ok {
			break
		}
		cur = child
		pos++
	}

	if lastTerm != nil {
		return lastTerm, lastPos, lastMid, OK
	}
	return nil, len(keys), 0, Unknown
}
