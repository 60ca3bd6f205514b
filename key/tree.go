package key

// NodeType classifies a terminal node in a KeyTree (spec.md §3 "KeyTree").
type NodeType int

const (
	// WaitPoint marks a node that is purely a prefix — matching it alone
	// never dispatches anything, more keys are required.
	WaitPoint NodeType = iota
	// Cmd is an ordinary builtin terminal node.
	Cmd
	// NimCmd is a Cmd that additionally accepts a "number in the middle"
	// (e.g. "d2d") right after its first key.
	NimCmd
	// UserCmd was bound by the user and expands to another key sequence.
	UserCmd
	// ForeignCmd was bound by a plugin and invokes a callback directly.
	ForeignCmd
)

// Follow names the grammar expectation attached to a terminal node.
type Follow int

const (
	FollowNone Follow = iota
	FollowSelector
	FollowMultiKey
)

// Source records who registered a binding, used by List/Suggest to filter
// and to render provenance.
type Source int

const (
	SourceBuiltin Source = iota
	SourceUser
	SourceForeign
)

// UserFlags are the flags accepted by UserAdd (spec.md §4.1).
type UserFlags uint8

const (
	NoRemap UserFlags = 1 << iota
	Silent
	WaitFlag
)

// Handler is the payload of a Cmd/NimCmd/ForeignCmd node. It mirrors the
// teacher corpus's void-returning keys_handler typedef (vifm's
// engine/keys.h): handlers act by side effect and don't themselves
// report a KeyEngine-level result code.
type Handler func(Info, *ResultInfo)

// DefaultHandler handles any key not matched by a mode's tree. It returns
// a result code that the caller may treat as significant (spec.md §4.1).
type DefaultHandler func(Key) int

// Spec is the payload carried by a tree node once it becomes a dispatch
// target (as opposed to a bare prefix WaitPoint with no spec).
type Spec struct {
	Type   NodeType
	Follow Follow

	Handler Handler // Cmd, NimCmd, ForeignCmd

	// UserCmd-only fields: the RHS key sequence and its registration flags.
	RHS   []Key
	Flags UserFlags

	ShortDesc      string
	SkipSuggestion bool
	Source         Source
}

// node holds two independent layers so that a user mapping can shadow a
// builtin or foreign binding without destroying it: user_remove (spec.md
// §4.1) just clears the overlay and the base binding reappears.
type node struct {
	children map[Key]*node
	base     *Spec // builtin or foreign, whichever was registered last
	user     *Spec // user override layer, nil if none

	// nimGap marks a one-key-deep node as the insertion point for a
	// NimCmd's "number in the middle" (spec.md §3 "NimCmd").
	nimGap bool
}

func newNode() *node {
	return &node{children: make(map[Key]*node)}
}

// effective returns the spec that should govern dispatch at this node: the
// user overlay if present, else the base binding.
func (n *node) effective() *Spec {
	if n.user != nil {
		return n.user
	}
	return n.base
}

// specFor returns the user overlay when remap is true and present,
// otherwise the base binding — used by ExecuteNoRemap to bypass user
// mappings entirely while still answering wait/ambiguity questions about
// the same node.
func (n *node) specFor(remap bool) *Spec {
	if remap {
		return n.effective()
	}
	return n.base
}

// tree is a per-mode trie keyed by Key sequences.
type tree struct {
	root *node
}

func newTree() *tree {
	return &tree{root: newNode()}
}

func (t *tree) descend(seq []Key) *node {
	cur := t.root
	for _, k := range seq {
		child, ok := cur.children[k]
		if !ok {
			child = newNode()
			cur.children[k] = child
		}
		cur = child
	}
	return cur
}

// addBase registers a builtin or foreign node, creating WaitPoint prefix
// nodes as needed.
func (t *tree) addBase(seq []Key, spec Spec) {
	s := spec
	t.descend(seq).base = &s
}

// addUser registers a user-override node, preserving whatever base binding
// was already at that path.
func (t *tree) addUser(seq []Key, spec Spec) {
	s := spec
	t.descend(seq).user = &s
}

// removeUser clears the user-override layer at seq, if present, letting the
// base (builtin/foreign) binding show through again. Builtin and foreign
// nodes are never touched here.
func (t *tree) removeUser(seq []Key) bool {
	cur := t.root
	for _, k := range seq {
		child, ok := cur.children[k]
		if !ok {
			return false
		}
		cur = child
	}
	if cur.user == nil {
		return false
	}
	cur.user = nil
	return true
}

// clearUser wipes every user-override layer in the tree.
func (t *tree) clearUser(n *node) {
	n.user = nil
	for _, child := range n.children {
		t.clearUser(child)
	}
}

// anyWaitFlagged reports whether any UserCmd descendant of n (including n
// itself) was registered with the WaitFlag flag. Used to resolve the
// WAIT vs WAIT_SHORT ambiguity per the "any wait flag wins" reading of the
// spec's open question (see DESIGN.md).
func anyWaitFlagged(n *node) bool {
	if s := n.effective(); s != nil && s.Type == UserCmd && s.Flags&WaitFlag != 0 {
		return true
	}
	for _, child := range n.children {
		if anyWaitFlagged(child) {
			return true
		}
	}
	return false
}
