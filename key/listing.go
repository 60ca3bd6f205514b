package key

// ListEntry describes one binding surfaced by Engine.List.
type ListEntry struct {
	Seq       []Key
	Type      NodeType
	Source    Source
	ShortDesc string
}

// List walks mode's tree and returns every bound sequence. When onlyUser is
// true, builtin and foreign bindings that aren't currently shadowed by a
// user mapping are omitted (spec.md §4.1 "key listing").
func (e *Engine) List(mode Mode, onlyUser bool) []ListEntry {
	var out []ListEntry
	var walk func(n *node, prefix []Key)
	walk = func(n *node, prefix []Key) {
		if s := n.effective(); s != nil && !(onlyUser && s.Source != SourceUser) {
			out = append(out, ListEntry{
				Seq:       append([]Key(nil), prefix...),
				Type:      s.Type,
				Source:    s.Source,
				ShortDesc: s.ShortDesc,
			})
		}
		for k, child := range n.children {
			walk(child, append(prefix, k))
		}
	}
	walk(e.trees[int(mode)].root, nil)
	return out
}

// Suggestion is one completion of a prefix the user has typed so far.
type Suggestion struct {
	Seq       []Key
	ShortDesc string
}

// Suggest returns every bound sequence that extends prefix, for on-screen
// "which-key"-style hinting. Nodes registered with SkipSuggestion are
// omitted from the result but still walked through, so a hidden
// intermediate binding doesn't hide its own children.
func (e *Engine) Suggest(mode Mode, prefix []Key) []Suggestion {
	cur := e.trees[int(mode)].root
	for _, k := range prefix {
		child, ok := cur.children[k]
		if !ok {
			return nil
		}
		cur = child
	}

	var out []Suggestion
	var walk func(n *node, suffix []Key)
	walk = func(n *node, suffix []Key) {
		if s := n.effective(); s != nil && !s.SkipSuggestion && len(suffix) > 0 {
			seq := make([]Key, 0, len(prefix)+len(suffix))
			seq = append(seq, prefix...)
			seq = append(seq, suffix...)
			out = append(out, Suggestion{Seq: seq, ShortDesc: s.ShortDesc})
		}
		for k, child := range n.children {
			walk(child, append(suffix, k))
		}
	}
	walk(cur, nil)
	return out
}
