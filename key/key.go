// Package key implements the modal keypress engine: a per-mode trie of wide
// character sequences (KeyTree) driven by KeyEngine, plus the small bracket
// notation used to write non-printable keys in config files and listings.
package key

import "fmt"

// Key is a single keypress. Non-negative values are wide character code
// points (the canonical form keys are carried in internally — narrow bytes
// are only ever decoded at the terminal boundary, see package keyio).
// Negative values name one of a small set of function keys that have no
// code point of their own.
type Key int32

// Function key sentinels. Control characters that do have a code point
// (Esc, Enter, Tab, Backspace, Space, Ctrl-<letter> combinations) are
// represented by that code point directly and need no sentinel here.
const (
	Invalid Key = -(iota + 1)
	Up
	Down
	Left
	Right
	Home
	End
	PageUp
	PageDown
	Delete
	Mouse
	Resize
	// Nop is not a real key. It is the RHS of a user mapping that exists
	// only to shadow a builtin binding with a no-op (<nop>).
	Nop
)

// Control character code points named in the bracket notation (spec.md §6).
const (
	Esc       Key = 0x1b
	Enter     Key = 0x0d // <cr>
	Tab       Key = 0x09 // == <c-i>
	Backspace Key = 0x08 // <bs>
	Space     Key = 0x20
)

// Ctrl returns the control-character code point for a letter key, e.g.
// Ctrl('w') == 0x17. Only meaningful for 'a'..'z' and a handful of
// punctuation keys that have a control form on a real terminal.
func Ctrl(r rune) Key {
	if r >= 'a' && r <= 'z' {
		return Key(r - 'a' + 1)
	}
	if r >= 'A' && r <= 'Z' {
		return Key(r - 'A' + 1)
	}
	return Key(r)
}

// IsFunction reports whether k is one of the sentinel values above rather
// than a literal code point.
func (k Key) IsFunction() bool {
	return k < 0
}

// Rune returns the literal code point k represents. Only valid when
// !k.IsFunction().
func (k Key) Rune() rune {
	return rune(k)
}

func (k Key) String() string {
	if name, ok := functionNames[k]; ok {
		return name
	}
	switch k {
	case Esc:
		return "<esc>"
	case Enter:
		return "<cr>"
	case Tab:
		return "<tab>"
	case Backspace:
		return "<bs>"
	case Space:
		return "<space>"
	}
	if k >= 0 && k < 0x20 {
		// An unnamed control character: render as <c-x>.
		return fmt.Sprintf("<c-%c>", rune(k)+'a'-1)
	}
	return string(rune(k))
}

var functionNames = map[Key]string{
	Invalid:  "<invalid>",
	Up:       "<up>",
	Down:     "<down>",
	Left:     "<left>",
	Right:    "<right>",
	Home:     "<home>",
	End:      "<end>",
	PageUp:   "<pageup>",
	PageDown: "<pagedown>",
	Delete:   "<del>",
	Mouse:    "<mouse>",
	Resize:   "<resize>",
	Nop:      "<nop>",
}
