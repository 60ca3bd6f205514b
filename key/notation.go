package key

import (
	"strings"

	runewidth "github.com/mattn/go-runewidth"
)

// namedBrackets is the table driving both directions of bracket-notation
// conversion (spec.md §6). Modelled on the teacher's (fzf) key-chord
// parser in src/options.go parseKeyChords, which takes the same
// name -> Key switch-table shape; trimmed down to the fixed set of
// brackets this engine's spec names instead of fzf's much larger
// terminal-event vocabulary.
var namedBrackets = []struct {
	name string
	key  Key
}{
	{"<esc>", Esc},
	{"<cr>", Enter},
	{"<space>", Space},
	{"<c-w>", Ctrl('w')},
	{"<lt>", Key('<')},
	{"<nop>", Nop},
	{"<up>", Up},
	{"<down>", Down},
	{"<left>", Left},
	{"<right>", Right},
	{"<home>", Home},
	{"<end>", End},
	{"<pageup>", PageUp},
	{"<pagedown>", PageDown},
	{"<bs>", Backspace},
	{"<del>", Delete},
	{"<tab>", Tab},
	{"<c-i>", Tab},
}

// bracketFor is namedBrackets indexed by the notation the user typed,
// including the <c-i> alias for <tab> (they compare equal downstream).
func bracketFor(tag string) (Key, bool) {
	for _, b := range namedBrackets {
		if b.name == tag {
			return b.key, true
		}
	}
	return Invalid, false
}

// ParseSeq turns a user-typed key sequence, which may mix literal
// characters and bracket notation (e.g. "2<c-w>dd"), into the Key
// sequence the engine operates on. A '<' that doesn't open a recognised
// bracket is treated as a literal key, along with the rest of the
// unmatched text up to the next '<' or end of string — vifm's own
// notation parser falls back the same way rather than erroring out.
func ParseSeq(raw string) []Key {
	runes := []rune(raw)
	keys := make([]Key, 0, len(runes))
	for i := 0; i < len(runes); {
		if runes[i] == '<' {
			if j := indexRune(runes, i, '>'); j >= 0 {
				tag := strings.ToLower(string(runes[i : j+1]))
				if k, ok := bracketFor(tag); ok {
					keys = append(keys, k)
					i = j + 1
					continue
				}
			}
		}
		keys = append(keys, Key(runes[i]))
		i++
	}
	return keys
}

// FormatSeqWidth is FormatSeq plus its display width, accounting for
// double-width runes (e.g. a <multi> capture of CJK text) the way the
// teacher accounts for its result list's column width with
// runewidth.StringWidth rather than len() or utf8.RuneCountInString,
// since neither matches a real terminal's rendered column count.
func FormatSeqWidth(keys []Key) (string, int) {
	s := FormatSeq(keys)
	return s, runewidth.StringWidth(s)
}

func indexRune(runes []rune, from int, target rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
	}
	return -1
}

// FormatSeq renders a Key sequence back into bracket notation suitable for
// listing output (spec.md §6). A space is only escaped to "<space>" when it
// would otherwise be ambiguous: at the start or end of the rendered
// sequence. Interior spaces are kept literal.
func FormatSeq(keys []Key) string {
	var b strings.Builder
	for i, k := range keys {
		if k == Space {
			if i == 0 || i == len(keys)-1 {
				b.WriteString("<space>")
			} else {
				b.WriteRune(' ')
			}
			continue
		}
		b.WriteString(k.String())
	}
	return b.String()
}
