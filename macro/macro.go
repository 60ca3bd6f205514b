// Package macro implements the %-macro expansion surface spec.md §6
// describes: a template string containing %-escapes is expanded against
// the current view state into the literal command line the shell
// actually runs. Grounded on the teacher's replacePlaceholder
// (src/command.go): a single compiled regexp finds every macro
// occurrence, and ReplaceAllStringFunc resolves each one in place,
// exactly the shape this package reuses for a different escape
// character and vocabulary.
package macro

import (
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// View is the subset of file-manager view state a macro can reference.
// The core has no renderer of its own (spec.md §1 Non-goals); callers
// supply whatever numbers are current.
type View struct {
	CurrentFile string
	CurrentDir  string
	OtherDir    string

	Selected      []string // current view's selection, %f/%l
	OtherSelected []string // other view's selection, %F/%L

	Registers func(name byte) []string // backs %rX
}

// Flags are the bit-flag macros (%m, %M, %S, …) that don't expand to
// characters in the command line — they report facts about the
// expansion instead, mirroring spec.md §6's "Flag-macros ... set
// bit-flags returned alongside the expanded string".
type Flags uint32

const (
	FlagHasMarkedCurrent Flags = 1 << iota // %m: current view has a selection
	FlagHasMarkedOther                     // %M: other view has a selection
	FlagSelectionOnly                      // %S: restrict to selected entries only
	FlagQuickView                          // %q
	FlagUnselect                           // %u: clear current selection after running
	FlagUnselectOther                      // %U
	FlagInteractiveUnselect                // %Iu
	FlagInteractiveUnselectOther            // %IU
	FlagInteractive                        // %i
	FlagSingleFile                         // %s: command touches exactly one file
	FlagView                               // %v
	FlagNoCache                            // %n / %pu variants below also set this
	FlagNewLine                            // %N
)

// flagMacros maps the bare macro letter sequence (without the leading
// '%') to the Flags bit it contributes. These never appear in the
// expanded string itself.
var flagMacros = map[string]Flags{
	"m":  FlagHasMarkedCurrent,
	"M":  FlagHasMarkedOther,
	"S":  FlagSelectionOnly,
	"q":  FlagQuickView,
	"u":  FlagUnselect,
	"U":  FlagUnselectOther,
	"Iu": FlagInteractiveUnselect,
	"IU": FlagInteractiveUnselectOther,
	"i":  FlagInteractive,
	"s":  FlagSingleFile,
	"v":  FlagView,
	"n":  FlagNoCache,
	"N":  FlagNewLine,
}

// macroPattern matches every recognised macro form: a register macro
// %rX, a quoted-group opener %", a pipe-list macro %Pl/%Pz, %pu, a
// flag macro (sorted longest-first so %Iu isn't cut short as %I), or a
// single-letter content macro.
var macroPattern = regexp.MustCompile(`%%|%r.|%P[lz]|%pu|%Iu|%IU|%[cdDfFbllLmMSquUinsvN"]`)

// Expand resolves every macro in template against v, returning the
// literal command line plus the flags any flag-macros contributed.
func Expand(template string, v View) (string, Flags) {
	var flags Flags
	out := macroPattern.ReplaceAllStringFunc(template, func(m string) string {
		if m == "%%" {
			return "%"
		}
		letter := m[1:]
		if f, ok := flagMacros[letter]; ok {
			flags |= f
			return ""
		}
		if strings.HasPrefix(letter, "r") && len(letter) == 2 {
			if v.Registers == nil {
				return ""
			}
			return strings.Join(v.Registers(letter[1]), " ")
		}
		switch letter {
		case "c":
			return quote(v.CurrentFile)
		case "d":
			return quote(v.CurrentDir)
		case "D":
			return quote(v.OtherDir)
		case "f":
			return joinQuoted(v.Selected)
		case "F":
			return joinQuoted(v.OtherSelected)
		case "b":
			return joinQuoted(append(append([]string(nil), v.Selected...), v.OtherSelected...))
		case "l":
			return joinQuoted(v.Selected)
		case "L":
			return joinQuoted(v.OtherSelected)
		case `"`:
			// Quote-prefixed group: %" expands to nothing and does not
			// change how the following macro is quoted; that macro
			// expands exactly as it would without the prefix.
			return ""
		case "Pl", "Pz":
			sep := "\n"
			if letter == "Pz" {
				sep = "\x00"
			}
			return strings.Join(append(append([]string(nil), v.Selected...), v.OtherSelected...), sep)
		case "pu":
			flags |= FlagNoCache
			return ""
		}
		return m
	})
	return out, flags
}

// quote wraps s in single quotes, escaping any embedded single quote the
// shell-safe way, matching the teacher's quoteEntry.
func quote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func joinQuoted(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quote(n)
	}
	return strings.Join(out, " ")
}

// encodeFor transcodes s from UTF-8 into enc, used when the selection
// text feeding a macro expansion must cross into a non-UTF8 locale
// (spec.md §6 doesn't mandate this, but original_source's shell
// invocation path assumes the user's $LANG charset, and x/text is the
// teacher's own dependency for exactly this).
func encodeFor(s string, enc encoding.Encoding) (string, error) {
	out, err := enc.NewEncoder().String(s)
	if err != nil {
		return "", err
	}
	return out, nil
}

// UTF16LE is provided for callers that need one concrete non-UTF8
// target without reaching into golang.org/x/text/encoding/unicode
// themselves.
var UTF16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeUTF16LE transcodes an already-expanded macro string to UTF-16LE,
// exercising the x/text dependency SPEC_FULL.md §3 wires into this
// package.
func EncodeUTF16LE(s string) (string, error) {
	return encodeFor(s, UTF16LE)
}
