package key

// Mode identifies one of the engine's symbolic modes (spec.md §3). At most
// one primary and one secondary mode are active in a host application;
// KeyEngine itself just indexes trees by Mode and leaves composing
// primary/secondary to the caller.
type Mode int

const (
	Normal Mode = iota
	CmdLine
	Visual
	Menu
	Sort
	Attr
	Change
	View
	FileInfo
	Msg
	More

	modeCount
)

// Flags declares what a mode's key grammar consumes before it walks the
// tree (spec.md §3 "mode-flags").
type Flags uint8

const (
	// UsesRegisters: a leading "<reg>, consumes the register prefix.
	UsesRegisters Flags = 1 << iota
	// UsesCount: a leading decimal run is parsed as a repeat count.
	UsesCount
	// UsesInput: arbitrary keys that don't resolve to a tree node are
	// still meaningful (e.g. command-line editing) rather than unknown.
	UsesInput
)

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }
