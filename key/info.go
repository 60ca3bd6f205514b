package key

// NoCount and NoRegister are the "absent" sentinels for KeyInfo.Count and
// KeyInfo.Register (spec.md §3).
const (
	NoCount    = -1
	NoRegister = -1
)

// maxCount is the saturation point for a parsed count prefix (spec.md §4.1
// step 2: "Count saturates to a 32-bit signed maximum").
const maxCount = 1<<31 - 1

// Info is the input handed to a dispatched handler.
type Info struct {
	Count    int  // NoCount if absent
	Register rune // NoRegister if absent; HasReg reports whether one was given
	HasReg   bool
	Multi    Key // captured MultiKey argument, Invalid if not applicable
	UserData any
}

// ResultInfo is the output channel threaded through a selector evaluation
// and back to the command handler it feeds (spec.md §3 "KeysInfo").
type ResultInfo struct {
	Selector  bool  // this call is evaluating a selector
	Count     int   // the selector's count prefix, NoCount if absent
	Indexes   []int // the resolved index set
	AfterWait bool  // resolved via the short-timeout path
	Mapped    bool  // result of a UserCmd expansion
	Recursive bool  // nested execution (mapping expansion)
}
