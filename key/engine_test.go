package key

import "testing"

func newTestEngine(t *testing.T) (*Engine, []string) {
	t.Helper()
	var calls []string
	e := New([]Flags{UsesRegisters | UsesCount}, nil)
	e.AddBuiltin(Normal, []Key{'d', 'd'}, Spec{
		Type: Cmd,
		Handler: func(i Info, r *ResultInfo) {
			calls = append(calls, "dd")
		},
	})
	e.AddBuiltin(Normal, []Key{'d', 'w'}, Spec{
		Type: Cmd,
		Handler: func(i Info, r *ResultInfo) {
			calls = append(calls, "dw")
		},
	})
	return e, calls
}

// TestNimCmdMidCountMultiplies covers spec.md §9's "2d3d" scenario: a count
// before the command and a second count in the middle multiply together.
func TestNimCmdMidCountMultiplies(t *testing.T) {
	var gotCount int
	e := New([]Flags{UsesCount}, nil)
	e.AddBuiltin(Normal, []Key{'d', 'd'}, Spec{
		Type: NimCmd,
		Handler: func(i Info, r *ResultInfo) {
			gotCount = i.Count
		},
	})

	seq := []Key{'2', 'd', '3', 'd'}
	consumed, result, _ := e.ExecuteTimedOut(Normal, seq)
	if result != OK {
		t.Fatalf("result = %d, want OK", result)
	}
	if consumed != len(seq) {
		t.Fatalf("consumed = %d, want %d", consumed, len(seq))
	}
	if gotCount != 6 {
		t.Fatalf("Count = %d, want 6 (2*3)", gotCount)
	}
}

// TestNimCmdWithoutPrefixCountUsesMidCount covers "d3d": no leading count,
// only a mid count, so Count is just the mid value.
func TestNimCmdWithoutPrefixCountUsesMidCount(t *testing.T) {
	var gotCount int
	e := New([]Flags{UsesCount}, nil)
	e.AddBuiltin(Normal, []Key{'d', 'd'}, Spec{
		Type: NimCmd,
		Handler: func(i Info, r *ResultInfo) {
			gotCount = i.Count
		},
	})

	seq := []Key{'d', '3', 'd'}
	_, result, _ := e.ExecuteTimedOut(Normal, seq)
	if result != OK {
		t.Fatalf("result = %d, want OK", result)
	}
	if gotCount != 3 {
		t.Fatalf("Count = %d, want 3", gotCount)
	}
}

// TestPlainCmdFallsBackWhenNimSiblingAmbiguous covers a lone 'd' that is
// registered as a terminal Cmd while "dd" is also registered as a NimCmd:
// once the input times out after just "d", the plain 'd' handler runs
// instead of waiting for the longer sequence.
func TestPlainCmdFallsBackWhenNimSiblingAmbiguous(t *testing.T) {
	var calls []string
	e := New([]Flags{UsesCount}, nil)
	e.AddBuiltin(Normal, []Key{'d'}, Spec{
		Type: Cmd,
		Handler: func(i Info, r *ResultInfo) {
			calls = append(calls, "d")
		},
	})
	e.AddBuiltin(Normal, []Key{'d', 'd'}, Spec{
		Type: NimCmd,
		Handler: func(i Info, r *ResultInfo) {
			calls = append(calls, "dd")
		},
	})

	seq := []Key{'d'}
	_, result, _ := e.ExecuteTimedOut(Normal, seq)
	if result != OK {
		t.Fatalf("result = %d, want OK", result)
	}
	if len(calls) != 1 || calls[0] != "d" {
		t.Fatalf("calls = %v, want [d]", calls)
	}
}

func TestPlainSequenceDispatches(t *testing.T) {
	e, _ := newTestEngine(t)
	var got []string
	e.AddBuiltin(Normal, []Key{'x'}, Spec{
		Type: Cmd,
		Handler: func(i Info, r *ResultInfo) {
			got = append(got, "x")
		},
	})
	consumed, result, _ := e.Execute(Normal, []Key{'x'})
	if result != OK || consumed != 1 {
		t.Fatalf("Execute = (%d,%d), want (1,OK)", consumed, result)
	}
	if len(got) != 1 {
		t.Fatalf("got = %v", got)
	}
}

func TestUnfinishedPrefixWaitsThenTimesOutToUnknown(t *testing.T) {
	e, _ := newTestEngine(t)
	_, result, _ := e.Execute(Normal, []Key{'d'})
	if result != Wait {
		t.Fatalf("result = %d, want Wait", result)
	}

	_, result, _ = e.ExecuteTimedOut(Normal, []Key{'d'})
	if result != Unknown {
		t.Fatalf("timed-out result = %d, want Unknown", result)
	}
}

func TestRegisterPrefixParsed(t *testing.T) {
	var gotReg rune
	var gotHasReg bool
	e := New([]Flags{UsesRegisters}, nil)
	e.AddBuiltin(Normal, []Key{'p'}, Spec{
		Type: Cmd,
		Handler: func(i Info, r *ResultInfo) {
			gotReg = i.Register
			gotHasReg = i.HasReg
		},
	})

	seq := []Key{'"', 'a', 'p'}
	consumed, result, _ := e.Execute(Normal, seq)
	if result != OK || consumed != len(seq) {
		t.Fatalf("Execute = (%d,%d), want (%d,OK)", consumed, result, len(seq))
	}
	if !gotHasReg || gotReg != 'a' {
		t.Fatalf("Register = %q, HasReg = %v, want 'a'/true", gotReg, gotHasReg)
	}
}

func TestLeadingZeroIsNotACount(t *testing.T) {
	var gotCount int
	e := New([]Flags{UsesCount}, nil)
	e.AddBuiltin(Normal, []Key{'0'}, Spec{
		Type: Cmd,
		Handler: func(i Info, r *ResultInfo) {
			gotCount = i.Count
		},
	})
	_, result, _ := e.Execute(Normal, []Key{'0'})
	if result != OK {
		t.Fatalf("result = %d, want OK", result)
	}
	if gotCount != NoCount {
		t.Fatalf("Count = %d, want NoCount", gotCount)
	}
}

func TestUserMappingShadowsThenRestoresBuiltin(t *testing.T) {
	var calls []string
	e := New([]Flags{}, nil)
	e.AddBuiltin(Normal, []Key{'x'}, Spec{
		Type: Cmd,
		Handler: func(i Info, r *ResultInfo) {
			calls = append(calls, "builtin-x")
		},
	})
	e.AddBuiltin(Normal, []Key{'y'}, Spec{
		Type: Cmd,
		Handler: func(i Info, r *ResultInfo) {
			calls = append(calls, "builtin-y")
		},
	})
	if err := e.UserAdd(Normal, []Key{'x'}, []Key{'y'}, 0); err != nil {
		t.Fatal(err)
	}

	_, result, _ := e.Execute(Normal, []Key{'x'})
	if result != OK {
		t.Fatalf("result = %d, want OK", result)
	}
	if len(calls) != 1 || calls[0] != "builtin-y" {
		t.Fatalf("calls = %v, want [builtin-y] (x remapped to y)", calls)
	}

	if !e.UserRemove(Normal, []Key{'x'}) {
		t.Fatal("UserRemove reported nothing removed")
	}
	calls = nil
	_, result, _ = e.Execute(Normal, []Key{'x'})
	if result != OK {
		t.Fatalf("result = %d, want OK", result)
	}
	if len(calls) != 1 || calls[0] != "builtin-x" {
		t.Fatalf("calls = %v, want [builtin-x] after UserRemove", calls)
	}
}

func TestExecuteNoRemapBypassesUserOverlay(t *testing.T) {
	var calls []string
	e := New([]Flags{}, nil)
	e.AddBuiltin(Normal, []Key{'x'}, Spec{
		Type: Cmd,
		Handler: func(i Info, r *ResultInfo) {
			calls = append(calls, "builtin-x")
		},
	})
	e.AddBuiltin(Normal, []Key{'y'}, Spec{
		Type: Cmd,
		Handler: func(i Info, r *ResultInfo) {
			calls = append(calls, "builtin-y")
		},
	})
	if err := e.UserAdd(Normal, []Key{'x'}, []Key{'y'}, 0); err != nil {
		t.Fatal(err)
	}

	_, result, _ := e.ExecuteNoRemap(Normal, []Key{'x'})
	if result != OK {
		t.Fatalf("result = %d, want OK", result)
	}
	if len(calls) != 1 || calls[0] != "builtin-x" {
		t.Fatalf("calls = %v, want [builtin-x] (NoRemap bypasses overlay)", calls)
	}
}

func TestUserMappingExpandsRHS(t *testing.T) {
	var calls []string
	e := New([]Flags{}, nil)
	e.AddBuiltin(Normal, []Key{'g', 'g'}, Spec{
		Type: Cmd,
		Handler: func(i Info, r *ResultInfo) {
			calls = append(calls, "gg")
		},
	})
	if err := e.UserAdd(Normal, []Key{'Z'}, []Key{'g', 'g'}, 0); err != nil {
		t.Fatal(err)
	}

	_, result, info := e.Execute(Normal, []Key{'Z'})
	if result != OK {
		t.Fatalf("result = %d, want OK", result)
	}
	if !info.Mapped {
		t.Fatal("ResultInfo.Mapped = false, want true")
	}
	if len(calls) != 1 || calls[0] != "gg" {
		t.Fatalf("calls = %v, want [gg]", calls)
	}
}

func TestUserMappingSilentTogglesSuspendUI(t *testing.T) {
	var toggles []bool
	e := New([]Flags{}, func(suspend bool) {
		toggles = append(toggles, suspend)
	})
	e.AddBuiltin(Normal, []Key{'x'}, Spec{Type: Cmd, Handler: func(Info, *ResultInfo) {}})
	if err := e.UserAdd(Normal, []Key{'Z'}, []Key{'x'}, Silent); err != nil {
		t.Fatal(err)
	}

	e.Execute(Normal, []Key{'Z'})
	if len(toggles) != 2 || !toggles[0] || toggles[1] {
		t.Fatalf("toggles = %v, want [true false]", toggles)
	}
}

func TestForeignAddOverridesUserOverlay(t *testing.T) {
	var calls []string
	e := New([]Flags{}, nil)
	if err := e.UserAdd(Normal, []Key{'x'}, []Key{'y'}, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.ForeignAdd(Normal, []Key{'x'}, func(i Info, r *ResultInfo) {
		calls = append(calls, "foreign-x")
	}); err != nil {
		t.Fatal(err)
	}

	_, result, _ := e.Execute(Normal, []Key{'x'})
	if result != OK {
		t.Fatalf("result = %d, want OK", result)
	}
	if len(calls) != 1 || calls[0] != "foreign-x" {
		t.Fatalf("calls = %v, want [foreign-x]", calls)
	}
}

func TestSelectorWaitPropagatesWhenSelectorIncomplete(t *testing.T) {
	e := New([]Flags{}, nil)
	e.AddBuiltin(Normal, []Key{'d'}, Spec{
		Type:   Cmd,
		Follow: FollowSelector,
		Handler: func(Info, *ResultInfo) {
		},
	})
	e.AddSelector(Normal, []Key{'i', 'w'}, Spec{Type: Cmd})

	_, result, _ := e.Execute(Normal, []Key{'d', 'i'})
	if result != Wait {
		t.Fatalf("result = %d, want Wait (selector 'i' is an unfinished prefix)", result)
	}
}

func TestSelectorResolvesAndFeedsResultInfo(t *testing.T) {
	var sawSelector bool
	e := New([]Flags{}, nil)
	e.AddBuiltin(Normal, []Key{'d'}, Spec{
		Type:   Cmd,
		Follow: FollowSelector,
		Handler: func(i Info, r *ResultInfo) {
			sawSelector = r.Selector
		},
	})
	e.AddSelector(Normal, []Key{'i', 'w'}, Spec{Type: Cmd})

	consumed, result, _ := e.Execute(Normal, []Key{'d', 'i', 'w'})
	if result != OK {
		t.Fatalf("result = %d, want OK", result)
	}
	if consumed != 3 {
		t.Fatalf("consumed = %d, want 3", consumed)
	}
	if !sawSelector {
		t.Fatal("ResultInfo.Selector = false, want true")
	}
}

func TestUnknownSequenceReportsUnknown(t *testing.T) {
	e, _ := newTestEngine(t)
	consumed, result, _ := e.Execute(Normal, []Key{'z'})
	if result != Unknown {
		t.Fatalf("result = %d, want Unknown", result)
	}
	if consumed != 1 {
		t.Fatalf("consumed = %d, want 1", consumed)
	}
}

func TestUserClearRemovesEveryOverlay(t *testing.T) {
	var calls []string
	e := New([]Flags{}, nil)
	e.AddBuiltin(Normal, []Key{'x'}, Spec{Type: Cmd, Handler: func(Info, *ResultInfo) {
		calls = append(calls, "builtin-x")
	}})
	e.UserAdd(Normal, []Key{'x'}, []Key{'x'}, 0)
	e.UserAdd(Normal, []Key{'y'}, []Key{'x'}, 0)

	e.UserClear(Normal)

	if e.UserRemove(Normal, []Key{'x'}) {
		t.Fatal("UserRemove found an overlay after UserClear")
	}
	_, result, _ := e.Execute(Normal, []Key{'x'})
	if result != OK || len(calls) != 1 || calls[0] != "builtin-x" {
		t.Fatalf("calls = %v, result = %d, want builtin-x/OK", calls, result)
	}
}
