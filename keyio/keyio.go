// Package keyio is the one place spec.md §3's "narrow characters"
// caveat applies: it translates a real terminal's raw escape sequences
// into the wide key.Key values the engine operates on internally.
// Grounded on the teacher's tcell front-end (src/tui/tcell.go)'s
// GetChar, which runs the same tcell.EventKey switch this package
// mirrors for a much smaller vocabulary — corefm only needs the
// function keys spec.md §6's bracket notation names, not fzf's full
// Ctrl-letter/Alt/Shift event set.
package keyio

import (
	"github.com/gdamore/tcell"
	"github.com/pkg/errors"

	"github.com/dstasiuk/corefm/key"
)

// Terminal reads raw terminal events and translates them into key.Key
// values, one at a time, matching the teacher's GetChar but narrowed to
// return exactly the vocabulary key.Key defines.
type Terminal struct {
	screen tcell.Screen
}

// Open initializes a tcell.Screen and wraps it as a Terminal.
func Open() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, errors.Wrap(err, "keyio: tcell.NewScreen")
	}
	if err := screen.Init(); err != nil {
		return nil, errors.Wrap(err, "keyio: screen.Init")
	}
	return &Terminal{screen: screen}, nil
}

// Close tears down the underlying screen.
func (t *Terminal) Close() {
	t.screen.Fini()
}

// ReadKey blocks for the next keyboard event and translates it to a
// key.Key. Resize and mouse events are reported as key.Resize/key.Mouse
// respectively so a caller's event loop can still observe them without
// keyio needing its own separate event type.
func (t *Terminal) ReadKey() (key.Key, error) {
	for {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			return key.Resize, nil
		case *tcell.EventMouse:
			return key.Mouse, nil
		case *tcell.EventKey:
			if k, ok := translate(ev); ok {
				return k, nil
			}
			// Unrecognised key event (a modifier combination this
			// narrow vocabulary doesn't carry): keep polling rather
			// than surfacing key.Invalid, matching GetChar's practice
			// of falling through to the next event on an unmapped key.
			continue
		}
	}
}

// translate maps a tcell.EventKey to the corresponding key.Key, mirroring
// GetChar's switch over ev.Key() but limited to the bracket-notation
// vocabulary spec.md §6 names plus plain runes.
func translate(ev *tcell.EventKey) (key.Key, bool) {
	switch ev.Key() {
	case tcell.KeyEsc:
		return key.Esc, true
	case tcell.KeyEnter:
		return key.Enter, true
	case tcell.KeyTab:
		return key.Tab, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return key.Backspace, true
	case tcell.KeyUp:
		return key.Up, true
	case tcell.KeyDown:
		return key.Down, true
	case tcell.KeyLeft:
		return key.Left, true
	case tcell.KeyRight:
		return key.Right, true
	case tcell.KeyHome:
		return key.Home, true
	case tcell.KeyEnd:
		return key.End, true
	case tcell.KeyPgUp:
		return key.PageUp, true
	case tcell.KeyPgDn:
		return key.PageDown, true
	case tcell.KeyDelete:
		return key.Delete, true
	case tcell.KeyRune:
		return key.Key(ev.Rune()), true
	default:
		if ev.Key() >= tcell.KeyCtrlA && ev.Key() <= tcell.KeyCtrlZ {
			return key.Ctrl(rune('a' + int(ev.Key()-tcell.KeyCtrlA))), true
		}
		return key.Invalid, false
	}
}
