// Package config parses the narrow line-oriented configuration format
// the core needs: undo_levels, register-store paths, and key remapping
// directives (nnoremap/nmap-style lines). It is not an attempt to
// replicate vifm's command language (spec.md's Non-goals exclude that
// as a *feature*); it only turns text lines into KeyEngine/UndoLog
// registration calls, tokenizing each line with go-shellwords exactly
// the way the teacher tokenizes --bind/--preview option values
// (src/options.go's parseShellWords).
package config

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/pkg/errors"

	"github.com/dstasiuk/corefm/key"
)

// MapDirective is one parsed nnoremap/nmap/noremap-family line.
type MapDirective struct {
	Mode    key.Mode
	NoRemap bool
	Silent  bool
	LHS     []key.Key
	RHS     []key.Key
}

// Config is the parsed result of a whole file: the settings relevant to
// UndoLog/PutResolver plus every map directive, in file order so
// callers can register them in order (later directives may legitimately
// override earlier ones at the same lhs, same as re-running UserAdd).
type Config struct {
	UndoLevels int
	TrashDir   string
	RegisterDB string

	Maps []MapDirective
}

// modeWords names the handful of modes the config format's map family
// targets, matching the :nnoremap (Normal), :cnoremap (CmdLine),
// :vnoremap (Visual) naming convention.
var modeWords = map[string]key.Mode{
	"n": key.Normal,
	"c": key.CmdLine,
	"v": key.Visual,
}

// Parse reads line-oriented config text from r.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{UndoLevels: -1}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "\"") || strings.HasPrefix(line, "#") {
			continue
		}

		fields, err := parseShellWords(line)
		if err != nil {
			return nil, errors.Wrapf(err, "config: line %d", lineNo)
		}
		if len(fields) == 0 {
			continue
		}

		if err := applyLine(cfg, fields); err != nil {
			return nil, errors.Wrapf(err, "config: line %d: %q", lineNo, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "config: read")
	}
	return cfg, nil
}

func parseShellWords(line string) ([]string, error) {
	p := shellwords.NewParser()
	p.ParseEnv = false
	return p.Parse(line)
}

func applyLine(cfg *Config, fields []string) error {
	head := fields[0]

	switch {
	case head == "set" && len(fields) >= 2:
		return applySet(cfg, fields[1:])
	case isMapDirective(head):
		return applyMap(cfg, head, fields[1:])
	default:
		return errors.Errorf("unrecognised directive %q", head)
	}
}

func applySet(cfg *Config, assignments []string) error {
	for _, a := range assignments {
		name, val, ok := strings.Cut(a, "=")
		if !ok {
			return errors.Errorf("malformed set assignment %q", a)
		}
		switch name {
		case "undo_levels":
			n, err := strconv.Atoi(val)
			if err != nil {
				return errors.Wrapf(err, "undo_levels=%q", val)
			}
			cfg.UndoLevels = n
		case "trash_dir":
			cfg.TrashDir = val
		case "register_db":
			cfg.RegisterDB = val
		default:
			return errors.Errorf("unknown setting %q", name)
		}
	}
	return nil
}

// mapDirectives lists every nnoremap/nmap-family verb this format
// accepts, following a mode letter ('n', 'c', 'v').
var mapDirectives = []string{"noremap", "map"}

func isMapDirective(head string) bool {
	if len(head) < 2 {
		return false
	}
	modeLetter := head[:1]
	if _, ok := modeWords[modeLetter]; !ok {
		return false
	}
	rest := head[1:]
	for _, d := range mapDirectives {
		if rest == d {
			return true
		}
	}
	return false
}

func applyMap(cfg *Config, head string, args []string) error {
	modeLetter := head[:1]
	mode := modeWords[modeLetter]
	noRemap := strings.HasSuffix(head, "noremap")

	var silent bool
	for len(args) > 0 && strings.HasPrefix(args[0], "<") && strings.HasSuffix(args[0], ">") {
		switch strings.ToLower(args[0]) {
		case "<silent>":
			silent = true
			args = args[1:]
			continue
		}
		break
	}
	if len(args) < 2 {
		return errors.Errorf("%s needs <lhs> <rhs>", head)
	}

	cfg.Maps = append(cfg.Maps, MapDirective{
		Mode:    mode,
		NoRemap: noRemap,
		Silent:  silent,
		LHS:     key.ParseSeq(args[0]),
		RHS:     key.ParseSeq(strings.Join(args[1:], " ")),
	})
	return nil
}

// Apply registers every parsed map directive against e. It returns only an
// error; UndoLevels is left for the caller to read.
func (c *Config) Apply(e *key.Engine) error {
	for _, m := range c.Maps {
		var flags key.UserFlags
		if m.NoRemap {
			flags |= key.NoRemap
		}
		if m.Silent {
			flags |= key.Silent
		}
		if err := e.UserAdd(m.Mode, m.LHS, m.RHS, flags); err != nil {
			return err
		}
	}
	return nil
}

// MaxLevels returns a func() int suitable for undo.Init, reading
// whatever undo_levels Parse saw (or a conservative default of 100 if
// the config never set one).
func (c *Config) MaxLevels() func() int {
	levels := c.UndoLevels
	if levels < 0 {
		levels = 100
	}
	return func() int { return levels }
}
