package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/podium/pkg/domain"
)

var (
	errDuplicateAttribute = errors.New("duplicate attribute")
	errRepresentation     = errors.New("+exec_replace, +image and +render cannot be used together")
)

type execKind int

const (
	execNone execKind = iota
	execManual
	execAuto
	execPty
	execAcquire
	execValidate
)

type representation int

const (
	reprCode representation = iota
	reprExecReplace
	reprImage
	reprRender
)

// snippetInfo is the parsed info string of a code block:
//
//	lang [+line_numbers] [+exec[:alt]] [+exec_replace] [+id:name] [{1,3|5-7|all}] ...
type snippetInfo struct {
	Language     string
	LineNumbers  bool
	Exec         execKind
	Alternative  string
	Repr         representation
	NoBackground bool
	ID           string
	Expect       domain.Expectation
	// Width is a percentage of the available width, for rendered images.
	Width  int
	Groups []highlightGroup
}

// mode maps the attributes to an execution mode; ok is false for plain code.
func (s snippetInfo) mode() (domain.ExecutionMode, bool) {
	switch s.Repr {
	case reprExecReplace:
		return domain.ModeAutoReplace, true
	case reprImage:
		return domain.ModeAutoImage, true
	}
	switch s.Exec {
	case execManual:
		return domain.ModeManual, true
	case execAuto:
		return domain.ModeAuto, true
	case execPty:
		return domain.ModePty, true
	case execAcquire:
		return domain.ModeAcquireTerminal, true
	case execValidate:
		return domain.ModeValidate, true
	}
	return "", false
}

func parseSnippetInfo(info string) (snippetInfo, error) {
	s := snippetInfo{Expect: domain.ExpectSuccess}
	rest := strings.TrimLeft(info, " ")
	if rest != "" && rest[0] != '+' && rest[0] != '{' {
		s.Language, rest = nextToken(rest)
	}

	seen := map[string]bool{}
	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			break
		}
		if rest[0] == '{' {
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return s, fmt.Errorf("invalid highlighted lines: no enclosing '}'")
			}
			if seen["{}"] {
				return s, errDuplicateAttribute
			}
			seen["{}"] = true
			groups, err := parseHighlightGroups(rest[1:end])
			if err != nil {
				return s, err
			}
			s.Groups = groups
			rest = rest[end+1:]
			continue
		}

		var token string
		token, rest = nextToken(rest)
		if token[0] != '+' {
			return s, fmt.Errorf("invalid token %q", token)
		}
		name, param, hasParam := strings.Cut(token[1:], ":")
		if seen[name] {
			return s, fmt.Errorf("%w: +%s", errDuplicateAttribute, name)
		}
		seen[name] = true
		if err := s.apply(name, param, hasParam); err != nil {
			if errors.Is(err, errRepresentation) {
				return s, err
			}
			return s, fmt.Errorf("invalid token %q: %w", token, err)
		}
	}

	if len(s.Groups) == 0 {
		s.Groups = []highlightGroup{{all: true}}
	}
	return s, nil
}

func (s *snippetInfo) apply(name, param string, hasParam bool) error {
	takesParam := map[string]bool{"id": true, "expect": true, "width": true}
	optionalParam := map[string]bool{
		"exec": true, "auto_exec": true, "exec_replace": true, "pty": true,
		"acquire_terminal": true, "validate": true,
	}
	switch {
	case takesParam[name] && (!hasParam || param == ""):
		return fmt.Errorf("missing parameter")
	case hasParam && !takesParam[name] && !optionalParam[name]:
		return fmt.Errorf("unexpected parameter")
	case hasParam && param == "":
		return fmt.Errorf("empty parameter")
	}

	setExec := func(k execKind) {
		if s.Exec != execAcquire {
			s.Exec, s.Alternative = k, param
		}
	}
	setRepr := func(r representation) error {
		if s.Repr != reprCode {
			return errRepresentation
		}
		s.Repr = r
		return nil
	}

	switch name {
	case "line_numbers":
		s.LineNumbers = true
	case "exec":
		setExec(execManual)
	case "auto_exec":
		setExec(execAuto)
	case "pty":
		setExec(execPty)
	case "acquire_terminal":
		s.Exec, s.Alternative = execAcquire, param
	case "validate":
		if s.Exec == execNone {
			s.Exec, s.Alternative = execValidate, param
		}
	case "exec_replace":
		if err := setRepr(reprExecReplace); err != nil {
			return err
		}
		s.Exec, s.Alternative = execManual, param
	case "image":
		if err := setRepr(reprImage); err != nil {
			return err
		}
		s.Exec = execManual
	case "render":
		return setRepr(reprRender)
	case "no_background":
		s.NoBackground = true
	case "id":
		s.ID = param
	case "expect":
		switch param {
		case "success":
			s.Expect = domain.ExpectSuccess
		case "failure", "fail":
			s.Expect = domain.ExpectFailure
		default:
			return fmt.Errorf("expect must be success or failure")
		}
	case "width":
		w, err := parsePercent(param)
		if err != nil {
			return err
		}
		s.Width = w
	default:
		return fmt.Errorf("unknown attribute")
	}
	return nil
}

func nextToken(s string) (token, rest string) {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

func parsePercent(s string) (int, error) {
	digits, ok := strings.CutSuffix(s, "%")
	if !ok {
		return 0, fmt.Errorf("invalid width %q: expected a percentage", s)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > 100 {
		return 0, fmt.Errorf("invalid width %q", s)
	}
	return n, nil
}

type lineRange struct {
	from, to int
}

// highlightGroup is one frame of dynamic highlighting. Lines are 1-based and count
// visible lines only.
type highlightGroup struct {
	all    bool
	ranges []lineRange
}

func (g highlightGroup) contains(line int) bool {
	if g.all {
		return true
	}
	for _, r := range g.ranges {
		if line >= r.from && line <= r.to {
			return true
		}
	}
	return false
}

func parseHighlightGroups(input string) ([]highlightGroup, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	var groups []highlightGroup
	for _, raw := range strings.Split(input, "|") {
		var g highlightGroup
		for _, piece := range strings.Split(raw, ",") {
			piece = strings.TrimSpace(piece)
			if piece == "all" {
				g.all = true
				continue
			}
			left, right, isRange := strings.Cut(piece, "-")
			from, err := parseLineNumber(left)
			if err != nil {
				return nil, err
			}
			to := from
			if isRange {
				if to, err = parseLineNumber(right); err != nil {
					return nil, err
				}
				if to < from {
					return nil, fmt.Errorf("invalid highlighted lines: range %q is reversed", piece)
				}
			}
			g.ranges = append(g.ranges, lineRange{from: from, to: to})
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func parseLineNumber(s string) (int, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid highlighted lines: not a number: %q", s)
	}
	return int(n), nil
}
