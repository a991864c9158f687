// Package command parses the directives embedded in markdown HTML comments.
package command

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/podium/pkg/domain"
)

const (
	commentOpen  = "<!--"
	commentClose = "-->"
)

// Parse decodes an HTML comment into a command.
// It returns ok=false for comments that are not commands: comments without the configured
// prefix, multi-line comments other than speaker notes, vim modelines and folding markers.
func Parse(comment string, line int, prefix string) (domain.Command, bool, error) {
	body, isComment := strip(comment)
	if !isComment {
		return nil, false, nil
	}
	if prefix != "" {
		if !strings.HasPrefix(body, prefix) {
			return nil, false, nil
		}
		body = strings.TrimSpace(strings.TrimPrefix(body, prefix))
	}
	if ignored(body) {
		return nil, false, nil
	}

	var raw any
	if err := yaml.Unmarshal([]byte(body), &raw); err != nil {
		return nil, false, &domain.ParseError{Line: line, Reason: err.Error()}
	}

	name, value, hasValue, err := split(raw)
	if err != nil {
		return nil, false, &domain.ParseError{Line: line, Reason: err.Error()}
	}

	cmd, err := build(name, value, hasValue)
	if err != nil {
		return nil, false, &domain.ParseError{Line: line, Command: name, Reason: err.Error()}
	}
	return cmd, true, nil
}

func strip(comment string) (string, bool) {
	s := strings.TrimSpace(comment)
	if !strings.HasPrefix(s, commentOpen) || !strings.HasSuffix(s, commentClose) {
		return "", false
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, commentOpen), commentClose)
	return strings.TrimSpace(s), true
}

func ignored(body string) bool {
	if body == "" {
		return true
	}
	if strings.Contains(body, "\n") && !strings.HasPrefix(body, "speaker_note:") {
		return true
	}
	if strings.HasPrefix(body, "vim:") {
		return true
	}
	return strings.HasPrefix(body, "{{{") || strings.HasPrefix(body, "}}}")
}

func split(raw any) (string, any, bool, error) {
	switch v := raw.(type) {
	case string:
		return v, nil, false, nil
	case map[string]any:
		if len(v) != 1 {
			return "", nil, false, fmt.Errorf("expected a single command, found %d keys", len(v))
		}
		for k, val := range v {
			return k, val, true, nil
		}
	}
	return "", nil, false, fmt.Errorf("expected '<command>' or '<command>: <value>'")
}

func build(name string, value any, hasValue bool) (domain.Command, error) {
	unit := func(cmd domain.Command) (domain.Command, error) {
		if hasValue {
			return nil, fmt.Errorf("takes no value")
		}
		return cmd, nil
	}
	if !hasValue {
		switch name {
		case "pause", "end_slide", "reset_layout", "jump_to_middle", "no_footer",
			"skip_slide", "new_line", "newline":
		default:
			if _, known := valued[name]; known {
				return nil, fmt.Errorf("missing value")
			}
			return nil, fmt.Errorf("unknown command")
		}
	}

	switch name {
	case "pause":
		return unit(domain.Pause{})
	case "end_slide":
		return unit(domain.EndSlide{})
	case "reset_layout":
		return unit(domain.ResetLayout{})
	case "jump_to_middle":
		return unit(domain.JumpToMiddle{})
	case "no_footer":
		return unit(domain.NoFooter{})
	case "skip_slide":
		return unit(domain.SkipSlide{})
	case "new_line", "newline":
		return unit(domain.NewLines{Count: 1})
	case "new_lines", "newlines":
		var n int
		if err := decode(value, &n); err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("count must not be negative")
		}
		return domain.NewLines{Count: n}, nil
	case "column_layout":
		var widths []int
		if err := decode(value, &widths); err != nil {
			return nil, err
		}
		if len(widths) == 0 {
			return nil, fmt.Errorf("layout must have at least one column")
		}
		for _, w := range widths {
			if w <= 0 {
				return nil, fmt.Errorf("column widths must be positive")
			}
		}
		return domain.ColumnLayout{Widths: widths}, nil
	case "column":
		var i int
		if err := decode(value, &i); err != nil {
			return nil, err
		}
		if i < 0 {
			return nil, fmt.Errorf("column index must not be negative")
		}
		return domain.Column{Index: i}, nil
	case "font_size":
		var size int
		if err := decode(value, &size); err != nil {
			return nil, err
		}
		if size < 1 || size > 7 {
			return nil, fmt.Errorf("font size must be between 1 and 7")
		}
		return domain.FontSize{Size: size}, nil
	case "alignment":
		var s string
		if err := decode(value, &s); err != nil {
			return nil, err
		}
		a, ok := domain.ParseAlignment(s)
		if !ok {
			return nil, fmt.Errorf("alignment must be left, center or right")
		}
		return domain.SetAlignment{Alignment: a}, nil
	case "incremental_lists":
		var b bool
		if err := decode(value, &b); err != nil {
			return nil, err
		}
		return domain.IncrementalLists{Enabled: b}, nil
	case "list_item_newlines":
		var n int
		if err := decode(value, &n); err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("must be at least 1")
		}
		return domain.ListItemNewlines{Count: n}, nil
	case "speaker_note":
		note, err := noteText(value)
		if err != nil {
			return nil, err
		}
		return domain.SpeakerNote{Text: note}, nil
	case "include":
		var p string
		if err := decode(value, &p); err != nil {
			return nil, err
		}
		if p == "" {
			return nil, fmt.Errorf("path must not be empty")
		}
		return domain.Include{Path: p}, nil
	case "snippet_output":
		var id string
		if err := decode(value, &id); err != nil {
			return nil, err
		}
		return domain.SnippetOutput{ID: id}, nil
	}
	return nil, fmt.Errorf("unknown command")
}

var valued = map[string]struct{}{
	"new_lines": {}, "newlines": {}, "column_layout": {}, "column": {}, "font_size": {},
	"alignment": {}, "incremental_lists": {}, "list_item_newlines": {}, "speaker_note": {},
	"include": {}, "snippet_output": {},
}

func decode(value any, out any) error {
	if err := mapstructure.Decode(value, out); err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	return nil
}

// noteText accepts a scalar or any structured YAML value, which is re-encoded as text.
func noteText(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case nil:
		return "", fmt.Errorf("missing value")
	}
	out, err := yaml.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("invalid value: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
