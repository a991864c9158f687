// Package theme maps element kinds to styles. Built-in themes are embedded YAML files.
package theme

import (
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/podium/pkg/domain"
)

// Element kinds understood by themes.
const (
	Default          = "default"
	SlideTitle       = "slide_title"
	Paragraph        = "paragraph"
	List             = "list"
	BlockQuote       = "block_quote"
	Code             = "code"
	CodeDim          = "code_dim"
	LineNumber       = "line_number"
	InlineCode       = "inline_code"
	Link             = "link"
	Table            = "table"
	Separator        = "separator"
	Footer           = "footer"
	IntroTitle       = "intro_title"
	IntroSubtitle    = "intro_subtitle"
	IntroAuthor      = "intro_author"
	IntroEvent       = "intro_event"
	ExecutionOutput  = "execution_output"
	ExecutionRunning = "execution_running"
	ExecutionSuccess = "execution_success"
	ExecutionFailure = "execution_failure"
	Error            = "error"
	Modal            = "modal"
	ModalSelection   = "modal_selection"
)

// Heading returns the element kind of an ATX heading level.
func Heading(level int) string {
	return fmt.Sprintf("heading%d", level)
}

//go:embed themes/*.yaml
var builtins embed.FS

// ElementStyle is the style of one element kind.
type ElementStyle struct {
	domain.Style `yaml:",inline"`
	Alignment    domain.Alignment `yaml:"alignment,omitempty"`
	// Prefix is drawn before the element (heading markers, quote bars, list bullets).
	Prefix string `yaml:"prefix,omitempty"`
}

// Theme resolves element styles. It implements ports.StyleResolver.
type Theme struct {
	Name     string                  `yaml:"name"`
	Default  ElementStyle            `yaml:"default"`
	Elements map[string]ElementStyle `yaml:"elements"`
	// Syntax is the chroma style used for code blocks.
	Syntax      string `yaml:"syntax"`
	CodePadding int    `yaml:"code_padding"`
	// FooterTemplate supports {current}, {total}, {title} and {author}.
	FooterTemplate string `yaml:"footer_template"`
}

// Style returns the default style with the element style applied on top.
func (t *Theme) Style(element string) domain.Style {
	base := t.Default.Style
	if element == Default {
		return base
	}
	if es, ok := t.Elements[element]; ok {
		return base.Merge(es.Style)
	}
	return base
}

// Alignment returns the element alignment, falling back to the default and then left.
func (t *Theme) Alignment(element string) domain.Alignment {
	if es, ok := t.Elements[element]; ok && es.Alignment != "" {
		return es.Alignment
	}
	if t.Default.Alignment != "" {
		return t.Default.Alignment
	}
	return domain.AlignLeft
}

// Prefix returns the element prefix, if any.
func (t *Theme) Prefix(element string) string {
	return t.Elements[element].Prefix
}

// Override returns a copy of t with the fields present in node applied.
func (t *Theme) Override(node *yaml.Node) (*Theme, error) {
	cp := *t
	cp.Elements = make(map[string]ElementStyle, len(t.Elements))
	for k, v := range t.Elements {
		cp.Elements[k] = v
	}
	if node == nil || node.Kind == 0 {
		return &cp, nil
	}
	if err := node.Decode(&cp); err != nil {
		return nil, fmt.Errorf("invalid theme override: %w", err)
	}
	return &cp, nil
}

// Names lists the built-in themes.
func Names() []string {
	entries, _ := builtins.ReadDir("themes")
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Builtin loads an embedded theme by name.
func Builtin(name string) (*Theme, error) {
	data, err := builtins.ReadFile(path.Join("themes", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return parse(data)
}

// LoadFile loads a theme from a YAML file.
func LoadFile(p string) (*Theme, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Theme, error) {
	t := &Theme{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("invalid theme: %w", err)
	}
	if t.Elements == nil {
		t.Elements = map[string]ElementStyle{}
	}
	if t.FooterTemplate == "" {
		t.FooterTemplate = "{current} / {total}"
	}
	return t, nil
}
