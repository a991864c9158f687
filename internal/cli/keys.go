package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Action is a user command decoded from key presses.
type Action int

const (
	ActionNone Action = iota
	ActionNext
	ActionPrevious
	ActionNextFast
	ActionPreviousFast
	ActionFirst
	ActionLast
	// ActionGoTo jumps to the slide in KeyEvent.Slide.
	ActionGoTo
	ActionExecute
	ActionReload
	ActionRedraw
	ActionExit
	ActionSuspend
	ActionToggleIndex
	ActionToggleBindings
	ActionCloseModal
)

// String returns the name the action has under key_bindings in the config file.
func (a Action) String() string {
	for _, b := range bindable {
		if b.action == a {
			return b.name
		}
	}
	return "none"
}

// KeyEvent is a decoded action. Slide is 1-based and only set for ActionGoTo.
type KeyEvent struct {
	Action Action
	Slide  int
}

// bindable lists the configurable actions in the order the bindings screen shows them.
var bindable = []struct {
	action   Action
	name     string
	label    string
	defaults []string
}{
	{ActionNext, "next", "Next", []string{"l", "j", "<right>", "<page_down>", "<down>", " "}},
	{ActionNextFast, "next_fast", "Next (fast)", []string{"n"}},
	{ActionPrevious, "previous", "Previous", []string{"h", "k", "<left>", "<page_up>", "<up>"}},
	{ActionPreviousFast, "previous_fast", "Previous (fast)", []string{"p"}},
	{ActionFirst, "first_slide", "First slide", []string{"gg"}},
	{ActionLast, "last_slide", "Last slide", []string{"G"}},
	{ActionGoTo, "go_to_slide", "Go to slide", []string{"<number>G"}},
	{ActionExecute, "execute_code", "Execute code", []string{"<c-e>"}},
	{ActionReload, "reload", "Reload", []string{"<c-r>"}},
	{ActionToggleIndex, "toggle_slide_index", "Toggle slide index", []string{"<c-p>"}},
	{ActionToggleBindings, "toggle_bindings", "Toggle key bindings", []string{"?"}},
	{ActionCloseModal, "close_modal", "Close modal", []string{"<esc>"}},
	{ActionRedraw, "redraw", "Redraw", []string{"<c-l>"}},
	{ActionExit, "exit", "Exit", []string{"<c-c>", "q"}},
	{ActionSuspend, "suspend", "Suspend", []string{"<c-z>"}},
}

// named maps key names, lower-cased without underscores, to the sequences terminals
// send for them.
var named = map[string][]string{
	"left":      {"\x1b[D", "\x1bOD"},
	"right":     {"\x1b[C", "\x1bOC"},
	"up":        {"\x1b[A", "\x1bOA"},
	"down":      {"\x1b[B", "\x1bOB"},
	"pageup":    {"\x1b[5~"},
	"pagedown":  {"\x1b[6~"},
	"home":      {"\x1b[H", "\x1bOH", "\x1b[1~", "\x1b[7~"},
	"end":       {"\x1b[F", "\x1bOF", "\x1b[4~", "\x1b[8~"},
	"esc":       {"\x1b"},
	"enter":     {"\r", "\n"},
	"cr":        {"\r", "\n"},
	"tab":       {"\t"},
	"backspace": {"\x7f", "\x08"},
	"f1":        {"\x1bOP", "\x1b[11~"},
	"f2":        {"\x1bOQ", "\x1b[12~"},
	"f3":        {"\x1bOR", "\x1b[13~"},
	"f4":        {"\x1bOS", "\x1b[14~"},
	"f5":        {"\x1b[15~"},
	"f6":        {"\x1b[17~"},
	"f7":        {"\x1b[18~"},
	"f8":        {"\x1b[19~"},
	"f9":        {"\x1b[20~"},
	"f10":       {"\x1b[21~"},
	"f11":       {"\x1b[23~"},
	"f12":       {"\x1b[24~"},
}

// matcher matches one key, any of keys, or a run of digits.
type matcher struct {
	keys   []string
	number bool
}

func (m matcher) overlaps(o matcher) bool {
	if m.number || o.number {
		return m.number == o.number
	}
	for _, k := range m.keys {
		for _, ok := range o.keys {
			if k == ok {
				return true
			}
		}
	}
	return false
}

// Binding is a key sequence such as "gg", "<c-e>" or "<number>G".
type Binding struct {
	text     string
	matchers []matcher
}

func (b Binding) String() string {
	return b.text
}

func (b Binding) hasNumber() bool {
	for _, m := range b.matchers {
		if m.number {
			return true
		}
	}
	return false
}

// ParseBinding parses the binding syntax of the config file: plain characters, <c-x> for
// control keys, named keys like <left> or <page_down> and one <number> placeholder.
func ParseBinding(s string) (Binding, error) {
	b := Binding{text: s}
	if s == "" {
		return b, errors.New("empty key binding")
	}
	rest := s
	for rest != "" {
		m, n, err := parseMatcher(rest)
		if err != nil {
			return b, fmt.Errorf("invalid key binding %q: %w", s, err)
		}
		if m.number && b.hasNumber() {
			return b, fmt.Errorf("invalid key binding %q: more than one <number>", s)
		}
		b.matchers = append(b.matchers, m)
		rest = rest[n:]
	}
	if b.matchers[len(b.matchers)-1].number {
		return b, fmt.Errorf("invalid key binding %q: <number> must be followed by a key", s)
	}
	return b, nil
}

func parseMatcher(s string) (matcher, int, error) {
	if s[0] == '<' {
		if end := strings.IndexByte(s, '>'); end > 1 {
			if m, ok := parseTag(s[1:end]); ok {
				return m, end + 1, nil
			}
			if end > 2 {
				return matcher{}, 0, fmt.Errorf("unknown key %q", s[:end+1])
			}
		}
	}
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return matcher{}, 0, errors.New("not valid utf-8")
	}
	return matcher{keys: []string{s[:n]}}, n, nil
}

func parseTag(tag string) (matcher, bool) {
	if tag == "number" {
		return matcher{number: true}, true
	}
	lower := strings.ToLower(tag)
	if ctrl, ok := strings.CutPrefix(lower, "c-"); ok && len(ctrl) == 1 {
		c := ctrl[0]
		switch {
		case c >= 'a' && c <= 'z':
			return matcher{keys: []string{string(rune(c - 'a' + 1))}}, true
		case c >= '@' && c <= '_':
			return matcher{keys: []string{string(rune(c & 0x1f))}}, true
		}
		return matcher{}, false
	}
	keys, ok := named[strings.ReplaceAll(lower, "_", "")]
	return matcher{keys: keys}, ok
}

type boundAction struct {
	action  Action
	binding Binding
}

// KeyBindings maps key sequences to actions.
type KeyBindings struct {
	entries []boundAction
}

// BindingHelp describes the keys of one action.
type BindingHelp struct {
	Label string
	Keys  []string
}

// DefaultKeyBindings returns the built-in bindings.
func DefaultKeyBindings() *KeyBindings {
	b, err := NewKeyBindings(nil)
	if err != nil {
		panic(err)
	}
	return b
}

// NewKeyBindings builds the default bindings with the actions named in overrides
// replaced. Unknown actions, malformed keys and ambiguous sequences are errors.
func NewKeyBindings(overrides map[string][]string) (*KeyBindings, error) {
	known := make(map[string]bool, len(bindable))
	for _, b := range bindable {
		known[b.name] = true
	}
	for name := range overrides {
		if !known[name] {
			return nil, fmt.Errorf("unknown key binding action %q", name)
		}
	}

	kb := &KeyBindings{}
	for _, b := range bindable {
		texts, ok := overrides[b.name]
		if !ok {
			texts = b.defaults
		}
		for _, text := range texts {
			binding, err := ParseBinding(text)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", b.name, err)
			}
			if binding.hasNumber() != (b.action == ActionGoTo) {
				if b.action == ActionGoTo {
					return nil, fmt.Errorf("%s: %q needs a <number>", b.name, text)
				}
				return nil, fmt.Errorf("%s: %q cannot take a <number>", b.name, text)
			}
			kb.entries = append(kb.entries, boundAction{action: b.action, binding: binding})
		}
	}
	if err := kb.checkConflicts(); err != nil {
		return nil, err
	}
	return kb, nil
}

// checkConflicts rejects a binding that is a prefix of another, since the longer one
// could never fire.
func (kb *KeyBindings) checkConflicts() error {
	for i, a := range kb.entries {
		for _, b := range kb.entries[i+1:] {
			if prefixes(a.binding, b.binding) || prefixes(b.binding, a.binding) {
				return fmt.Errorf("conflicting key bindings: %q (%s) and %q (%s)",
					a.binding, a.action, b.binding, b.action)
			}
		}
	}
	return nil
}

func prefixes(a, b Binding) bool {
	if len(a.matchers) > len(b.matchers) {
		return false
	}
	for i, m := range a.matchers {
		if !m.overlaps(b.matchers[i]) {
			return false
		}
	}
	return true
}

// Help lists the bindings of every action in display order.
func (kb *KeyBindings) Help() []BindingHelp {
	var out []BindingHelp
	for _, b := range bindable {
		h := BindingHelp{Label: b.label}
		for _, e := range kb.entries {
			if e.action == b.action {
				h.Keys = append(h.Keys, e.binding.String())
			}
		}
		if len(h.Keys) > 0 {
			out = append(out, h)
		}
	}
	return out
}

type matchResult int

const (
	matchNone matchResult = iota
	matchPartial
	matchFull
)

// match tries b against the start of keys and returns how many keys a full match used.
func (b Binding) match(keys []string) (matchResult, int, int) {
	used, number := 0, 0
	for _, m := range b.matchers {
		if used == len(keys) {
			return matchPartial, 0, 0
		}
		if m.number {
			start := used
			for used < len(keys) && len(keys[used]) == 1 && keys[used][0] >= '0' && keys[used][0] <= '9' {
				used++
			}
			if used == start {
				return matchNone, 0, 0
			}
			n, err := strconv.Atoi(strings.Join(keys[start:used], ""))
			if err != nil {
				return matchNone, 0, 0
			}
			number = n
			continue
		}
		found := false
		for _, k := range m.keys {
			if keys[used] == k {
				found = true
				break
			}
		}
		if !found {
			return matchNone, 0, 0
		}
		used++
	}
	return matchFull, used, number
}

// KeyDecoder turns raw terminal input into actions. Multi-key bindings such as gg and
// <number>G are buffered across Feed calls. The zero value uses DefaultKeyBindings.
type KeyDecoder struct {
	bindings *KeyBindings
	pending  []byte
}

// NewKeyDecoder creates a decoder for b.
func NewKeyDecoder(b *KeyBindings) KeyDecoder {
	return KeyDecoder{bindings: b}
}

var defaultBindings = DefaultKeyBindings()

// Feed decodes data and returns the complete actions it contains. Keys that start no
// binding are dropped.
func (d *KeyDecoder) Feed(data []byte) []KeyEvent {
	kb := d.bindings
	if kb == nil {
		kb = defaultBindings
	}
	keys, rest := splitKeys(append(d.pending, data...))

	var out []KeyEvent
	for len(keys) > 0 {
		ev, used, partial := kb.decode(keys)
		if partial {
			break
		}
		if used == 0 {
			keys = keys[1:]
			continue
		}
		out = append(out, ev)
		keys = keys[used:]
	}
	d.pending = append([]byte(strings.Join(keys, "")), rest...)
	return out
}

// Reset drops buffered partial input.
func (d *KeyDecoder) Reset() {
	d.pending = nil
}

func (kb *KeyBindings) decode(keys []string) (KeyEvent, int, bool) {
	partial := false
	for _, e := range kb.entries {
		switch res, used, number := e.binding.match(keys); res {
		case matchFull:
			ev := KeyEvent{Action: e.action}
			if e.action == ActionGoTo {
				ev.Slide = number
			}
			return ev, used, false
		case matchPartial:
			partial = true
		}
	}
	return KeyEvent{}, 0, partial
}

// splitKeys cuts buf into keys: escape sequences, control bytes and utf-8 characters.
// An incomplete trailing key is returned in rest.
func splitKeys(buf []byte) (keys []string, rest []byte) {
	for len(buf) > 0 {
		n := keyLen(buf)
		if n == 0 {
			return keys, append([]byte(nil), buf...)
		}
		keys = append(keys, string(buf[:n]))
		buf = buf[n:]
	}
	return keys, nil
}

func keyLen(buf []byte) int {
	switch {
	case buf[0] == 0x1b:
		// a lone escape is complete; terminals send sequences in one write
		if len(buf) == 1 || (buf[1] != '[' && buf[1] != 'O') {
			return 1
		}
		if buf[1] == 'O' {
			if len(buf) < 3 {
				return 0
			}
			return 3
		}
		// CSI: parameters then a final byte in 0x40..0x7e
		for i := 2; i < len(buf); i++ {
			if buf[i] >= 0x40 && buf[i] <= 0x7e {
				return i + 1
			}
		}
		return 0
	case buf[0] < utf8.RuneSelf:
		return 1
	case !utf8.FullRune(buf):
		return 0
	}
	_, n := utf8.DecodeRune(buf)
	return n
}
