// Package compiler turns a markdown deck into a domain.Presentation: slides of chunks of
// render operations, plus the snippets and render jobs the deck declares.
//
// Compilation is pure. Registering snippets and starting render jobs is left to the
// execution engine, which receives the Presentation.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/podium/internal/command"
	"github.com/aretw0/podium/internal/highlight"
	"github.com/aretw0/podium/internal/markdown"
	"github.com/aretw0/podium/internal/theme"
	"github.com/aretw0/podium/pkg/domain"
)

// HiddenLines resolves the hidden line prefix of a language. process.Registry implements it.
type HiddenLines interface {
	HiddenLinePrefix(language string) string
}

// Context carries everything a compilation depends on. It is owned by the caller and
// never stored globally.
type Context struct {
	// Theme is the base theme; front matter may replace or override it.
	Theme *theme.Theme
	// Options are the configured deck options; front matter values win.
	Options domain.Options
	// Executors provides hidden line prefixes. Nil means no hidden lines.
	Executors HiddenLines
	// ExecEnabled allows snippets run on request (+exec, +pty, +acquire_terminal).
	ExecEnabled bool
	// ExecReplaceEnabled allows snippets run on load (+exec_replace, +image, +auto_exec).
	ExecReplaceEnabled bool
	// ReadFile reads included files and images. Defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
	Logger   *slog.Logger
}

// Compiler compiles decks. It is safe for concurrent use.
type Compiler struct {
	cc Context
	md *markdown.Parser
}

// New creates a compiler, filling unset Context fields with defaults.
func New(cc Context) (*Compiler, error) {
	if cc.Theme == nil {
		t, err := theme.Builtin("dark")
		if err != nil {
			return nil, err
		}
		cc.Theme = t
	}
	if cc.ReadFile == nil {
		cc.ReadFile = os.ReadFile
	}
	if cc.Logger == nil {
		cc.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Compiler{cc: cc, md: markdown.NewParser()}, nil
}

// CompileFile reads and compiles the deck at path.
func (c *Compiler) CompileFile(ctx context.Context, path string) (*domain.Presentation, error) {
	src, err := c.cc.ReadFile(path)
	if err != nil {
		return nil, &domain.BuildError{Path: path, Err: fmt.Errorf("failed to read presentation: %w", err)}
	}
	return c.Compile(ctx, src, path)
}

// Compile builds the presentation for source. path locates includes and images and is
// reported in errors. Identical inputs yield identical operations.
func (c *Compiler) Compile(ctx context.Context, source []byte, path string) (*domain.Presentation, error) {
	doc := c.md.Parse(source)
	path = filepath.Clean(path)

	meta, th, opts, err := c.frontMatter(doc.FrontMatter, filepath.Dir(path))
	if err != nil {
		return nil, &domain.BuildError{Path: path, Line: 1, Err: err}
	}

	b := &builder{
		ctx:        ctx,
		c:          c,
		theme:      th,
		opts:       opts,
		hl:         highlight.New(th.Syntax),
		files:      []string{path},
		sources:    []string{path},
		ids:        map[string]bool{},
		renderKeys: map[string]bool{},
	}
	b.prelude()
	if meta.Title != "" || meta.SubTitle != "" || len(meta.Authors) > 0 {
		b.intro(meta)
	}
	if err := b.elements(doc.Elements); err != nil {
		return nil, err
	}
	b.finish(meta)

	deck := &domain.Presentation{
		Path:     path,
		Slides:   b.slides,
		Metadata: meta,
		Snippets: b.snippets,
		Renders:  b.renders,
		Sources:  b.sources,
	}
	c.cc.Logger.Debug("deck compiled", "path", path, "slides", len(deck.Slides),
		"snippets", len(deck.Snippets), "renders", len(deck.Renders))
	return deck, nil
}

// Theme returns the theme deck was compiled with, resolved again from its front matter.
func (c *Compiler) Theme(deck *domain.Presentation) (*theme.Theme, error) {
	src, err := c.cc.ReadFile(deck.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presentation: %w", err)
	}
	raw, _ := markdown.SplitFrontMatter(src)
	_, th, _, err := c.frontMatter(raw, filepath.Dir(deck.Path))
	if err != nil {
		return nil, err
	}
	return th, nil
}

type lastElement int

const (
	lastNone lastElement = iota
	lastList
	lastOther
)

type layoutState struct {
	// columns is zero outside a layout.
	columns  int
	column   int
	inColumn bool
}

// slideState is reset every time a slide ends.
type slideState struct {
	title        string
	alignment    domain.Alignment
	fontSize     int
	layout       layoutState
	needsColumn  bool
	layoutLine   int
	incremental  *bool
	itemNewlines int
	skip         bool
	noFooter     bool
	ignoreBreak  bool
	last         lastElement
	lastIndex    int
	// dirty is set once anything was processed in the slide.
	dirty bool
}

type builder struct {
	ctx   context.Context
	c     *Compiler
	theme *theme.Theme
	opts  domain.Options
	hl    *highlight.Highlighter
	// files is the include stack; the last entry is the file being compiled.
	files []string

	slides      []domain.Slide
	chunks      []domain.Chunk
	ops         []domain.RenderOperation
	notes       []string
	frame       *domain.HighlightFrame
	endedInList bool
	state       slideState

	blocks     int
	snippets   []domain.ExecutionState
	ids        map[string]bool
	renders    []domain.RenderRequest
	renderKeys map[string]bool
	sources    []string
}

func (b *builder) current() string {
	return b.files[len(b.files)-1]
}

func (b *builder) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(filepath.Dir(b.current()), p)
}

func (b *builder) elements(elements []markdown.Element) error {
	for _, el := range elements {
		if err := b.ctx.Err(); err != nil {
			return err
		}
		if err := b.element(el); err != nil {
			var be *domain.BuildError
			if errors.As(err, &be) {
				return err
			}
			var pe *domain.ParseError
			if errors.As(err, &pe) {
				return &domain.BuildError{Path: b.current(), Err: err}
			}
			return &domain.BuildError{Path: b.current(), Line: el.Position(), Err: err}
		}
	}
	return nil
}

func (b *builder) element(el markdown.Element) error {
	b.state.ignoreBreak = false
	b.state.dirty = true
	clearLast := true

	var err error
	switch e := el.(type) {
	case markdown.SetextHeading:
		b.slideTitle(e)
	case markdown.Heading:
		b.heading(e)
	case markdown.Paragraph:
		b.paragraph(e.Lines, theme.Paragraph)
	case markdown.Image:
		err = b.image(e)
	case markdown.List:
		clearLast = false
		b.list(e)
	case markdown.CodeBlock:
		err = b.code(e)
	case markdown.Comment:
		clearLast = false
		err = b.comment(e)
	case markdown.BlockQuote:
		b.quote(e)
	case markdown.Table:
		b.table(e)
	case markdown.ThematicBreak:
		clearLast = !b.opts.EndSlideShorthand
		b.thematicBreak()
	default:
		err = fmt.Errorf("unsupported element %T", el)
	}
	if err != nil {
		return err
	}
	if clearLast {
		b.state.last = lastOther
	}
	if err := b.checkColumn(); err != nil {
		return err
	}
	if !b.state.ignoreBreak {
		b.newLines(1)
	}
	return nil
}

// checkColumn enforces that a column layout is followed by a column.
func (b *builder) checkColumn() error {
	if !b.state.needsColumn || len(b.ops) == 0 {
		return nil
	}
	last := b.ops[len(b.ops)-1]
	if _, ok := last.(domain.BeginLayout); ok {
		return nil
	}
	b.state.needsColumn = false
	switch last.(type) {
	case domain.EnterColumn, domain.ExitLayout:
		return nil
	}
	return fmt.Errorf("content must be inside a column of the layout created at line %d", b.state.layoutLine)
}

func (b *builder) push(ops ...domain.RenderOperation) {
	b.ops = append(b.ops, ops...)
}

func (b *builder) newLines(n int) {
	for i := 0; i < n; i++ {
		b.ops = append(b.ops, domain.NewLine{})
	}
}

func (b *builder) fontSize() int {
	if b.state.fontSize < 1 {
		return 1
	}
	return min(b.state.fontSize, 7)
}

func (b *builder) prelude() {
	b.push(domain.SetStyle{Style: b.theme.Style(theme.Default)}, domain.ClearScreen{})
	b.newLines(1)
}

func (b *builder) pause() {
	b.endedInList = b.state.last == lastList
	b.closeChunk()
}

func (b *builder) closeChunk() {
	b.chunks = append(b.chunks, domain.Chunk{
		Operations: b.ops,
		Note:       strings.Join(b.notes, "\n\n"),
		Frame:      b.frame,
	})
	b.ops, b.notes, b.frame = nil, nil, nil
}

func (b *builder) endSlide() {
	switch {
	case len(b.chunks) == 0 || b.frame != nil || !onlyNewLines(b.ops):
		b.closeChunk()
	case len(b.notes) > 0:
		last := &b.chunks[len(b.chunks)-1]
		last.Note = strings.Join(append(nonEmpty(last.Note), b.notes...), "\n\n")
	}
	if !b.state.skip {
		b.slides = append(b.slides, domain.Slide{
			Title:    b.state.title,
			NoFooter: b.state.noFooter,
			Chunks:   b.chunks,
		})
	}
	b.chunks, b.ops, b.notes, b.frame = nil, nil, nil, nil
	b.state = slideState{}
	b.endedInList = false
	b.prelude()
}

func (b *builder) finish(meta domain.Metadata) {
	if b.state.dirty || len(b.chunks) > 0 {
		b.endSlide()
	}
	if len(b.slides) == 0 {
		b.endSlide()
	}
	total := len(b.slides)
	for i := range b.slides {
		if !b.slides[i].NoFooter {
			b.slides[i].Footer = b.footer(i+1, total, meta)
		}
	}
}

func (b *builder) footer(current, total int, meta domain.Metadata) []domain.RenderOperation {
	text := strings.NewReplacer(
		"{current}", strconv.Itoa(current),
		"{total}", strconv.Itoa(total),
		"{title}", meta.Title,
		"{author}", strings.Join(meta.Authors, ", "),
	).Replace(b.theme.FooterTemplate)
	if text == "" {
		return nil
	}
	return []domain.RenderOperation{
		domain.ExitLayout{},
		domain.JumpToBottom{},
		domain.WriteStyledText{
			Spans:     domain.Line{{Text: text, Style: b.theme.Style(theme.Footer)}},
			Alignment: b.theme.Alignment(theme.Footer),
		},
	}
}

func onlyNewLines(ops []domain.RenderOperation) bool {
	for _, op := range ops {
		if _, ok := op.(domain.NewLine); !ok {
			return false
		}
	}
	return true
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func (b *builder) comment(e markdown.Comment) error {
	cmd, ok, err := command.Parse(e.Source, e.Line, b.opts.CommandPrefix)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	switch c := cmd.(type) {
	case domain.Pause:
		b.pause()
	case domain.EndSlide:
		b.endSlide()
	case domain.NewLines:
		b.newLines(c.Count * b.fontSize())
	case domain.JumpToMiddle:
		b.push(domain.JumpToVerticalMiddle{})
	case domain.ColumnLayout:
		b.state.layout = layoutState{columns: len(c.Widths)}
		b.state.needsColumn = true
		b.state.layoutLine = e.Line
		b.push(domain.BeginLayout{Widths: c.Widths})
	case domain.Column:
		l := b.state.layout
		switch {
		case l.columns == 0:
			return fmt.Errorf("column %d used outside a column layout", c.Index)
		case l.inColumn && l.column == c.Index:
			return fmt.Errorf("already in column %d", c.Index)
		case c.Index >= l.columns:
			return fmt.Errorf("column %d out of range: layout has %d columns", c.Index, l.columns)
		}
		b.state.layout = layoutState{columns: l.columns, column: c.Index, inColumn: true}
		b.push(domain.EnterColumn{Index: c.Index})
	case domain.ResetLayout:
		b.state.layout = layoutState{}
		b.state.needsColumn = false
		b.push(domain.ExitLayout{}, domain.NewLine{})
	case domain.FontSize:
		b.state.fontSize = c.Size
	case domain.SetAlignment:
		b.state.alignment = c.Alignment
	case domain.IncrementalLists:
		enabled := c.Enabled
		b.state.incremental = &enabled
	case domain.ListItemNewlines:
		b.state.itemNewlines = c.Count
	case domain.SpeakerNote:
		b.notes = append(b.notes, c.Text)
	case domain.SkipSlide:
		b.state.skip = true
	case domain.NoFooter:
		b.state.noFooter = true
	case domain.Include:
		return b.include(c.Path)
	case domain.SnippetOutput:
		if !b.ids[c.ID] {
			return fmt.Errorf("snippet_output refers to undefined snippet id %q", c.ID)
		}
		b.push(domain.DrawExecutionOutput{SnippetID: c.ID})
		return nil
	default:
		return fmt.Errorf("unhandled command %s", cmd.Name())
	}
	b.state.ignoreBreak = true
	return nil
}

func (b *builder) include(p string) error {
	resolved := b.resolve(p)
	for _, f := range b.files {
		if f == resolved {
			return fmt.Errorf("include cycle: %s -> %s", strings.Join(b.files, " -> "), resolved)
		}
	}
	data, err := b.c.cc.ReadFile(resolved)
	if err != nil {
		return fmt.Errorf("failed to include %s: %w", p, err)
	}
	doc := b.c.md.Parse(data)
	if doc.FrontMatter != "" {
		return fmt.Errorf("included file %s cannot have front matter", p)
	}

	seen := false
	for _, s := range b.sources {
		seen = seen || s == resolved
	}
	if !seen {
		b.sources = append(b.sources, resolved)
	}

	b.files = append(b.files, resolved)
	defer func() { b.files = b.files[:len(b.files)-1] }()
	return b.elements(doc.Elements)
}
