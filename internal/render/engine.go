// Package render draws render operations on a ports.Surface.
package render

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/aretw0/podium/internal/render/termimg"
	"github.com/aretw0/podium/internal/theme"
	"github.com/aretw0/podium/pkg/domain"
	"github.com/aretw0/podium/pkg/ports"
)

// cellAspect is the height of a terminal cell in units of its width.
const cellAspect = 2

// pixelsPerCell is the assumed width of a cell in pixels when sizing images.
const pixelsPerCell = 8

// Resolver provides the state that changes after compilation: snippet executions and
// rendered images. execution.Engine implements it.
type Resolver interface {
	Snapshot(id string) (domain.ExecutionState, bool)
	RenderResult(key string) (image.Image, bool, error)
}

type loadedImage struct {
	img image.Image
	err error
}

// Engine renders operation lists. It keeps a cache of decoded image files.
type Engine struct {
	styles   ports.StyleResolver
	resolver Resolver
	margin   int
	logger   *slog.Logger

	mu     sync.Mutex
	images map[string]loadedImage
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver sets the source of execution and render results.
func WithResolver(r Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithMargin sets the horizontal margin in columns.
func WithMargin(cols int) Option {
	return func(e *Engine) {
		e.margin = cols
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine drawing with styles.
func NewEngine(styles ports.StyleResolver, opts ...Option) *Engine {
	e := &Engine{
		styles: styles,
		margin: 2,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		images: make(map[string]loadedImage),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render draws ops on s and flushes it. Image failures are drawn inline and returned
// joined; they never stop the rest of the operations.
func (e *Engine) Render(ops []domain.RenderOperation, s ports.Surface) error {
	cols, rows := s.Size()
	p := &pass{e: e, s: s, cols: cols, rows: rows}
	p.area = p.screen()

	var errs []error
	for i, op := range ops {
		if err := p.apply(op, ops[i+1:]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.Flush(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Style resolves the style of element in the engine's theme.
func (e *Engine) Style(element string) domain.Style {
	return e.styles.Style(element)
}

func (e *Engine) loadImage(path string) (image.Image, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.images[path]; ok {
		return l.img, l.err
	}
	img, err := termimg.Load(path)
	e.images[path] = loadedImage{img: img, err: err}
	return img, err
}

type rect struct {
	col, width int
}

type layout struct {
	parent  rect
	top     int
	columns []rect
	maxRow  int
}

// pass is the state of one Render call.
type pass struct {
	e          *Engine
	s          ports.Surface
	cols, rows int
	style      domain.Style
	area       rect
	row        int
	layouts    []*layout
}

func (p *pass) screen() rect {
	m := p.e.margin
	if p.cols-2*m < 10 {
		m = 0
	}
	return rect{col: m, width: p.cols - 2*m}
}

func (p *pass) apply(op domain.RenderOperation, rest []domain.RenderOperation) error {
	switch o := op.(type) {
	case domain.SetStyle:
		p.style = o.Style
	case domain.ClearScreen:
		p.s.Clear(p.style)
		p.row = 0
		p.area = p.screen()
		p.layouts = nil
	case domain.NewLine:
		p.row++
	case domain.WriteStyledText:
		p.write(o.Spans, o.Alignment)
	case domain.JumpToVerticalMiddle:
		p.row = max(p.row, (p.rows-p.height(rest))/2)
	case domain.JumpToBottom:
		p.row = p.rows - 1 - o.Offset
	case domain.BeginLayout:
		p.beginLayout(o.Widths)
	case domain.EnterColumn:
		if l := p.top(); l != nil && o.Index < len(l.columns) {
			l.maxRow = max(l.maxRow, p.row)
			p.area = l.columns[o.Index]
			p.row = l.top
		}
	case domain.ExitLayout:
		if l := p.top(); l != nil {
			p.row = max(l.maxRow, p.row)
			p.area = l.parent
			p.layouts = p.layouts[:len(p.layouts)-1]
		}
	case domain.DrawSeparator:
		p.s.Print(p.area.col, p.row, strings.Repeat("─", p.area.width), p.style.Merge(o.Style))
	case domain.DrawImage:
		return p.drawImage(o)
	case domain.DrawExecutionOutput:
		return p.execution(o.SnippetID)
	default:
		return fmt.Errorf("unknown operation %T", op)
	}
	return nil
}

func (p *pass) top() *layout {
	if len(p.layouts) == 0 {
		return nil
	}
	return p.layouts[len(p.layouts)-1]
}

func (p *pass) beginLayout(widths []int) {
	total := 0
	for _, w := range widths {
		total += w
	}
	l := &layout{parent: p.area, top: p.row, maxRow: p.row}
	col := p.area.col
	for i, w := range widths {
		cw := p.area.width * w / max(total, 1)
		if i == len(widths)-1 {
			cw = p.area.col + p.area.width - col
		}
		l.columns = append(l.columns, rect{col: col, width: cw})
		col += cw
	}
	p.layouts = append(p.layouts, l)
}

// height estimates the rows the remaining operations take, up to the next jump.
func (p *pass) height(rest []domain.RenderOperation) int {
	n := 0
	for _, op := range rest {
		switch o := op.(type) {
		case domain.NewLine:
			n++
		case domain.WriteStyledText:
			n += len(wrap(o.Spans, p.area.width)) - 1
		case domain.JumpToBottom, domain.JumpToVerticalMiddle, domain.ClearScreen:
			return n
		}
	}
	return n
}

func (p *pass) write(spans domain.Line, alignment domain.Alignment) {
	for i, line := range wrap(spans, p.area.width) {
		if i > 0 {
			p.row++
		}
		col := p.area.col + offset(alignment, p.area.width, width(line))
		for _, sp := range line {
			col += p.s.Print(col, p.row, sp.Text, p.style.Merge(sp.Style))
		}
	}
}

func offset(a domain.Alignment, area, w int) int {
	switch a {
	case domain.AlignCenter:
		return max(0, (area-w)/2)
	case domain.AlignRight:
		return max(0, area-w)
	}
	return 0
}

func (p *pass) message(text, element string) {
	p.write(domain.Line{{Text: text, Style: p.e.styles.Style(element)}}, domain.AlignLeft)
}

func (p *pass) drawImage(op domain.DrawImage) error {
	if op.Ref.Path != "" {
		img, err := p.e.loadImage(op.Ref.Path)
		if err != nil {
			p.message(err.Error(), theme.Error)
			return err
		}
		return p.image(img, op.Size)
	}
	if p.e.resolver == nil {
		p.message("Loading...", theme.ExecutionRunning)
		return nil
	}
	img, ready, err := p.e.resolver.RenderResult(op.Ref.RenderKey)
	switch {
	case err != nil:
		p.message("render failed: "+err.Error(), theme.Error)
		return nil
	case !ready:
		p.message("Loading...", theme.ExecutionRunning)
		return nil
	}
	return p.image(img, op.Size)
}

func (p *pass) image(img image.Image, size domain.ImageSize) error {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil
	}
	cols := min(p.area.width, max(1, b.Dx()/pixelsPerCell))
	if size.WidthPercent > 0 {
		cols = max(1, p.area.width*size.WidthPercent/100)
	}
	ratio := float64(b.Dy()) / float64(b.Dx()) / cellAspect
	rows := max(1, int(math.Round(float64(cols)*ratio)))
	if avail := p.rows - p.row; rows > avail && avail > 0 {
		rows = avail
		cols = max(1, int(math.Round(float64(rows)/ratio)))
	}
	col := p.area.col + offset(domain.AlignCenter, p.area.width, cols)
	err := p.s.DrawImage(col, p.row, img, cols, rows)
	p.row += rows
	if err != nil {
		p.e.logger.Warn("failed to draw image", "err", err)
	}
	return err
}

func (p *pass) execution(id string) error {
	if p.e.resolver == nil {
		return nil
	}
	st, ok := p.e.resolver.Snapshot(id)
	if !ok {
		return nil
	}

	switch st.Mode {
	case domain.ModeAutoImage:
		switch {
		case st.Status == domain.StatusCompleted && st.Image != nil:
			return p.image(st.Image, domain.ImageSize{})
		case st.Status == domain.StatusCompleted:
			text, element := status(st)
			p.message(text, element)
			p.imageFailure(st)
		case st.Status == domain.StatusFailed:
			p.message(st.Err, theme.Error)
			p.imageFailure(st)
		case st.Disabled:
			p.message("[execution disabled]", theme.CodeDim)
		default:
			p.message("Loading...", theme.ExecutionRunning)
		}
		return nil
	case domain.ModeAutoReplace:
		if st.Status == domain.StatusFailed {
			p.message(st.Err, theme.Error)
			return nil
		}
		if len(st.Output) == 0 && st.Status != domain.StatusCompleted {
			p.message("Loading...", theme.ExecutionRunning)
			return nil
		}
		p.output(st.Output)
		return nil
	}

	p.row++
	text, element := status(st)
	p.message(text, element)
	p.row++
	if st.Status == domain.StatusFailed && st.Err != "" {
		p.message(st.Err, theme.Error)
		p.row++
	}
	if len(st.Output) > 0 {
		p.row++
		p.output(st.Output)
	}
	return nil
}

// imageFailure draws what an image snippet printed instead of an image.
func (p *pass) imageFailure(st domain.ExecutionState) {
	if len(st.Output) == 0 {
		return
	}
	p.row += 2
	p.output(st.Output)
}

func status(st domain.ExecutionState) (string, string) {
	switch st.Status {
	case domain.StatusRunning:
		return "[running]", theme.ExecutionRunning
	case domain.StatusCompleted:
		if st.ExitCode == 0 {
			return "[finished]", theme.ExecutionSuccess
		}
		return fmt.Sprintf("[finished with exit code %d]", st.ExitCode), theme.ExecutionFailure
	case domain.StatusFailed:
		return "[failed]", theme.ExecutionFailure
	}
	if st.Disabled {
		return "[execution disabled]", theme.CodeDim
	}
	return "[not started]", theme.CodeDim
}

// output draws lines as a block filled with the execution output background.
func (p *pass) output(lines []domain.Line) {
	block := p.e.styles.Style(theme.ExecutionOutput)
	fill := strings.Repeat(" ", p.area.width)
	for i, line := range lines {
		if i > 0 {
			p.row++
		}
		for j, row := range wrap(line, p.area.width) {
			if j > 0 {
				p.row++
			}
			p.s.Print(p.area.col, p.row, fill, block)
			col := p.area.col
			for _, sp := range row {
				col += p.s.Print(col, p.row, sp.Text, block.Merge(sp.Style))
			}
		}
	}
}
