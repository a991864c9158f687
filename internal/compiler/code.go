package compiler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/aretw0/podium/internal/execution"
	"github.com/aretw0/podium/internal/markdown"
	"github.com/aretw0/podium/internal/theme"
	"github.com/aretw0/podium/pkg/domain"
)

func (b *builder) code(e markdown.CodeBlock) error {
	info, err := parseSnippetInfo(e.Info)
	if err != nil {
		return fmt.Errorf("invalid code block %q: %w", e.Info, err)
	}
	block := b.blocks
	b.blocks++

	render := info.Repr == reprRender ||
		(info.Repr == reprCode && info.Exec == execNone && slices.Contains(b.opts.AutoRenderLanguages, info.Language))
	if info.Width > 0 && !render {
		return fmt.Errorf("+width only applies to rendered blocks")
	}
	if render {
		return b.render(info, e.Code)
	}

	var prefix string
	if b.c.cc.Executors != nil && info.Language != "" {
		prefix = b.c.cc.Executors.HiddenLinePrefix(info.Language)
	}
	visible, executable := splitHidden(e.Code, prefix)

	mode, executes := info.mode()
	if !executes {
		b.codeBlock(info, visible, block)
		return nil
	}

	id := info.ID
	if id == "" {
		id = "block-" + strconv.Itoa(block)
	}
	if b.ids[id] {
		return fmt.Errorf("duplicate snippet id %q", id)
	}
	b.ids[id] = true

	state := domain.ExecutionState{
		ID:          id,
		Language:    info.Language,
		Alternative: info.Alternative,
		Source:      executable,
		Mode:        mode,
		Expect:      info.Expect,
		Disabled:    b.disabled(mode),
		Line:        e.Line,
		Status:      domain.StatusNotStarted,
	}
	b.snippets = append(b.snippets, state)
	if state.Disabled {
		b.c.cc.Logger.Debug("snippet execution disabled", "id", id, "mode", mode, "line", e.Line)
	}

	switch {
	case mode == domain.ModeValidate:
		b.codeBlock(info, visible, block)
	case (mode == domain.ModeAutoReplace || mode == domain.ModeAutoImage) && !state.Disabled:
		b.push(domain.DrawExecutionOutput{SnippetID: id})
	default:
		b.codeBlock(info, visible, block)
		b.push(domain.DrawExecutionOutput{SnippetID: id})
	}
	return nil
}

func (b *builder) disabled(mode domain.ExecutionMode) bool {
	switch mode {
	case domain.ModeValidate:
		return false
	case domain.ModeAuto, domain.ModeAutoReplace, domain.ModeAutoImage:
		return !b.c.cc.ExecReplaceEnabled
	}
	return !b.c.cc.ExecEnabled
}

func (b *builder) render(info snippetInfo, source string) error {
	if !slices.Contains(execution.RenderKinds, info.Language) {
		return fmt.Errorf("%q blocks cannot be rendered (supported: %s)",
			info.Language, strings.Join(execution.RenderKinds, ", "))
	}
	req := domain.RenderRequest{Kind: info.Language, Source: source, Theme: b.theme.Name}
	key := req.Key()
	if !b.renderKeys[key] {
		b.renderKeys[key] = true
		b.renders = append(b.renders, req)
	}
	b.push(domain.DrawImage{
		Ref:  domain.ImageRef{RenderKey: key},
		Size: domain.ImageSize{WidthPercent: info.Width},
	})
	return nil
}

// codeBlock draws the code, one chunk per highlight group when there is more than one.
func (b *builder) codeBlock(info snippetInfo, code string, block int) {
	code = strings.ReplaceAll(code, "\t", "    ")
	styles := b.codeStyles(info.NoBackground)
	lines := b.hl.Lines(info.Language, code, styles.code)
	if len(info.Groups) == 1 {
		b.push(b.codeOperations(info, lines, info.Groups[0], styles)...)
		return
	}

	// a chunk holds a single highlighted block
	if b.frame != nil {
		b.closeChunk()
	}
	for i, g := range info.Groups {
		if i > 0 {
			b.closeChunk()
		}
		ops := b.codeOperations(info, lines, g, styles)
		b.frame = &domain.HighlightFrame{
			Block:  block,
			Index:  i,
			Count:  len(info.Groups),
			Offset: len(b.ops),
			Length: len(ops),
		}
		b.push(ops...)
	}
}

type codeStyles struct {
	code, dim, number domain.Style
}

func (b *builder) codeStyles(noBackground bool) codeStyles {
	s := codeStyles{
		code:   b.theme.Style(theme.Code),
		dim:    b.theme.Style(theme.CodeDim),
		number: b.theme.Style(theme.LineNumber),
	}
	if noBackground {
		bg := b.theme.Style(theme.Default).Bg
		s.code.Bg, s.dim.Bg, s.number.Bg = bg, bg, bg
	}
	return s
}

func (b *builder) codeOperations(info snippetInfo, lines []domain.Line, g highlightGroup, styles codeStyles) []domain.RenderOperation {
	padding := strings.Repeat(" ", b.theme.CodePadding)
	numberWidth := len(strconv.Itoa(len(lines)))
	width := 0
	for _, l := range lines {
		width = max(width, runewidth.StringWidth(l.Text()))
	}
	alignment := b.alignment(theme.Code)

	var ops []domain.RenderOperation
	for i, l := range lines {
		out := domain.Line{{Text: padding, Style: styles.code}}
		if info.LineNumbers {
			out = append(out, domain.Span{Text: fmt.Sprintf("%*d ", numberWidth, i+1), Style: styles.number})
		}
		highlighted := g.contains(i + 1)
		for _, span := range l {
			if !highlighted {
				span.Style = styles.dim
			} else if info.NoBackground {
				span.Style.Bg = styles.code.Bg
			}
			out = append(out, span)
		}
		fill := width - runewidth.StringWidth(l.Text()) + len(padding)
		out = append(out, domain.Span{Text: strings.Repeat(" ", fill), Style: styles.code})
		ops = append(ops, domain.WriteStyledText{Spans: out, Alignment: alignment}, domain.NewLine{})
	}
	return ops
}

// splitHidden removes lines starting with prefix from the displayed code; the executed
// code keeps them with the prefix stripped.
func splitHidden(code, prefix string) (visible, executable string) {
	if prefix == "" {
		return code, code
	}
	var vis, exe strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(code, "\n"), "\n") {
		if rest, hidden := strings.CutPrefix(line, prefix); hidden {
			exe.WriteString(rest + "\n")
			continue
		}
		vis.WriteString(line + "\n")
		exe.WriteString(line + "\n")
	}
	return vis.String(), exe.String()
}
