package render_test

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium/internal/render"
	"github.com/aretw0/podium/internal/theme"
	"github.com/aretw0/podium/pkg/domain"
)

type fakeResolver struct {
	states  map[string]domain.ExecutionState
	renders map[string]image.Image
	errs    map[string]error
}

func (f *fakeResolver) Snapshot(id string) (domain.ExecutionState, bool) {
	s, ok := f.states[id]
	return s, ok
}

func (f *fakeResolver) RenderResult(key string) (image.Image, bool, error) {
	if err := f.errs[key]; err != nil {
		return nil, true, err
	}
	img, ok := f.renders[key]
	return img, ok, nil
}

func newEngine(t *testing.T, opts ...render.Option) *render.Engine {
	t.Helper()
	th, err := theme.Builtin("dark")
	require.NoError(t, err)
	return render.NewEngine(th, append([]render.Option{render.WithMargin(0)}, opts...)...)
}

func text(s string) domain.WriteStyledText {
	return domain.WriteStyledText{Spans: domain.Line{{Text: s}}, Alignment: domain.AlignLeft}
}

func TestRender_TextAndNewLines(t *testing.T) {
	s := render.NewVirtualSurface(20, 5)
	ops := []domain.RenderOperation{
		domain.ClearScreen{},
		text("hello"),
		domain.NewLine{},
		domain.NewLine{},
		text("world"),
	}
	require.NoError(t, newEngine(t).Render(ops, s))
	assert.Equal(t, "hello", s.Line(0))
	assert.Equal(t, "", s.Line(1))
	assert.Equal(t, "world", s.Line(2))
}

func TestRender_WrapsLongText(t *testing.T) {
	s := render.NewVirtualSurface(10, 5)
	ops := []domain.RenderOperation{text("the quick brown fox"), domain.NewLine{}, text("end")}
	require.NoError(t, newEngine(t).Render(ops, s))
	assert.Equal(t, "the quick", s.Line(0))
	assert.Equal(t, "brown fox", s.Line(1))
	assert.Equal(t, "end", s.Line(2))
}

func TestRender_Alignment(t *testing.T) {
	s := render.NewVirtualSurface(10, 3)
	ops := []domain.RenderOperation{
		domain.WriteStyledText{Spans: domain.Line{{Text: "ab"}}, Alignment: domain.AlignCenter},
		domain.NewLine{},
		domain.WriteStyledText{Spans: domain.Line{{Text: "ab"}}, Alignment: domain.AlignRight},
	}
	require.NoError(t, newEngine(t).Render(ops, s))
	assert.Equal(t, "    ab", s.Line(0))
	assert.Equal(t, "        ab", s.Line(1))
}

func TestRender_Margin(t *testing.T) {
	th, err := theme.Builtin("dark")
	require.NoError(t, err)
	s := render.NewVirtualSurface(20, 2)
	require.NoError(t, render.NewEngine(th).Render([]domain.RenderOperation{text("x")}, s))
	assert.Equal(t, "  x", s.Line(0))
}

func TestRender_Layout(t *testing.T) {
	s := render.NewVirtualSurface(20, 6)
	ops := []domain.RenderOperation{
		text("top"),
		domain.NewLine{},
		domain.BeginLayout{Widths: []int{1, 1}},
		domain.EnterColumn{Index: 0},
		text("left"),
		domain.NewLine{},
		text("more"),
		domain.NewLine{},
		domain.EnterColumn{Index: 1},
		text("right"),
		domain.NewLine{},
		domain.ExitLayout{},
		text("below"),
	}
	require.NoError(t, newEngine(t).Render(ops, s))
	assert.Equal(t, "top", s.Line(0))
	assert.Equal(t, "left      right", s.Line(1))
	assert.Equal(t, "more", s.Line(2))
	assert.Equal(t, "below", s.Line(3))
}

func TestRender_JumpToBottomAndMiddle(t *testing.T) {
	s := render.NewVirtualSurface(10, 10)
	ops := []domain.RenderOperation{
		domain.JumpToVerticalMiddle{},
		text("mid"),
		domain.NewLine{},
		domain.JumpToBottom{},
		text("foot"),
	}
	require.NoError(t, newEngine(t).Render(ops, s))
	assert.Equal(t, "mid", s.Line(4))
	assert.Equal(t, "foot", s.Line(9))
}

func TestRender_Separator(t *testing.T) {
	s := render.NewVirtualSurface(5, 1)
	require.NoError(t, newEngine(t).Render([]domain.RenderOperation{domain.DrawSeparator{}}, s))
	assert.Equal(t, "─────", s.Line(0))
}

func TestRender_SetStyleAppliesToClear(t *testing.T) {
	s := render.NewVirtualSurface(4, 2)
	bg := domain.Style{Bg: "#112233"}
	ops := []domain.RenderOperation{domain.SetStyle{Style: bg}, domain.ClearScreen{}, text("a")}
	require.NoError(t, newEngine(t).Render(ops, s))
	assert.Equal(t, domain.Color("#112233"), s.Cell(3, 1).Style.Bg)
	assert.Equal(t, domain.Color("#112233"), s.Cell(0, 0).Style.Bg)
}

func TestRender_ExecutionStatus(t *testing.T) {
	tests := []struct {
		name  string
		state domain.ExecutionState
		want  string
	}{
		{"not started", domain.ExecutionState{Mode: domain.ModeManual, Status: domain.StatusNotStarted}, "[not started]"},
		{"disabled", domain.ExecutionState{Mode: domain.ModeManual, Disabled: true}, "[execution disabled]"},
		{"running", domain.ExecutionState{Mode: domain.ModeManual, Status: domain.StatusRunning}, "[running]"},
		{"finished", domain.ExecutionState{Mode: domain.ModeAuto, Status: domain.StatusCompleted}, "[finished]"},
		{"exit code", domain.ExecutionState{Mode: domain.ModeManual, Status: domain.StatusCompleted, ExitCode: 3}, "[finished with exit code 3]"},
		{"failed", domain.ExecutionState{Mode: domain.ModeManual, Status: domain.StatusFailed, Err: "boom"}, "[failed]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeResolver{states: map[string]domain.ExecutionState{"a": tt.state}}
			s := render.NewVirtualSurface(40, 6)
			ops := []domain.RenderOperation{domain.DrawExecutionOutput{SnippetID: "a"}}
			require.NoError(t, newEngine(t, render.WithResolver(r)).Render(ops, s))
			assert.Equal(t, tt.want, s.Line(1))
		})
	}
}

func TestRender_ExecutionOutput(t *testing.T) {
	r := &fakeResolver{states: map[string]domain.ExecutionState{"a": {
		Mode:   domain.ModeManual,
		Status: domain.StatusCompleted,
		Output: []domain.Line{{{Text: "line 1"}}, {{Text: "line 2"}}},
	}}}
	s := render.NewVirtualSurface(20, 8)
	ops := []domain.RenderOperation{domain.DrawExecutionOutput{SnippetID: "a"}}
	require.NoError(t, newEngine(t, render.WithResolver(r)).Render(ops, s))
	assert.Equal(t, "[finished]", s.Line(1))
	assert.Equal(t, "line 1", s.Line(3))
	assert.Equal(t, "line 2", s.Line(4))
}

func TestRender_AutoReplace(t *testing.T) {
	r := &fakeResolver{states: map[string]domain.ExecutionState{
		"pending": {Mode: domain.ModeAutoReplace, Status: domain.StatusRunning},
		"done":    {Mode: domain.ModeAutoReplace, Status: domain.StatusCompleted, Output: []domain.Line{{{Text: "42"}}}},
	}}
	e := newEngine(t, render.WithResolver(r))

	s := render.NewVirtualSurface(20, 3)
	require.NoError(t, e.Render([]domain.RenderOperation{domain.DrawExecutionOutput{SnippetID: "pending"}}, s))
	assert.Equal(t, "Loading...", s.Line(0))

	s = render.NewVirtualSurface(20, 3)
	require.NoError(t, e.Render([]domain.RenderOperation{domain.DrawExecutionOutput{SnippetID: "done"}}, s))
	assert.Equal(t, "42", s.Line(0))
}

func TestRender_AutoImageFailure(t *testing.T) {
	r := &fakeResolver{states: map[string]domain.ExecutionState{
		"exit": {
			Mode:     domain.ModeAutoImage,
			Status:   domain.StatusCompleted,
			ExitCode: 1,
			Err:      "exited with code 1",
			Output:   []domain.Line{{{Text: "boom"}}},
		},
		"decode": {Mode: domain.ModeAutoImage, Status: domain.StatusFailed, Err: "output is not an image"},
	}}
	e := newEngine(t, render.WithResolver(r))

	s := render.NewVirtualSurface(40, 4)
	require.NoError(t, e.Render([]domain.RenderOperation{domain.DrawExecutionOutput{SnippetID: "exit"}}, s))
	assert.Equal(t, "[finished with exit code 1]", s.Line(0))
	assert.Equal(t, "boom", s.Line(2))
	assert.NotContains(t, s.String(), "Loading...")

	s = render.NewVirtualSurface(40, 4)
	require.NoError(t, e.Render([]domain.RenderOperation{domain.DrawExecutionOutput{SnippetID: "decode"}}, s))
	assert.Equal(t, "output is not an image", s.Line(0))
}

func TestRender_UnknownSnippetIsSkipped(t *testing.T) {
	s := render.NewVirtualSurface(20, 3)
	e := newEngine(t, render.WithResolver(&fakeResolver{}))
	require.NoError(t, e.Render([]domain.RenderOperation{domain.DrawExecutionOutput{SnippetID: "x"}, text("after")}, s))
	assert.Equal(t, "after", s.Line(0))
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	return img
}

func TestRender_ImageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid(80, 40)))
	require.NoError(t, f.Close())

	s := render.NewVirtualSurface(40, 20)
	ops := []domain.RenderOperation{domain.DrawImage{Ref: domain.ImageRef{Path: path}, Size: domain.ImageSize{WidthPercent: 50}}}
	require.NoError(t, newEngine(t).Render(ops, s))
	require.Len(t, s.Images, 1)
	img := s.Images[0]
	assert.Equal(t, 20, img.Cols)
	assert.Equal(t, 5, img.Rows)
	assert.Equal(t, 10, img.Col)
}

func TestRender_MissingImageFile(t *testing.T) {
	s := render.NewVirtualSurface(120, 3)
	ops := []domain.RenderOperation{domain.DrawImage{Ref: domain.ImageRef{Path: "/nonexistent.png"}}, domain.NewLine{}, text("after")}
	err := newEngine(t).Render(ops, s)
	require.Error(t, err)
	assert.NotEmpty(t, s.Line(0))
	assert.Equal(t, "after", s.Line(1))
}

func TestRender_RenderResults(t *testing.T) {
	r := &fakeResolver{
		renders: map[string]image.Image{"ready": solid(16, 16)},
		errs:    map[string]error{"broken": errors.New("mmdc not found")},
	}
	e := newEngine(t, render.WithResolver(r))

	s := render.NewVirtualSurface(40, 10)
	require.NoError(t, e.Render([]domain.RenderOperation{domain.DrawImage{Ref: domain.ImageRef{RenderKey: "pending"}}}, s))
	assert.Equal(t, "Loading...", s.Line(0))

	s = render.NewVirtualSurface(40, 10)
	require.NoError(t, e.Render([]domain.RenderOperation{domain.DrawImage{Ref: domain.ImageRef{RenderKey: "broken"}}}, s))
	assert.Equal(t, "render failed: mmdc not found", s.Line(0))

	s = render.NewVirtualSurface(40, 10)
	require.NoError(t, e.Render([]domain.RenderOperation{domain.DrawImage{Ref: domain.ImageRef{RenderKey: "ready"}}}, s))
	require.Len(t, s.Images, 1)
	assert.Equal(t, 2, s.Images[0].Cols)
	assert.Equal(t, 1, s.Images[0].Rows)
}
