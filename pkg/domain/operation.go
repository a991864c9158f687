package domain

// RenderOperation is a low-level drawing instruction.
// Operations are produced by the compiler and consumed in order by the renderer.
type RenderOperation interface {
	isOperation()
}

// ImageRef points to the pixels of a DrawImage operation.
// Exactly one of Path or RenderKey is set.
type ImageRef struct {
	// Path is an absolute path to an image file.
	Path string
	// RenderKey identifies a render pool job whose result is drawn once ready.
	RenderKey string
}

// ImageSize constrains the drawn image.
type ImageSize struct {
	// WidthPercent of the current rectangle; zero means natural size capped to the width.
	WidthPercent int
}

type (
	// SetStyle changes the default style (used for background fills).
	SetStyle struct{ Style Style }
	// WriteStyledText writes spans on the current row, wrapping as needed.
	WriteStyledText struct {
		Spans     Line
		Alignment Alignment
	}
	// ClearScreen clears the surface and resets the write cursor.
	ClearScreen struct{}
	// NewLine moves the write cursor one row down.
	NewLine struct{}
	// JumpToVerticalMiddle centers the remaining content vertically.
	JumpToVerticalMiddle struct{}
	// JumpToBottom moves the write cursor Offset rows above the last row.
	JumpToBottom struct{ Offset int }
	// BeginLayout partitions the current width into proportional columns.
	BeginLayout struct{ Widths []int }
	// EnterColumn moves the write cursor to the top of column Index.
	EnterColumn struct{ Index int }
	// ExitLayout leaves the layout below its tallest column.
	ExitLayout struct{}
	// DrawSeparator draws a horizontal rule across the current width.
	DrawSeparator struct{ Style Style }
	// DrawImage draws an image file or a render job result.
	DrawImage struct {
		Ref  ImageRef
		Size ImageSize
	}
	// DrawExecutionOutput draws the live execution state of a snippet.
	DrawExecutionOutput struct{ SnippetID string }
)

func (SetStyle) isOperation()             {}
func (WriteStyledText) isOperation()      {}
func (ClearScreen) isOperation()          {}
func (NewLine) isOperation()              {}
func (JumpToVerticalMiddle) isOperation() {}
func (JumpToBottom) isOperation()         {}
func (BeginLayout) isOperation()          {}
func (EnterColumn) isOperation()          {}
func (ExitLayout) isOperation()           {}
func (DrawSeparator) isOperation()        {}
func (DrawImage) isOperation()            {}
func (DrawExecutionOutput) isOperation()  {}
