package domain

// Command is a directive embedded in an HTML comment.
// The set of variants is closed: only types in this package implement it.
type Command interface {
	// Name returns the keyword used in markdown to spell the command.
	Name() string
	isCommand()
}

type (
	// Pause closes the current chunk.
	Pause struct{}
	// EndSlide closes the current slide.
	EndSlide struct{}
	// ColumnLayout starts a column layout with proportional widths.
	ColumnLayout struct{ Widths []int }
	// Column enters the column at Index of the active layout.
	Column struct{ Index int }
	// ResetLayout leaves the active layout.
	ResetLayout struct{}
	// FontSize changes the font size for the rest of the slide.
	FontSize struct{ Size int }
	// SetAlignment changes text alignment for the rest of the slide.
	SetAlignment struct{ Alignment Alignment }
	// JumpToMiddle moves the write cursor to the vertical center.
	JumpToMiddle struct{}
	// NewLines inserts Count empty lines.
	NewLines struct{ Count int }
	// IncrementalLists toggles one chunk per list item.
	IncrementalLists struct{ Enabled bool }
	// ListItemNewlines sets the number of lines between list items.
	ListItemNewlines struct{ Count int }
	// SpeakerNote attaches a note to the current chunk.
	SpeakerNote struct{ Text string }
	// Include splices another markdown file at this position.
	Include struct{ Path string }
	// SkipSlide drops the current slide from the deck.
	SkipSlide struct{}
	// NoFooter hides the footer on the current slide.
	NoFooter struct{}
	// SnippetOutput draws the output of the snippet with ID here.
	SnippetOutput struct{ ID string }
)

func (Pause) Name() string            { return "pause" }
func (EndSlide) Name() string         { return "end_slide" }
func (ColumnLayout) Name() string     { return "column_layout" }
func (Column) Name() string           { return "column" }
func (ResetLayout) Name() string      { return "reset_layout" }
func (FontSize) Name() string         { return "font_size" }
func (SetAlignment) Name() string     { return "alignment" }
func (JumpToMiddle) Name() string     { return "jump_to_middle" }
func (NewLines) Name() string         { return "new_lines" }
func (IncrementalLists) Name() string { return "incremental_lists" }
func (ListItemNewlines) Name() string { return "list_item_newlines" }
func (SpeakerNote) Name() string      { return "speaker_note" }
func (Include) Name() string          { return "include" }
func (SkipSlide) Name() string        { return "skip_slide" }
func (NoFooter) Name() string         { return "no_footer" }
func (SnippetOutput) Name() string    { return "snippet_output" }

func (Pause) isCommand()            {}
func (EndSlide) isCommand()         {}
func (ColumnLayout) isCommand()     {}
func (Column) isCommand()           {}
func (ResetLayout) isCommand()      {}
func (FontSize) isCommand()         {}
func (SetAlignment) isCommand()     {}
func (JumpToMiddle) isCommand()     {}
func (NewLines) isCommand()         {}
func (IncrementalLists) isCommand() {}
func (ListItemNewlines) isCommand() {}
func (SpeakerNote) isCommand()      {}
func (Include) isCommand()          {}
func (SkipSlide) isCommand()        {}
func (NoFooter) isCommand()         {}
func (SnippetOutput) isCommand()    {}
