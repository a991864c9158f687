package domain

// HighlightFrame marks a chunk produced by dynamic code highlighting.
type HighlightFrame struct {
	// Block is the deck-wide index of the code block that produced the frame.
	Block int
	// Index of this frame within the block.
	Index int
	// Count of frames of the block.
	Count int
	// Offset and Length delimit the code operations within the chunk. Only the code of the
	// latest visible frame is drawn, at the position of the first one.
	Offset int
	Length int
}

// Chunk is the unit revealed by one navigation step.
type Chunk struct {
	Operations []RenderOperation
	// Note holds the speaker notes attached while this chunk was open.
	Note  string
	Frame *HighlightFrame
}

// Slide is an ordered list of chunks, at least one.
type Slide struct {
	Title    string
	NoFooter bool
	Chunks   []Chunk
	Footer   []RenderOperation
}

// Options tune how a deck is compiled. Front matter values override config values.
type Options struct {
	ImplicitSlideEnds           bool     `yaml:"implicit_slide_ends"`
	EndSlideShorthand           bool     `yaml:"end_slide_shorthand"`
	CommandPrefix               string   `yaml:"command_prefix"`
	IncrementalLists            bool     `yaml:"incremental_lists"`
	ListItemNewlines            int      `yaml:"list_item_newlines"`
	StrictFrontMatterParsing    bool     `yaml:"strict_front_matter_parsing"`
	PauseBeforeIncrementalLists bool     `yaml:"pause_before_incremental_lists"`
	PauseAfterIncrementalLists  bool     `yaml:"pause_after_incremental_lists"`
	AutoRenderLanguages         []string `yaml:"auto_render_languages"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ListItemNewlines:            1,
		StrictFrontMatterParsing:    true,
		PauseBeforeIncrementalLists: true,
		PauseAfterIncrementalLists:  true,
	}
}

// Metadata is the front matter of a deck.
type Metadata struct {
	Title    string
	SubTitle string
	Authors  []string
	Event    string
	Location string
	Date     string
	Theme    string
	Options  Options
}

// Presentation is a compiled deck. It is never mutated after compilation; a reload
// replaces it as a whole.
type Presentation struct {
	Path     string
	Slides   []Slide
	Metadata Metadata
	// Snippets declares every executable snippet in deck order.
	Snippets []ExecutionState
	// Renders lists render jobs referenced by DrawImage operations, in deck order.
	Renders []RenderRequest
	// Sources lists every file read while compiling, the deck itself first.
	Sources []string
}

// ChunkCount returns the number of chunks of slide i, or 0 when out of range.
func (p *Presentation) ChunkCount(i int) int {
	if p == nil || i < 0 || i >= len(p.Slides) {
		return 0
	}
	return len(p.Slides[i].Chunks)
}
