package domain

// NotesCommand is the kind of a speaker notes event.
type NotesCommand string

const (
	NotesGoTo NotesCommand = "go_to"
	NotesExit NotesCommand = "exit"
)

// NotesEvent is exchanged between a presenting instance and its speaker notes viewers.
type NotesEvent struct {
	// Presentation identifies the deck, usually its absolute path.
	Presentation string       `json:"presentation"`
	Seq          uint64       `json:"seq"`
	Command      NotesCommand `json:"command"`
	Slide        int          `json:"slide,omitempty"`
	Chunk        int          `json:"chunk,omitempty"`
}
