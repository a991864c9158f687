package domain

// Cursor is a position in a deck.
type Cursor struct {
	Slide int `json:"slide"`
	Chunk int `json:"chunk"`
	// Frame is the highlight frame shown, derived from the chunk.
	Frame int `json:"frame"`
}

// Less orders cursors by reading position.
func (c Cursor) Less(o Cursor) bool {
	if c.Slide != o.Slide {
		return c.Slide < o.Slide
	}
	return c.Chunk < o.Chunk
}
