/*
Package podium presents markdown documents as slideshows in the terminal.

A deck is an ordinary markdown file. HTML comments carry commands that shape the slides:

	<!-- pause -->                  reveal the rest of the slide on the next key press
	<!-- end_slide -->              start a new slide
	<!-- column_layout: [2, 1] -->  split the slide into proportional columns
	<!-- column: 0 -->              write into a column
	<!-- speaker_note: ... -->      notes shown by a speaker notes viewer

Code blocks are highlighted and may run while presenting when their info string asks for
it (+exec, +exec_replace, +auto_exec, +pty, +acquire_terminal, +validate) and execution
was enabled with WithExecution.

# Usage

A Presenter compiles the deck, runs its snippets and builds the renderer. The navigation
state machine moves over the compiled deck independently of rendering.

	p, err := podium.New("talk.md", podium.WithExecution(true, false))
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	deck, err := p.Open(ctx)
	if err != nil {
		log.Fatal(err)
	}
	nav := p.Navigator(deck)
	renderer := p.Renderer(deck)

	nav.Next()
	surface := render.NewVirtualSurface(80, 24)
	_ = renderer.Render(nav.VisibleOperations(), surface)

The podium command wraps this loop with terminal input, hot reload and speaker notes.
*/
package podium
