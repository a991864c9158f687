/*
Package domain contains the core domain models of the podium slideshow.

It defines the compiled deck (Presentation, Slide, Chunk), the sum types that flow through
the compiler (Command, RenderOperation), the navigation Cursor and the ExecutionState
snapshots written by the snippet execution engine. This package is kept pure and free of
I/O so the compiler, the navigator and the renderer can share it.

# Key Entities

  - Command: a directive found in an HTML comment (pause, column layout, speaker note...).
  - RenderOperation: a low-level drawing instruction produced by the compiler.
  - Chunk: the unit revealed by one navigation step inside a slide.
  - Presentation: the whole compiled deck plus its metadata.
  - ExecutionState: an immutable snapshot of one snippet's execution.
*/
package domain
