/*
Package ports defines the driven ports (interfaces) of podium.

These interfaces decouple the compiler, renderer and session loop from concrete terminals,
image protocols, file watchers and speaker notes transports.

# Key Interfaces

  - Surface: a grid of styled cells the renderer draws into (real terminal or virtual).
  - ImageEncoder: turns pixels into a terminal graphics protocol payload.
  - StyleResolver: maps element kinds to styles (implemented by themes).
  - Watchable: notifies when the deck sources change.
  - NotesPublisher / NotesSubscriber: speaker notes synchronization.
*/
package ports
