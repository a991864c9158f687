package podium_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aretw0/podium"
)

const exampleDeck = `Tasty vegetables
===

* Potato

<!-- pause -->

* Carrot

<!-- end_slide -->

Questions
===

<!-- speaker_note: thank the audience -->
`

func ExampleNew() {
	dir, err := os.MkdirTemp("", "podium-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "talk.md")
	if err := os.WriteFile(path, []byte(exampleDeck), 0o644); err != nil {
		log.Fatal(err)
	}

	p, err := podium.New(path)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	deck, err := p.Open(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	nav := p.Navigator(deck)
	for {
		c := nav.Cursor()
		fmt.Printf("slide %d chunk %d: %s\n", c.Slide+1, c.Chunk, nav.Slide().Title)
		if !nav.Next() {
			break
		}
	}
	fmt.Println("notes:", nav.Notes())

	// Output:
	// slide 1 chunk 0: Tasty vegetables
	// slide 1 chunk 1: Tasty vegetables
	// slide 2 chunk 0: Questions
	// notes: thank the audience
}
