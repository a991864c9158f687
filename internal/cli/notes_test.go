package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium/internal/testutils"
	"github.com/aretw0/podium/pkg/domain"
)

type chanSubscriber struct {
	events chan domain.NotesEvent
}

func (s *chanSubscriber) Events() <-chan domain.NotesEvent { return s.events }
func (s *chanSubscriber) Close() error                     { return nil }

func TestNotesViewer_FollowsPresenter(t *testing.T) {
	p := newPresenter(t, testutils.WriteDeck(t, sessionDeck))
	var out bytes.Buffer
	sub := &chanSubscriber{events: make(chan domain.NotesEvent)}
	v := NewNotesViewer(p, &out, nil, WithNotesStyle("notty"))

	done := make(chan error, 1)
	go func() { done <- v.Run(context.Background(), sub) }()

	send := func(ev domain.NotesEvent) {
		select {
		case sub.events <- ev:
		case <-time.After(2 * time.Second):
			t.Fatal("viewer is not reading events")
		}
	}
	send(domain.NotesEvent{Presentation: p.Path(), Command: domain.NotesGoTo, Slide: 1})
	send(domain.NotesEvent{Presentation: p.Path(), Command: domain.NotesExit})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("viewer did not exit")
	}
	assert.Equal(t, 1, v.Cursor().Slide)
	assert.Contains(t, out.String(), "slide 2/2")
	assert.Contains(t, out.String(), "remember the demo")
	assert.NotContains(t, out.String(), "\n\n")
}

func TestNotesViewer_QuitKey(t *testing.T) {
	p := newPresenter(t, testutils.WriteDeck(t, sessionDeck))
	keys := make(chan []byte, 1)
	keys <- []byte("q")
	v := NewNotesViewer(p, &bytes.Buffer{}, keys, WithNotesStyle("notty"))
	require.NoError(t, v.Run(context.Background(), &chanSubscriber{events: make(chan domain.NotesEvent)}))
	assert.Equal(t, 0, v.Cursor().Slide)
}
