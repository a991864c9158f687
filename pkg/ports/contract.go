package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/podium/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunNotesContract runs a suite of tests to verify that a publisher/subscriber pair
// delivers events for the same presentation in publish order.
func RunNotesContract(t *testing.T, pub NotesPublisher, sub NotesSubscriber, presentation string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("Delivers GoTo", func(t *testing.T) {
		err := pub.Publish(ctx, domain.NotesEvent{Presentation: presentation, Command: domain.NotesGoTo, Slide: 2, Chunk: 1})
		require.NoError(t, err, "Publish should not return error")

		ev := receive(t, ctx, sub)
		assert.Equal(t, domain.NotesGoTo, ev.Command)
		assert.Equal(t, 2, ev.Slide)
		assert.Equal(t, 1, ev.Chunk)
		assert.Equal(t, presentation, ev.Presentation)
	})

	t.Run("Keeps Order", func(t *testing.T) {
		for _, slide := range []int{3, 4, 5} {
			require.NoError(t, pub.Publish(ctx, domain.NotesEvent{Presentation: presentation, Command: domain.NotesGoTo, Slide: slide}))
		}
		var last domain.NotesEvent
		for i := 0; i < 3; i++ {
			ev := receive(t, ctx, sub)
			if i > 0 {
				assert.Greater(t, ev.Seq, last.Seq)
			}
			last = ev
		}
		assert.Equal(t, 5, last.Slide)
	})

	t.Run("Ignores Other Presentations", func(t *testing.T) {
		require.NoError(t, pub.Publish(ctx, domain.NotesEvent{Presentation: presentation + ".other", Command: domain.NotesGoTo, Slide: 9}))
		require.NoError(t, pub.Publish(ctx, domain.NotesEvent{Presentation: presentation, Command: domain.NotesExit}))

		ev := receive(t, ctx, sub)
		assert.Equal(t, domain.NotesExit, ev.Command)
	})
}

func receive(t *testing.T, ctx context.Context, sub NotesSubscriber) domain.NotesEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscriber closed")
		return ev
	case <-ctx.Done():
		t.Fatal("timed out waiting for notes event")
	}
	return domain.NotesEvent{}
}
