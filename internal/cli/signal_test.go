//go:build unix

package cli

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalContext_CapturesSignal(t *testing.T) {
	sc := NewSignalContext(context.Background())
	defer sc.Cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-sc.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled")
	}
	assert.Equal(t, syscall.SIGTERM, sc.Signal())
}

func TestSignalContext_CancelWithoutSignal(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}
