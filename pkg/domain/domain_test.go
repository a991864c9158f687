package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyleMerge(t *testing.T) {
	base := Style{Fg: "#ffffff", Bg: "#000000", Size: 2}
	got := base.Merge(Style{Fg: "#ff0000", Bold: true})

	assert.Equal(t, Color("#ff0000"), got.Fg)
	assert.Equal(t, Color("#000000"), got.Bg)
	assert.True(t, got.Bold)
	assert.Equal(t, 2, got.FontSize())
	assert.Equal(t, 1, Style{}.FontSize())
}

func TestExecutionStateSucceeded(t *testing.T) {
	tests := []struct {
		name  string
		state ExecutionState
		want  bool
	}{
		{"zero exit", ExecutionState{Status: StatusCompleted}, true},
		{"nonzero exit", ExecutionState{Status: StatusCompleted, ExitCode: 1}, false},
		{"expected failure", ExecutionState{Status: StatusCompleted, ExitCode: 2, Expect: ExpectFailure}, true},
		{"unexpected success", ExecutionState{Status: StatusCompleted, Expect: ExpectFailure}, false},
		{"failed to start", ExecutionState{Status: StatusFailed}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Succeeded())
		})
	}
}

func TestRenderRequestKey(t *testing.T) {
	a := RenderRequest{Kind: "mermaid", Source: "graph TD; A-->B"}
	b := RenderRequest{Kind: "mermaid", Source: "graph TD; A-->B"}
	c := RenderRequest{Kind: "d2", Source: "graph TD; A-->B"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Len(t, a.Key(), 64)
}

func TestBuildErrorUnwrap(t *testing.T) {
	err := &BuildError{Path: "deck.md", Line: 3, Err: ErrUnknownSnippet}

	assert.True(t, errors.Is(err, ErrUnknownSnippet))
	assert.Equal(t, "deck.md:3: unknown snippet", err.Error())
}
