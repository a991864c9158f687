package domain

import (
	"errors"
	"fmt"
)

// ErrTerminalBusy is returned when a snippet asks for the terminal while another holds it.
var ErrTerminalBusy = errors.New("terminal already acquired")

// ErrUnknownSnippet is returned when a snippet id is not registered.
var ErrUnknownSnippet = errors.New("unknown snippet")

// ErrExecutionDisabled is recorded when a snippet is triggered without execution enabled.
var ErrExecutionDisabled = errors.New("snippet execution is disabled")

// ErrNoExecutor is returned when no executor is configured for a language.
var ErrNoExecutor = errors.New("no executor configured")

// ErrMalformedNotes is returned for datagrams that are not valid notes events.
var ErrMalformedNotes = errors.New("malformed notes event")

// ErrUnsupported is returned for features this build cannot provide.
var ErrUnsupported = errors.New("unsupported")

// ParseError reports an invalid comment command.
type ParseError struct {
	Line    int
	Command string
	Reason  string
}

func (e *ParseError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("line %d: invalid command: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: invalid command %q: %s", e.Line, e.Command, e.Reason)
}

// BuildError reports why a deck could not be compiled.
type BuildError struct {
	Path string
	Line int
	Err  error
}

func (e *BuildError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// ExecutionError reports a snippet that could not be run.
type ExecutionError struct {
	SnippetID string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("snippet %s: %v", e.SnippetID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
