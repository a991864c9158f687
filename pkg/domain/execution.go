package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	"strconv"
)

// ExecutionMode says when and how a snippet runs and where its output goes.
type ExecutionMode string

const (
	// ModeManual runs on user request; output below the code.
	ModeManual ExecutionMode = "manual"
	// ModeAuto runs on load; output below the code.
	ModeAuto ExecutionMode = "auto"
	// ModeAutoReplace runs on load; output replaces the code.
	ModeAutoReplace ExecutionMode = "auto_replace"
	// ModeAutoImage runs on load; stdout is decoded as an image replacing the code.
	ModeAutoImage ExecutionMode = "auto_image"
	// ModeAcquireTerminal hands the terminal to the child on user request.
	ModeAcquireTerminal ExecutionMode = "acquire_terminal"
	// ModePty runs on user request under a pseudo terminal.
	ModePty ExecutionMode = "pty"
	// ModeValidate only runs during validation.
	ModeValidate ExecutionMode = "validate"
)

// Automatic reports whether the mode starts without user input.
func (m ExecutionMode) Automatic() bool {
	return m == ModeAuto || m == ModeAutoReplace || m == ModeAutoImage
}

// Expectation is the expected outcome of a snippet.
type Expectation string

const (
	ExpectSuccess Expectation = "success"
	ExpectFailure Expectation = "failure"
)

// ExecutionStatus is the lifecycle position of a snippet.
type ExecutionStatus string

const (
	StatusNotStarted ExecutionStatus = "not_started"
	StatusRunning    ExecutionStatus = "running"
	StatusCompleted  ExecutionStatus = "completed"
	StatusFailed     ExecutionStatus = "failed"
)

// ExecutionState is an immutable snapshot of one snippet. Writers replace the whole value.
type ExecutionState struct {
	ID       string
	Language string
	// Alternative names a non-default executor for Language.
	Alternative string
	// Source is the executable text, hidden lines included.
	Source   string
	Mode     ExecutionMode
	Expect   Expectation
	Disabled bool
	// Line is the 1-based line of the code block in the deck.
	Line int

	Status   ExecutionStatus
	ExitCode int
	Output   []Line
	Image    image.Image
	Err      string
	Runs     int
}

// Succeeded reports whether the run completed as expected.
func (s ExecutionState) Succeeded() bool {
	if s.Status != StatusCompleted {
		return false
	}
	if s.Expect == ExpectFailure {
		return s.ExitCode != 0
	}
	return s.ExitCode == 0
}

// RenderRequest describes a diagram/formula rendered out of process into an image.
type RenderRequest struct {
	// Kind is the renderer: mermaid, typst, latex or d2.
	Kind   string
	Source string
	// Theme passed to the renderer, if it takes one.
	Theme string
	// Scale or ppi, renderer dependent; zero means default.
	Scale int
}

// Key identifies identical requests.
func (r RenderRequest) Key() string {
	h := sha256.New()
	h.Write([]byte(r.Kind))
	h.Write([]byte{0})
	h.Write([]byte(r.Theme))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(r.Scale)))
	h.Write([]byte{0})
	h.Write([]byte(r.Source))
	return hex.EncodeToString(h.Sum(nil))
}
