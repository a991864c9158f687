package execution

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/podium/pkg/domain"
)

// ValidationResult is the outcome of running one snippet during validation.
type ValidationResult struct {
	ID       string
	Language string
	Line     int
	Expect   domain.Expectation
	ExitCode int
	Passed   bool
	// Err is set when the snippet could not run or produced no image.
	Err    string
	Output string
}

// Validate runs the snippets marked for validation, or every executable snippet when all
// is set, and compares their exit code with the expected outcome. Results follow deck
// order. Validation runs even when execution is disabled for presenting and never touches
// the states shown on slides.
func (e *Engine) Validate(ctx context.Context, all bool) []ValidationResult {
	e.mu.RLock()
	var targets []domain.ExecutionState
	for _, id := range e.order {
		s := *e.entries[id].state.Load()
		if s.Mode == domain.ModeValidate || (all && s.Mode != domain.ModeAcquireTerminal) {
			targets = append(targets, s)
		}
	}
	e.mu.RUnlock()

	results := make([]ValidationResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, s := range targets {
		g.Go(func() error {
			final := e.runSnapshot(gctx, s, func(domain.ExecutionState) {})
			results[i] = validationResult(final)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func validationResult(s domain.ExecutionState) ValidationResult {
	r := ValidationResult{
		ID:       s.ID,
		Language: s.Language,
		Line:     s.Line,
		Expect:   s.Expect,
		ExitCode: s.ExitCode,
		Err:      s.Err,
		Passed:   s.Succeeded(),
	}
	if r.Expect == "" {
		r.Expect = domain.ExpectSuccess
	}
	for _, l := range s.Output {
		r.Output += l.Text() + "\n"
	}
	return r
}

// Failed returns the results that did not pass.
func Failed(results []ValidationResult) []ValidationResult {
	var out []ValidationResult
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
