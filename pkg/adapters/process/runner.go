package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kr/pty"
)

// Runner executes snippets through their executor's command pipeline.
// Every run gets its own scratch directory, removed when the run ends.
type Runner struct {
	baseDir string
	logger  *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new snippet runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every command of spec in order, stopping at the first failure.
// Combined stdout and stderr are written to out as they are produced. The returned exit
// code is the one of the last command run; err is set only when a command could not start.
func (r *Runner) Run(ctx context.Context, spec ExecutorSpec, source string, out io.Writer) (int, error) {
	return r.pipeline(ctx, spec, source, func(cmd *exec.Cmd) (int, error) {
		cmd.Stdin = nil
		cmd.Stdout = out
		cmd.Stderr = out
		if err := cmd.Start(); err != nil {
			return -1, err
		}
		return exitCode(cmd.Wait())
	})
}

// RunPty is like Run but every command gets a pseudo terminal as its stdio.
func (r *Runner) RunPty(ctx context.Context, spec ExecutorSpec, source string, out io.Writer) (int, error) {
	return r.pipeline(ctx, spec, source, func(cmd *exec.Cmd) (int, error) {
		tty, err := pty.Start(cmd)
		if err != nil {
			return -1, err
		}
		defer tty.Close()

		// The read side fails with EIO once the child exits.
		_, _ = io.Copy(out, tty)
		return exitCode(cmd.Wait())
	})
}

// RunAttached hands the given stdio to every command, used when a snippet takes over
// the terminal.
func (r *Runner) RunAttached(ctx context.Context, spec ExecutorSpec, source string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	return r.pipeline(ctx, spec, source, func(cmd *exec.Cmd) (int, error) {
		cmd.Stdin = stdin
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		return exitCode(cmd.Run())
	})
}

func (r *Runner) pipeline(ctx context.Context, spec ExecutorSpec, source string, run func(*exec.Cmd) (int, error)) (int, error) {
	if err := spec.validate(); err != nil {
		return -1, err
	}
	dir, err := os.MkdirTemp("", "podium-snippet-*")
	if err != nil {
		return -1, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, spec.Filename), []byte(source), 0o600); err != nil {
		return -1, fmt.Errorf("failed to write snippet: %w", err)
	}

	env := environ(spec.Environment)
	code := 0
	for _, argv := range spec.Commands {
		args := make([]string, len(argv))
		for i, a := range argv {
			args[i] = strings.ReplaceAll(a, "$pwd", dir)
		}

		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Dir = r.baseDir
		cmd.Env = append(cmd.Environ(), env...)

		r.logger.Debug("running snippet command", "command", args[0], "args", len(args)-1)
		code, err = run(cmd)
		if err != nil {
			return code, fmt.Errorf("failed to run %s: %w", args[0], err)
		}
		if code != 0 {
			break
		}
	}
	return code, nil
}

func environ(vars map[string]string) []string {
	keys := sortedKeys(vars)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}
	return env
}

func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
