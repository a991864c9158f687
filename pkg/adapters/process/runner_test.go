package process

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellSpec() ExecutorSpec {
	return ExecutorSpec{
		Filename:    "script.sh",
		Environment: map[string]string{"PODIUM_GREETING": "hello"},
		Commands:    [][]string{{"sh", "$pwd/script.sh"}},
	}
}

func TestRunner_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	runner := NewRunner()

	t.Run("Captures Output And Environment", func(t *testing.T) {
		var out bytes.Buffer
		code, err := runner.Run(context.Background(), shellSpec(), "echo $PODIUM_GREETING\necho oops >&2\n", &out)
		require.NoError(t, err)
		assert.Equal(t, 0, code)
		assert.Contains(t, out.String(), "hello")
		assert.Contains(t, out.String(), "oops")
	})

	t.Run("Reports Exit Code", func(t *testing.T) {
		var out bytes.Buffer
		code, err := runner.Run(context.Background(), shellSpec(), "exit 3\n", &out)
		require.NoError(t, err)
		assert.Equal(t, 3, code)
	})

	t.Run("Stops At First Failing Command", func(t *testing.T) {
		spec := shellSpec()
		spec.Commands = [][]string{{"sh", "-c", "exit 1"}, {"sh", "-c", "echo unreachable"}}

		var out bytes.Buffer
		code, err := runner.Run(context.Background(), spec, "", &out)
		require.NoError(t, err)
		assert.Equal(t, 1, code)
		assert.NotContains(t, out.String(), "unreachable")
	})

	t.Run("Fails When Command Is Missing", func(t *testing.T) {
		spec := shellSpec()
		spec.Commands = [][]string{{"podium-definitely-missing-binary"}}

		_, err := runner.Run(context.Background(), spec, "", &bytes.Buffer{})
		assert.ErrorContains(t, err, "podium-definitely-missing-binary")
	})

	t.Run("Uses Base Dir", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("found"), 0o644))

		var out bytes.Buffer
		code, err := NewRunner(WithBaseDir(dir)).Run(context.Background(), shellSpec(), "cat marker.txt\n", &out)
		require.NoError(t, err)
		assert.Equal(t, 0, code)
		assert.Equal(t, "found", strings.TrimSpace(out.String()))
	})
}

func TestRunner_RunAttached(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	var stdout, stderr bytes.Buffer
	code, err := NewRunner().RunAttached(context.Background(), shellSpec(), "read line; echo got $line\n", strings.NewReader("input\n"), &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "got input\n", stdout.String())
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(nil)
	require.NoError(t, err)
	assert.Contains(t, reg.Languages(), "bash")
	assert.Contains(t, reg.Languages(), "rust")

	spec, ok := reg.Lookup("rust", "")
	require.True(t, ok)
	assert.Len(t, spec.Commands, 2)
	assert.Equal(t, "# ", reg.HiddenLinePrefix("rust"))

	alt, ok := reg.Lookup("rust", "rust-script")
	require.True(t, ok)
	assert.Equal(t, "rust-script", alt.Commands[0][0])

	_, ok = reg.Lookup("rust", "nope")
	assert.False(t, ok)
	_, ok = reg.Lookup("brainfuck", "")
	assert.False(t, ok)
}

func TestRegistryCustom(t *testing.T) {
	reg, err := NewRegistry(map[string]ExecutorSpec{"bash": {Filename: "x.sh", Commands: [][]string{{"dash", "$pwd/x.sh"}}}})
	require.NoError(t, err)
	spec, _ := reg.Lookup("bash", "")
	assert.Equal(t, "dash", spec.Commands[0][0])

	tests := map[string]ExecutorSpec{
		"filename is empty":   {Commands: [][]string{{"x"}}},
		"no commands given":   {Filename: "x"},
		"empty command given": {Filename: "x", Commands: [][]string{{}}},
	}
	for reason, spec := range tests {
		t.Run(reason, func(t *testing.T) {
			_, err := NewRegistry(map[string]ExecutorSpec{"broken": spec})
			assert.ErrorContains(t, err, reason)
		})
	}
}

func TestLoadExecutors(t *testing.T) {
	missing, err := LoadExecutors(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)

	p := filepath.Join(t.TempDir(), "executors.yaml")
	require.NoError(t, os.WriteFile(p, []byte("haskell:\n  filename: s.hs\n  commands: [[\"runghc\", \"$pwd/s.hs\"]]\n"), 0o644))
	loaded, err := LoadExecutors(p)
	require.NoError(t, err)
	assert.Equal(t, "s.hs", loaded["haskell"].Filename)
}
