package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium"
	"github.com/aretw0/podium/internal/testutils"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	noConfig := filepath.Join(t.TempDir(), "missing.yaml")
	rootCmd.SetArgs(append(args, "--config", noConfig))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--quiet")
	require.NoError(t, err)
	assert.Equal(t, "podium version "+strings.TrimSpace(podium.Version)+"\n", out)
}

func TestValidate(t *testing.T) {
	deck := testutils.WriteDeck(t, "Checks\n===\n\n```bash +validate\nexit 0\n```\n\n```bash +validate +expect:failure\nexit 1\n```\n")
	out, err := execute(t, "validate", deck)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   block-0")
	assert.Contains(t, out, "ok   block-1")
	assert.Contains(t, out, "2 snippets validated")
}

func TestValidate_Failure(t *testing.T) {
	deck := testutils.WriteDeck(t, "Checks\n===\n\n```bash +validate\necho broken\nexit 2\n```\n")
	out, err := execute(t, "validate", deck)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 snippets failed validation")
	assert.Contains(t, out, "FAIL block-0")
	assert.Contains(t, out, "| broken")
}

func TestExport_HTML(t *testing.T) {
	deck := testutils.WriteDeck(t, "Hello\n===\n\nexported text\n")
	out := filepath.Join(t.TempDir(), "deck.html")
	_, err := execute(t, "export", deck, "--format", "html", "--output", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exported text")
}

func TestExport_PDFUnsupported(t *testing.T) {
	deck := testutils.WriteDeck(t, "Hello\n===\n")
	out := filepath.Join(t.TempDir(), "deck.pdf")
	_, err := execute(t, "export", deck, "--format", "pdf", "--output", out)
	require.Error(t, err)
	assert.NoFileExists(t, out)
}
