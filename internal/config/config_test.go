package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
defaults:
  theme: light
options:
  implicit_slide_ends: true
snippet:
  exec:
    enable: true
    custom:
      lua:
        filename: main.lua
        commands: [["lua", "$pwd/main.lua"]]
speaker_notes:
  always_publish: true
key_bindings:
  next: ["l", "<right>"]
  exit: ["<c-q>"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Defaults.Theme)
	assert.Equal(t, "auto", cfg.Defaults.ImageProtocol)
	assert.True(t, cfg.Options.ImplicitSlideEnds)
	// untouched option keeps its default
	assert.True(t, cfg.Options.PauseBeforeIncrementalLists)
	assert.True(t, cfg.Snippet.Exec.Enable)
	assert.Equal(t, "main.lua", cfg.Snippet.Exec.Custom["lua"].Filename)
	assert.True(t, cfg.SpeakerNotes.AlwaysPublish)
	assert.Equal(t, Default().SpeakerNotes.PublishAddress, cfg.SpeakerNotes.PublishAddress)
	assert.Equal(t, 2, cfg.Snippet.Render.Threads)
	assert.Equal(t, map[string][]string{"next": {"l", "<right>"}, "exit": {"<c-q>"}}, cfg.KeyBindings)
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown key":       "bogus: 1",
		"protocol":          "defaults:\n  image_protocol: sixel",
		"transport":         "speaker_notes:\n  transport: carrier-pigeon",
		"redis without url": "speaker_notes:\n  transport: redis",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			assert.Error(t, Parse([]byte(data), &cfg))
		})
	}
}

func TestParse_EmptyFile(t *testing.T) {
	cfg := Default()
	require.NoError(t, Parse(nil, &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestParse_ClampsThreads(t *testing.T) {
	cfg := Default()
	require.NoError(t, Parse([]byte("snippet:\n  render:\n    threads: 0"), &cfg))
	assert.Equal(t, 1, cfg.Snippet.Render.Threads)
}
