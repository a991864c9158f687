// Package config loads the user configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/podium/pkg/adapters/process"
	"github.com/aretw0/podium/pkg/domain"
	"github.com/aretw0/podium/pkg/notes"
)

// Config is the content of config.yaml. Keys missing from the file keep their defaults.
type Config struct {
	Defaults     DefaultsConfig     `yaml:"defaults"`
	Options      domain.Options     `yaml:"options"`
	Snippet      SnippetConfig      `yaml:"snippet"`
	SpeakerNotes SpeakerNotesConfig `yaml:"speaker_notes"`
	Mermaid      MermaidConfig      `yaml:"mermaid"`
	Typst        TypstConfig        `yaml:"typst"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Export       ExportConfig       `yaml:"export"`
	// KeyBindings replaces the default bindings of the actions it names, for example
	// next: ["l", "<right>"]. Bindings are validated when the presenter starts.
	KeyBindings map[string][]string `yaml:"key_bindings"`
}

type DefaultsConfig struct {
	Theme string `yaml:"theme"`
	// ImageProtocol is auto, ascii, kitty or iterm2.
	ImageProtocol string `yaml:"image_protocol"`
}

type SnippetConfig struct {
	Exec        ExecConfig        `yaml:"exec"`
	ExecReplace ExecReplaceConfig `yaml:"exec_replace"`
	Render      RenderConfig      `yaml:"render"`
}

type ExecConfig struct {
	Enable bool `yaml:"enable"`
	// Custom overrides or adds executors by language.
	Custom map[string]process.ExecutorSpec `yaml:"custom"`
}

type ExecReplaceConfig struct {
	Enable bool `yaml:"enable"`
}

type RenderConfig struct {
	Threads int `yaml:"threads"`
}

type SpeakerNotesConfig struct {
	ListenAddress  string `yaml:"listen_address"`
	PublishAddress string `yaml:"publish_address"`
	AlwaysPublish  bool   `yaml:"always_publish"`
	// Transport is udp or redis.
	Transport string `yaml:"transport"`
	RedisURL  string `yaml:"redis_url"`
}

type MermaidConfig struct {
	Scale int `yaml:"scale"`
}

type TypstConfig struct {
	PPI int `yaml:"ppi"`
}

type MetricsConfig struct {
	Enable bool `yaml:"enable"`
}

type ExportConfig struct {
	Columns int `yaml:"columns"`
	Rows    int `yaml:"rows"`
}

// Default returns the configuration used without a file.
func Default() Config {
	return Config{
		Defaults: DefaultsConfig{Theme: "dark", ImageProtocol: "auto"},
		Options:  domain.DefaultOptions(),
		Snippet:  SnippetConfig{Render: RenderConfig{Threads: 2}},
		SpeakerNotes: SpeakerNotesConfig{
			ListenAddress:  notes.DefaultListenAddress(),
			PublishAddress: notes.DefaultPublishAddress(),
			Transport:      "udp",
		},
		Mermaid: MermaidConfig{Scale: 2},
		Typst:   TypstConfig{PPI: 300},
		Export:  ExportConfig{Columns: 100, Rows: 30},
	}
}

// DefaultPath returns the config file location under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "podium", "config.yaml")
}

// Load reads the file at path. A missing file yields the defaults; an empty path means
// DefaultPath.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over cfg. Unknown keys are errors.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return cfg.validate()
}

func (c *Config) validate() error {
	switch c.Defaults.ImageProtocol {
	case "", "auto", "ascii", "kitty", "iterm2":
	default:
		return fmt.Errorf("unknown image protocol %q", c.Defaults.ImageProtocol)
	}
	switch c.SpeakerNotes.Transport {
	case "", "udp":
	case "redis":
		if c.SpeakerNotes.RedisURL == "" {
			return fmt.Errorf("speaker_notes.redis_url is required by the redis transport")
		}
	default:
		return fmt.Errorf("unknown speaker notes transport %q", c.SpeakerNotes.Transport)
	}
	if c.Snippet.Render.Threads < 1 {
		c.Snippet.Render.Threads = 1
	}
	if c.Options.ListItemNewlines < 1 {
		c.Options.ListItemNewlines = 1
	}
	return nil
}
