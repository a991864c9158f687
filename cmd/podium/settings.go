package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/podium"
	"github.com/aretw0/podium/internal/config"
	"github.com/aretw0/podium/internal/execution"
	"github.com/aretw0/podium/internal/export"
	"github.com/aretw0/podium/internal/logging"
	"github.com/aretw0/podium/internal/render/termimg"
	"github.com/aretw0/podium/pkg/domain"
	"github.com/aretw0/podium/pkg/observability"
	"github.com/aretw0/podium/pkg/ports"
)

// settings is the configuration file merged with the command line.
type settings struct {
	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
	registry *prometheus.Registry
	metrics  *observability.Metrics
}

// loadSettings reads the config file and applies the persistent flags on top. Metrics are
// collected when the config enables them or the command needs them.
func loadSettings(cmd *cobra.Command, withMetrics bool) (*settings, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.Changed("theme") {
		cfg.Defaults.Theme, _ = flags.GetString("theme")
	}
	if flags.Changed("image-protocol") {
		cfg.Defaults.ImageProtocol, _ = flags.GetString("image-protocol")
	}
	if v, _ := flags.GetBool("enable-snippet-execution"); v {
		cfg.Snippet.Exec.Enable = true
	}
	if v, _ := flags.GetBool("enable-snippet-execution-replace"); v {
		cfg.Snippet.ExecReplace.Enable = true
	}

	s := &settings{cfg: cfg, logger: logging.NewNop(), closeLog: func() error { return nil }}
	debug, _ := flags.GetBool("debug")
	logFile, _ := flags.GetString("log-file")
	switch {
	case logFile != "":
		if s.logger, s.closeLog, err = logging.Open(logFile); err != nil {
			return nil, err
		}
	case debug:
		s.logger = logging.New(os.Stderr, slog.LevelDebug)
	}

	if withMetrics || cfg.Metrics.Enable {
		s.registry = prometheus.NewRegistry()
		s.metrics = observability.NewMetrics(s.registry)
	}
	return s, nil
}

func (s *settings) Close() error {
	return s.closeLog()
}

func (s *settings) presenterOptions() []podium.Option {
	opts := []podium.Option{
		podium.WithLogger(s.logger),
		podium.WithOptions(s.cfg.Options),
		podium.WithExecution(s.cfg.Snippet.Exec.Enable, s.cfg.Snippet.ExecReplace.Enable),
		podium.WithExecutors(s.cfg.Snippet.Exec.Custom),
		podium.WithRenderThreads(s.cfg.Snippet.Render.Threads),
		podium.WithRenderer(execution.CommandRenderer{
			MermaidScale: s.cfg.Mermaid.Scale,
			TypstPPI:     s.cfg.Typst.PPI,
		}),
		podium.WithMetrics(s.metrics),
	}
	theme := s.cfg.Defaults.Theme
	if strings.HasSuffix(theme, ".yaml") || strings.HasSuffix(theme, ".yml") {
		opts = append(opts, podium.WithThemeFile(theme))
	} else if theme != "" {
		opts = append(opts, podium.WithTheme(theme))
	}
	return opts
}

func (s *settings) encoder() ports.ImageEncoder {
	protocol := s.cfg.Defaults.ImageProtocol
	if protocol == "" || protocol == "auto" {
		protocol = termimg.Detect(os.Getenv)
	}
	return termimg.New(protocol)
}

func (s *settings) exporter(p *podium.Presenter, deck *domain.Presentation) *export.Exporter {
	return export.New(p.Renderer(deck),
		export.WithSize(s.cfg.Export.Columns, s.cfg.Export.Rows),
		export.WithLogger(s.logger),
	)
}
