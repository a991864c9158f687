package main

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/aretw0/podium"
	"github.com/aretw0/podium/internal/cli"
	"github.com/aretw0/podium/internal/render"
	"github.com/aretw0/podium/internal/render/termimg"
)

var rootCmd = &cobra.Command{
	Use:   "podium [path]",
	Short: "Podium presents markdown files as terminal slideshows",
	Long: `Podium turns a markdown document into a slideshow in the terminal. Comment commands
add pauses, columns and speaker notes; code blocks can run while presenting.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPresent,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "Configuration file (default is the user config directory)")
	pf.StringP("theme", "t", "", "Theme name or path to a theme file")
	pf.BoolP("enable-snippet-execution", "x", false, "Allow snippets marked +exec to run")
	pf.BoolP("enable-snippet-execution-replace", "X", false, "Allow snippets marked +exec_replace to run on load")
	pf.Bool("debug", false, "Log debug output to stderr")
	pf.String("log-file", "", "Write debug logs to this file")

	f := rootCmd.Flags()
	f.String("image-protocol", "", "Image protocol: auto, ascii, kitty or iterm2")
	f.Bool("validate-snippets", false, "Validate every executable snippet on load")
	f.BoolP("publish-speaker-notes", "P", false, "Publish the current position to speaker notes viewers")
	f.BoolP("listen-speaker-notes", "l", false, "Show the speaker notes of a presenting instance")
	f.StringP("export-html", "E", "", "Export the deck as HTML to this file ('-' for stdout)")
	f.String("export-pdf", "", "Export the deck as PDF to this file")
	f.BoolP("watch", "w", true, "Reload the deck when its files change")
}

func runPresent(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	s, err := loadSettings(cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := podium.New(args[0], s.presenterOptions()...)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := cli.NewSignalContext(cmd.Context())
	defer ctx.Cancel()

	flags := cmd.Flags()
	if out, _ := flags.GetString("export-html"); out != "" {
		return exportDeck(ctx, p, s, "html", out)
	}
	if out, _ := flags.GetString("export-pdf"); out != "" {
		return exportDeck(ctx, p, s, "pdf", out)
	}

	bindings, err := cli.NewKeyBindings(s.cfg.KeyBindings)
	if err != nil {
		return fmt.Errorf("key_bindings: %w", err)
	}

	fd := int(os.Stdin.Fd())
	profile := termenv.NewOutput(os.Stdout).EnvColorProfile()
	input := cli.NewInput(os.Stdin)

	if listen, _ := flags.GetBool("listen-speaker-notes"); listen {
		surface := render.NewTermSurface(os.Stdout, fd, profile, termimg.New(termimg.ProtocolASCII))
		term := cli.NewTerminal(surface, input, os.Stdout, os.Stderr)
		sub, err := cli.OpenSubscriber(ctx, s.cfg.SpeakerNotes, p.Path(), s.logger)
		if err != nil {
			return err
		}
		defer sub.Close()
		if err := term.Enter(); err != nil {
			return err
		}
		defer term.Release()
		input.Start(ctx)

		cols, _ := surface.Size()
		viewer := cli.NewNotesViewer(p, os.Stdout, input.Keys(),
			cli.WithNotesWidth(max(cols-4, 20)),
			cli.WithNotesLogger(s.logger),
			cli.WithNotesMetrics(s.metrics),
		)
		return viewer.Run(ctx, sub)
	}

	surface := render.NewTermSurface(os.Stdout, fd, profile, s.encoder())
	term := cli.NewTerminal(surface, input, os.Stdout, os.Stderr)
	validateAll, _ := flags.GetBool("validate-snippets")
	opts := []cli.SessionOption{
		cli.WithTerminal(term),
		cli.WithValidation(validateAll),
		cli.WithSessionLogger(s.logger),
		cli.WithSessionMetrics(s.metrics),
		cli.WithKeyBindings(bindings),
	}
	if publish, _ := flags.GetBool("publish-speaker-notes"); publish || s.cfg.SpeakerNotes.AlwaysPublish {
		pub, err := cli.OpenPublisher(s.cfg.SpeakerNotes, s.logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts = append(opts, cli.WithPublisher(pub))
	}
	if watch, _ := flags.GetBool("watch"); watch {
		opts = append(opts, cli.WithWatcher(cli.NewWatcher(nil, cli.WithWatchLogger(s.logger))))
	}

	if err := term.Enter(); err != nil {
		return err
	}
	defer term.Release()
	input.Start(ctx)

	return cli.NewSession(p, surface, input.Keys(), opts...).Run(ctx)
}
