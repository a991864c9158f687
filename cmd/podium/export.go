package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/podium"
	"github.com/aretw0/podium/internal/cli"
)

// settleTimeout bounds how long exports wait for snippets and diagrams.
const settleTimeout = 2 * time.Minute

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export a deck to a file",
	Long: `Renders every slide with all of its chunks visible. Automatic snippets and diagrams
are given time to finish so the export shows their results.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("output")
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
		return exportDeck(ctx, p, s, format, out)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "html", "Output format: html or pdf")
	exportCmd.Flags().StringP("output", "o", "-", "Output file ('-' for stdout)")
}

func exportDeck(ctx context.Context, p *podium.Presenter, s *settings, format, out string) error {
	deck, err := p.Open(ctx)
	if err != nil {
		return err
	}
	settleCtx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	if err := p.Settle(settleCtx, deck); err != nil {
		s.logger.Warn("exporting before every snippet finished", "err", err)
	}

	x := s.exporter(p, deck)
	write := x.WriteHTML
	switch format {
	case "html":
	case "pdf":
		write = x.WritePDF
	default:
		return fmt.Errorf("unknown export format %q", format)
	}

	var w io.Writer = os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}
	if err := write(w, deck); err != nil {
		if out != "-" {
			_ = os.Remove(out)
		}
		return err
	}
	return nil
}
