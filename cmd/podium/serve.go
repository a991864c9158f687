package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/podium"
	"github.com/aretw0/podium/internal/cli"
	"github.com/aretw0/podium/internal/export"
	httpAdapter "github.com/aretw0/podium/pkg/adapters/http"
	"github.com/aretw0/podium/pkg/domain"
)

var serveCmd = &cobra.Command{
	Use:   "serve <path>",
	Short: "Serve a deck to browsers",
	Long: `Serves the deck as HTML slides with Prometheus metrics at /metrics. With --follow,
open pages move along with a presenter publishing speaker notes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		follow, _ := cmd.Flags().GetBool("follow")
		watch, _ := cmd.Flags().GetBool("watch")

		s, err := loadSettings(cmd, true)
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

		deck, err := p.Open(ctx)
		if err != nil {
			return err
		}
		settle(ctx, p, s, deck)
		live := export.NewLive(deck, s.exporter(p, deck))

		streams := httpAdapter.NewStreamManager(s.logger)
		defer streams.Close()
		handler := httpAdapter.NewHandler(live,
			httpAdapter.WithLogger(s.logger),
			httpAdapter.WithMetrics(s.registry),
			httpAdapter.WithStreams(streams),
		)

		if follow {
			sub, err := cli.OpenSubscriber(ctx, s.cfg.SpeakerNotes, p.Path(), s.logger)
			if err != nil {
				return err
			}
			defer sub.Close()
			go func() {
				for ev := range sub.Events() {
					s.metrics.NotesEvent("listen", "accepted")
					_ = streams.Publish(ctx, ev)
				}
			}()
		}
		if watch {
			w := cli.NewWatcher(deck.Sources, cli.WithWatchLogger(s.logger))
			changes, err := w.Watch(ctx)
			if err != nil {
				return err
			}
			go func() {
				for range changes {
					deck, err := p.Compile(ctx)
					if err != nil {
						s.metrics.Reloaded(false)
						s.logger.Error("reload failed", "err", err)
						continue
					}
					s.metrics.Reloaded(true)
					p.Load(deck)
					settle(ctx, p, s, deck)
					live.Update(deck, s.exporter(p, deck))
					if err := w.SetFiles(deck.Sources); err != nil {
						s.logger.Warn("failed to watch deck sources", "err", err)
					}
					streams.Reloaded()
				}
			}()
		}

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://localhost%s\n", p.Path(), srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			fmt.Fprintf(cmd.OutOrStdout(), "\nStart shutdown... Signal: %v\n", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Event streams never finish on their own.
			streams.Close()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Warn("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("failed to stop server: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Podium server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("follow", false, "Move open pages along with a presenter publishing speaker notes")
	serveCmd.Flags().BoolP("watch", "w", true, "Reload the deck when its files change")
}

func settle(ctx context.Context, p *podium.Presenter, s *settings, deck *domain.Presentation) {
	settleCtx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	if err := p.Settle(settleCtx, deck); err != nil {
		s.logger.Warn("serving before every snippet finished", "err", err)
	}
}
