package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/podium"
	"github.com/aretw0/podium/internal/cli"
	"github.com/aretw0/podium/internal/execution"
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Run the validation snippets of a deck",
	Long: `Compiles the deck and runs every snippet marked +validate (or every executable
snippet with --all), comparing exit codes with the expected outcome.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
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
		if _, err := p.Open(ctx); err != nil {
			return err
		}

		results := p.Validate(ctx, all)
		out := cmd.OutOrStdout()
		for _, r := range results {
			mark := "ok  "
			if !r.Passed {
				mark = "FAIL"
			}
			fmt.Fprintf(out, "%s %s (%s, line %d, expect %s)\n", mark, r.ID, r.Language, r.Line, r.Expect)
			if !r.Passed {
				if r.Err != "" {
					fmt.Fprintf(out, "     %s\n", r.Err)
				}
				for _, line := range strings.Split(strings.TrimRight(r.Output, "\n"), "\n") {
					if line != "" {
						fmt.Fprintf(out, "     | %s\n", line)
					}
				}
			}
		}

		failed := execution.Failed(results)
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d snippets failed validation", len(failed), len(results))
		}
		fmt.Fprintf(out, "%d snippets validated\n", len(results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("all", false, "Validate every executable snippet, not only +validate ones")
}
