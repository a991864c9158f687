package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/podium"
	"github.com/aretw0/podium/internal/cli"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of podium",
	Run: func(cmd *cobra.Command, args []string) {
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			cli.PrintBanner(cmd.OutOrStdout())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "podium version %s\n", strings.TrimSpace(podium.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("quiet", "q", false, "Print only the version")
}
