// Package cmd defines and implements the CLI commands for the scraper
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmyplayer-scrape",
		Short: "A resumable, rate-limited batch scraper for bookmyplayer profiles.",
		Long: `bookmyplayer-scrape consumes a spreadsheet of target URLs, fetches each
profile page under a fixed inter-request delay, and persists results and
progress so a run spanning hundreds of thousands of rows can survive
interruption and resume without re-fetching completed work.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (settings also read from the environment)")

	cmd.AddCommand(newRunCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
