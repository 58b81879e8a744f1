package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the station page once and print the detected track",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeFetch(cmd.Context(), cmd)
	},
}

func executeFetch(ctx context.Context, cmd *cobra.Command) error {
	candidate, err := newScraper(cfg).GetNowPlaying(ctx)
	if err != nil {
		return fmt.Errorf("error fetching now playing: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Now playing: %s (rule: %s)\n", candidate.Text, candidate.Rule)
	return nil
}
