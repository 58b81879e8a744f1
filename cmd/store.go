package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"radio-nowplaying/monitor"
	"radio-nowplaying/storage"
)

var storeDryRun bool

func init() {
	storeCmd.Flags().BoolVar(&storeDryRun, "dry-run", false, "Detect the track but keep it in memory instead of the configured storage")
	rootCmd.AddCommand(storeCmd)
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Fetch the station page once and store the track if it changed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeStore(cmd.Context(), cmd)
	},
}

func executeStore(ctx context.Context, cmd *cobra.Command) error {
	var store storage.Storage
	if storeDryRun {
		store = storage.NewMemoryStorage()
	} else {
		var err error
		store, err = newStore(cfg)
		if err != nil {
			return err
		}
	}
	if store != nil {
		defer store.Close()
	}

	candidate, err := newScraper(cfg).GetNowPlaying(ctx)
	if err != nil {
		return fmt.Errorf("error fetching now playing: %w", err)
	}

	out := cmd.OutOrStdout()
	if store == nil {
		fmt.Fprintf(out, "Not stored: %s (rule: %s)\n", candidate.Text, candidate.Rule)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Storage.Timeout)
	defer cancel()

	prev, err := store.Load(ctx)
	if err != nil {
		logger.Warnf("Could not load stored track from %s: %v", store.Name(), err)
	}
	if !monitor.HasChanged(prev, candidate) {
		fmt.Fprintf(out, "Unchanged: %s\n", candidate.Text)
		return nil
	}

	state := storage.NewTrackState(candidate.Text, string(candidate.Rule), time.Now())
	if err := store.Write(ctx, state); err != nil {
		if errors.Is(err, storage.ErrSkipped) {
			fmt.Fprintf(out, "Skipped: %s\n", candidate.Text)
			return nil
		}
		return fmt.Errorf("error storing now playing: %w", err)
	}

	if storeDryRun {
		fmt.Fprintf(out, "Dry run: would store %s (rule: %s)\n", candidate.Text, candidate.Rule)
	} else {
		fmt.Fprintf(out, "Stored via %s: %s (rule: %s)\n", store.Name(), candidate.Text, candidate.Rule)
	}
	return nil
}
