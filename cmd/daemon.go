package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"radio-nowplaying/monitor"
	"radio-nowplaying/utils"
)

var (
	interval   time.Duration
	backoff    time.Duration
	healthPort int
	seedState  bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Poll the station page and store every new track until interrupted",
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().DurationVar(&interval, "interval", 0, "Interval between polls (e.g., 30s, 1m)")
	daemonCmd.Flags().DurationVar(&backoff, "backoff", 0, "Sleep after a failed poll (e.g., 60s)")
	daemonCmd.Flags().IntVar(&healthPort, "health-port", 0, "Port for /health and /metrics, 0 disables")
	daemonCmd.Flags().BoolVar(&seedState, "seed-state", false, "Load the stored track at startup to avoid a redundant first write")

	viper.BindPFlag("monitor.interval", daemonCmd.Flags().Lookup("interval"))
	viper.BindPFlag("monitor.backoff", daemonCmd.Flags().Lookup("backoff"))
	viper.BindPFlag("health.port", daemonCmd.Flags().Lookup("health-port"))
	viper.BindPFlag("monitor.seed_state", daemonCmd.Flags().Lookup("seed-state"))
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	logger.Infof("Starting daemon for %s", cfg.Source.URL)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	metrics := utils.NewMetrics()
	if cfg.Health.Port > 0 {
		router := utils.NewHealthRouter(metrics, cfg.Monitor.Interval+cfg.Monitor.Backoff)
		go func() {
			if err := utils.StartHealthCheckServer(ctx, cfg.Health.Port, router); err != nil {
				logger.Errorf("Error starting health check server: %v", err)
			}
		}()
	}

	m := monitor.New(logger, newScraper(cfg), store, monitor.Options{
		Interval:     cfg.Monitor.Interval,
		Backoff:      cfg.Monitor.Backoff,
		StoreTimeout: cfg.Storage.Timeout,
		SeedState:    cfg.Monitor.SeedState,
		Recorder:     metrics,
	})
	if err := m.Run(ctx); err != nil {
		return err
	}

	logger.Info("Stopped daemon")
	return nil
}
