package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"radio-nowplaying/config"
	"radio-nowplaying/scraper"
	"radio-nowplaying/storage"
	"radio-nowplaying/utils"
)

var (
	logger      = utils.Logger
	cfg         *config.Config
	cfgFile     string
	sourceURL   string
	storageType string
	storagePath string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "radio-nowplaying",
	Short: "Radio now playing polls a radio station page and keeps the current track in a small store.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		utils.SetLevel(cfg.Log.Level)
		utils.SetFormat(cfg.Log.Format)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Define flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&sourceURL, "url", "", "Page to poll for the current track")
	rootCmd.PersistentFlags().StringVar(&storageType, "storage", "", "Storage type: file, github, redis, sqlite, postgres, memory or none")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage-path", "", "Path to storage file or database connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "", "Logging level: debug, info, warn, error")

	// Bind flags to Viper
	viper.BindPFlag("source.url", rootCmd.PersistentFlags().Lookup("url"))
	viper.BindPFlag("storage.type", rootCmd.PersistentFlags().Lookup("storage"))
	viper.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("storage-path"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("loglevel"))
}

// loadConfig layers defaults, an optional config file, .env and the environment
// (RNP_ prefix, e.g. RNP_STORAGE_TYPE) under the bound flags.
func loadConfig(v *viper.Viper, file string) (*config.Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	config.SetDefaults(v)

	v.SetEnvPrefix("RNP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("storage.github.token", "RNP_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, err
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		logger.Debug("No config file found, using environment variables and defaults")
	} else {
		logger.Debugf("Using config file: %s", v.ConfigFileUsed())
	}

	return config.Load(v)
}

func newScraper(c *config.Config) *scraper.StationScraper {
	base := scraper.NewBaseScraper(logger, c.Source.URL, c.Source.Headers, c.Source.Timeout)
	if c.Source.MaxBytes > 0 {
		base.MaxBytes = c.Source.MaxBytes
	}

	var rules []scraper.Rule
	if c.Extract.JSONTitlePath != "" {
		rules = scraper.RulesWithJSON(c.Extract.JSONArtistPath, c.Extract.JSONTitlePath)
	}
	return scraper.NewStationScraper(base, scraper.NewExtractor(c.Extract.DefaultName, c.Extract.Deny, rules...))
}

// newStore returns nil for monitor-only mode: storage type none, or github storage
// without a token.
func newStore(c *config.Config) (storage.Storage, error) {
	store, err := storage.NewStorage(logger, c.Storage)
	if err != nil {
		return nil, fmt.Errorf("error initializing storage: %w", err)
	}
	if store == nil {
		logger.Info("No storage configured, running in monitor-only mode")
		return nil, nil
	}
	if gh, ok := store.(*storage.GitHubStorage); ok && !gh.Enabled() {
		logger.Warn("GITHUB_TOKEN is not set, running in monitor-only mode")
		return nil, nil
	}
	logger.Infof("Using storage type: %s", store.Name())
	return store, nil
}
