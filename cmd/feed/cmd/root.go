package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stockfeed/internal/app"
	"stockfeed/internal/config"
	"stockfeed/internal/observability"
)

var (
	cfg         *config.Config
	feedURL     string
	csvPath     string
	jsonPath    string
	charsetName string
)

var rootCmd = &cobra.Command{
	Use:   "feed",
	Short: "Download the stock feed and load it into the product store",
	Long: `feed runs the same ingestion steps as the HTTP API without starting
the server: download refreshes the CSV and JSON snapshots, import loads the
JSON snapshot into Postgres, sync does both under one lock.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&feedURL, "url", "", "feed URL (overrides FEED_URL)")
	rootCmd.PersistentFlags().StringVar(&csvPath, "csv", "", "raw CSV path (overrides FEED_CSV_PATH)")
	rootCmd.PersistentFlags().StringVar(&jsonPath, "snapshot", "", "JSON snapshot path (overrides FEED_SNAPSHOT_PATH)")
	rootCmd.PersistentFlags().StringVar(&charsetName, "charset", "", "feed charset (overrides FEED_CHARSET)")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(syncCmd)
}

func initConfig() {
	cfg = config.Load()
	applyFlags(cfg)
}

// applyFlags lets non-empty flags win over the environment.
func applyFlags(c *config.Config) {
	if feedURL != "" {
		c.FeedURL = feedURL
	}
	if csvPath != "" {
		c.CSVPath = csvPath
	}
	if jsonPath != "" {
		c.SnapshotPath = jsonPath
	}
	if charsetName != "" {
		c.FeedCharset = charsetName
	}
}

// withApp builds the services, runs fn and tears everything down. The
// context is cancelled on SIGINT/SIGTERM.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, logger *zap.Logger) error) error {
	logger, err := observability.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	observability.Register()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a, logger)
}
