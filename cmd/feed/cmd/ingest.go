package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stockfeed/internal/app"
	"stockfeed/internal/ingest"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Fetch the feed and rewrite the filtered JSON snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App, _ *zap.Logger) error {
			res, err := a.Ingest.Download(ctx)
			if err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			printDownload(cmd, res)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Insert the JSON snapshot into the product store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App, _ *zap.Logger) error {
			res, err := a.Ingest.Import(ctx)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			printImport(cmd, res)
			return nil
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download then import in one run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App, _ *zap.Logger) error {
			dl, im, err := a.Ingest.Sync(ctx)
			if dl.RunID != "" {
				printDownload(cmd, dl)
			}
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			printImport(cmd, im)
			return nil
		})
	},
}

func printDownload(cmd *cobra.Command, res ingest.DownloadResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: downloaded %d bytes to %s\n", res.RunID, res.Bytes, res.FilePath)
	fmt.Fprintf(cmd.OutOrStdout(), "  rows read %d, kept %d, malformed %d -> %s\n",
		res.Stats.RowsRead, res.Stats.RowsKept, res.Stats.RowsMalformed, res.SnapshotPath)
}

func printImport(cmd *cobra.Command, res ingest.ImportResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d products in snapshot, %d inserted, %d already present\n",
		res.RunID, res.Total, res.Inserted, int64(res.Total)-res.Inserted)
}
