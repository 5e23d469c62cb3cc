package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/ingest"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch recent SAM.gov notices into the database",
	Long: `Pulls notices posted within the configured window for each configured
NAICS code, fetches their full descriptions, stores new notices, and links
amendment chains by solicitation number. Reruns are safe: notices already
stored are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		if days, _ := cmd.Flags().GetInt("days"); days > 0 {
			cfg.SAM.WindowDays = days
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		fetcher := ingest.NewFetcher(initSAM(), st, cfg.SAM)
		res, err := fetcher.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("fetch complete",
			zap.Int("fetched", res.Fetched),
			zap.Int("created", res.Created),
			zap.Int("duplicates", res.Duplicates),
			zap.Int("linked", res.Linked),
			zap.Int("errors", res.Errors),
		)
		return nil
	},
}

func init() {
	fetchCmd.Flags().Int("days", 0, "posted-date window in days (default from config)")
	rootCmd.AddCommand(fetchCmd)
}
