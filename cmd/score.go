package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/analyzer"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score unscored notices against practice areas",
	Long: `Sends unscored notices to the model in batches. Each notice gets a
practice area assignment, a 1-10 fit score, and a short justification.
Notices in failed batches stay unscored and are retried on the next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("score"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		acfg := analyzer.Config{
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
			BatchSize: cfg.Analyzer.BatchSize,
			Limit:     cfg.Analyzer.Limit,
		}
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
			acfg.Limit = limit
		}

		res, err := analyzer.New(st, initOracle(), acfg).Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("scoring complete",
			zap.Int("scored", res.Scored),
			zap.Int("errors", res.Errors),
		)
		return nil
	},
}

func init() {
	scoreCmd.Flags().Int("limit", 0, "max notices to score this run (default from config)")
	rootCmd.AddCommand(scoreCmd)
}
