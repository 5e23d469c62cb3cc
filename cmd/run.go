package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/analyzer"
	"github.com/Bemerick/AI-SAM-Research/internal/ingest"
	"github.com/Bemerick/AI-SAM-Research/internal/matcher"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: fetch, score, match",
	Long: `Runs the three pipeline stages in order against a single database
connection. Each stage is idempotent, so a failed run can simply be rerun.
Fetch failures stop the run; scoring and matching errors are contained
per-batch and per-notice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		for _, stage := range []string{"fetch", "score", "match"} {
			if err := cfg.Validate(stage); err != nil {
				return err
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		fres, err := ingest.NewFetcher(initSAM(), st, cfg.SAM).Run(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("fetch stage complete",
			zap.Int("created", fres.Created),
			zap.Int("duplicates", fres.Duplicates),
		)

		oracle := initOracle()

		sres, err := analyzer.New(st, oracle, analyzer.Config{
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
			BatchSize: cfg.Analyzer.BatchSize,
			Limit:     cfg.Analyzer.Limit,
		}).Run(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("score stage complete",
			zap.Int("scored", sres.Scored),
			zap.Int("errors", sres.Errors),
		)

		mres, err := matcher.New(st, initGovWin(), oracle, cfg.Matcher, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens).Run(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("match stage complete",
			zap.Int("processed", mres.Processed),
			zap.Int("matches_recorded", mres.MatchesRecorded),
		)

		notifyNewMatches(ctx, mres)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
