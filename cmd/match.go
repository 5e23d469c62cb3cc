package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/matcher"
	"github.com/Bemerick/AI-SAM-Research/internal/notify"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match high-scoring notices against GovWin",
	Long: `For each current notice at or above the fit-score cutoff, searches
GovWin by title keywords, agency, and solicitation number, pre-filters the
candidates, and sends survivors to the model for a confidence verdict.
Accepted matches are recorded with the GovWin record and its contracts.
If a Teams webhook is configured, new matches are posted as a digest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("match"); err != nil {
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

		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
			cfg.Matcher.BatchLimit = limit
		}

		m := matcher.New(st, initGovWin(), initOracle(), cfg.Matcher, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
		res, err := m.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("matching complete",
			zap.Int("processed", res.Processed),
			zap.Int("candidates_found", res.Searched),
			zap.Int("admitted", res.Admitted),
			zap.Int("matches_recorded", res.MatchesRecorded),
			zap.Int("matches_existing", res.MatchesExisting),
			zap.Int("skipped", res.OpportunitySkips),
		)

		notifyNewMatches(ctx, res)

		return nil
	},
}

// notifyNewMatches posts a Teams digest for matches recorded this run, when
// a webhook is configured.
func notifyNewMatches(ctx context.Context, res *matcher.Result) {
	notifier := notify.New(cfg.Notify)
	if !notifier.Enabled() || len(res.NewMatches) == 0 {
		return
	}

	digests := make([]notify.MatchDigest, 0, len(res.NewMatches))
	for _, nm := range res.NewMatches {
		digests = append(digests, notify.MatchDigest{
			Title:    nm.Opportunity.Title,
			Agency:   nm.Opportunity.Department,
			GovWinID: nm.GovWinID,
			Score:    nm.Match.AIMatchScore,
			Status:   nm.Match.Status,
		})
	}
	if _, err := notifier.NotifyMatches(ctx, digests); err != nil {
		zap.L().Error("match notification failed", zap.Error(err))
	}
}

func init() {
	matchCmd.Flags().Int("limit", 0, "max notices to process this run (default from config)")
	rootCmd.AddCommand(matchCmd)
}
