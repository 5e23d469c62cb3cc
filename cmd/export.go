package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Push confirmed matches to Notion and Salesforce",
	Long: `Exports all confirmed matches to the configured sinks. Each sink
checks for the match ID before writing, so the command can run on a schedule
without duplicating records. Sinks without credentials configured are
skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var sinks []export.Sink
		if cfg.Notion.Token != "" && cfg.Notion.MatchDB != "" {
			sinks = append(sinks, export.NewNotionSink(initNotion(), cfg.Notion))
		}
		if cfg.Salesforce.ClientID != "" {
			sf, err := initSalesforce()
			if err != nil {
				return err
			}
			sinks = append(sinks, export.NewSalesforceSink(sf))
		}
		if len(sinks) == 0 {
			zap.L().Warn("export: no sinks configured, nothing to do")
			return nil
		}

		limit, _ := cmd.Flags().GetInt("limit")
		res, err := export.New(st, limit, sinks...).Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.Int("matches", res.Matches),
			zap.Any("created", res.Created),
			zap.Any("skipped", res.Skipped),
			zap.Int("errors", res.Errors),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().Int("limit", 0, "max matches to export this run")
	rootCmd.AddCommand(exportCmd)
}
