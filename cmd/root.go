package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sam-research",
	Short: "Government opportunity matching pipeline",
	Long:  "Fetches SAM.gov notices, scores them against practice areas, matches high scorers to GovWin records via keyword search and model evaluation, and exposes matches for review.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
