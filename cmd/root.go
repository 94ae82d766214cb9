package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sellersaathi/copilot-api/pkg/config"
	"github.com/sellersaathi/copilot-api/pkg/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "copilot-api",
	Short: "Seller Saathi AI co-pilot API",
	Long: `Serves the seller co-pilot API: festival aware inventory planning, trends,
chat and listing generation. Without a subcommand the HTTP server is started.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		logger.Init(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(festivalsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
