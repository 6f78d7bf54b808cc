package main

import (
	"github.com/spf13/cobra"

	"github.com/leafscan/leafscan-api/internal/common"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "leafscan",
	Short: "Plant disease diagnosis from leaf photographs",
	Long: `leafscan diagnoses plant disease from a leaf photograph by combining a
CNN classifier with a visual-captioning fallback and an LLM advisory stage.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(diagnoseCmd)
}

// loadConfig reads the configuration file; a missing file falls back to
// defaults so the binary still runs out of the box.
func loadConfig() (*common.Config, common.Logger) {
	config, err := common.LoadConfig(configPath)
	if err != nil {
		config = common.EmptyConfig()
	}
	logger := common.NewFileLogger(config.GetStringOrDefault("logPath", "leafscan.log"))
	return config, logger
}
