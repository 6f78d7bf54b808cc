package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leafscan/leafscan-api/internal/pipeline"
)

var outputPath string

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <image>",
	Short: "Diagnose a single leaf photograph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, logger := loadConfig()

		p, err := pipeline.New(config, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize pipeline: %w", err)
		}
		defer p.Close()

		result := p.Predict(args[0])
		pipeline.PrintResult(os.Stdout, result)

		path := outputPath
		if path == "" {
			path = filepath.Join("results", fmt.Sprintf("prediction_%s.json", uuid.NewString()))
		}
		if err := pipeline.SaveResult(result, path); err != nil {
			return err
		}
		fmt.Printf("\nResult saved to %s\n", path)
		return nil
	},
}

func init() {
	diagnoseCmd.Flags().StringVarP(&outputPath, "output", "o", "", "where to write the JSON result")
}
