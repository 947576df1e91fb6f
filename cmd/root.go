package cmd

import (
	"fmt"
	"os"

	"github.com/khrees2412/jobpilot/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobpilot",
	Short: "AI-assisted job application automation CLI",
	Long: `Jobpilot searches job listings, scores them against your resume, and
applies to the best matches automatically through browser automation.
Every run is capped, paced, and recorded.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
