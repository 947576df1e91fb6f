package cmd

import (
	"fmt"

	"github.com/khrees2412/jobpilot/internal/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past runs and their applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.OpenDefault()
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet. Start one with 'jobpilot run'")
			return nil
		}

		fmt.Println(titleStyle.Render("Run History"))
		for _, r := range runs {
			fmt.Printf("\n%s %s\n", labelStyle.Render(r.StartedAt.Format("Jan 2, 2006 15:04")), valueStyle.Render(r.RunID))
			fmt.Printf("   %s %q in %q\n", labelStyle.Render("Search:"), r.Keyword, r.Location)
			fmt.Printf("   %s %d submitted, %d failed, %d skipped, %d aborted\n",
				labelStyle.Render("Outcome:"), r.Submitted, r.Failed, r.Skipped, r.Aborted)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:     "show <run-id>",
	Short:   "Show every application attempt of one run",
	Args:    cobra.ExactArgs(1),
	Example: `  jobpilot history show 4f7c2c1e-...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.OpenDefault()
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer store.Close()

		attempts, err := store.ListAttempts(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			fmt.Println("No attempts recorded for that run")
			return nil
		}

		fmt.Println(titleStyle.Render("Application Attempts"))
		for _, a := range attempts {
			fmt.Printf("\n%s at %s\n", valueStyle.Render(a.Title), a.Company)
			fmt.Printf("   %s %.0f\n", labelStyle.Render("Score:"), a.Score)
			fmt.Printf("   %s %s", labelStyle.Render("Status:"), a.Status)
			if a.Reason != "" {
				fmt.Printf(" (%s)", a.Reason)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().Int("limit", 20, "Maximum runs to list")
}
