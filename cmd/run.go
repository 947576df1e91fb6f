package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/khrees2412/jobpilot/internal/config"
	"github.com/khrees2412/jobpilot/internal/history"
	"github.com/khrees2412/jobpilot/internal/runner"
	"github.com/khrees2412/jobpilot/pkg/models"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search, score and apply to matching jobs",
	Long: `Run the full pipeline: discover listings for your search, score them
against your resume, and apply to the top matches up to the submission cap.
Press Ctrl+C to cancel; the run finishes cleanly with a report.`,
	Example: `  jobpilot run --query "backend engineer" --location "Berlin" --resume resume.txt
  jobpilot run --query "golang developer" --resume resume.txt --max-apps 3 --dry-run
  jobpilot run --query "sre" --resume resume.txt --easy-apply --experience senior`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc := config.DefaultRunConfig(config.AppConfig)

		rc.Criteria.Keyword, _ = cmd.Flags().GetString("query")
		rc.Criteria.Location, _ = cmd.Flags().GetString("location")
		rc.Criteria.ExperienceLevel, _ = cmd.Flags().GetString("experience")
		rc.Criteria.JobType, _ = cmd.Flags().GetString("job-type")
		rc.Criteria.SalaryMin, _ = cmd.Flags().GetInt("salary-min")
		rc.Criteria.EasyApplyOnly, _ = cmd.Flags().GetBool("easy-apply")
		rc.ResumePath, _ = cmd.Flags().GetString("resume")
		rc.DryRun, _ = cmd.Flags().GetBool("dry-run")

		if v, _ := cmd.Flags().GetInt("max-apps"); v > 0 {
			rc.MaxApplications = v
		}
		if v, _ := cmd.Flags().GetInt("max-listings"); v > 0 {
			rc.MaxListings = v
		}
		if v, _ := cmd.Flags().GetFloat64("threshold"); v > 0 {
			rc.ScoreThreshold = v
		}

		store, err := history.OpenDefault()
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer store.Close()

		coord := runner.New(config.AppConfig, rc, store)

		// Ctrl+C cancels cooperatively: in-flight work aborts, the report
		// still lands.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			<-sigCh
			fmt.Println("\nCancelling run, finishing up...")
			coord.Cancel()
		}()

		if rc.DryRun {
			fmt.Println(labelStyle.Render("Dry run:") + " no applications will be submitted")
		}

		report, runErr := coord.Run(cmd.Context())
		printReport(report)
		if runErr != nil {
			return fmt.Errorf("run failed: %w", runErr)
		}
		return nil
	},
}

func printReport(report *models.RunReport) {
	fmt.Println(titleStyle.Render("Run Report"))
	fmt.Printf("%s %s\n", labelStyle.Render("Run ID:"), report.RunID)
	fmt.Printf("%s %q in %q\n", labelStyle.Render("Search:"), report.Criteria.Keyword, report.Criteria.Location)
	fmt.Printf("%s %d discovered, %d scored\n", labelStyle.Render("Listings:"), report.Discovered, report.Scored)
	fmt.Printf("%s %d submitted, %d failed, %d skipped, %d aborted\n",
		labelStyle.Render("Attempts:"), report.Submitted, report.Failed, report.Skipped, report.Aborted)
	fmt.Printf("%s %s\n", labelStyle.Render("Duration:"), report.CompletedAt.Sub(report.StartedAt).Round(time.Second))

	for _, a := range report.Attempts {
		marker := "•"
		if a.Status == models.StatusSubmitted {
			marker = "✓"
		}
		fmt.Printf("  %s %s at %s (%.0f) %s", marker, a.Title, a.Company, a.Score, a.Status)
		if a.Reason != "" {
			fmt.Printf(": %s", a.Reason)
		}
		fmt.Println()
	}

	if report.Err != "" {
		fmt.Printf("%s %s\n", errorStyle.Render("Error:"), report.Err)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("query", "q", "", "Search keyword (required)")
	runCmd.Flags().StringP("location", "l", "", "Location filter")
	runCmd.Flags().String("experience", "", "Experience level (entry, mid, senior)")
	runCmd.Flags().String("job-type", "", "Job type (full-time, contract, part-time)")
	runCmd.Flags().Int("salary-min", 0, "Minimum salary filter")
	runCmd.Flags().Bool("easy-apply", false, "Only in-portal apply listings")
	runCmd.Flags().StringP("resume", "r", "", "Path to resume file (required)")
	runCmd.Flags().Int("max-apps", 0, "Submission cap for this run")
	runCmd.Flags().Int("max-listings", 0, "Maximum listings to discover")
	runCmd.Flags().Float64("threshold", 0, "Minimum match score (0-100)")
	runCmd.Flags().Bool("dry-run", false, "Fill forms but never submit")
	runCmd.MarkFlagRequired("query")
	runCmd.MarkFlagRequired("resume")
}
