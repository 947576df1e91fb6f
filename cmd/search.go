package cmd

import (
	"fmt"
	"time"

	"github.com/khrees2412/jobpilot/internal/ai"
	"github.com/khrees2412/jobpilot/internal/browser"
	"github.com/khrees2412/jobpilot/internal/config"
	"github.com/khrees2412/jobpilot/internal/discovery"
	"github.com/khrees2412/jobpilot/internal/governor"
	"github.com/khrees2412/jobpilot/internal/matching"
	"github.com/khrees2412/jobpilot/internal/resume"
	"github.com/khrees2412/jobpilot/pkg/models"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search listings without applying",
	Long: `Discover listings for a search and print them. With --resume the
listings are also scored against your profile and shown ranked.`,
	Example: `  jobpilot search --query "backend engineer" --location "Remote"
  jobpilot search --query "golang developer" --resume resume.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc := config.DefaultRunConfig(config.AppConfig)
		rc.Criteria.Keyword, _ = cmd.Flags().GetString("query")
		rc.Criteria.Location, _ = cmd.Flags().GetString("location")
		rc.Criteria.EasyApplyOnly, _ = cmd.Flags().GetBool("easy-apply")
		if v, _ := cmd.Flags().GetInt("max-listings"); v > 0 {
			rc.MaxListings = v
		}

		var profile *models.CandidateProfile
		if path, _ := cmd.Flags().GetString("resume"); path != "" {
			var err error
			profile, err = resume.LoadProfile(path, resume.TextParser{})
			if err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		fp := browser.NewFingerprint(time.Now().UnixNano())
		session, err := browser.NewSession(ctx, fp, rc.PageTimeout)
		if err != nil {
			return err
		}
		defer session.Close()

		if err := session.Authenticate(ctx, rc.Credentials, rc.ChallengeWait); err != nil {
			return fmt.Errorf("authentication: %w", err)
		}

		pacer := governor.NewPacer(rc.MinDelay, rc.MaxDelay)
		postings, err := discovery.New(session, pacer, uint64(rc.NavRetries)).Search(ctx, rc.Criteria, rc.MaxListings)
		if err != nil {
			return err
		}

		if profile == nil {
			fmt.Println(titleStyle.Render(fmt.Sprintf("Found %d jobs", len(postings))))
			for i, job := range postings {
				printPosting(i+1, job)
			}
			return nil
		}

		engine := matching.NewEngine(ai.NewClient(config.AppConfig), rc.ScoreThreshold, rc.FallbackThreshold)
		results := engine.ScoreAll(ctx, profile, postings)
		ranked := engine.Rank(results, len(results))

		fmt.Println(titleStyle.Render(fmt.Sprintf("Found %d jobs, %d worth applying to", len(postings), len(ranked))))
		for i, r := range ranked {
			printPosting(i+1, r.Posting)
			fmt.Printf("   %s %.0f (%s)\n", labelStyle.Render("Match:"), r.Score, r.Source)
			if len(r.MatchedSkills) > 0 {
				fmt.Printf("   %s %v\n", labelStyle.Render("Matched:"), r.MatchedSkills)
			}
		}
		return nil
	},
}

func printPosting(n int, job *models.JobPosting) {
	fmt.Printf("\n%d. %s\n", n, valueStyle.Render(job.Title))
	fmt.Printf("   %s %s\n", labelStyle.Render("Company:"), job.Company)
	if job.Location != "" {
		fmt.Printf("   %s %s\n", labelStyle.Render("Location:"), job.Location)
	}
	if job.URL != "" {
		fmt.Printf("   %s %s\n", labelStyle.Render("URL:"), job.URL)
	}
	if job.EasyApply {
		fmt.Printf("   %s\n", labelStyle.Render("Easy Apply"))
	}
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("query", "q", "", "Search keyword (required)")
	searchCmd.Flags().StringP("location", "l", "", "Location filter")
	searchCmd.Flags().Bool("easy-apply", false, "Only in-portal apply listings")
	searchCmd.Flags().StringP("resume", "r", "", "Score results against this resume")
	searchCmd.Flags().Int("max-listings", 0, "Maximum listings to discover")
	searchCmd.MarkFlagRequired("query")
}
