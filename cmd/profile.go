package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/khrees2412/jobpilot/internal/resume"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect the candidate profile",
}

var profileShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Parse a resume and display the extracted profile",
	Example: `  jobpilot profile show --resume resume.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("resume")
		profile, err := resume.LoadProfile(path, resume.TextParser{})
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render("Candidate Profile"))
		fmt.Printf("%s %s\n", labelStyle.Render("Name:"), profile.Name)
		fmt.Printf("%s %s\n", labelStyle.Render("Email:"), profile.Email)
		if profile.Phone != "" {
			fmt.Printf("%s %s\n", labelStyle.Render("Phone:"), profile.Phone)
		}
		if profile.Location != "" {
			fmt.Printf("%s %s\n", labelStyle.Render("Location:"), profile.Location)
		}
		if profile.LinkedInURL != "" {
			fmt.Printf("%s %s\n", labelStyle.Render("LinkedIn:"), profile.LinkedInURL)
		}
		if profile.PortfolioURL != "" {
			fmt.Printf("%s %s\n", labelStyle.Render("Portfolio:"), profile.PortfolioURL)
		}
		fmt.Printf("%s %d\n", labelStyle.Render("Years of Experience:"), profile.YearsOfExperience(time.Now()))

		if len(profile.Skills) > 0 {
			fmt.Printf("\n%s\n", labelStyle.Render("Skills"))
			fmt.Printf("  %s\n", strings.Join(profile.Skills, ", "))
		}
		if len(profile.Experience) > 0 {
			fmt.Printf("\n%s\n", labelStyle.Render("Experience"))
			for _, exp := range profile.Experience {
				end := "present"
				if exp.EndDate != nil {
					end = fmt.Sprintf("%d", exp.EndDate.Year())
				}
				fmt.Printf("  • %s at %s (%d - %s)\n", exp.Title, exp.Company, exp.StartDate.Year(), end)
			}
		}
		if len(profile.Education) > 0 {
			fmt.Printf("\n%s\n", labelStyle.Render("Education"))
			for _, edu := range profile.Education {
				fmt.Printf("  • %s, %s (%d)\n", edu.Degree, edu.School, edu.GraduationYear)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd)

	profileShowCmd.Flags().StringP("resume", "r", "", "Path to resume file (required)")
	profileShowCmd.MarkFlagRequired("resume")
}
