package cmd

import (
	"fmt"
	"os"

	"github.com/khrees2412/jobpilot/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  "View and update configuration settings",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(titleStyle.Render("Configuration"))
		fmt.Printf("%s %s\n", labelStyle.Render("Config File:"), config.GetConfigPath())
		fmt.Printf("%s %s\n", labelStyle.Render("AI Provider:"), config.AppConfig.AIProvider)
		fmt.Printf("%s %s\n", labelStyle.Render("Default Model:"), config.AppConfig.DefaultModel)
		fmt.Printf("%s %d\n", labelStyle.Render("Max Applications:"), config.AppConfig.MaxApplications)
		fmt.Printf("%s %.0f\n", labelStyle.Render("Score Threshold:"), config.AppConfig.ScoreThreshold)
		fmt.Printf("%s %d-%dms\n", labelStyle.Render("Action Delay:"), config.AppConfig.MinDelayMs, config.AppConfig.MaxDelayMs)

		// Show whether secrets are configured without printing them
		printConfigured("OpenAI Key:", config.AppConfig.OpenAIKey)
		printConfigured("Anthropic Key:", config.AppConfig.AnthropicKey)
		printConfigured("Portal Email:", config.AppConfig.PortalEmail)
		printConfigured("Portal Password:", config.AppConfig.PortalPassword)
	},
}

func printConfigured(label, value string) {
	status := "✗ Not configured"
	if value != "" {
		status = "✓ Configured"
	}
	fmt.Printf("%s %s\n", labelStyle.Render(label), status)
}

var setConfigCmd = &cobra.Command{
	Use:   "set",
	Short: "Update a configuration value",
	Example: `  jobpilot config set --key openai_key --value sk-...
  jobpilot config set --key ai_provider --value anthropic
  jobpilot config set --key portal_email --value your-email@example.com
  jobpilot config set --key max_applications --value 3`,
	Run: func(cmd *cobra.Command, args []string) {
		key, _ := cmd.Flags().GetString("key")
		value, _ := cmd.Flags().GetString("value")

		if key == "" || value == "" {
			fmt.Println("Both --key and --value are required")
			return
		}

		// Validate key
		validKeys := []string{
			"openai_key", "anthropic_key", "ai_provider", "default_model", "ollama_url",
			"portal_email", "portal_password",
			"max_applications", "score_threshold", "fallback_threshold", "min_delay_ms", "max_delay_ms",
		}
		valid := false
		for _, k := range validKeys {
			if k == key {
				valid = true
				break
			}
		}
		if !valid {
			fmt.Printf("Invalid key. Must be one of: %v\n", validKeys)
			return
		}

		if err := config.Set(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error updating config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✓ Configuration updated: %s\n", key)

		// Reload config
		if err := config.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not reload config: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(setConfigCmd)

	// Flags for set command
	setConfigCmd.Flags().String("key", "", "Configuration key")
	setConfigCmd.Flags().String("value", "", "Configuration value")
}
