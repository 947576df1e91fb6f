package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the persistent application configuration loaded from
// ~/.jobpilot/config.yaml.
type Config struct {
	// AI provider settings
	AIProvider   string `mapstructure:"ai_provider"` // openai, anthropic, ollama
	OpenAIKey    string `mapstructure:"openai_key"`
	AnthropicKey string `mapstructure:"anthropic_key"`
	OllamaURL    string `mapstructure:"ollama_url"`
	DefaultModel string `mapstructure:"default_model"`

	// Portal credentials
	PortalEmail    string `mapstructure:"portal_email"`
	PortalPassword string `mapstructure:"portal_password"`

	// Run tuning defaults (overridable per run via flags)
	MaxApplications   int     `mapstructure:"max_applications"`
	ScoreThreshold    float64 `mapstructure:"score_threshold"`
	FallbackThreshold float64 `mapstructure:"fallback_threshold"`
	MinDelayMs        int     `mapstructure:"min_delay_ms"`
	MaxDelayMs        int     `mapstructure:"max_delay_ms"`
}

var AppConfig *Config

// Initialize loads or creates the configuration file.
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".jobpilot")
	configFile := filepath.Join(configDir, "config.yaml")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := createDefaultConfig(configFile); err != nil {
			return err
		}
	}

	viper.SetConfigFile(configFile)
	viper.SetConfigType("yaml")

	viper.SetDefault("ai_provider", "ollama")
	viper.SetDefault("default_model", "llama3.2")
	viper.SetDefault("ollama_url", "http://localhost:11434")
	viper.SetDefault("openai_key", "")
	viper.SetDefault("anthropic_key", "")
	viper.SetDefault("portal_email", "")
	viper.SetDefault("portal_password", "")
	viper.SetDefault("max_applications", 5)
	viper.SetDefault("score_threshold", 60.0)
	viper.SetDefault("fallback_threshold", 40.0)
	viper.SetDefault("min_delay_ms", 1500)
	viper.SetDefault("max_delay_ms", 4500)

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	AppConfig = &Config{}
	if err := viper.Unmarshal(AppConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig(path string) error {
	defaultConfig := `# Jobpilot Configuration
# AI Provider: openai, anthropic, ollama
ai_provider: ollama
default_model: llama3.2
ollama_url: http://localhost:11434

# API Keys (keep this file secure!)
openai_key: ""
anthropic_key: ""

# Portal Credentials (keep this file secure!)
portal_email: ""
portal_password: ""

# Run tuning
max_applications: 5
score_threshold: 60
fallback_threshold: 40
min_delay_ms: 1500
max_delay_ms: 4500
`
	return os.WriteFile(path, []byte(defaultConfig), 0600)
}

// Set updates a configuration value
func Set(key, value string) error {
	viper.Set(key, value)
	return viper.WriteConfig()
}

// Get retrieves a configuration value
func Get(key string) string {
	return viper.GetString(key)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".jobpilot", "config.yaml")
}
