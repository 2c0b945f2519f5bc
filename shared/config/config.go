package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AI          AIConfig         `yaml:"ai"`
	Screenshots ScreenshotConfig `yaml:"screenshots"`
	Output      OutputConfig     `yaml:"output"`
	YouTube     YouTubeConfig    `yaml:"youtube"`
	Watch       WatchConfig      `yaml:"watch"`
	Monitoring  MonitoringConfig `yaml:"monitoring"`
	Email       EmailConfig      `yaml:"email"`
}

type AIConfig struct {
	GeminiAPIKey         string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model                string `yaml:"model"`
	UploadTimeoutMinutes int    `yaml:"upload_timeout_minutes"`
}

type ScreenshotConfig struct {
	Frequency     string `yaml:"frequency"`
	CropRegions   bool   `yaml:"crop_regions"`
	FPS           int    `yaml:"fps"`
	FailurePolicy string `yaml:"failure_policy"`
}

type OutputConfig struct {
	Dir          string `yaml:"dir"`
	DocumentName string `yaml:"document_name"`
}

type YouTubeConfig struct {
	APIKey string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
}

type WatchConfig struct {
	InboxDir string `yaml:"inbox_dir"`
	Schedule string `yaml:"schedule"`
	Prompt   string `yaml:"prompt"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Enabled reports whether enough of the email block is filled in to send
// notifications. An empty recipient disables email entirely.
func (e *EmailConfig) Enabled() bool {
	return e.ToEmail != ""
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case os.IsNotExist(err):
		// Environment-only configuration is enough for CLI use.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.YouTube.APIKey == "" {
		cfg.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.UploadTimeoutMinutes == 0 {
		c.AI.UploadTimeoutMinutes = 30
	}
	if c.Screenshots.Frequency == "" {
		c.Screenshots.Frequency = "moderate"
	}
	if c.Screenshots.FPS == 0 {
		c.Screenshots.FPS = 30
	}
	if c.Screenshots.FailurePolicy == "" {
		c.Screenshots.FailurePolicy = "abort"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Output.DocumentName == "" {
		c.Output.DocumentName = "document.md"
	}
	if c.Watch.InboxDir == "" {
		c.Watch.InboxDir = "inbox"
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "0 */10 * * * *" // Every 10 minutes
	}
	if c.Watch.Prompt == "" {
		c.Watch.Prompt = "Summarize this video as a structured Markdown document."
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	switch c.Screenshots.Frequency {
	case "minimal", "moderate", "detailed":
	default:
		return fmt.Errorf("screenshots.frequency must be minimal, moderate, or detailed (got %q)", c.Screenshots.Frequency)
	}
	switch c.Screenshots.FailurePolicy {
	case "abort", "skip":
	default:
		return fmt.Errorf("screenshots.failure_policy must be abort or skip (got %q)", c.Screenshots.FailurePolicy)
	}
	if c.Email.Enabled() {
		if c.Email.SMTPServer == "" || c.Email.SMTPPort == 0 {
			return fmt.Errorf("email.smtp_server and email.smtp_port are required when email.to_email is set")
		}
		if c.Email.Username == "" || c.Email.Password == "" {
			return fmt.Errorf("email credentials are required when email.to_email is set (set EMAIL_USERNAME and EMAIL_PASSWORD)")
		}
		if c.Email.FromEmail == "" {
			return fmt.Errorf("email.from_email is required when email.to_email is set")
		}
	}
	return nil
}
