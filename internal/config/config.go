package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds user preferences and sync tuning
type Config struct {
	ServerURL string `yaml:"server_url" json:"server_url"`

	// Sync tuning. GraceSeconds must be strictly longer than PollSeconds
	// so an optimistic edit always survives at least one full poll cycle
	// before refreshes may overwrite it again.
	PollSeconds  int `yaml:"poll_seconds" json:"poll_seconds"`
	GraceSeconds int `yaml:"grace_seconds" json:"grace_seconds"`

	// NotifyAdvisor enqueues an inbox notification for the assigned
	// advisor when an item reaches correction or delivered.
	NotifyAdvisor bool `yaml:"notify_advisor" json:"notify_advisor"`

	// WebhookURL is the outbound side-channel hit on correction and
	// delivered transitions. Empty disables it.
	WebhookURL string `yaml:"webhook_url" json:"webhook_url"`

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`
	LogFile    string `yaml:"log_file" json:"log_file"`
	LogConsole bool   `yaml:"log_console" json:"log_console"`
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	logPath := ""
	if home != "" {
		logPath = filepath.Join(home, ".tablero", "logs", "tablero.log")
	}

	return &Config{
		ServerURL:     getEnv("TABLERO_SERVER_URL", "http://localhost:8080"),
		PollSeconds:   getEnvInt("TABLERO_POLL_SECONDS", 30),
		GraceSeconds:  getEnvInt("TABLERO_GRACE_SECONDS", 45),
		NotifyAdvisor: getEnv("TABLERO_NOTIFY_ADVISOR", "true") == "true",
		WebhookURL:    getEnv("TABLERO_WEBHOOK_URL", ""),
		LogLevel:      getEnv("TABLERO_LOG_LEVEL", "INFO"),
		LogFile:       getEnv("TABLERO_LOG_FILE", logPath),
		LogConsole:    getEnv("TABLERO_LOG_CONSOLE", "false") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// PollInterval returns the poll period as a duration
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// GraceWindow returns the local-mutation suppression window as a duration
func (c *Config) GraceWindow() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}

// Validate checks invariants between settings
func (c *Config) Validate() error {
	if c.PollSeconds <= 0 {
		return fmt.Errorf("poll_seconds must be positive, got %d", c.PollSeconds)
	}
	if c.GraceSeconds <= c.PollSeconds {
		return fmt.Errorf("grace_seconds (%d) must be strictly greater than poll_seconds (%d)",
			c.GraceSeconds, c.PollSeconds)
	}
	return nil
}

// Load loads config from ~/.tablero/config.yaml
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(home, ".tablero", "config.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves config to ~/.tablero/config.yaml
func (c *Config) Save() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".tablero")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
