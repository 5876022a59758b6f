package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Port          string
	WebhookSecret string
	DatabasePath  string
	OutputDir     string

	// Telegram Bot API
	BotToken   string
	BotAPIBase string

	// Wordstat report service
	WordstatToken string
	WordstatURL   string

	// LLM provider (OpenAI-compatible chat completions)
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// Sheets bridge (remote spreadsheet sink); optional
	SheetsAPIKey   string
	SheetsBaseURL  string
	SheetsMasterID string

	// Report polling
	PollInterval time.Duration
	PollAttempts int

	// Session lifetime; expiry cancels abandoned pipelines
	SessionTTL time.Duration

	// Housekeeping
	ExportRetention time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "3001"),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
		DatabasePath:  getEnv("DATABASE_PATH", "semantist.db"),
		OutputDir:     getEnv("OUTPUT_DIR", "output"),

		BotToken:   getEnv("BOT_TOKEN", ""),
		BotAPIBase: getEnv("BOT_API_BASE", "https://api.telegram.org"),

		WordstatToken: getEnv("WORDSTAT_TOKEN", ""),
		WordstatURL:   getEnv("WORDSTAT_URL", "https://api.direct.yandex.com/v4/json/"),

		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:   getEnv("LLM_MODEL", "gpt-4o"),

		SheetsAPIKey:   getEnv("SHEETS_API_KEY", ""),
		SheetsBaseURL:  getEnv("SHEETS_BASE_URL", ""),
		SheetsMasterID: getEnv("SHEETS_MASTER_ID", ""),

		PollInterval: getDurationEnv("REPORT_POLL_INTERVAL", 5*time.Second),
		PollAttempts: getIntEnv("REPORT_POLL_ATTEMPTS", 20),

		SessionTTL: getDurationEnv("SESSION_TTL", 30*time.Minute),

		ExportRetention: getDurationEnv("EXPORT_RETENTION", 7*24*time.Hour),
	}
}

// Validate fails fast with the full list of missing required variables, so a
// broken deployment reports every gap at once instead of one per restart.
func (c *Config) Validate() error {
	var missing []string
	if c.BotToken == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if c.WordstatToken == "" {
		missing = append(missing, "WORDSTAT_TOKEN")
	}
	if c.LLMAPIKey == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if c.WebhookSecret == "" {
		missing = append(missing, "WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SheetsEnabled reports whether the remote spreadsheet sink is configured.
func (c *Config) SheetsEnabled() bool {
	return c.SheetsAPIKey != "" && c.SheetsBaseURL != ""
}

// Overrides is the optional semantist.yaml tuning file: mock-source suffix
// table and generation temperature. Everything has a built-in default; the
// file exists so operators can retune without a rebuild.
type Overrides struct {
	MockSuffixes []MockSuffix `yaml:"mock_suffixes"`
	Temperature  *float64     `yaml:"temperature"`
}

// MockSuffix is one entry of the mock data source's expansion table.
type MockSuffix struct {
	Suffix string `yaml:"suffix"`
	Shows  int    `yaml:"shows"`
}

// LoadOverrides reads the optional YAML overrides file. A missing file is not
// an error; a malformed one is.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Overrides{}, nil
		}
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}

	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to parse overrides YAML: %w", err)
	}
	return &o, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
