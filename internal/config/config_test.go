package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "REPORT_POLL_INTERVAL", "REPORT_POLL_ATTEMPTS", "SESSION_TTL"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.Port != "3001" {
		t.Errorf("Expected default port 3001, got %s", cfg.Port)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("Expected 5s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.PollAttempts != 20 {
		t.Errorf("Expected 20 poll attempts, got %d", cfg.PollAttempts)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("Expected 30m session TTL, got %s", cfg.SessionTTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("REPORT_POLL_INTERVAL", "2s")
	t.Setenv("REPORT_POLL_ATTEMPTS", "5")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Port)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("Expected 2s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.PollAttempts != 5 {
		t.Errorf("Expected 5 poll attempts, got %d", cfg.PollAttempts)
	}
}

func TestLoad_MalformedEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("REPORT_POLL_ATTEMPTS", "many")
	t.Setenv("SESSION_TTL", "soon")

	cfg := Load()
	if cfg.PollAttempts != 20 {
		t.Errorf("Malformed int must fall back, got %d", cfg.PollAttempts)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("Malformed duration must fall back, got %s", cfg.SessionTTL)
	}
}

func TestValidate_EnumeratesAllMissing(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Empty config must fail validation")
	}
	for _, name := range []string{"BOT_TOKEN", "WORDSTAT_TOKEN", "LLM_API_KEY", "WEBHOOK_SECRET"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Error must name %s, got: %v", name, err)
		}
	}
}

func TestValidate_CompleteConfigPasses(t *testing.T) {
	cfg := &Config{
		BotToken:      "t",
		WordstatToken: "w",
		LLMAPIKey:     "l",
		WebhookSecret: "s",
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Complete config must pass, got: %v", err)
	}
}

func TestSheetsEnabled(t *testing.T) {
	cfg := &Config{SheetsAPIKey: "k", SheetsBaseURL: "https://bridge.example"}
	if !cfg.SheetsEnabled() {
		t.Error("Key plus base URL must enable the sheets sink")
	}

	cfg.SheetsBaseURL = ""
	if cfg.SheetsEnabled() {
		t.Error("Missing base URL must disable the sheets sink")
	}
}

func TestLoadOverrides_MissingFileIsFine(t *testing.T) {
	o, err := LoadOverrides(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Missing overrides file must not error: %v", err)
	}
	if len(o.MockSuffixes) != 0 || o.Temperature != nil {
		t.Errorf("Expected empty overrides, got %+v", o)
	}
}

func TestLoadOverrides_ParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semantist.yaml")
	content := "mock_suffixes:\n" +
		"  - suffix: \"купить\"\n" +
		"    shows: 5000\n" +
		"temperature: 0.4\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	o, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("LoadOverrides failed: %v", err)
	}
	if len(o.MockSuffixes) != 1 || o.MockSuffixes[0].Suffix != "купить" || o.MockSuffixes[0].Shows != 5000 {
		t.Errorf("Suffix table mis-parsed: %+v", o.MockSuffixes)
	}
	if o.Temperature == nil || *o.Temperature != 0.4 {
		t.Errorf("Temperature mis-parsed: %v", o.Temperature)
	}
}

func TestLoadOverrides_MalformedFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semantist.yaml")
	if err := os.WriteFile(path, []byte("mock_suffixes: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadOverrides(path); err == nil {
		t.Fatal("Malformed YAML must be an error")
	}
}
