package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points the config directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "reviewgate", "config.json")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Provider != "openai" {
		t.Errorf("Default provider = %q, want %q", cfg.Provider, "openai")
	}
	if cfg.Temperature != 0.3 {
		t.Errorf("Default temperature = %v, want 0.3", cfg.Temperature)
	}
	if cfg.MaxDiffBytes != 500000 {
		t.Errorf("Default maxDiffBytes = %d, want 500000", cfg.MaxDiffBytes)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Errorf("Default poll interval = %v", cfg.PollInterval())
	}
	if cfg.RequestTimeout() != 5*time.Minute {
		t.Errorf("Default request timeout = %v", cfg.RequestTimeout())
	}
	if cfg.Tick() != time.Second {
		t.Errorf("Default tick = %v", cfg.Tick())
	}
	if cfg.ReviewTimeout() != 90*time.Second {
		t.Errorf("Default review timeout = %v", cfg.ReviewTimeout())
	}
	if cfg.PresenterTimeout() != 180*time.Second {
		t.Errorf("Default presenter timeout = %v", cfg.PresenterTimeout())
	}
	if sum := cfg.ReviewTimeout() + cfg.PresenterTimeout(); sum >= cfg.RequestTimeout() {
		t.Errorf("review + presenter = %v, must finish before the request timeout %v", sum, cfg.RequestTimeout())
	}
	if !cfg.Privacy.RedactSecrets {
		t.Error("Default redactSecrets should be true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}

func TestEnvName(t *testing.T) {
	tests := map[string]string{
		"provider":              "REVIEWGATE_PROVIDER",
		"maxDiffBytes":          "REVIEWGATE_MAX_DIFF_BYTES",
		"baseURL":               "REVIEWGATE_BASE_URL",
		"cache.ttlSeconds":      "REVIEWGATE_CACHE_TTL_SECONDS",
		"privacy.redactSecrets": "REVIEWGATE_PRIVACY_REDACT_SECRETS",
	}
	for key, want := range tests {
		if got := EnvName(key); got != want {
			t.Errorf("EnvName(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestLoad_NoFile(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Model != Default().Model {
		t.Errorf("Model = %q, want default", cfg.Model)
	}
}

func TestLoad_Precedence(t *testing.T) {
	path := isolate(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	file := `{
  "provider": "ollama",
  "model": "llama3.1",
  "maxDiffBytes": 1000,
  "cache": {"enabled": false}
}`
	if err := os.WriteFile(path, []byte(file), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("REVIEWGATE_MODEL", "qwen2.5-coder")
	t.Setenv("REVIEWGATE_EXCLUDE", "a/**,b/**")
	t.Setenv("REVIEWGATE_REVIEW_TIMEOUT_SECONDS", "30")

	cfg, err := Load(map[string]string{"maxDiffBytes": "2000", "onIssues": ""})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Provider != "ollama" {
		t.Errorf("Provider = %q, want file value", cfg.Provider)
	}
	if cfg.Model != "qwen2.5-coder" {
		t.Errorf("Model = %q, want env value", cfg.Model)
	}
	if cfg.MaxDiffBytes != 2000 {
		t.Errorf("MaxDiffBytes = %d, want override", cfg.MaxDiffBytes)
	}
	if cfg.Cache.Enabled {
		t.Error("cache.enabled=false in the file should win over the default")
	}
	if cfg.Cache.TTLSeconds != 86400 {
		t.Errorf("TTLSeconds = %d, want default", cfg.Cache.TTLSeconds)
	}
	if len(cfg.Exclude) != 2 || cfg.Exclude[0] != "a/**" {
		t.Errorf("Exclude = %v, want env list", cfg.Exclude)
	}
	if cfg.ReviewTimeout() != 30*time.Second {
		t.Errorf("ReviewTimeout = %v, want 30s", cfg.ReviewTimeout())
	}
	if cfg.OnIssues != "prompt" {
		t.Errorf("empty override should be ignored, OnIssues = %q", cfg.OnIssues)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := isolate(t)
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte("{broken"), 0o644)

	if _, err := Load(nil); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestLoad_UnknownOverride(t *testing.T) {
	isolate(t)
	if _, err := Load(map[string]string{"failOn": "high"}); err == nil {
		t.Error("expected error for unknown override key")
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	isolate(t)
	t.Setenv("REVIEWGATE_PROVIDER", "anthropic")
	_, err := Load(nil)
	if err == nil || !strings.Contains(err.Error(), "provider") {
		t.Errorf("expected provider validation error, got %v", err)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Model = "gpt-4o"
	cfg.Privacy.RedactPaths = []string{"secret/**"}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if loaded.Model != "gpt-4o" {
		t.Errorf("Model = %q", loaded.Model)
	}
	if len(loaded.Privacy.RedactPaths) != 1 || loaded.Privacy.RedactPaths[0] != "secret/**" {
		t.Errorf("RedactPaths = %v", loaded.Privacy.RedactPaths)
	}
}

func TestSetField(t *testing.T) {
	cfg := Default()

	tests := []struct {
		key, value string
		check      func(Config) bool
	}{
		{"model", "gpt-4.1", func(c Config) bool { return c.Model == "gpt-4.1" }},
		{"temperature", "0.1", func(c Config) bool { return c.Temperature == 0.1 }},
		{"maxDiffBytes", "1234", func(c Config) bool { return c.MaxDiffBytes == 1234 }},
		{"cache.enabled", "false", func(c Config) bool { return !c.Cache.Enabled }},
		{"exclude", "x/**,y/**", func(c Config) bool { return len(c.Exclude) == 2 && c.Exclude[1] == "y/**" }},
		{"onIssues", "cancel", func(c Config) bool { return c.OnIssues == "cancel" }},
	}
	for _, tt := range tests {
		if err := SetField(&cfg, tt.key, tt.value); err != nil {
			t.Errorf("SetField(%s): %v", tt.key, err)
			continue
		}
		if !tt.check(cfg) {
			t.Errorf("SetField(%s, %s) not applied: %+v", tt.key, tt.value, cfg)
		}
	}
	if cfg.Provider != "openai" {
		t.Error("unrelated fields must be preserved")
	}
}

func TestSetField_Errors(t *testing.T) {
	cfg := Default()
	if err := SetField(&cfg, "nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := SetField(&cfg, "maxDiffBytes", "lots"); err == nil {
		t.Error("expected error for non-integer value")
	}
	if err := SetField(&cfg, "onIssues", "sometimes"); err == nil {
		t.Error("expected validation error")
	}
	if cfg.OnIssues != "prompt" {
		t.Error("a rejected value must leave the config unchanged")
	}
}

func TestValidate_Timeouts(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"presenter zero", func(c *Config) { c.PresenterTimeoutSeconds = 0 }, "presenterTimeoutSeconds must be positive"},
		{"presenter negative", func(c *Config) { c.PresenterTimeoutSeconds = -1 }, "presenterTimeoutSeconds must be positive"},
		{"review zero", func(c *Config) { c.ReviewTimeoutSeconds = 0 }, "reviewTimeoutSeconds must be positive"},
		{"request zero", func(c *Config) { c.RequestTimeoutSeconds = 0 }, "requestTimeoutSeconds must be positive"},
		{"review and prompt outlive the hook", func(c *Config) { c.PresenterTimeoutSeconds = 240 }, "must be less than requestTimeoutSeconds"},
		{"exactly the request timeout", func(c *Config) { c.ReviewTimeoutSeconds = 100; c.PresenterTimeoutSeconds = 200 }, "must be less than requestTimeoutSeconds"},
		{"longer hook wait", func(c *Config) { c.PresenterTimeoutSeconds = 240; c.RequestTimeoutSeconds = 600 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestSetField_PresenterTimeoutOutlivingHookRejected(t *testing.T) {
	cfg := Default()
	if err := SetField(&cfg, "presenterTimeoutSeconds", "0"); err == nil {
		t.Error("presenterTimeoutSeconds=0 must be rejected")
	}
	if err := SetField(&cfg, "presenterTimeoutSeconds", "300"); err == nil {
		t.Error("a prompt longer than the request timeout must be rejected")
	}
	if cfg.PresenterTimeoutSeconds != 180 {
		t.Errorf("rejected values must leave the config unchanged, got %d", cfg.PresenterTimeoutSeconds)
	}
}

func TestKeysHaveDefaults(t *testing.T) {
	for _, k := range Keys() {
		cfg := Default()
		if err := SetField(&cfg, k, defaultString(k)); err != nil {
			t.Errorf("key %s cannot round-trip: %v", k, err)
		}
	}
}

// defaultString returns a valid string value for any key.
func defaultString(key string) string {
	switch key {
	case "provider":
		return "ollama"
	case "temperature":
		return "0.5"
	case "onIssues", "onFailure":
		return "proceed"
	case "logFormat":
		return "json"
	case "cache.enabled", "privacy.redactSecrets":
		return "true"
	case "requestTimeoutSeconds":
		return "600"
	case "maxTokens", "contextLines", "maxDiffBytes", "pollIntervalMs",
		"tickMs", "reviewTimeoutSeconds",
		"presenterTimeoutSeconds", "cache.ttlSeconds":
		return "7"
	default:
		return "value"
	}
}
