package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. REVIEWGATE_MODEL.
const EnvPrefix = "REVIEWGATE"

// Config represents the reviewgate configuration.
type Config struct {
	Provider     string   `json:"provider" mapstructure:"provider"`
	Model        string   `json:"model" mapstructure:"model"`
	BaseURL      string   `json:"baseURL,omitempty" mapstructure:"baseURL"`
	Temperature  float64  `json:"temperature" mapstructure:"temperature"`
	MaxTokens    int      `json:"maxTokens,omitempty" mapstructure:"maxTokens"`
	ContextLines int      `json:"contextLines,omitempty" mapstructure:"contextLines"`
	MaxDiffBytes int      `json:"maxDiffBytes" mapstructure:"maxDiffBytes"`
	Exclude      []string `json:"exclude" mapstructure:"exclude"`
	RulesFile    string   `json:"rulesFile,omitempty" mapstructure:"rulesFile"`

	// ChannelDir holds the request and decision artifacts. Empty means the
	// system temp directory.
	ChannelDir              string `json:"channelDir,omitempty" mapstructure:"channelDir"`
	PollIntervalMs          int    `json:"pollIntervalMs" mapstructure:"pollIntervalMs"`
	RequestTimeoutSeconds   int    `json:"requestTimeoutSeconds" mapstructure:"requestTimeoutSeconds"`
	TickMs                  int    `json:"tickMs" mapstructure:"tickMs"`
	ReviewTimeoutSeconds    int    `json:"reviewTimeoutSeconds" mapstructure:"reviewTimeoutSeconds"`
	PresenterTimeoutSeconds int    `json:"presenterTimeoutSeconds" mapstructure:"presenterTimeoutSeconds"`

	// OnIssues and OnFailure are prompt, cancel or proceed.
	OnIssues  string `json:"onIssues" mapstructure:"onIssues"`
	OnFailure string `json:"onFailure" mapstructure:"onFailure"`

	LogLevel  string `json:"logLevel" mapstructure:"logLevel"`
	LogFormat string `json:"logFormat" mapstructure:"logFormat"`

	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Privacy PrivacyConfig `json:"privacy" mapstructure:"privacy"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Dir        string `json:"dir,omitempty" mapstructure:"dir"`
	TTLSeconds int    `json:"ttlSeconds" mapstructure:"ttlSeconds"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets" mapstructure:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty" mapstructure:"redactPaths"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:                "openai",
		Model:                   "gpt-4o-mini",
		Temperature:             0.3,
		MaxDiffBytes:            500000,
		Exclude:                 []string{"vendor/**", "**/*.gen.go", "**/dist/**", "**/package-lock.json"},
		PollIntervalMs:          500,
		RequestTimeoutSeconds:   300,
		TickMs:                  1000,
		ReviewTimeoutSeconds:    90,
		PresenterTimeoutSeconds: 180,
		OnIssues:                "prompt",
		OnFailure:               "prompt",
		LogLevel:                "info",
		LogFormat:               "console",
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/.env.*", "**/*secrets*"},
		},
	}
}

// keys lists every settable key in dotted form.
var keys = []string{
	"provider", "model", "baseURL", "temperature", "maxTokens", "contextLines",
	"maxDiffBytes", "exclude", "rulesFile",
	"channelDir", "pollIntervalMs", "requestTimeoutSeconds", "tickMs",
	"reviewTimeoutSeconds", "presenterTimeoutSeconds",
	"onIssues", "onFailure", "logLevel", "logFormat",
	"cache.enabled", "cache.dir", "cache.ttlSeconds",
	"privacy.redactSecrets", "privacy.redactPaths",
}

// Keys returns the settable configuration keys.
func Keys() []string {
	return slices.Clone(keys)
}

// EnvName returns the environment variable that overrides key, e.g.
// "cache.ttlSeconds" becomes REVIEWGATE_CACHE_TTL_SECONDS.
func EnvName(key string) string {
	var b strings.Builder
	b.WriteString(EnvPrefix)
	b.WriteByte('_')
	prev := rune(0)
	for _, r := range key {
		switch {
		case r == '.':
			b.WriteByte('_')
		case unicode.IsUpper(r) && prev != 0 && prev != '.' && !unicode.IsUpper(prev):
			b.WriteByte('_')
			b.WriteRune(r)
		default:
			b.WriteRune(unicode.ToUpper(r))
		}
		prev = r
	}
	return b.String()
}

// ConfigDir returns the platform-appropriate config directory for reviewgate.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "reviewgate"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "reviewgate"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "reviewgate"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "reviewgate"), nil
	default:
		return filepath.Join(home, ".config", "reviewgate"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile returns defaults overlaid with the config file, without
// environment or flag overrides. A missing file yields the defaults.
func LoadFile() (Config, error) {
	v, err := newViper()
	if err != nil {
		return Config{}, err
	}
	return decode(v)
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-empty values are applied).
func Load(overrides map[string]string) (Config, error) {
	v, err := newViper()
	if err != nil {
		return Config{}, err
	}
	for _, k := range keys {
		if err := v.BindEnv(k, EnvName(k)); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", k, err)
		}
	}
	for k, val := range overrides {
		if val == "" {
			continue
		}
		if !slices.Contains(keys, k) {
			return Config{}, fmt.Errorf("unknown config key: %s", k)
		}
		v.Set(k, val)
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetField sets a single config field by key name. Returns error if key is
// unknown or the value does not fit the field.
func SetField(cfg *Config, key, value string) error {
	if !slices.Contains(keys, key) {
		return fmt.Errorf("unknown config key: %s", key)
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return err
	}
	v.Set(key, value)

	updated, err := decode(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	*cfg = updated
	return nil
}

// Validate rejects values no command can work with.
func (c Config) Validate() error {
	var errs []error
	switch c.Provider {
	case "openai", "ollama", "lmstudio":
	default:
		errs = append(errs, fmt.Errorf("provider %q is not one of openai, ollama, lmstudio", c.Provider))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature %v out of range 0..2", c.Temperature))
	}
	if c.MaxDiffBytes <= 0 {
		errs = append(errs, errors.New("maxDiffBytes must be positive"))
	}
	for name, mode := range map[string]string{"onIssues": c.OnIssues, "onFailure": c.OnFailure} {
		switch mode {
		case "prompt", "cancel", "proceed":
		default:
			errs = append(errs, fmt.Errorf("%s %q is not one of prompt, cancel, proceed", name, mode))
		}
	}
	errs = append(errs, c.validateTimeouts()...)
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logFormat %q is not one of console, json", c.LogFormat))
	}
	return errors.Join(errs...)
}

// validateTimeouts keeps a responder's review and prompt inside the window
// the hook is still waiting for a decision.
func (c Config) validateTimeouts() []error {
	var errs []error
	for name, secs := range map[string]int{
		"requestTimeoutSeconds":   c.RequestTimeoutSeconds,
		"reviewTimeoutSeconds":    c.ReviewTimeoutSeconds,
		"presenterTimeoutSeconds": c.PresenterTimeoutSeconds,
	} {
		if secs <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	if sum := c.ReviewTimeout() + c.PresenterTimeout(); sum >= c.RequestTimeout() {
		errs = append(errs, fmt.Errorf("reviewTimeoutSeconds + presenterTimeoutSeconds (%s) must be less than requestTimeoutSeconds (%s)",
			sum, c.RequestTimeout()))
	}
	return errs
}

// PollInterval is how often the hook checks for a decision.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// RequestTimeout is how long the hook waits for a decision.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Tick is the responder polling period.
func (c Config) Tick() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

// ReviewTimeout bounds one review engine call.
func (c Config) ReviewTimeout() time.Duration {
	return time.Duration(c.ReviewTimeoutSeconds) * time.Second
}

// PresenterTimeout bounds how long a human has to answer.
func (c Config) PresenterTimeout() time.Duration {
	return time.Duration(c.PresenterTimeoutSeconds) * time.Second
}

// newViper returns a viper instance holding defaults and the config file.
func newViper() (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, Default())

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return v, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("provider", d.Provider)
	v.SetDefault("model", d.Model)
	v.SetDefault("baseURL", d.BaseURL)
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("maxTokens", d.MaxTokens)
	v.SetDefault("contextLines", d.ContextLines)
	v.SetDefault("maxDiffBytes", d.MaxDiffBytes)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("rulesFile", d.RulesFile)
	v.SetDefault("channelDir", d.ChannelDir)
	v.SetDefault("pollIntervalMs", d.PollIntervalMs)
	v.SetDefault("requestTimeoutSeconds", d.RequestTimeoutSeconds)
	v.SetDefault("tickMs", d.TickMs)
	v.SetDefault("reviewTimeoutSeconds", d.ReviewTimeoutSeconds)
	v.SetDefault("presenterTimeoutSeconds", d.PresenterTimeoutSeconds)
	v.SetDefault("onIssues", d.OnIssues)
	v.SetDefault("onFailure", d.OnFailure)
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("logFormat", d.LogFormat)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.ttlSeconds", d.Cache.TTLSeconds)
	v.SetDefault("privacy.redactSecrets", d.Privacy.RedactSecrets)
	v.SetDefault("privacy.redactPaths", d.Privacy.RedactPaths)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}
