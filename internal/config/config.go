// Package config provides layered configuration for the modelcard CLI.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/KoryJCampbell/modelcard/internal/coverage"
	"github.com/KoryJCampbell/modelcard/internal/draft"
	"github.com/KoryJCampbell/modelcard/internal/llm"
	"github.com/KoryJCampbell/modelcard/internal/profile"
	"github.com/KoryJCampbell/modelcard/internal/render"
)

// Config represents the complete modelcard configuration.
type Config struct {
	Draft      DraftConfig    `yaml:"draft"`
	Output     OutputConfig   `yaml:"output"`
	Validation ValidateConfig `yaml:"validate"`
	Repo       RepoConfig     `yaml:"repo"`
	Log        LogConfig      `yaml:"log"`
}

// DraftConfig configures AI-assisted drafting.
type DraftConfig struct {
	// Provider is one of anthropic, openai, google.
	Provider string `yaml:"provider"`
	// Model overrides the provider's default model.
	Model   string `yaml:"model"`
	Profile string `yaml:"profile"`
	// MaxTokens bounds each field answer.
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	// Timeout applies to each field request.
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	// RatePerSecond throttles requests; 0 disables throttling.
	RatePerSecond float64 `yaml:"rate_per_second"`
	// RepoBudget caps the repository summary in each prompt, in bytes.
	RepoBudget   int  `yaml:"repo_budget"`
	RequiredOnly bool `yaml:"required_only"`
}

// OutputConfig configures rendering.
type OutputConfig struct {
	Format  string `yaml:"format"`
	NoColor bool   `yaml:"no_color"`
}

// ValidateConfig configures validation.
type ValidateConfig struct {
	Mode string `yaml:"mode"`
}

// RepoConfig configures the repository inventory used as drafting context.
type RepoConfig struct {
	// Exclude holds doublestar globs relative to the repository root.
	Exclude []string `yaml:"exclude"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Draft: DraftConfig{
			Provider:    llm.DefaultProvider,
			Profile:     profile.DefaultName,
			MaxTokens:   llm.DefaultMaxTokens,
			Temperature: llm.DefaultTemperature,
			Timeout:     draft.DefaultTimeout,
			Concurrency: draft.DefaultConcurrency,
			RepoBudget:  llm.DefaultRepoBudget,
		},
		Output: OutputConfig{
			Format: string(render.FormatMarkdown),
		},
		Validation: ValidateConfig{
			Mode: string(coverage.ModeLenient),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

var providers = []string{"anthropic", "openai", "google"}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(providers, c.Draft.Provider) {
		return fmt.Errorf("config: draft.provider must be one of %v, got %q", providers, c.Draft.Provider)
	}
	if _, err := profile.Load(c.Draft.Profile); err != nil {
		return fmt.Errorf("config: draft.profile: %w", err)
	}
	if c.Draft.MaxTokens <= 0 {
		return fmt.Errorf("config: draft.max_tokens must be positive")
	}
	if c.Draft.Temperature < 0 || c.Draft.Temperature > 1 {
		return fmt.Errorf("config: draft.temperature must be between 0 and 1")
	}
	if c.Draft.Timeout <= 0 {
		return fmt.Errorf("config: draft.timeout must be positive")
	}
	if c.Draft.Concurrency < 1 {
		return fmt.Errorf("config: draft.concurrency must be at least 1")
	}
	if c.Draft.RatePerSecond < 0 {
		return fmt.Errorf("config: draft.rate_per_second must not be negative")
	}
	if c.Draft.RepoBudget <= 0 {
		return fmt.Errorf("config: draft.repo_budget must be positive")
	}
	if _, err := render.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("config: output.format: %w", err)
	}
	if _, err := coverage.ParseMode(c.Validation.Mode); err != nil {
		return fmt.Errorf("config: validate.mode: %w", err)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	for _, p := range c.Repo.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("config: repo.exclude: invalid pattern %q", p)
		}
	}
	return nil
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// readLayer decodes a file without defaults so that Merge only sees the keys
// the file actually sets.
func readLayer(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Merge merges another config into this one. Non-zero values in other take
// precedence; boolean switches can only be turned on.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Draft
	if other.Draft.Provider != "" {
		c.Draft.Provider = other.Draft.Provider
	}
	if other.Draft.Model != "" {
		c.Draft.Model = other.Draft.Model
	}
	if other.Draft.Profile != "" {
		c.Draft.Profile = other.Draft.Profile
	}
	if other.Draft.MaxTokens != 0 {
		c.Draft.MaxTokens = other.Draft.MaxTokens
	}
	if other.Draft.Temperature != 0 {
		c.Draft.Temperature = other.Draft.Temperature
	}
	if other.Draft.Timeout != 0 {
		c.Draft.Timeout = other.Draft.Timeout
	}
	if other.Draft.Concurrency != 0 {
		c.Draft.Concurrency = other.Draft.Concurrency
	}
	if other.Draft.RatePerSecond != 0 {
		c.Draft.RatePerSecond = other.Draft.RatePerSecond
	}
	if other.Draft.RepoBudget != 0 {
		c.Draft.RepoBudget = other.Draft.RepoBudget
	}
	if other.Draft.RequiredOnly {
		c.Draft.RequiredOnly = true
	}

	// Output
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.NoColor {
		c.Output.NoColor = true
	}

	// Validation
	if other.Validation.Mode != "" {
		c.Validation.Mode = other.Validation.Mode
	}

	// Repo
	if len(other.Repo.Exclude) > 0 {
		c.Repo.Exclude = other.Repo.Exclude
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
