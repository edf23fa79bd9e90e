// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatdesk.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.chatdesk/config.toml
//   - ~/.chatdesk/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/chatdesk/internal/chat"
	"github.com/jeranaias/chatdesk/internal/cloud"
	ctxtrim "github.com/jeranaias/chatdesk/internal/context"
	"github.com/jeranaias/chatdesk/internal/ollama"
	"github.com/jeranaias/chatdesk/internal/util"
)

// Provider kinds.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// DefaultTypingIntervalMs is the typing animation period in milliseconds.
const DefaultTypingIntervalMs = 400

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatdesk configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Provider selects and configures the model backend
	Provider ProviderConfig `toml:"provider" json:"provider"`

	// Chat configures the conversation engine
	Chat ChatConfig `toml:"chat" json:"chat"`

	// UI configures the terminal front end
	UI UIConfig `toml:"ui" json:"ui"`

	// Log configures the log file
	Log LogConfig `toml:"log" json:"log"`
}

// ProviderConfig contains model provider configuration.
type ProviderConfig struct {
	// Kind is "openai" (any OpenAI-compatible endpoint) or "ollama"
	Kind string `toml:"kind" json:"kind"`
	// BaseURL overrides the provider's default endpoint
	BaseURL string `toml:"base_url" json:"base_url"`
	// Model is the model name; empty uses the provider default
	Model string `toml:"model" json:"model"`
	// APIKey is the credential for openai. chatdesk never writes a key it
	// was given by the environment or the prompt.
	APIKey string `toml:"api_key" json:"api_key"`
	// MaxRetries is the number of attempts for transient failures
	MaxRetries int `toml:"max_retries" json:"max_retries"`
	// TimeoutSecs bounds each call; 0 means no timeout
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RateLimitRPS paces calls client-side; 0 disables pacing
	RateLimitRPS float64 `toml:"rate_limit_rps" json:"rate_limit_rps"`
	// RateLimitBurst is the number of calls allowed at once
	RateLimitBurst int `toml:"rate_limit_burst" json:"rate_limit_burst"`
}

// ChatConfig contains conversation configuration.
type ChatConfig struct {
	// SystemPrompt is prepended to every request
	SystemPrompt string `toml:"system_prompt" json:"system_prompt"`
	// TrimBudget is the context budget in estimated tokens; negative disables trimming
	TrimBudget int `toml:"trim_budget" json:"trim_budget"`
	// WelcomeMessage is shown at the start of each chat
	WelcomeMessage string `toml:"welcome_message" json:"welcome_message"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// TypingIntervalMs is the typing animation period
	TypingIntervalMs int `toml:"typing_interval_ms" json:"typing_interval_ms"`
	// RenderMarkdown renders assistant replies as markdown
	RenderMarkdown bool `toml:"render_markdown" json:"render_markdown"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error"
	Level string `toml:"level" json:"level"`
	// Path is the log file; empty uses ~/.chatdesk/chatdesk.log
	Path string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultWelcomeMessage greets the user at the start of each chat.
const DefaultWelcomeMessage = chat.WelcomeText

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",

		Provider: ProviderConfig{
			Kind:           ProviderOpenAI,
			BaseURL:        "",
			Model:          "",
			MaxRetries:     cloud.DefaultMaxRetries,
			TimeoutSecs:    0, // no timeout; calls run until the provider answers
			RateLimitRPS:   0,
			RateLimitBurst: 1,
		},

		Chat: ChatConfig{
			SystemPrompt:   chat.DefaultSystemPrompt,
			TrimBudget:     ctxtrim.DefaultBudget,
			WelcomeMessage: DefaultWelcomeMessage,
		},

		UI: UIConfig{
			Theme:            "auto",
			TypingIntervalMs: DefaultTypingIntervalMs,
			RenderMarkdown:   true,
		},

		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatdesk configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatdesk"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultLogPath returns ~/.chatdesk/chatdesk.log.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chatdesk.log"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files should be 0600 because they may hold an API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
//
// When a file exists but cannot be decoded, the defaults are returned
// together with the decode error.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg, err := LoadFromPath(tomlPath)
			if err == nil {
				return cfg, nil
			}
			loadErr = err
		}
	}

	if loadErr == nil {
		if jsonPath, err := ConfigPathJSON(); err == nil {
			if _, statErr := os.Stat(jsonPath); statErr == nil {
				cfg, err := LoadFromPath(jsonPath)
				if err == nil {
					return cfg, nil
				}
				loadErr = err
			}
		}
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadTOML decodes a TOML file over cfg. Keys missing from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path over the
// defaults, then applies environment overrides, defaults and validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies environment overrides, migration, defaults and validation.
func (c *Config) finish() error {
	c.ApplyEnvOverrides()
	c.Migrate()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTheme records theme in a TOML config file. An empty path selects
// ~/.chatdesk/config.toml, or the JSON file when only that exists.
//
// The file is re-read rather than the running config written, so
// environment and flag overrides never reach it. Settings already in the
// file, an api_key the user put there included, are written back unchanged.
// JSON files are not rewritten.
func SaveTheme(path, theme string) error {
	if path == "" {
		p, err := defaultSavePath()
		if err != nil {
			return err
		}
		path = p
	}
	if strings.HasSuffix(path, ".json") {
		return fmt.Errorf("theme not saved: %s is a JSON config", path)
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	cfg.UI.Theme = theme
	return writeTOML(cfg, path)
}

// defaultSavePath returns the TOML config path, creating the config
// directory, unless a JSON config is the only one present.
func defaultSavePath() (string, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, err := os.Stat(jsonPath); err == nil {
			return jsonPath, nil
		}
	}
	return tomlPath, nil
}

// writeTOML writes cfg to path with 0600 permissions.
func writeTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# chatdesk configuration file\n")
	buf.WriteString("# The API key is read from CHATDESK_API_KEY or OPENAI_API_KEY.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors as
// ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Provider
	switch strings.ToLower(c.Provider.Kind) {
	case ProviderOpenAI, ProviderOllama:
	default:
		errs = append(errs, ValidationError{
			Field:   "provider.kind",
			Message: fmt.Sprintf("invalid provider '%s', must be one of: openai, ollama", c.Provider.Kind),
		})
	}

	if c.Provider.BaseURL != "" {
		u, err := url.Parse(c.Provider.BaseURL)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   "provider.base_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, ValidationError{
				Field:   "provider.base_url",
				Message: fmt.Sprintf("URL scheme must be http or https, got '%s'", u.Scheme),
			})
		}
	}

	if c.Provider.MaxRetries < 1 || c.Provider.MaxRetries > 10 {
		errs = append(errs, ValidationError{
			Field:   "provider.max_retries",
			Message: fmt.Sprintf("max_retries must be 1-10, got %d", c.Provider.MaxRetries),
		})
	}

	if c.Provider.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "provider.timeout_secs",
			Message: "timeout_secs cannot be negative",
		})
	}

	if c.Provider.RateLimitRPS < 0 {
		errs = append(errs, ValidationError{
			Field:   "provider.rate_limit_rps",
			Message: "rate_limit_rps cannot be negative",
		})
	}

	if c.Provider.RateLimitBurst < 0 {
		errs = append(errs, ValidationError{
			Field:   "provider.rate_limit_burst",
			Message: "rate_limit_burst cannot be negative",
		})
	}

	// UI
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if c.UI.TypingIntervalMs < 50 || c.UI.TypingIntervalMs > 5000 {
		errs = append(errs, ValidationError{
			Field:   "ui.typing_interval_ms",
			Message: fmt.Sprintf("typing_interval_ms must be 50-5000, got %d", c.UI.TypingIntervalMs),
		})
	}

	// Log
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: err.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParseLevel checks a log level name. It returns the normalized name.
func ParseLevel(level string) (string, error) {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "debug", "info", "warn", "error":
		return l, nil
	case "warning":
		return "warn", nil
	default:
		return "", fmt.Errorf("invalid level '%s', must be one of: debug, info, warn, error", level)
	}
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.Provider.Kind == "" {
		c.Provider.Kind = defaults.Provider.Kind
	}
	if c.Provider.MaxRetries == 0 {
		c.Provider.MaxRetries = defaults.Provider.MaxRetries
	}
	if c.Provider.RateLimitBurst == 0 {
		c.Provider.RateLimitBurst = defaults.Provider.RateLimitBurst
	}

	// A zero budget reads as "not set"; use a negative budget to disable
	// trimming.
	if c.Chat.TrimBudget == 0 {
		c.Chat.TrimBudget = defaults.Chat.TrimBudget
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.TypingIntervalMs == 0 {
		c.UI.TypingIntervalMs = defaults.UI.TypingIntervalMs
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// Migrate normalizes older or alternative spellings.
func (c *Config) Migrate() {
	c.Provider.Kind = strings.ToLower(strings.TrimSpace(c.Provider.Kind))
	switch c.Provider.Kind {
	case "openai-compatible", "openrouter", "cloud":
		c.Provider.Kind = ProviderOpenAI
	case "local":
		c.Provider.Kind = ProviderOllama
	}

	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	if level, err := ParseLevel(c.Log.Level); err == nil {
		c.Log.Level = level
	}
	c.Provider.APIKey = strings.TrimSpace(c.Provider.APIKey)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CHATDESK_API_KEY: overrides provider.api_key
//   - OPENAI_API_KEY: used when no other key is set
//   - CHATDESK_MODEL: overrides provider.model
//   - CHATDESK_PROVIDER: overrides provider.kind
//   - CHATDESK_BASE_URL: overrides provider.base_url
//   - CHATDESK_TRIM_BUDGET: overrides chat.trim_budget
//   - CHATDESK_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("CHATDESK_API_KEY"); key != "" {
		c.Provider.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Provider.APIKey == "" {
		c.Provider.APIKey = key
	}

	if model := os.Getenv("CHATDESK_MODEL"); model != "" {
		c.Provider.Model = model
	}

	if kind := os.Getenv("CHATDESK_PROVIDER"); kind != "" {
		c.Provider.Kind = kind
	}

	if baseURL := os.Getenv("CHATDESK_BASE_URL"); baseURL != "" {
		c.Provider.BaseURL = baseURL
	}

	if budget := os.Getenv("CHATDESK_TRIM_BUDGET"); budget != "" {
		if n, err := strconv.Atoi(budget); err == nil {
			c.Chat.TrimBudget = n
		}
	}

	if level := os.Getenv("CHATDESK_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// BaseURL returns the configured endpoint or the provider's default.
func (c *Config) BaseURL() string {
	if c.Provider.BaseURL != "" {
		return c.Provider.BaseURL
	}
	if c.Provider.Kind == ProviderOllama {
		return ollama.DefaultBaseURL
	}
	return cloud.DefaultBaseURL
}

// Model returns the configured model or the provider's default.
func (c *Config) Model() string {
	if c.Provider.Model != "" {
		return c.Provider.Model
	}
	if c.Provider.Kind == ProviderOllama {
		return ollama.DefaultModel
	}
	return cloud.DefaultModel
}

// NeedsAPIKey reports whether the provider requires a credential.
func (c *Config) NeedsAPIKey() bool {
	return c.Provider.Kind != ProviderOllama
}

// Timeout returns the per-call timeout; zero means none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSecs) * time.Second
}

// TypingInterval returns the typing animation period.
func (c *Config) TypingInterval() time.Duration {
	return time.Duration(c.UI.TypingIntervalMs) * time.Millisecond
}

// =============================================================================
// COPY AND DISPLAY
// =============================================================================

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// The API key is redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Provider.APIKey != "" {
		safe.Provider.APIKey = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
