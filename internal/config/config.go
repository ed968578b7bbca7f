package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// Config represents the histlaunch configuration.
type Config struct {
	Launcher LauncherConfig `yaml:"launcher"`
	Source   SourceConfig   `yaml:"source"`
	Open     OpenConfig     `yaml:"open"`
	Log      LogConfig      `yaml:"log"`
}

// LauncherConfig holds plugin protocol settings.
type LauncherConfig struct {
	Trigger          string `yaml:"trigger"`           // Token that routes input to the plugin
	MaxResults       int    `yaml:"max_results"`       // Results per query
	IncludeUnmatched bool   `yaml:"include_unmatched"` // List non-matching records after matches
	ExitOnActivate   bool   `yaml:"exit_on_activate"`  // Stop serving after a target is opened
}

// SourceConfig holds history snapshot settings.
type SourceConfig struct {
	Type          string `yaml:"type"`            // chrome, chromium, brave, firefox, or tsv
	Profile       string `yaml:"profile"`         // Browser profile directory name
	Path          string `yaml:"path"`            // Explicit history file (overrides type default)
	MaxRecords    int    `yaml:"max_records"`     // Records to load (0 = unlimited)
	LoadTimeoutMs int    `yaml:"load_timeout_ms"` // Snapshot load timeout (0 = none)
	StagingDir    string `yaml:"staging_dir"`     // Directory for snapshot copies (empty = OS temp dir)
}

// OpenConfig holds open action settings.
type OpenConfig struct {
	Command string `yaml:"command"` // Command template; {} is replaced by the URL
}

// LogConfig holds diagnostic log settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Log file path (overrides default)
}

// MaxResultsLimit caps launcher.max_results.
const MaxResultsLimit = 1000

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Launcher: LauncherConfig{
			Trigger:    "ch",
			MaxResults: 8,
		},
		Source: SourceConfig{
			Type:          "chrome",
			Profile:       "Default",
			LoadTimeoutMs: 5000,
		},
		Open: OpenConfig{
			Command: "xdg-open",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Path returns the configuration file path. HISTLAUNCH_CONFIG overrides the
// default location.
func Path() string {
	if v := os.Getenv("HISTLAUNCH_CONFIG"); v != "" {
		return v
	}
	return DefaultPaths().ConfigFile()
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFromFile(Path())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's config file
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveToFile(Path())
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	// Derive directory from path and ensure it exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: config is not secret
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadTimeout returns the snapshot load timeout, or 0 for none.
func (c *Config) LoadTimeout() time.Duration {
	return time.Duration(c.Source.LoadTimeoutMs) * time.Millisecond
}

// Get retrieves a configuration value by dot-separated key.
// For example: "launcher.trigger" or "source.type"
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "launcher":
		return c.getLauncherField(field)
	case "source":
		return c.getSourceField(field)
	case "open":
		return c.getOpenField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "launcher":
		return c.setLauncherField(field, value)
	case "source":
		return c.setSourceField(field, value)
	case "open":
		return c.setOpenField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func splitKey(key string) (string, string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return parts[0], parts[1], nil
}

func (c *Config) getLauncherField(field string) (string, error) {
	switch field {
	case "trigger":
		return c.Launcher.Trigger, nil
	case "max_results":
		return strconv.Itoa(c.Launcher.MaxResults), nil
	case "include_unmatched":
		return strconv.FormatBool(c.Launcher.IncludeUnmatched), nil
	case "exit_on_activate":
		return strconv.FormatBool(c.Launcher.ExitOnActivate), nil
	default:
		return "", fmt.Errorf("unknown field: launcher.%s", field)
	}
}

func (c *Config) setLauncherField(field, value string) error {
	switch field {
	case "trigger":
		if !isValidTrigger(value) {
			return fmt.Errorf("invalid trigger: %q (must be non-empty with no whitespace)", value)
		}
		c.Launcher.Trigger = value
	case "max_results":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_results: %w", err)
		}
		if v < 1 || v > MaxResultsLimit {
			return fmt.Errorf("invalid max_results: must be between 1 and %d", MaxResultsLimit)
		}
		c.Launcher.MaxResults = v
	case "include_unmatched":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for include_unmatched: %w", err)
		}
		c.Launcher.IncludeUnmatched = v
	case "exit_on_activate":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for exit_on_activate: %w", err)
		}
		c.Launcher.ExitOnActivate = v
	default:
		return fmt.Errorf("unknown field: launcher.%s", field)
	}
	return nil
}

func (c *Config) getSourceField(field string) (string, error) {
	switch field {
	case "type":
		return c.Source.Type, nil
	case "profile":
		return c.Source.Profile, nil
	case "path":
		return c.Source.Path, nil
	case "max_records":
		return strconv.Itoa(c.Source.MaxRecords), nil
	case "load_timeout_ms":
		return strconv.Itoa(c.Source.LoadTimeoutMs), nil
	case "staging_dir":
		return c.Source.StagingDir, nil
	default:
		return "", fmt.Errorf("unknown field: source.%s", field)
	}
}

func (c *Config) setSourceField(field, value string) error {
	switch field {
	case "type":
		if !isValidSourceType(value) {
			return fmt.Errorf("invalid type: %s (must be chrome, chromium, brave, firefox, or tsv)", value)
		}
		c.Source.Type = value
	case "profile":
		c.Source.Profile = value
	case "path":
		c.Source.Path = value
	case "max_records":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_records: %w", err)
		}
		if v < 0 {
			return errors.New("invalid max_records: must be non-negative")
		}
		c.Source.MaxRecords = v
	case "load_timeout_ms":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for load_timeout_ms: %w", err)
		}
		if v < 0 {
			return errors.New("invalid load_timeout_ms: must be non-negative")
		}
		c.Source.LoadTimeoutMs = v
	case "staging_dir":
		c.Source.StagingDir = value
	default:
		return fmt.Errorf("unknown field: source.%s", field)
	}
	return nil
}

func (c *Config) getOpenField(field string) (string, error) {
	switch field {
	case "command":
		return c.Open.Command, nil
	default:
		return "", fmt.Errorf("unknown field: open.%s", field)
	}
}

func (c *Config) setOpenField(field, value string) error {
	switch field {
	case "command":
		if err := validateCommand(value); err != nil {
			return err
		}
		c.Open.Command = value
	default:
		return fmt.Errorf("unknown field: open.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !isValidTrigger(c.Launcher.Trigger) {
		return fmt.Errorf("launcher.trigger must be non-empty with no whitespace (got: %q)", c.Launcher.Trigger)
	}

	if c.Launcher.MaxResults < 1 || c.Launcher.MaxResults > MaxResultsLimit {
		return fmt.Errorf("launcher.max_results must be between 1 and %d", MaxResultsLimit)
	}

	if !isValidSourceType(c.Source.Type) {
		return fmt.Errorf("source.type must be chrome, chromium, brave, firefox, or tsv (got: %s)", c.Source.Type)
	}

	if c.Source.Type == "tsv" && c.Source.Path == "" {
		return errors.New("source.path is required for source.type tsv")
	}

	if c.Source.MaxRecords < 0 {
		return errors.New("source.max_records must be >= 0")
	}

	if c.Source.LoadTimeoutMs < 0 {
		return errors.New("source.load_timeout_ms must be >= 0")
	}

	if err := validateCommand(c.Open.Command); err != nil {
		return fmt.Errorf("open.command: %w", err)
	}

	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidSourceType(typ string) bool {
	switch typ {
	case "chrome", "chromium", "brave", "firefox", "tsv":
		return true
	default:
		return false
	}
}

func isValidTrigger(trigger string) bool {
	return trigger != "" && !strings.ContainsFunc(trigger, unicode.IsSpace)
}

// validateCommand checks that a non-empty command template splits into at
// least one argument. An empty template selects the default opener.
func validateCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return nil
	}
	argv, err := shlex.Split(command)
	if err != nil {
		return fmt.Errorf("invalid command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("invalid command %q: no program", command)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("HISTLAUNCH_TRIGGER"); v != "" {
		if isValidTrigger(v) {
			c.Launcher.Trigger = v
		}
	}
	if v := os.Getenv("HISTLAUNCH_SOURCE"); v != "" {
		if isValidSourceType(v) {
			c.Source.Type = v
		}
	}
	if v := os.Getenv("HISTLAUNCH_HISTORY_PATH"); v != "" {
		c.Source.Path = v
	}
	if v := os.Getenv("HISTLAUNCH_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
	if v := os.Getenv("HISTLAUNCH_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"launcher.trigger",
		"launcher.max_results",
		"launcher.include_unmatched",
		"launcher.exit_on_activate",
		"source.type",
		"source.profile",
		"source.path",
		"source.max_records",
		"source.load_timeout_ms",
		"source.staging_dir",
		"open.command",
		"log.level",
		"log.file",
	}
}
