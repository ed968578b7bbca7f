package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Check defaults
	if cfg.Launcher.Trigger != "ch" {
		t.Errorf("Expected trigger=ch, got %s", cfg.Launcher.Trigger)
	}
	if cfg.Launcher.MaxResults != 8 {
		t.Errorf("Expected max_results=8, got %d", cfg.Launcher.MaxResults)
	}
	if cfg.Launcher.IncludeUnmatched {
		t.Error("Expected include_unmatched=false by default")
	}
	if cfg.Launcher.ExitOnActivate {
		t.Error("Expected exit_on_activate=false by default")
	}
	if cfg.Source.Type != "chrome" {
		t.Errorf("Expected source.type=chrome, got %s", cfg.Source.Type)
	}
	if cfg.Source.Profile != "Default" {
		t.Errorf("Expected profile=Default, got %s", cfg.Source.Profile)
	}
	if cfg.LoadTimeout() != 5*time.Second {
		t.Errorf("Expected load timeout 5s, got %s", cfg.LoadTimeout())
	}
	if cfg.Open.Command != "xdg-open" {
		t.Errorf("Expected open.command=xdg-open, got %s", cfg.Open.Command)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected log.level=info, got %s", cfg.Log.Level)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid: %v", err)
	}
}

// ============================================================================
// Get/Set tests
// ============================================================================

func TestConfigGet(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		key      string
		expected string
	}{
		{"launcher.trigger", "ch"},
		{"launcher.max_results", "8"},
		{"launcher.include_unmatched", "false"},
		{"launcher.exit_on_activate", "false"},
		{"source.type", "chrome"},
		{"source.profile", "Default"},
		{"source.path", ""},
		{"source.max_records", "0"},
		{"source.load_timeout_ms", "5000"},
		{"source.staging_dir", ""},
		{"open.command", "xdg-open"},
		{"log.level", "info"},
		{"log.file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) failed: %v", tt.key, err)
			}
			if got != tt.expected {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestConfigSet(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"launcher.trigger", "hs"},
		{"launcher.max_results", "20"},
		{"launcher.include_unmatched", "true"},
		{"launcher.exit_on_activate", "true"},
		{"source.type", "firefox"},
		{"source.profile", "abc.default-release"},
		{"source.path", "/tmp/places.sqlite"},
		{"source.max_records", "5000"},
		{"source.load_timeout_ms", "250"},
		{"source.staging_dir", "/tmp/staging"},
		{"open.command", "firefox --new-tab {}"},
		{"log.level", "debug"},
		{"log.file", "/tmp/histlaunch.log"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q, %q) failed: %v", tt.key, tt.value, err)
			}
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) failed: %v", tt.key, err)
			}
			if got != tt.value {
				t.Errorf("after Set, Get(%q) = %q, want %q", tt.key, got, tt.value)
			}
		})
	}
}

func TestConfigGetInvalidKey(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		key     string
		wantErr string
	}{
		{"launcher", "section.key"},
		{"a.b.c", "section.key"},
		{"daemon.log_level", "unknown section"},
		{"launcher.nope", "unknown field"},
		{"source.browser", "unknown field"},
		{"open.args", "unknown field"},
		{"log.format", "unknown field"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := cfg.Get(tt.key)
			if err == nil {
				t.Fatalf("Get(%q) should fail", tt.key)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Get(%q) error = %v, want it to contain %q", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestConfigSetInvalidValue(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"launcher.trigger", ""},
		{"launcher.trigger", "c h"},
		{"launcher.max_results", "zero"},
		{"launcher.max_results", "0"},
		{"launcher.max_results", "4294967296"},
		{"launcher.include_unmatched", "maybe"},
		{"launcher.exit_on_activate", "sometimes"},
		{"source.type", "netscape"},
		{"source.max_records", "-1"},
		{"source.max_records", "lots"},
		{"source.load_timeout_ms", "-5"},
		{"open.command", `firefox "unterminated`},
		{"log.level", "verbose"},
		{"nope.key", "x"},
		{"launcher.unknown", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.Set(tt.key, tt.value); err == nil {
				t.Errorf("Set(%q, %q) should fail", tt.key, tt.value)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty trigger", func(c *Config) { c.Launcher.Trigger = "" }, true},
		{"trigger with space", func(c *Config) { c.Launcher.Trigger = "c h" }, true},
		{"zero max results", func(c *Config) { c.Launcher.MaxResults = 0 }, true},
		{"max results at limit", func(c *Config) { c.Launcher.MaxResults = MaxResultsLimit }, false},
		{"max results over limit", func(c *Config) { c.Launcher.MaxResults = MaxResultsLimit + 1 }, true},
		{"unknown source", func(c *Config) { c.Source.Type = "opera" }, true},
		{"tsv without path", func(c *Config) { c.Source.Type = "tsv" }, true},
		{"tsv with path", func(c *Config) { c.Source.Type = "tsv"; c.Source.Path = "/tmp/h.tsv" }, false},
		{"negative max records", func(c *Config) { c.Source.MaxRecords = -1 }, true},
		{"negative timeout", func(c *Config) { c.Source.LoadTimeoutMs = -1 }, true},
		{"zero timeout", func(c *Config) { c.Source.LoadTimeoutMs = 0 }, false},
		{"empty open command", func(c *Config) { c.Open.Command = "" }, false},
		{"comment-only open command", func(c *Config) { c.Open.Command = "# nothing" }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// ============================================================================
// Environment override tests
// ============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("HISTLAUNCH_TRIGGER", "hs")
	t.Setenv("HISTLAUNCH_SOURCE", "firefox")
	t.Setenv("HISTLAUNCH_HISTORY_PATH", "/tmp/places.sqlite")
	t.Setenv("HISTLAUNCH_LOG_LEVEL", "warn")
	t.Setenv("HISTLAUNCH_DEBUG", "")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Launcher.Trigger != "hs" {
		t.Errorf("Expected trigger=hs, got %s", cfg.Launcher.Trigger)
	}
	if cfg.Source.Type != "firefox" {
		t.Errorf("Expected source.type=firefox, got %s", cfg.Source.Type)
	}
	if cfg.Source.Path != "/tmp/places.sqlite" {
		t.Errorf("Expected source.path override, got %s", cfg.Source.Path)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected log.level=warn, got %s", cfg.Log.Level)
	}
}

func TestApplyEnvOverrides_DebugWins(t *testing.T) {
	t.Setenv("HISTLAUNCH_LOG_LEVEL", "error")
	t.Setenv("HISTLAUNCH_DEBUG", "1")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Log.Level != "debug" {
		t.Errorf("HISTLAUNCH_DEBUG=1 should force debug, got %s", cfg.Log.Level)
	}
}

func TestApplyEnvOverrides_IgnoresInvalid(t *testing.T) {
	t.Setenv("HISTLAUNCH_TRIGGER", "c h")
	t.Setenv("HISTLAUNCH_SOURCE", "netscape")
	t.Setenv("HISTLAUNCH_LOG_LEVEL", "loud")
	t.Setenv("HISTLAUNCH_DEBUG", "nope")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		t.Errorf("invalid env values should be ignored: %v", err)
	}
	if cfg.Launcher.Trigger != "ch" || cfg.Source.Type != "chrome" || cfg.Log.Level != "info" {
		t.Errorf("invalid env values changed config: %+v", cfg)
	}
}

func TestPath_EnvOverride(t *testing.T) {
	t.Setenv("HISTLAUNCH_CONFIG", "/etc/histlaunch.yaml")

	if got := Path(); got != "/etc/histlaunch.yaml" {
		t.Errorf("Path() = %s, want /etc/histlaunch.yaml", got)
	}
}

// ============================================================================
// File I/O tests
// ============================================================================

func TestLoadFromFile_NonExistent(t *testing.T) {
	cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadFromFile should return defaults for nonexistent file: %v", err)
	}

	if cfg.Launcher.MaxResults != 8 {
		t.Errorf("Expected default max_results=8, got %d", cfg.Launcher.MaxResults)
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := `
launcher:
  max_results: [not valid yaml
  this is broken
`
	if err := os.WriteFile(configFile, []byte(invalidYAML), 0o644); err != nil {
		t.Fatalf("Failed to write invalid YAML: %v", err)
	}

	_, err := LoadFromFile(configFile)
	if err == nil {
		t.Error("LoadFromFile should have returned an error for invalid YAML")
	}
}

func TestLoadFromFile_InvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte("source:\n  type: opera\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := LoadFromFile(configFile)
	if err == nil || !strings.Contains(err.Error(), "source.type") {
		t.Errorf("Expected source.type validation error, got %v", err)
	}
}

func TestLoadFromFile_PartialConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	partialYAML := `
launcher:
  trigger: hs
source:
  type: firefox
  max_records: 200
`
	if err := os.WriteFile(configFile, []byte(partialYAML), 0o644); err != nil {
		t.Fatalf("Failed to write partial YAML: %v", err)
	}

	cfg, err := LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	// Check that specified values were loaded
	if cfg.Launcher.Trigger != "hs" {
		t.Errorf("Expected trigger=hs, got %s", cfg.Launcher.Trigger)
	}
	if cfg.Source.Type != "firefox" {
		t.Errorf("Expected source.type=firefox, got %s", cfg.Source.Type)
	}
	if cfg.Source.MaxRecords != 200 {
		t.Errorf("Expected max_records=200, got %d", cfg.Source.MaxRecords)
	}

	// Check that other fields have default values
	if cfg.Launcher.MaxResults != 8 {
		t.Errorf("Expected default max_results=8, got %d", cfg.Launcher.MaxResults)
	}
	if cfg.Open.Command != "xdg-open" {
		t.Errorf("Expected default open.command, got %s", cfg.Open.Command)
	}
}

func TestLoadFromFile_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte(""), 0o644); err != nil {
		t.Fatalf("Failed to write empty file: %v", err)
	}

	cfg, err := LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("LoadFromFile failed for empty file: %v", err)
	}

	if cfg.Launcher.Trigger != "ch" {
		t.Errorf("Expected default trigger=ch, got %s", cfg.Launcher.Trigger)
	}
}

func TestLoadFromFile_ReadError(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a subdirectory and try to read it as a file
	subDir := filepath.Join(tmpDir, "subdir")
	if err := os.Mkdir(subDir, 0o755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	_, err := LoadFromFile(subDir)
	if err == nil {
		t.Error("LoadFromFile should have returned an error when reading a directory")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "nested", "config.yaml")

	// Create config with custom values
	cfg := DefaultConfig()
	cfg.Launcher.MaxResults = 12
	cfg.Launcher.IncludeUnmatched = true
	cfg.Source.Type = "brave"
	cfg.Open.Command = "brave-browser {}"

	// Save
	if err := cfg.SaveToFile(configFile); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	// Load
	loaded, err := LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	// Verify
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

// ============================================================================
// ListKeys tests
// ============================================================================

func TestListKeysAllGettable(t *testing.T) {
	cfg := DefaultConfig()
	keys := ListKeys()

	if len(keys) == 0 {
		t.Fatal("ListKeys returned empty list")
	}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			_, err := cfg.Get(key)
			if err != nil {
				t.Errorf("Get(%q) failed for key from ListKeys: %v", key, err)
			}
		})
	}
}

func TestListKeysAllSettable(t *testing.T) {
	cfg := DefaultConfig()

	for _, key := range ListKeys() {
		t.Run(key, func(t *testing.T) {
			value, err := cfg.Get(key)
			if err != nil {
				t.Fatalf("Get(%q) failed: %v", key, err)
			}
			if err := DefaultConfig().Set(key, value); err != nil {
				t.Errorf("Set(%q, %q) failed for key from ListKeys: %v", key, value, err)
			}
		})
	}
}
