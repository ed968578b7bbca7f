package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHistory = "Rust Programming\thttps://rust-lang.org\n" +
	"Random blog\thttps://example.com\n" +
	"Rustaceans unite\thttps://example.org\n"

// setupEnv points histlaunch at a temporary config that reads a TSV history
// file, and clears environment overrides.
func setupEnv(t *testing.T, extraConfig string) (configPath, logPath string) {
	t.Helper()

	dir := t.TempDir()
	historyPath := filepath.Join(dir, "history.tsv")
	require.NoError(t, os.WriteFile(historyPath, []byte(testHistory), 0o600))

	configPath = filepath.Join(dir, "config.yaml")
	logPath = filepath.Join(dir, "logs", "histlaunch.log")
	cfg := "source:\n  type: tsv\n  path: " + historyPath + "\n" +
		"log:\n  level: debug\n  file: " + logPath + "\n" + extraConfig
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))

	t.Setenv("HISTLAUNCH_CONFIG", configPath)
	for _, key := range []string{"HISTLAUNCH_TRIGGER", "HISTLAUNCH_SOURCE", "HISTLAUNCH_HISTORY_PATH", "HISTLAUNCH_LOG_LEVEL", "HISTLAUNCH_DEBUG"} {
		t.Setenv(key, "")
	}
	t.Setenv("COLUMNS", "100")
	t.Setenv("NO_COLOR", "1")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "xdg-data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "xdg-cache"))
	return configPath, logPath
}

// executeRoot runs the root command with args and stdin, resetting flag
// state left over from earlier runs.
func executeRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	searchLimit, searchSource, searchPath = 0, "", ""
	openSource, openPath = "", ""
	configShowPath = false

	// cobra falls back to os.Args for nil args
	if args == nil {
		args = []string{}
	}

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestServe_SearchAndExit(t *testing.T) {
	_, logPath := setupEnv(t, "")

	out, err := executeRoot(t, `{"Search":"ch rust"}`+"\n"+`{"Complete":1}`+"\n"+`"Exit"`+"\n", "serve")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"name":"Rust Programming"`)
	assert.Contains(t, lines[1], `"name":"Rustaceans unite"`)
	assert.Equal(t, `"Finished"`, lines[2])
	assert.Equal(t, `{"Fill":"ch Rustaceans unite"}`, lines[3])

	logs, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "plugin started")
	assert.Contains(t, string(logs), `"records":3`)
	assert.Contains(t, string(logs), "plugin shutting down")
}

func TestServe_IsDefaultCommand(t *testing.T) {
	setupEnv(t, "launcher:\n  trigger: hs\n")

	out, err := executeRoot(t, `{"Search":"ch rust"}`+"\n"+`{"Search":"hs "}`+"\n")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// "ch" is not the trigger any more; "hs " lists all three records.
	require.Len(t, lines, 5)
	assert.Equal(t, `"Finished"`, lines[0])
	assert.Equal(t, `"Finished"`, lines[4])
}

func TestServe_MissingHistoryServesEmptyStore(t *testing.T) {
	_, logPath := setupEnv(t, "")
	t.Setenv("HISTLAUNCH_HISTORY_PATH", filepath.Join(t.TempDir(), "missing.tsv"))

	out, err := executeRoot(t, `{"Search":"ch rust"}`+"\n", "serve")
	require.NoError(t, err)
	assert.Equal(t, "\"Finished\"\n", out)

	logs, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "history load failed")
}

func TestServe_InvalidConfigFallsBackToDefaults(t *testing.T) {
	configPath, _ := setupEnv(t, "")
	require.NoError(t, os.WriteFile(configPath, []byte("launcher:\n  max_results: 0\n"), 0o600))
	// Defaults read Chrome history from a home directory without one.
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	out, err := executeRoot(t, `{"Search":"ch rust"}`+"\n", "serve")
	require.NoError(t, err)
	assert.Equal(t, "\"Finished\"\n", out)
}

func TestServe_DefaultLogCreatesDataDirectories(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("default paths use APPDATA on windows")
	}
	configPath, _ := setupEnv(t, "")
	historyPath := filepath.Join(filepath.Dir(configPath), "history.tsv")
	require.NoError(t, os.WriteFile(configPath, []byte("source:\n  type: tsv\n  path: "+historyPath+"\n"), 0o600))

	_, err := executeRoot(t, `"Exit"`+"\n", "serve")
	require.NoError(t, err)

	dataDir := filepath.Join(os.Getenv("XDG_DATA_HOME"), "histlaunch")
	assert.DirExists(t, filepath.Join(os.Getenv("XDG_CACHE_HOME"), "histlaunch"))
	assert.FileExists(t, filepath.Join(dataDir, "logs", "histlaunch.log"))
}

func TestSearch(t *testing.T) {
	setupEnv(t, "")

	out, err := executeRoot(t, "", "search", "rust")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Rust Programming")
	assert.Contains(t, lines[0], "https://rust-lang.org")
	assert.Contains(t, lines[1], "Rustaceans unite")
	assert.True(t, strings.HasPrefix(lines[0], "  0  "), "id is right-aligned: %q", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  1  "), "id is right-aligned: %q", lines[1])
}

func TestSearch_Limit(t *testing.T) {
	setupEnv(t, "")

	out, err := executeRoot(t, "", "search", "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "Rust Programming")
}

func TestSearch_NoMatches(t *testing.T) {
	setupEnv(t, "")

	out, err := executeRoot(t, "", "search", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No history entries matching 'zzz'")
}

func TestSearch_PathFlag(t *testing.T) {
	setupEnv(t, "")
	other := filepath.Join(t.TempDir(), "other.tsv")
	require.NoError(t, os.WriteFile(other, []byte("Go Modules\thttps://go.dev/ref/mod\n"), 0o600))

	out, err := executeRoot(t, "", "search", "--source", "tsv", "--path", other, "go")
	require.NoError(t, err)
	assert.Contains(t, out, "Go Modules")
	assert.NotContains(t, out, "Rust")
}

func TestSearch_LoadFailure(t *testing.T) {
	setupEnv(t, "")

	_, err := executeRoot(t, "", "search", "--path", filepath.Join(t.TempDir(), "missing.tsv"), "rust")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load history")
}

func TestSearch_InvalidSource(t *testing.T) {
	setupEnv(t, "")

	_, err := executeRoot(t, "", "search", "--source", "netscape", "rust")
	assert.Error(t, err)
}

func TestOpen_Errors(t *testing.T) {
	setupEnv(t, "")

	_, err := executeRoot(t, "", "open", "first", "rust")
	assert.ErrorContains(t, err, "invalid result number")

	_, err = executeRoot(t, "", "open", "5", "rust")
	assert.ErrorContains(t, err, "result 5 not found")
}

func TestOpen_RunsCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script opener")
	}
	dir := t.TempDir()
	marker := filepath.Join(dir, "opened")
	script := filepath.Join(dir, "fake-open")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$1\" > "+marker+"\n"), 0o700)) //nolint:gosec // test script must be executable

	setupEnv(t, "open:\n  command: "+script+"\n")

	out, err := executeRoot(t, "", "open", "1", "rust")
	require.NoError(t, err)
	assert.Contains(t, out, "Opened https://example.org")

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(marker)
		return err == nil && strings.TrimSpace(string(data)) == "https://example.org"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestConfigCmd_GetSetList(t *testing.T) {
	configPath, _ := setupEnv(t, "")

	out, err := executeRoot(t, "", "config", "source.type")
	require.NoError(t, err)
	assert.Equal(t, "tsv\n", out)

	out, err = executeRoot(t, "", "config", "launcher.max_results", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "launcher.max_results = 3")
	assert.Contains(t, out, "Saved to: "+configPath)

	out, err = executeRoot(t, "", "config", "launcher.max_results")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	out, err = executeRoot(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "launcher.trigger = ch")
	assert.Contains(t, out, "source.staging_dir = (not set)")
	assert.Contains(t, out, "Config file: "+configPath)

	out, err = executeRoot(t, "", "config", "--path")
	require.NoError(t, err)
	assert.Equal(t, configPath+"\n", out)
}

func TestConfigCmd_SetInvalid(t *testing.T) {
	setupEnv(t, "")

	_, err := executeRoot(t, "", "config", "launcher.trigger", "c h")
	assert.Error(t, err)

	_, err = executeRoot(t, "", "config", "nope.key")
	assert.ErrorContains(t, err, "unknown section")
}

func TestVersionCmd(t *testing.T) {
	out, err := executeRoot(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "histlaunch "+Version)
	assert.Contains(t, out, "commit: "+GitCommit)
}
