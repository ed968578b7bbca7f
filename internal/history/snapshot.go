package history

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// Snapshotter supplies history entries in most-recent-first order.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]Entry, error)
}

// SourceType names a history source.
type SourceType string

// Supported source types.
const (
	SourceChrome   SourceType = "chrome"
	SourceChromium SourceType = "chromium"
	SourceBrave    SourceType = "brave"
	SourceFirefox  SourceType = "firefox"
	SourceTSV      SourceType = "tsv"
)

// SourceTypes lists the supported source types.
func SourceTypes() []SourceType {
	return []SourceType{SourceChrome, SourceChromium, SourceBrave, SourceFirefox, SourceTSV}
}

var (
	// ErrSnapshotNotFound is returned when the history database does not exist.
	ErrSnapshotNotFound = errors.New("history database not found")

	// ErrUnknownSource is returned for an unsupported source type.
	ErrUnknownSource = errors.New("unknown history source")
)

const (
	chromiumQuery = `SELECT COALESCE(title, ''), url FROM urls ORDER BY last_visit_time DESC`
	firefoxQuery  = `SELECT COALESCE(title, ''), url FROM moz_places
		WHERE last_visit_date IS NOT NULL ORDER BY last_visit_date DESC`
)

// SourceOptions configures NewSource.
type SourceOptions struct {
	Type       SourceType
	Path       string // explicit database or export path
	Profile    string // browser profile directory name
	MaxRecords int    // 0 = no limit
	StagingDir string // directory for private database copies; "" = os.TempDir()
}

// NewSource returns the Snapshotter for opts. Browser paths are resolved
// from the user's home directory when opts.Path is empty.
func NewSource(opts SourceOptions) (Snapshotter, error) {
	switch opts.Type {
	case SourceTSV:
		if opts.Path == "" {
			return nil, errors.New("tsv source requires a path")
		}
		return &TSVSource{Path: opts.Path, MaxRecords: opts.MaxRecords}, nil
	case SourceChrome, SourceChromium, SourceBrave, SourceFirefox:
		path := opts.Path
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			path = DefaultPath(opts.Type, opts.Profile, home, runtime.GOOS)
		}
		return &SQLiteSource{
			Type:       opts.Type,
			Path:       path,
			MaxRecords: opts.MaxRecords,
			StagingDir: opts.StagingDir,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, opts.Type)
	}
}

// DefaultPath returns the usual history database location for a browser.
// For Firefox the first profile matching *.default* is used unless profile
// names one explicitly.
func DefaultPath(typ SourceType, profile, home, goos string) string {
	if profile == "" {
		profile = "Default"
	}

	configDir := filepath.Join(home, ".config")
	if goos == "darwin" {
		configDir = filepath.Join(home, "Library", "Application Support")
	}

	switch typ {
	case SourceChrome:
		vendor := "google-chrome"
		if goos == "darwin" {
			vendor = filepath.Join("Google", "Chrome")
		}
		return filepath.Join(configDir, vendor, profile, "History")
	case SourceChromium:
		vendor := "chromium"
		if goos == "darwin" {
			vendor = "Chromium"
		}
		return filepath.Join(configDir, vendor, profile, "History")
	case SourceBrave:
		return filepath.Join(configDir, "BraveSoftware", "Brave-Browser", profile, "History")
	case SourceFirefox:
		root := filepath.Join(home, ".mozilla", "firefox")
		if goos == "darwin" {
			root = filepath.Join(configDir, "Firefox", "Profiles")
		}
		if profile != "Default" {
			return filepath.Join(root, profile, "places.sqlite")
		}
		matches, _ := filepath.Glob(filepath.Join(root, "*.default*", "places.sqlite"))
		if len(matches) == 0 {
			return filepath.Join(root, "default", "places.sqlite")
		}
		sort.Strings(matches)
		return matches[0]
	default:
		return ""
	}
}

// SQLiteSource reads a browser history database. The live database is
// locked by a running browser, so it is copied to a private staging file
// first; the copy is removed before Snapshot returns.
type SQLiteSource struct {
	Type       SourceType
	Path       string
	MaxRecords int
	StagingDir string
}

// Compile-time check that SQLiteSource implements Snapshotter.
var _ Snapshotter = (*SQLiteSource)(nil)

// String describes the source for diagnostics.
func (s *SQLiteSource) String() string {
	return fmt.Sprintf("%s:%s", s.Type, s.Path)
}

// Snapshot copies the database and returns its entries, most recent first.
func (s *SQLiteSource) Snapshot(ctx context.Context) ([]Entry, error) {
	query, err := queryFor(s.Type)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(s.Path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, s.Path)
		}
		return nil, fmt.Errorf("failed to stat history database: %w", err)
	}

	staged, cleanup, err := stage(s.Path, s.StagingDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// The staged copy is private; query_only guards against accidental writes
	// while still allowing WAL recovery on open.
	dsn := fmt.Sprintf("file:%s?_pragma=query_only(1)&_pragma=busy_timeout(1000)", staged)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	var args []any
	if s.MaxRecords > 0 {
		query += " LIMIT ?"
		args = append(args, s.MaxRecords)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var title string
		var url sql.NullString
		if err := rows.Scan(&title, &url); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if !url.Valid {
			continue
		}
		entries = append(entries, Entry{Title: title, Target: url.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}

	return entries, nil
}

func queryFor(typ SourceType) (string, error) {
	switch typ {
	case SourceChrome, SourceChromium, SourceBrave:
		return chromiumQuery, nil
	case SourceFirefox:
		return firefoxQuery, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, typ)
	}
}

// stagingSuffixes are the SQLite side files that may accompany a database.
var stagingSuffixes = []string{"", "-wal", "-shm", "-journal"}

// stage copies src (and its WAL file, if any) to a uniquely named file in
// dir. The returned cleanup removes every file SQLite may have created next
// to the copy and is safe to call on all paths.
func stage(src, dir string) (string, func(), error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", func() {}, fmt.Errorf("failed to create staging directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "histlaunch-*.db")
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to create staging file: %w", err)
	}
	path := tmp.Name()
	cleanup := func() {
		for _, suffix := range stagingSuffixes {
			_ = os.Remove(path + suffix)
		}
	}

	err = copyInto(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("failed to copy history database: %w", err)
	}

	if _, err := os.Stat(src + "-wal"); err == nil {
		if err := copyFile(src+"-wal", path+"-wal"); err != nil {
			cleanup()
			return "", func() {}, fmt.Errorf("failed to copy history WAL: %w", err)
		}
	}

	return path, cleanup, nil
}

func copyInto(dst io.Writer, src string) error {
	in, err := os.Open(src) //nolint:gosec // G304: path is the configured history database
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.Copy(dst, in)
	return err
}

func copyFile(src, dst string) error {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600) //nolint:gosec // G304: dst is derived from our staging file
	if err != nil {
		return err
	}
	err = copyInto(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}

// TSVSource reads an exported history file with one "title<TAB>url" entry
// per line, most recent first. Lines without a tab are taken as bare URLs.
type TSVSource struct {
	Path       string
	MaxRecords int
}

// Compile-time check that TSVSource implements Snapshotter.
var _ Snapshotter = (*TSVSource)(nil)

// String describes the source for diagnostics.
func (s *TSVSource) String() string {
	return fmt.Sprintf("%s:%s", SourceTSV, s.Path)
}

// Snapshot parses the export file.
func (s *TSVSource) Snapshot(ctx context.Context) ([]Entry, error) {
	file, err := os.Open(s.Path) //nolint:gosec // G304: path is the configured export file
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, s.Path)
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var entries []Entry
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		var e Entry
		if title, url, ok := strings.Cut(line, "\t"); ok {
			e = Entry{Title: title, Target: url}
		} else {
			e = Entry{Target: line}
		}
		entries = append(entries, e)

		if s.MaxRecords > 0 && len(entries) >= s.MaxRecords {
			break
		}
	}

	return entries, scanner.Err()
}
