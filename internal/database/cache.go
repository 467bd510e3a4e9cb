package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/proxyfinder/internal/model"
)

// FileName is the name of the cache database inside the data directory.
const FileName = "proxyfinder.db"

// CandidateCache stores the last listing of every discovery source in SQLite.
// It satisfies discovery.Cache.
type CandidateCache struct {
	db     *sql.DB
	dbPath string

	// now is the clock used for fetched_at and freshness checks.
	now func() time.Time
}

// Options configures CandidateCache behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// SourceEntry describes one cached listing without its candidates.
type SourceEntry struct {
	Source      string
	Count       int
	Fingerprint string
	FetchedAt   time.Time
}

// Open opens or creates the cache database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CandidateCache, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cc := &CandidateCache{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cc.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cc, nil
}

// Close closes the database connection.
func (cc *CandidateCache) Close() error {
	return cc.db.Close()
}

// Path returns the database file path.
func (cc *CandidateCache) Path() string {
	return cc.dbPath
}

func (cc *CandidateCache) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS candidate_lists (
		source TEXT PRIMARY KEY,
		candidates TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		count INTEGER NOT NULL,
		fetched_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lists_fetched_at ON candidate_lists(fetched_at);
	`

	_, err := cc.db.ExecContext(context.Background(), schema)
	return err
}

// Save replaces the cached listing of source. When the listing is unchanged
// only its fetch time is refreshed.
func (cc *CandidateCache) Save(ctx context.Context, source string, candidates []model.Candidate) error {
	fingerprint := Fingerprint(candidates)
	fetchedAt := cc.now().UTC().Format(time.RFC3339Nano)

	var current string
	err := cc.db.QueryRowContext(ctx,
		"SELECT fingerprint FROM candidate_lists WHERE source = ?", source).Scan(&current)
	switch {
	case err == nil && current == fingerprint:
		if _, err := cc.db.ExecContext(ctx,
			"UPDATE candidate_lists SET fetched_at = ? WHERE source = ?", fetchedAt, source); err != nil {
			return fmt.Errorf("failed to refresh cached listing: %w", err)
		}
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to read cached fingerprint: %w", err)
	}

	if candidates == nil {
		candidates = []model.Candidate{}
	}
	data, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("failed to serialize candidates: %w", err)
	}

	query := `
	INSERT INTO candidate_lists (source, candidates, fingerprint, count, fetched_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(source) DO UPDATE SET
		candidates = excluded.candidates,
		fingerprint = excluded.fingerprint,
		count = excluded.count,
		fetched_at = excluded.fetched_at
	`
	if _, err := cc.db.ExecContext(ctx, query, source, string(data), fingerprint, len(candidates), fetchedAt); err != nil {
		return fmt.Errorf("failed to save cached listing: %w", err)
	}
	return nil
}

// Load returns the cached listing of source if it was fetched within maxAge.
// A maxAge of zero or less accepts an entry of any age.
func (cc *CandidateCache) Load(ctx context.Context, source string, maxAge time.Duration) ([]model.Candidate, bool, error) {
	var data, fetchedAt string
	err := cc.db.QueryRowContext(ctx,
		"SELECT candidates, fetched_at FROM candidate_lists WHERE source = ?", source).Scan(&data, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load cached listing: %w", err)
	}

	if maxAge > 0 && cc.now().Sub(parseTimestamp(fetchedAt)) > maxAge {
		return nil, false, nil
	}

	var candidates []model.Candidate
	if err := json.Unmarshal([]byte(data), &candidates); err != nil {
		return nil, false, fmt.Errorf("failed to parse cached listing: %w", err)
	}
	return candidates, true, nil
}

// ListSources returns metadata for every cached listing, ordered by source name.
func (cc *CandidateCache) ListSources(ctx context.Context) ([]SourceEntry, error) {
	rows, err := cc.db.QueryContext(ctx,
		"SELECT source, count, fingerprint, fetched_at FROM candidate_lists")
	if err != nil {
		return nil, fmt.Errorf("failed to list cached sources: %w", err)
	}
	defer rows.Close()

	var entries []SourceEntry
	for rows.Next() {
		var e SourceEntry
		var fetchedAt string
		if err := rows.Scan(&e.Source, &e.Count, &e.Fingerprint, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cached source: %w", err)
		}
		e.FetchedAt = parseTimestamp(fetchedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Source < entries[j].Source })
	return entries, nil
}

// Purge deletes listings fetched more than olderThan ago and returns how many were removed.
func (cc *CandidateCache) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	entries, err := cc.ListSources(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := cc.now().Add(-olderThan)
	var removed int64
	for _, e := range entries {
		if !e.FetchedAt.Before(cutoff) {
			continue
		}
		res, err := cc.db.ExecContext(ctx, "DELETE FROM candidate_lists WHERE source = ?", e.Source)
		if err != nil {
			return removed, fmt.Errorf("failed to purge %s: %w", e.Source, err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return removed, nil
}

// Clear deletes every cached listing and returns how many were removed.
func (cc *CandidateCache) Clear(ctx context.Context) (int64, error) {
	res, err := cc.db.ExecContext(ctx, "DELETE FROM candidate_lists")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	return res.RowsAffected()
}

// Fingerprint returns a hex SHA3-256 digest of candidates in order.
func Fingerprint(candidates []model.Candidate) string {
	h := sha3.New256()
	for _, c := range candidates {
		_, _ = h.Write([]byte(c.String()))
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses s with each known format, returning zero time if none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
