// Package store persists raw scrape records and per-node detail rows
// in SQLite. Each source writes to its own table keyed by the source's
// raw identifier, so concurrent scrape runs from different sources
// never contend; re-scraping upserts idempotently instead of
// appending duplicates. Catalog builds read the store, they never
// write it.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/agentstation/nodeatlas/internal/store/migrations"
	"github.com/agentstation/nodeatlas/pkg/constants"
	"github.com/agentstation/nodeatlas/pkg/errors"
	"github.com/agentstation/nodeatlas/pkg/sources"
)

// DefaultFile is the database filename used when Open is given a
// directory or an empty path.
const DefaultFile = "nodeatlas.db"

// Normalizer maps a raw identifier to its canonical casing. Detail
// writes are keyed through it so detail rows always use canonical
// identifiers.
type Normalizer func(string) string

// Store is the SQLite-backed record store.
type Store struct {
	db        *sql.DB
	path      string
	normalize Normalizer
}

// Option configures a Store.
type Option func(*Store)

// WithNormalizer sets the identifier normalizer applied to detail
// writes. Without it, identifiers are stored as given.
func WithNormalizer(n Normalizer) Option {
	return func(s *Store) { s.normalize = n }
}

// Open opens (creating if needed) the store at path. A path naming a
// directory, or an empty path, gets DefaultFile appended; the parent
// directory is created. The schema is migrated to the latest version.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.WrapIO("resolve", "home directory", err)
		}
		path = filepath.Join(home, ".nodeatlas")
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFile)
	} else if filepath.Ext(path) == "" {
		path = filepath.Join(path, DefaultFile)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}

	s := &Store{db: db, path: path, normalize: func(raw string) string { return raw }}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return errors.WrapIO("migrate", s.path, err)
	}

	var current int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&current); err != nil {
		return errors.WrapIO("migrate", s.path, err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return errors.WrapIO("migrate", s.path, err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return errors.WrapIO("migrate", name, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return errors.WrapIO("migrate", name, err)
		}
		if _, err := tx.Exec(string(script)); err != nil {
			tx.Rollback()
			return errors.WrapIO("migrate", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return errors.WrapIO("migrate", name, err)
		}
		if err := tx.Commit(); err != nil {
			return errors.WrapIO("migrate", name, err)
		}
	}
	return nil
}

// recordTables maps each source to its backing table. community_nodes
// keys on package_name; the column is aliased so all three tables
// read and write through the same record shape.
func tableFor(id sources.ID) (table, keyColumn string, ok bool) {
	switch id {
	case sources.PlatformAPI:
		return "node_types_api", "node_type", true
	case sources.Repository:
		return "node_types_github", "node_type", true
	case sources.Registry:
		return "community_nodes", "package_name", true
	}
	return "", "", false
}

// UpsertRecords writes one scrape run's records. Records are routed to
// their source's table; a record whose key already exists is
// overwritten field by field, last writer wins.
func (s *Store) UpsertRecords(ctx context.Context, records []sources.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.WrapIO("upsert", s.path, err)
	}
	defer tx.Rollback()

	count := 0
	for _, r := range records {
		if r.RawType == "" {
			continue
		}
		if err := upsertRecord(ctx, tx, r); err != nil {
			return 0, err
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.WrapIO("upsert", s.path, err)
	}
	return count, nil
}

func upsertRecord(ctx context.Context, tx *sql.Tx, r sources.Record) error {
	scrapedAt := r.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}
	stamp := scrapedAt.UTC().Format(time.RFC3339Nano)

	var err error
	switch r.Source {
	case sources.PlatformAPI:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO node_types_api (node_type, display_name, description, category, version, scraped_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(node_type) DO UPDATE SET
				display_name = excluded.display_name,
				description = excluded.description,
				category = excluded.category,
				version = excluded.version,
				scraped_at = excluded.scraped_at
		`, r.RawType, r.DisplayName, r.Description, r.Category, r.Version, stamp)
	case sources.Repository:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO node_types_github (node_type, display_name, description, version, folder_path, scraped_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(node_type) DO UPDATE SET
				display_name = excluded.display_name,
				description = excluded.description,
				version = excluded.version,
				folder_path = excluded.folder_path,
				scraped_at = excluded.scraped_at
		`, r.RawType, r.DisplayName, r.Description, r.Version, r.Origin, stamp)
	case sources.Registry:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO community_nodes (package_name, display_name, description, version, author, repository, downloads, scraped_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(package_name) DO UPDATE SET
				display_name = excluded.display_name,
				description = excluded.description,
				version = excluded.version,
				author = excluded.author,
				repository = excluded.repository,
				downloads = excluded.downloads,
				scraped_at = excluded.scraped_at
		`, r.RawType, r.DisplayName, r.Description, r.Version, r.Author, r.Origin, r.Downloads, stamp)
	default:
		return errors.NewValidationError("source", string(r.Source), "unknown ingestion source")
	}
	if err != nil {
		return errors.WrapResource("upsert", "record", r.RawType, err)
	}
	return nil
}

// Records returns all stored records for one source, ordered by raw
// identifier.
func (s *Store) Records(ctx context.Context, id sources.ID) ([]sources.Record, error) {
	table, _, ok := tableFor(id)
	if !ok {
		return nil, errors.NewValidationError("source", string(id), "unknown ingestion source")
	}

	var query string
	switch table {
	case "node_types_api":
		query = `SELECT node_type, display_name, description, category, version, '', '', 0, scraped_at
			FROM node_types_api ORDER BY node_type`
	case "node_types_github":
		query = `SELECT node_type, display_name, description, '', version, '', folder_path, 0, scraped_at
			FROM node_types_github ORDER BY node_type`
	case "community_nodes":
		// Every community package displays as Community; the table has
		// no category column of its own.
		query = `SELECT package_name, display_name, description, 'Community', version, author, repository, downloads, scraped_at
			FROM community_nodes ORDER BY package_name`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.WrapResource("list", "records", string(id), err)
	}
	defer rows.Close()

	var out []sources.Record
	for rows.Next() {
		var r sources.Record
		var display, description, category, version, author, origin, stamp sql.NullString
		var downloads sql.NullInt64
		if err := rows.Scan(&r.RawType, &display, &description, &category, &version,
			&author, &origin, &downloads, &stamp); err != nil {
			return nil, errors.WrapResource("scan", "records", string(id), err)
		}
		r.Source = id
		r.DisplayName = display.String
		r.Description = description.String
		r.Category = category.String
		r.Version = version.String
		r.Author = author.String
		r.Origin = origin.String
		r.Downloads = int(downloads.Int64)
		if stamp.Valid {
			if t, err := time.Parse(time.RFC3339Nano, stamp.String); err == nil {
				r.ScrapedAt = t
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("list", "records", string(id), err)
	}
	return out, nil
}

// AllRecords returns the stored records of every source, keyed by
// source ID. Sources with no rows are omitted.
func (s *Store) AllRecords(ctx context.Context) (map[sources.ID][]sources.Record, error) {
	out := make(map[sources.ID][]sources.Record, len(sources.IDs()))
	for _, id := range sources.IDs() {
		records, err := s.Records(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			out[id] = records
		}
	}
	return out, nil
}

// Count returns the number of stored records per source.
func (s *Store) Count(ctx context.Context) (map[sources.ID]int, error) {
	out := make(map[sources.ID]int, len(sources.IDs()))
	for _, id := range sources.IDs() {
		table, _, _ := tableFor(id)
		var n int
		row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table)
		if err := row.Scan(&n); err != nil {
			return nil, errors.WrapResource("count", "records", string(id), err)
		}
		out[id] = n
	}
	return out, nil
}
