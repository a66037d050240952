package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"eplayer/internal/billing"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore is the local on-disk state of the player core: the
// fingerprint cache and the billing reconciliation journal.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// LookupFingerprint returns the cached hash for a path if size and
// mtime still match the file on disk
func (s *SQLiteStore) LookupFingerprint(ctx context.Context, path string, size, mtime int64) (string, bool, error) {
	var md5 string
	err := s.db.QueryRowContext(ctx,
		`SELECT md5 FROM fingerprints WHERE path = ? AND size = ? AND mtime = ?`,
		path, size, mtime,
	).Scan(&md5)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return md5, true, nil
}

// SaveFingerprint records a computed hash, replacing any stale entry
// for the same path
func (s *SQLiteStore) SaveFingerprint(ctx context.Context, path string, size, mtime int64, md5 string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fingerprints (path, size, mtime, md5) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET size = excluded.size, mtime = excluded.mtime, md5 = excluded.md5`,
		path, size, mtime, md5,
	)
	return err
}

// Enqueue stores a failed charge for later reconciliation
func (s *SQLiteStore) Enqueue(ctx context.Context, charge billing.Charge) (int64, error) {
	createdAt := charge.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO billing_journal (is_transcription, cost, input_tokens, output_tokens, duration_seconds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		boolToInt(charge.Transcription), charge.Cost, charge.InputTokens,
		charge.OutputTokens, charge.DurationSeconds, createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Pending returns the oldest unsettled charges
func (s *SQLiteStore) Pending(ctx context.Context, limit int) ([]billing.Charge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, is_transcription, cost, input_tokens, output_tokens, duration_seconds, created_at
		 FROM billing_journal
		 ORDER BY id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]billing.Charge, 0)
	for rows.Next() {
		var charge billing.Charge
		var isTranscription int
		var createdAt string
		if err := rows.Scan(&charge.ID, &isTranscription, &charge.Cost,
			&charge.InputTokens, &charge.OutputTokens, &charge.DurationSeconds, &createdAt); err != nil {
			return nil, err
		}
		charge.Transcription = isTranscription != 0
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			charge.CreatedAt = ts
		}
		ret = append(ret, charge)
	}
	return ret, rows.Err()
}

// Delete removes a settled charge from the journal
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM billing_journal WHERE id = ?`, id)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
