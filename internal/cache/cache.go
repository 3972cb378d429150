package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the sqlite payload cache.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS payloads (
			key        TEXT PRIMARY KEY,
			body       BLOB NOT NULL,
			fetched_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}

func (s *Store) Load(ctx context.Context, key string) (Entry, bool, error) {
	var (
		e     = Entry{Key: key}
		nanos int64
	)
	err := s.readDB.QueryRowContext(ctx,
		"SELECT body, fetched_at FROM payloads WHERE key = ?", key,
	).Scan(&e.Body, &nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("loading %s: %w", key, err)
	}
	e.FetchedAt = time.Unix(0, nanos)
	return e, true, nil
}

// Save upserts e. The staleness window is enforced by the memo, so ttl is
// not stored.
func (s *Store) Save(ctx context.Context, e Entry, _ time.Duration) error {
	_, err := s.writeDB.ExecContext(ctx, `
		INSERT INTO payloads (key, body, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			body = excluded.body,
			fetched_at = excluded.fetched_at
	`, e.Key, e.Body, e.FetchedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("saving %s: %w", e.Key, err)
	}
	return nil
}

// Entries lists cached payloads, most recently fetched first.
func (s *Store) Entries() ([]Entry, error) {
	rows, err := s.readDB.Query("SELECT key, body, fetched_at FROM payloads ORDER BY fetched_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying payloads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e     Entry
			nanos int64
		)
		if err := rows.Scan(&e.Key, &e.Body, &nanos); err != nil {
			return nil, fmt.Errorf("scanning payload: %w", err)
		}
		e.FetchedAt = time.Unix(0, nanos)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes payloads fetched longer than olderThan ago.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UnixNano()
	res, err := s.writeDB.Exec("DELETE FROM payloads WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting payloads: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if _, err := s.writeDB.Exec("VACUUM"); err != nil {
			return n, fmt.Errorf("vacuum: %w", err)
		}
	}
	return n, nil
}

// Stats returns the number of cached payloads and the database file size.
func (s *Store) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := s.readDB.QueryRow("SELECT COUNT(*) FROM payloads").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting payloads: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("stat %s: %w", dbPath, err)
	}
	return count, info.Size(), nil
}

func (s *Store) LastRefresh() (time.Time, bool) {
	var value string
	err := s.readDB.QueryRow("SELECT value FROM meta WHERE key = 'last_refresh'").Scan(&value)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *Store) SetLastRefresh() error {
	_, err := s.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES ('last_refresh', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, time.Now().Format(time.RFC3339))
	return err
}

var _ Backend = (*Store)(nil)
