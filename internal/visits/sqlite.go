package visits

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed migrations/001_visits.sql
var schema string

// SQLiteStore persists records in a SQLite table. Only records changed since
// the last Persist are written.
type SQLiteStore struct {
	*memory
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and loads all records.
// Pass ":memory:" for an in-memory database.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and avoids
	// "database is locked"
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &SQLiteStore{memory: newMemory(opts), db: db}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) load() error {
	rows, err := s.db.Query(`SELECT id, visits, timestamp FROM visits`)
	if err != nil {
		return fmt.Errorf("loading visits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var r Record
		if err := rows.Scan(&id, &r.Visits, &r.Timestamp); err != nil {
			return fmt.Errorf("scanning visit: %w", err)
		}
		s.data[id] = r
	}
	return rows.Err()
}

func (s *SQLiteStore) Persist() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	data, dirty := s.snapshot()
	if len(dirty) == 0 {
		return nil
	}
	if err := s.write(data, dirty); err != nil {
		s.markDirty(dirty)
		return err
	}
	return nil
}

func (s *SQLiteStore) write(data map[string]Record, ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.Prepare(`INSERT INTO visits (id, visits, timestamp) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET visits = excluded.visits, timestamp = excluded.timestamp`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()
	for _, id := range ids {
		r := data[id]
		if _, err := stmt.Exec(id, r.Visits, r.Timestamp); err != nil {
			return fmt.Errorf("saving visit %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
