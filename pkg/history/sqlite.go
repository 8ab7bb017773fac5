package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS history (
    id INTEGER PRIMARY KEY,
    at INTEGER NOT NULL,     -- UnixNano
    line TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_line ON history(line);
`

// SQLiteStore keeps history in a SQLite database so several shells can
// share it. Entries are cached in memory at open; Add writes through.
type SQLiteStore struct {
	db    *sql.DB
	limit int
	now   func() time.Time

	mu      sync.Mutex
	entries []string
}

// OpenSQLite opens or creates the database at path. limit <= 0 means
// DefaultLimit; older rows are pruned on open.
func OpenSQLite(ctx context.Context, path string, limit int) (*SQLiteStore, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "create history dir")
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open history db")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connect history db")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create history schema")
	}

	s := &SQLiteStore{db: db, limit: limit, now: time.Now}
	if err := s.load(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) load(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM history WHERE id <= (SELECT id FROM history ORDER BY id DESC LIMIT 1 OFFSET ?)`,
		s.limit)
	if err != nil {
		return errors.Wrap(err, "prune history")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT line FROM history ORDER BY id`)
	if err != nil {
		return errors.Wrap(err, "load history")
	}
	defer rows.Close()
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return errors.Wrap(err, "scan history")
		}
		s.entries = append(s.entries, line)
	}
	return errors.Wrap(rows.Err(), "load history")
}

func (s *SQLiteStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *SQLiteStore) Entry(seq int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < 0 || seq >= len(s.entries) {
		return "", false
	}
	return s.entries[seq], true
}

// Add records line unless it repeats the newest entry.
func (s *SQLiteStore) Add(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.entries); n > 0 && s.entries[n-1] == line {
		return nil
	}
	_, err := s.db.Exec(`INSERT INTO history (at, line) VALUES (?, ?)`, s.now().UnixNano(), line)
	if err != nil {
		return errors.Wrap(err, "insert history")
	}
	s.entries = append(s.entries, line)
	if len(s.entries) > s.limit {
		s.entries = s.entries[len(s.entries)-s.limit:]
	}
	return nil
}

// Prefix returns the newest entry in the database that extends prefix,
// including entries other shells added since this one opened.
func (s *SQLiteStore) Prefix(prefix string) (string, bool) {
	var line string
	err := s.db.QueryRow(
		`SELECT line FROM history
		 WHERE substr(line, 1, length(?1)) = ?1 AND length(line) > length(?1)
		 ORDER BY id DESC LIMIT 1`,
		prefix).Scan(&line)
	if err != nil {
		return "", false
	}
	return line, true
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
