package log

import (
	"database/sql"
	"fmt"
	stdlog "log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    inserted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL,
    log_data TEXT NOT NULL
);`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_logs_json_time ON logs (json_extract(log_data, '$.time'));`,
	`CREATE INDEX IF NOT EXISTS idx_logs_julian_time ON logs (julianday(json_extract(log_data, '$.time')));`,
	`CREATE INDEX IF NOT EXISTS idx_logs_json_level ON logs (json_extract(log_data, '$.level'));`,
	`CREATE INDEX IF NOT EXISTS idx_logs_json_kind ON logs (json_extract(log_data, '$.kind'));`,
}

// sqliteSink is the io.Writer behind the package logger once Init has run.
// Each zerolog event is one row.
type sqliteSink struct {
	mu     sync.Mutex
	db     *sql.DB
	insert *sql.Stmt
}

func openSink(dbPath string) (*sqliteSink, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode=wal&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %s: %w", dbPath, err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db %s: %w", dbPath, err)
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create logs table: %w", err)
	}
	for _, q := range indexes {
		if _, err := db.Exec(q); err != nil {
			stdlog.Printf("log: index not created, queries will scan: %v", err)
		}
	}
	insert, err := db.Prepare(`INSERT INTO logs (log_data) VALUES (?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	return &sqliteSink{db: db, insert: insert}, nil
}

func (s *sqliteSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insert == nil {
		return 0, ErrNotInitialized
	}
	if _, err := s.insert.Exec(string(p)); err != nil {
		stdlog.Printf("log: sqlite write: %v", err)
		return 0, err
	}
	written.Add(1)
	return len(p), nil
}

func (s *sqliteSink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	if s.insert != nil {
		if err := s.insert.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close statement: %w", err))
		}
		s.insert = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
		s.db = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}

// Entry is one stored log line.
type Entry struct {
	ID         int64
	InsertedAt time.Time
	// Data is the raw JSON event.
	Data string
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var insertedAt string
		if err := rows.Scan(&e.ID, &insertedAt, &e.Data); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		e.InsertedAt = parseTimestamp(insertedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log rows: %w", err)
	}
	return entries, nil
}

var timestampFormats = []string{
	time.DateTime,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

func parseTimestamp(ts string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}
