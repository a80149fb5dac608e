// Package log is the process-wide zerolog logger. It writes to the console
// until Init points it at a SQLite database, after which every event is
// stored as a JSON row and can be read back with Last and Since.
package log

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"xeth-go/pkg/appdir"
)

var (
	mu      sync.RWMutex
	logger  = zerolog.Nop()
	sink    *sqliteSink
	written atomic.Int64
	level   = zerolog.InfoLevel

	ErrNotInitialized = errors.New("log: not initialized, call log.Init first")
)

const timeFieldFormat = time.RFC3339Nano

// DefaultLimit caps queries that pass a limit <= 0.
const DefaultLimit = 100

// SetStd logs to a console writer on stderr.
func SetStd() {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}

// SetVerbose switches between debug and info level.
func SetVerbose(verbose bool) {
	mu.Lock()
	defer mu.Unlock()
	level = zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger = logger.Level(level)
}

// Init sends all further events to the SQLite database dbFile. A relative
// name is placed in the application directory.
func Init(dbFile string) error {
	if dbFile == "" {
		return errors.New("log: empty database file")
	}
	if !filepath.IsAbs(dbFile) {
		dir, err := appdir.AppDir()
		if err != nil {
			return fmt.Errorf("log: %w", err)
		}
		dbFile = filepath.Join(dir, dbFile)
	}

	mu.Lock()
	defer mu.Unlock()
	if sink != nil {
		return errors.New("log: already initialized")
	}
	s, err := openSink(dbFile)
	if err != nil {
		return err
	}
	sink = s
	written.Store(0)
	zerolog.TimeFieldFormat = timeFieldFormat
	logger = zerolog.New(s).Level(level).With().Timestamp().Logger()
	return nil
}

// MustInit is Init for app.db, exiting the process on failure.
func MustInit(app string) {
	if err := Init(app + ".db"); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: logger: %v\n", err)
		os.Exit(1)
	}
}

// Close flushes a final event and closes the database. The logger is a
// no-op afterwards.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if sink == nil {
		return nil
	}
	s := sink
	sink = nil
	logger = zerolog.Nop()

	closing := zerolog.New(s).With().Timestamp().Logger()
	closing.Log().Msg("closing log database")
	if err := s.close(); err != nil {
		return fmt.Errorf("log: close: %w", err)
	}
	return nil
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

func Debug() *zerolog.Event { return current().Debug() }
func Info() *zerolog.Event  { return current().Info() }
func Warn() *zerolog.Event  { return current().Warn() }
func Error() *zerolog.Event { return current().Error() }
func Fatal() *zerolog.Event { return current().Fatal() }
func Log() *zerolog.Event   { return current().Log() }

// Printf sends an info event; arguments are handled in the manner of fmt.Printf.
func Printf(format string, v ...any) {
	current().Info().CallerSkipFrame(1).Msgf(format, v...)
}

// Logger returns a copy of the package logger for components that keep
// their own context fields.
func Logger() zerolog.Logger { return *current() }

func handle() (*sql.DB, error) {
	mu.RLock()
	defer mu.RUnlock()
	if sink == nil {
		return nil, ErrNotInitialized
	}
	return sink.db, nil
}

// Last returns the n most recent entries, oldest first.
func Last(n int) ([]Entry, error) {
	db, err := handle()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	rows, err := db.Query(`SELECT id, inserted_at, log_data FROM logs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query last %d logs: %w", n, err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// SinceStart returns everything written since Init.
func SinceStart() ([]Entry, error) {
	return Last(int(written.Load()))
}

// Between returns entries whose event time is within [start, end], in
// event time order. Times are compared as instants, so events stored with
// a local offset match bounds given in UTC.
func Between(start, end time.Time, limit int) ([]Entry, error) {
	db, err := handle()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	from := start.In(time.Local).Format(timeFieldFormat)
	to := end.In(time.Local).Format(timeFieldFormat)
	rows, err := db.Query(`
        SELECT id, inserted_at, log_data
        FROM logs
        WHERE julianday(json_extract(log_data, '$.time')) BETWEEN julianday(?) AND julianday(?)
        ORDER BY julianday(json_extract(log_data, '$.time')) ASC, id ASC
        LIMIT ?`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query logs between %s and %s: %w", from, to, err)
	}
	return scanEntries(rows)
}

// Since returns entries logged at or after start.
func Since(start time.Time, limit int) ([]Entry, error) {
	return Between(start, time.Now(), limit)
}

// ByKind returns the most recent entries carrying the given kind field,
// oldest first.
func ByKind(kind string, limit int) ([]Entry, error) {
	db, err := handle()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := db.Query(`
        SELECT id, inserted_at, log_data FROM (
            SELECT id, inserted_at, log_data FROM logs
            WHERE json_extract(log_data, '$.kind') = ?
            ORDER BY id DESC LIMIT ?
        ) ORDER BY id ASC`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("query logs of kind %s: %w", kind, err)
	}
	return scanEntries(rows)
}
