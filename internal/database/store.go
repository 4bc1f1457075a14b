package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pagebound/pagebound/internal/model"
)

// dbFileName is the database file created inside the configured directory.
const dbFileName = "pagebound.db"

// Store provides SQLite-based storage for crawl sessions, pages, and
// errors. It manages connection pooling and provides methods for CRUD
// operations.
//
// Design decision: We use a single database file for all sessions rather
// than one file per crawl. This keeps session listing and cross-session
// queries trivial and makes backup a single-file copy.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single pooled connection avoids
	// SQLITE_BUSY under concurrent worker writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Sessions record one crawl run each, with its bounds and final counters
	CREATE TABLE IF NOT EXISTS crawl_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		max_pages INTEGER NOT NULL,
		pages_crawled INTEGER DEFAULT 0,
		total_errors INTEGER DEFAULT 0,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME,
		status TEXT DEFAULT 'running'
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_status ON crawl_sessions(status);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON crawl_sessions(started_at);

	-- Pages store individual downloads with their extracted content as JSON
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		title TEXT,
		status_code INTEGER,
		content_type TEXT,
		content_length INTEGER,
		response_time_ms INTEGER,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		extracted_data TEXT,
		UNIQUE(session_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_session ON pages(session_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);

	-- Errors store classified fetch failures
	CREATE TABLE IF NOT EXISTS errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		error_type TEXT NOT NULL,
		error_message TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_errors_session ON errors(session_id);
	CREATE INDEX IF NOT EXISTS idx_errors_type ON errors(error_type);

	-- Queue snapshots allow interrupted sessions to resume
	CREATE TABLE IF NOT EXISTS queue_state (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		status TEXT DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_queue_session ON queue_state(session_id);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// StartSession inserts a new running session and returns its ID.
func (s *Store) StartSession(ctx context.Context, startURL string, maxDepth, maxPages int) (int64, error) {
	query := `
	INSERT INTO crawl_sessions (start_url, max_depth, max_pages, status)
	VALUES (?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query, startURL, maxDepth, maxPages, string(model.SessionRunning))
	if err != nil {
		return 0, fmt.Errorf("failed to start session: %w", err)
	}

	return result.LastInsertId()
}

// EndSession finalizes a session with its outcome and counters.
func (s *Store) EndSession(ctx context.Context, sessionID int64, status model.SessionStatus, pagesCrawled, totalErrors int) error {
	query := `
	UPDATE crawl_sessions
	SET status = ?, pages_crawled = ?, total_errors = ?, completed_at = CURRENT_TIMESTAMP
	WHERE id = ?
	`

	_, err := s.db.ExecContext(ctx, query, string(status), pagesCrawled, totalErrors, sessionID)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	return nil
}

// SavePage inserts or updates a downloaded page. Uses UPSERT so a page
// re-downloaded within a resumed session replaces its earlier row.
func (s *Store) SavePage(ctx context.Context, sessionID int64, page *model.PageResult, record *model.PageRecord) error {
	var extracted string
	if record != nil {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to serialize extracted data: %w", err)
		}
		extracted = string(data)
	}

	query := `
	INSERT INTO pages (session_id, url, title, status_code, content_type, content_length, response_time_ms, extracted_data)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id, url) DO UPDATE SET
		title = excluded.title,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		content_length = excluded.content_length,
		response_time_ms = excluded.response_time_ms,
		extracted_data = excluded.extracted_data,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err := s.db.ExecContext(ctx, query,
		sessionID,
		page.URL,
		page.Title,
		page.StatusCode,
		page.ContentType,
		page.ContentLength,
		page.ResponseTime.Milliseconds(),
		extracted,
	)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}

	return nil
}

// LogError records a classified fetch failure.
func (s *Store) LogError(ctx context.Context, sessionID int64, url, errorType, message string) error {
	query := `
	INSERT INTO errors (session_id, url, error_type, error_message)
	VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query, sessionID, url, errorType, message)
	if err != nil {
		return fmt.Errorf("failed to log error: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID. Returns nil without error when the
// session does not exist.
func (s *Store) GetSession(ctx context.Context, sessionID int64) (*model.Session, error) {
	query := `
	SELECT id, start_url, max_depth, max_pages, pages_crawled, total_errors, started_at, completed_at, status
	FROM crawl_sessions
	WHERE id = ?
	`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, sessionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]*model.Session, error) {
	query := `
	SELECT id, start_url, max_depth, max_pages, pages_crawled, total_errors, started_at, completed_at, status
	FROM crawl_sessions
	ORDER BY started_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// PageCount returns the number of pages stored for a session.
func (s *Store) PageCount(ctx context.Context, sessionID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// SavePendingWork snapshots the unprocessed frontier entries of an
// interrupted session, replacing any earlier snapshot.
func (s *Store) SavePendingWork(ctx context.Context, sessionID int64, pending []model.FrontierEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM queue_state WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear queue state: %w", err)
	}

	for _, entry := range pending {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO queue_state (session_id, url, depth) VALUES (?, ?, ?)`,
			sessionID, entry.URL, entry.Depth,
		)
		if err != nil {
			return fmt.Errorf("failed to save queue entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit queue state: %w", err)
	}
	return nil
}

// LoadPendingWork returns the queue snapshot of a session, in saved order.
func (s *Store) LoadPendingWork(ctx context.Context, sessionID int64) ([]model.FrontierEntry, error) {
	query := `
	SELECT url, depth FROM queue_state
	WHERE session_id = ?
	ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue state: %w", err)
	}
	defer rows.Close()

	var pending []model.FrontierEntry
	for rows.Next() {
		var entry model.FrontierEntry
		if err := rows.Scan(&entry.URL, &entry.Depth); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		pending = append(pending, entry)
	}

	return pending, rows.Err()
}

// LoadVisited returns the URLs already downloaded in a session, for seeding
// the visited set on resume.
func (s *Store) LoadVisited(ctx context.Context, sessionID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM pages WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load visited URLs: %w", err)
	}
	defer rows.Close()

	var visited []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan visited URL: %w", err)
		}
		visited = append(visited, url)
	}

	return visited, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSession reads one session row.
func scanSession(row rowScanner) (*model.Session, error) {
	var session model.Session
	var startedAt string
	var completedAt sql.NullString
	var status string

	err := row.Scan(
		&session.ID,
		&session.StartURL,
		&session.MaxDepth,
		&session.MaxPages,
		&session.PagesCrawled,
		&session.TotalErrors,
		&startedAt,
		&completedAt,
		&status,
	)
	if err != nil {
		return nil, err
	}

	session.StartedAt = parseTimestamp(startedAt)
	if completedAt.Valid {
		session.CompletedAt = parseTimestamp(completedAt.String)
	}
	session.Status = model.SessionStatus(status)

	return &session, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending on
// configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
