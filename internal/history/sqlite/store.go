package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/history"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const columns = `id, timestamp, name, method, url, request_headers, request_body, auth,
	status, status_text, response_headers, response_body, duration_ms, size, error`

// Store implements history.Store using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// New opens (or creates) the history database at dbPath.
func New(dbPath string) (*Store, error) {
	return open(dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
}

// NewInMemory creates a new in-memory SQLite store (useful for testing).
func NewInMemory() (*Store, error) {
	return open(":memory:")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to :memory: would see an empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			timestamp DATETIME NOT NULL,
			name TEXT,
			method TEXT NOT NULL,
			url TEXT NOT NULL,
			request_headers TEXT,
			request_body TEXT,
			auth TEXT,
			status INTEGER NOT NULL DEFAULT 0,
			status_text TEXT,
			response_headers TEXT,
			response_body TEXT,
			duration_ms INTEGER,
			size INTEGER,
			error TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_history_method ON history(method);
		CREATE INDEX IF NOT EXISTS idx_history_status ON history(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add adds a new history entry and returns its ID.
func (s *Store) Add(ctx context.Context, entry history.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", history.ErrStoreClosed
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	reqHeaders, err := json.Marshal(entry.RequestHeaders)
	if err != nil {
		return "", fmt.Errorf("failed to encode request headers: %w", err)
	}
	respHeaders, err := json.Marshal(entry.ResponseHeaders)
	if err != nil {
		return "", fmt.Errorf("failed to encode response headers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO history (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UTC(), entry.Name, entry.Method, entry.URL,
		string(reqHeaders), entry.RequestBody, entry.Auth,
		entry.Status, entry.StatusText, string(respHeaders), entry.ResponseBody,
		entry.DurationMs, entry.Size, entry.Error,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert history entry: %w", err)
	}

	return entry.ID, nil
}

// Get retrieves a single history entry by ID.
func (s *Store) Get(ctx context.Context, id string) (history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return history.Entry{}, history.ErrStoreClosed
	}
	if id == "" {
		return history.Entry{}, history.ErrInvalidID
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM history WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Entry{}, history.ErrNotFound
	}
	if err != nil {
		return history.Entry{}, fmt.Errorf("failed to get history entry: %w", err)
	}
	return entry, nil
}

// List retrieves history entries matching the query options, newest first.
func (s *Store) List(ctx context.Context, opts history.QueryOptions) ([]history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, history.ErrStoreClosed
	}

	where, args := buildFilter(opts)
	query := `SELECT ` + columns + ` FROM history` + where + ` ORDER BY timestamp DESC`
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	} else if opts.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer rows.Close()

	entries := make([]history.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the number of entries matching the query options.
func (s *Store) Count(ctx context.Context, opts history.QueryOptions) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, history.ErrStoreClosed
	}

	where, args := buildFilter(opts)
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}
	return count, nil
}

// Delete removes a history entry by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return history.ErrStoreClosed
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return history.ErrNotFound
	}
	return nil
}

// Prune removes old entries based on the prune options.
func (s *Store) Prune(ctx context.Context, opts history.PruneOptions) (history.PruneResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return history.PruneResult{}, history.ErrStoreClosed
	}

	var (
		res sql.Result
		err error
	)
	switch {
	case opts.OlderThan > 0:
		cutoff := time.Now().Add(-opts.OlderThan).UTC()
		res, err = s.db.ExecContext(ctx, "DELETE FROM history WHERE timestamp < ?", cutoff)
	case opts.KeepLast > 0:
		res, err = s.db.ExecContext(ctx, `
			DELETE FROM history WHERE id NOT IN (
				SELECT id FROM history ORDER BY timestamp DESC LIMIT ?
			)`, opts.KeepLast)
	default:
		return history.PruneResult{}, nil
	}
	if err != nil {
		return history.PruneResult{}, fmt.Errorf("failed to prune history: %w", err)
	}

	deleted, _ := res.RowsAffected()
	return history.PruneResult{DeletedCount: deleted}, nil
}

// Clear removes all history entries.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return history.ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close closes the store and releases resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func buildFilter(opts history.QueryOptions) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if opts.Method != "" {
		where += " AND method = ?"
		args = append(args, opts.Method)
	}
	if opts.URLPattern != "" {
		where += " AND url LIKE ?"
		args = append(args, opts.URLPattern)
	}
	if opts.StatusMin > 0 {
		where += " AND status >= ?"
		args = append(args, opts.StatusMin)
	}
	if opts.StatusMax > 0 {
		where += " AND status <= ?"
		args = append(args, opts.StatusMax)
	}
	if opts.FailedOnly {
		where += " AND error IS NOT NULL AND error != ''"
	}
	if !opts.After.IsZero() {
		where += " AND timestamp > ?"
		args = append(args, opts.After.UTC())
	}
	if !opts.Before.IsZero() {
		where += " AND timestamp < ?"
		args = append(args, opts.Before.UTC())
	}
	if opts.Search != "" {
		pattern := "%" + opts.Search + "%"
		where += " AND (url LIKE ? OR name LIKE ? OR request_body LIKE ? OR response_body LIKE ? OR error LIKE ?)"
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}

	return where, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (history.Entry, error) {
	var entry history.Entry
	var name, reqHeaders, reqBody, auth, statusText, respHeaders, respBody, errText sql.NullString

	err := row.Scan(
		&entry.ID, &entry.Timestamp, &name, &entry.Method, &entry.URL,
		&reqHeaders, &reqBody, &auth,
		&entry.Status, &statusText, &respHeaders, &respBody,
		&entry.DurationMs, &entry.Size, &errText,
	)
	if err != nil {
		return entry, err
	}

	entry.Name = name.String
	entry.RequestBody = reqBody.String
	entry.Auth = auth.String
	entry.StatusText = statusText.String
	entry.ResponseBody = respBody.String
	entry.Error = errText.String
	entry.RequestHeaders = decodePairs(reqHeaders)
	entry.ResponseHeaders = decodePairs(respHeaders)

	return entry, nil
}

func decodePairs(s sql.NullString) []core.KeyValue {
	if !s.Valid || s.String == "" || s.String == "null" {
		return nil
	}
	var pairs []core.KeyValue
	if err := json.Unmarshal([]byte(s.String), &pairs); err != nil {
		return nil
	}
	return pairs
}

var _ history.Store = (*Store)(nil)
