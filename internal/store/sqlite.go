package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/founderport/angel/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		phase TEXT NOT NULL,
		question_index INTEGER NOT NULL,
		answered_count INTEGER NOT NULL DEFAULT 0,
		business_context TEXT NOT NULL DEFAULT '{}',
		last_quote_id TEXT NOT NULL DEFAULT '',
		jump_armed INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);

	CREATE TABLE IF NOT EXISTS chat_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		question_tag TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_session ON chat_history(session_id, id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Username,
		user.LastSeenAt.Unix(), user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// CreateSession inserts a new interview session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	contextJSON, err := json.Marshal(session.BusinessContext)
	if err != nil {
		return fmt.Errorf("marshal business context: %w", err)
	}

	query := `
	INSERT INTO sessions (
		session_id, user_id, title, phase, question_index, answered_count,
		business_context, last_quote_id, jump_armed, completed, version,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.Title,
		string(session.Phase), session.Question.Index, session.AnsweredCount,
		string(contextJSON), session.LastQuoteID,
		boolToInt(session.JumpArmed), boolToInt(session.Completed),
		session.CreatedAt.Unix(), session.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	session.Version = 1
	return nil
}

// GetSession retrieves a session by id.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	query := sessionSelect + ` WHERE session_id = ?`
	session, err := scanSession(s.db.QueryRowContext(ctx, query, sessionID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return session, nil
}

// ListSessions retrieves all sessions owned by a user, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	query := sessionSelect + ` WHERE user_id = ? ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close session rows", "error", closeErr)
		}
	}()

	var sessions []*domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// UpdateSession persists a mutated session with optimistic locking.
func (s *SQLiteStore) UpdateSession(ctx context.Context, session *domain.Session) error {
	contextJSON, err := json.Marshal(session.BusinessContext)
	if err != nil {
		return fmt.Errorf("marshal business context: %w", err)
	}

	query := `
	UPDATE sessions SET
		title = ?, phase = ?, question_index = ?, answered_count = ?,
		business_context = ?, last_quote_id = ?, jump_armed = ?, completed = ?,
		version = version + 1, updated_at = ?
	WHERE session_id = ? AND version = ?`

	result, err := s.db.ExecContext(ctx, query,
		session.Title, string(session.Phase), session.Question.Index, session.AnsweredCount,
		string(contextJSON), session.LastQuoteID,
		boolToInt(session.JumpArmed), boolToInt(session.Completed),
		time.Now().Unix(),
		session.ID, session.Version,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		// Either the session disappeared or another writer got there first.
		if _, getErr := s.GetSession(ctx, session.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("session %s: %w", session.ID, ErrConflict)
	}

	session.Version++
	return nil
}

// AppendHistory appends one conversation entry.
func (s *SQLiteStore) AppendHistory(ctx context.Context, entry *domain.HistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	query := `
	INSERT INTO chat_history (session_id, role, content, question_tag, created_at)
	VALUES (?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		entry.SessionID, entry.Role, entry.Content, entry.QuestionTag, entry.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// History retrieves the ordered conversation for a session.
func (s *SQLiteStore) History(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	query := `
		SELECT id, session_id, role, content, question_tag, created_at
		FROM chat_history WHERE session_id = ? ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close history rows", "error", closeErr)
		}
	}()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Role, &e.Content, &e.QuestionTag, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// CleanupExpiredSessions removes sessions idle longer than ttl.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl).Unix()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_history WHERE session_id IN (SELECT session_id FROM sessions WHERE updated_at < ?)`,
		threshold,
	); err != nil {
		return 0, fmt.Errorf("cleanup expired history: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rows, nil
}

const sessionSelect = `
	SELECT session_id, user_id, title, phase, question_index, answered_count,
	       business_context, last_quote_id, jump_armed, completed, version,
	       created_at, updated_at
	FROM sessions`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var phase, contextJSON string
	var jumpArmed, completed int
	var createdAt, updatedAt int64

	err := row.Scan(
		&session.ID, &session.UserID, &session.Title,
		&phase, &session.Question.Index, &session.AnsweredCount,
		&contextJSON, &session.LastQuoteID, &jumpArmed, &completed, &session.Version,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Phase = domain.Phase(phase)
	session.Question.Phase = session.Phase
	session.JumpArmed = jumpArmed != 0
	session.Completed = completed != 0
	session.CreatedAt = time.Unix(createdAt, 0)
	session.UpdatedAt = time.Unix(updatedAt, 0)

	session.BusinessContext = map[string]string{}
	if contextJSON != "" {
		if err := json.Unmarshal([]byte(contextJSON), &session.BusinessContext); err != nil {
			return nil, fmt.Errorf("unmarshal business context: %w", err)
		}
	}
	return &session, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
