package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/pkg/metrics"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id                TEXT PRIMARY KEY,
    user_id           TEXT NOT NULL,
    created_at        INTEGER NOT NULL,
    raw_input         TEXT NOT NULL,
    parsed_data       TEXT NOT NULL,
    score             INTEGER,
    score_explanation TEXT,
    source_ip         TEXT,
    user_agent        TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_recency
    ON sessions (user_id, created_at DESC);
`

// SQLiteStore persists sessions in SQLite.
type SQLiteStore struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite session store and ensures the schema exists.
func Open(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Insert writes a new session row with score columns left NULL.
func (s *SQLiteStore) Insert(ctx context.Context, session model.Session) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreInsertLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(session.UserID) == "" {
		return fmt.Errorf("user id is required")
	}

	rawJSON, err := json.Marshal(session.RawInput)
	if err != nil {
		metrics.RecordStoreError("insert")
		return fmt.Errorf("encode raw input: %w", err)
	}
	parsedJSON, err := json.Marshal(session.ParsedData)
	if err != nil {
		metrics.RecordStoreError("insert")
		return fmt.Errorf("encode parsed data: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (
		   id, user_id, created_at, raw_input, parsed_data,
		   score, score_explanation, source_ip, user_agent
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		toMillis(session.CreatedAt),
		string(rawJSON),
		string(parsedJSON),
		nullInt(session.Score),
		nullString(session.ScoreExplanation),
		nullString(session.SourceIP),
		nullString(session.UserAgent),
	)
	if err != nil {
		metrics.RecordStoreError("insert")
		if isUniqueViolation(err) {
			return fmt.Errorf("insert session %s: %w", session.ID, ErrDuplicateID)
		}
		return fmt.Errorf("insert session %s: %w", session.ID, err)
	}
	return nil
}

// UpdateScore sets score columns on a still-unscored row. The score
// guard in the WHERE clause keeps an already-set score immutable.
func (s *SQLiteStore) UpdateScore(ctx context.Context, id string, score int, explanation string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE sessions
		    SET score = ?, score_explanation = ?
		  WHERE id = ? AND score IS NULL`,
		score,
		explanation,
		id,
	)
	if err != nil {
		metrics.RecordStoreError("update_score")
		return fmt.Errorf("update score for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		metrics.RecordStoreError("update_score")
		return fmt.Errorf("update score for %s: %w", id, err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing updated: either the row is missing or the score is
	// already set (a no-op, not an error).
	var exists int
	err = s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update score for %s: %w", id, ErrNotFound)
	}
	if err != nil {
		metrics.RecordStoreError("update_score")
		return fmt.Errorf("update score for %s: %w", id, err)
	}
	return nil
}

// FindByID reads one session row.
func (s *SQLiteStore) FindByID(ctx context.Context, id string) (model.Session, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return model.Session{}, err
	}

	var (
		session     model.Session
		createdAt   int64
		rawJSON     string
		parsedJSON  string
		score       sql.NullInt64
		explanation sql.NullString
		sourceIP    sql.NullString
		userAgent   sql.NullString
	)
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, user_id, created_at, raw_input, parsed_data,
		        score, score_explanation, source_ip, user_agent
		   FROM sessions WHERE id = ?`,
		id,
	).Scan(
		&session.ID,
		&session.UserID,
		&createdAt,
		&rawJSON,
		&parsedJSON,
		&score,
		&explanation,
		&sourceIP,
		&userAgent,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, fmt.Errorf("find session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		metrics.RecordStoreError("find_by_id")
		return model.Session{}, fmt.Errorf("find session %s: %w", id, err)
	}

	session.CreatedAt = fromMillis(createdAt)
	if err := json.Unmarshal([]byte(rawJSON), &session.RawInput); err != nil {
		metrics.RecordStoreError("find_by_id")
		return model.Session{}, fmt.Errorf("decode raw input for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(parsedJSON), &session.ParsedData); err != nil {
		metrics.RecordStoreError("find_by_id")
		return model.Session{}, fmt.Errorf("decode parsed data for %s: %w", id, err)
	}
	if score.Valid {
		v := int(score.Int64)
		session.Score = &v
	}
	if explanation.Valid {
		v := explanation.String
		session.ScoreExplanation = &v
	}
	if sourceIP.Valid {
		v := sourceIP.String
		session.SourceIP = &v
	}
	if userAgent.Valid {
		v := userAgent.String
		session.UserAgent = &v
	}
	return session, nil
}

// Count returns the number of stored sessions.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0
	}
	return count
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ Store = (*SQLiteStore)(nil)
