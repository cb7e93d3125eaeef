package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const sessionColumns = `id, project_root, started_at, completed_at,
	files, crates, items, macro_calls, failed_expansions`

// CreateSession starts a new indexing session.
func (s *SQLiteStore) CreateSession(ctx context.Context, projectRoot string) (*Session, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	session := &Session{
		ID:          generateID(),
		ProjectRoot: projectRoot,
		StartedAt:   time.Now().UTC(),
	}
	s.logger.Debug("creating session", slog.String("id", session.ID), slog.String("root", projectRoot))

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, project_root, started_at) VALUES (?, ?, ?)`,
		session.ID, session.ProjectRoot, formatTime(session.StartedAt),
	); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// CompleteSession records the final counts of a session.
func (s *SQLiteStore) CompleteSession(ctx context.Context, id string, counts Counts) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET completed_at = ?, files = ?, crates = ?, items = ?, macro_calls = ?, failed_expansions = ?
		WHERE id = ?`,
		formatTime(time.Now()), counts.Files, counts.Crates, counts.Items,
		counts.MacroCalls, counts.FailedExpansions, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("session not found: %s", id)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// LatestSession retrieves the most recent session, or nil if there is none.
func (s *SQLiteStore) LatestSession(ctx context.Context) (*Session, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}
	return session, nil
}

// ListSessions retrieves the most recent sessions up to the given limit.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]*Session, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return sessions, nil
}

// DeleteOldSessions removes every session but the most recent keep ones,
// together with their snapshots.
func (s *SQLiteStore) DeleteOldSessions(ctx context.Context, keep int) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE id NOT IN (
			SELECT id FROM sessions
			ORDER BY started_at DESC, rowid DESC
			LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("delete old sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	s.logger.Debug("deleted old sessions", slog.Int64("count", n), slog.Int("kept", keep))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session   Session
		started   string
		completed sql.NullString
	)
	if err := row.Scan(
		&session.ID, &session.ProjectRoot, &started, &completed,
		&session.Counts.Files, &session.Counts.Crates, &session.Counts.Items,
		&session.Counts.MacroCalls, &session.Counts.FailedExpansions,
	); err != nil {
		return nil, err
	}

	t, err := parseTime(started)
	if err != nil {
		return nil, err
	}
	session.StartedAt = t
	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return nil, err
		}
		session.CompletedAt = &t
	}
	return &session, nil
}
