package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/rustle/internal/engine"
)

// SaveItems stores the item ids of a session.
func (s *SQLiteStore) SaveItems(ctx context.Context, sessionID string, items []engine.ItemInfo) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO item_ids
		(session_id, kind, id, name, crate, module, hir_file, path, node, assoc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, sessionID, it.Kind, it.ID, it.Name, it.Crate,
			it.Module, it.File, it.Path, it.Node, boolToInt(it.Assoc)); err != nil {
			return fmt.Errorf("insert item %s#%d: %w", it.Kind, it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.logger.Debug("saved item snapshot", slog.String("session", sessionID), slog.Int("items", len(items)))
	return nil
}

// GetItems returns the item ids of a session ordered by kind and id.
func (s *SQLiteStore) GetItems(ctx context.Context, sessionID string) ([]engine.ItemInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, id, name, crate, module, hir_file, path, node, assoc
		FROM item_ids
		WHERE session_id = ?
		ORDER BY kind, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []engine.ItemInfo
	for rows.Next() {
		var (
			it    engine.ItemInfo
			assoc int
		)
		if err := rows.Scan(&it.Kind, &it.ID, &it.Name, &it.Crate, &it.Module,
			&it.File, &it.Path, &it.Node, &assoc); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Assoc = assoc != 0
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}

// SaveMacroCalls stores the macro calls of a session in order.
func (s *SQLiteStore) SaveMacroCalls(ctx context.Context, sessionID string, calls []engine.MacroInfo) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO macro_calls
		(session_id, seq, id, macro, crate, module, hir_file, path, line, depth, status, tokens, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for seq, c := range calls {
		var id, errMsg any
		if c.Status != engine.MacroUnresolved {
			id = c.ID
		}
		if c.Error != "" {
			errMsg = c.Error
		}
		if _, err := stmt.ExecContext(ctx, sessionID, seq, id, c.Macro, c.Crate, c.Module,
			c.File, c.Path, c.Line, c.Depth, c.Status, c.Tokens, errMsg); err != nil {
			return fmt.Errorf("insert macro call %s: %w", c.Macro, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.logger.Debug("saved macro snapshot", slog.String("session", sessionID), slog.Int("calls", len(calls)))
	return nil
}

// GetMacroCalls returns the macro calls of a session in the order they
// were saved. Debug dumps are not stored.
func (s *SQLiteStore) GetMacroCalls(ctx context.Context, sessionID string) ([]engine.MacroInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, macro, crate, module, hir_file, path, line, depth, status, tokens, error
		FROM macro_calls
		WHERE session_id = ?
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query macro calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var calls []engine.MacroInfo
	for rows.Next() {
		var (
			c      engine.MacroInfo
			id     sql.NullInt64
			errMsg sql.NullString
		)
		if err := rows.Scan(&id, &c.Macro, &c.Crate, &c.Module, &c.File, &c.Path,
			&c.Line, &c.Depth, &c.Status, &c.Tokens, &errMsg); err != nil {
			return nil, fmt.Errorf("scan macro call: %w", err)
		}
		c.ID = uint32(id.Int64)
		c.Error = errMsg.String
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return calls, nil
}

// DiffItems compares the item ids of two sessions of the same process.
// An id present in both with a different location, or present in only one
// session, is reported.
func (s *SQLiteStore) DiffItems(ctx context.Context, before, after string) ([]ItemChange, error) {
	old, err := s.GetItems(ctx, before)
	if err != nil {
		return nil, err
	}
	cur, err := s.GetItems(ctx, after)
	if err != nil {
		return nil, err
	}

	type key struct {
		kind string
		id   uint32
	}
	byKey := make(map[key]engine.ItemInfo, len(old))
	for _, it := range old {
		byKey[key{it.Kind, it.ID}] = it
	}

	var changes []ItemChange
	for _, it := range cur {
		k := key{it.Kind, it.ID}
		prev, ok := byKey[k]
		delete(byKey, k)
		if ok && prev == it {
			continue
		}
		change := ItemChange{Kind: it.Kind, ID: it.ID, After: &it}
		if ok {
			change.Before = &prev
		}
		changes = append(changes, change)
	}
	// Ids still in byKey only exist in the older session.
	for _, it := range old {
		if _, ok := byKey[key{it.Kind, it.ID}]; ok {
			change := ItemChange{Kind: it.Kind, ID: it.ID, Before: &it}
			changes = append(changes, change)
		}
	}
	return changes, nil
}
