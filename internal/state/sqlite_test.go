package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rustle/internal/engine"
	"github.com/leapstack-labs/rustle/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleItems() []engine.ItemInfo {
	return []engine.ItemInfo{
		{Kind: "fn", ID: 0, Name: "alpha", Crate: "demo", Module: "crate", File: "macro#0", Path: "src/lib.rs", Node: 0},
		{Kind: "fn", ID: 1, Name: "area", Crate: "demo", Module: "crate::shapes", File: "file#0", Path: "src/lib.rs", Node: 5, Assoc: true},
		{Kind: "struct", ID: 0, Name: "Circle", Crate: "demo", Module: "crate::shapes", File: "file#0", Path: "src/lib.rs", Node: 3},
	}
}

func TestSQLiteStore_OpenMigrates(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	for _, table := range []string{"sessions", "item_ids", "macro_calls"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_OpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	session, err := store.CreateSession(context.Background(), "/project")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening runs no migration twice and keeps the data.
	store = NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	defer func() { _ = store.Close() }()
	got, err := store.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "/project", got.ProjectRoot)
}

func TestSQLiteStore_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	latest, err := store.LatestSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	session, err := store.CreateSession(ctx, "/project")
	require.NoError(t, err)
	_, err = uuid.Parse(session.ID)
	require.NoError(t, err)
	assert.Nil(t, session.CompletedAt)

	counts := Counts{Files: 2, Crates: 1, Items: 3, MacroCalls: 2, FailedExpansions: 1}
	require.NoError(t, store.CompleteSession(ctx, session.ID, counts))

	got, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, counts, got.Counts)
	require.NotNil(t, got.CompletedAt)
	assert.False(t, got.CompletedAt.Before(got.StartedAt))
	assert.True(t, got.StartedAt.Equal(session.StartedAt))

	latest, err = store.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.ID, latest.ID)
}

func TestSQLiteStore_SessionErrors(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.GetSession(ctx, "missing")
	assert.ErrorContains(t, err, "session not found")

	err = store.CompleteSession(ctx, "missing", Counts{})
	assert.ErrorContains(t, err, "session not found")

	closed := NewSQLiteStore(nil)
	_, err = closed.CreateSession(ctx, "/project")
	assert.ErrorContains(t, err, "database not opened")
}

func TestSQLiteStore_ItemsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	session, err := store.CreateSession(ctx, "/project")
	require.NoError(t, err)

	require.NoError(t, store.SaveItems(ctx, session.ID, sampleItems()))

	got, err := store.GetItems(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleItems(), got)

	// The same id cannot be recorded twice in one session.
	err = store.SaveItems(ctx, session.ID, sampleItems()[:1])
	assert.Error(t, err)
}

func TestSQLiteStore_MacroCallsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	session, err := store.CreateSession(ctx, "/project")
	require.NoError(t, err)

	calls := []engine.MacroInfo{
		{ID: 0, Macro: "make", Crate: "demo", Module: "crate", File: "file#0", Path: "src/lib.rs", Line: 2, Depth: 1, Status: engine.MacroExpanded, Tokens: 4, Dump: "not stored"},
		{ID: 1, Macro: "make", Crate: "demo", Module: "crate", File: "file#0", Path: "src/lib.rs", Line: 8, Depth: 1, Status: engine.MacroFailed, Error: "failed to expand macro"},
		{Macro: "broken", Crate: "demo", Module: "crate::shapes", File: "file#0", Path: "src/lib.rs", Line: 6, Status: engine.MacroUnresolved},
	}
	require.NoError(t, store.SaveMacroCalls(ctx, session.ID, calls))

	got, err := store.GetMacroCalls(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	want := calls[0]
	want.Dump = ""
	assert.Equal(t, want, got[0])
	assert.Equal(t, calls[1], got[1])
	assert.Equal(t, calls[2], got[2])
}

func TestSQLiteStore_DiffItems(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	first, err := store.CreateSession(ctx, "/project")
	require.NoError(t, err)
	require.NoError(t, store.SaveItems(ctx, first.ID, sampleItems()))

	second, err := store.CreateSession(ctx, "/project")
	require.NoError(t, err)
	items := sampleItems()
	items[2].Node = 4 // Circle moved within its file
	items = append(items[:1], items[2:]...)
	items = append(items, engine.ItemInfo{Kind: "enum", ID: 0, Name: "Shape", Crate: "demo", Module: "crate", File: "file#0", Path: "src/lib.rs", Node: 9})
	require.NoError(t, store.SaveItems(ctx, second.ID, items))

	changes, err := store.DiffItems(ctx, first.ID, second.ID)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	assert.Equal(t, "enum", changes[0].Kind)
	assert.Nil(t, changes[0].Before)
	assert.Equal(t, "Shape", changes[0].After.Name)

	assert.Equal(t, "struct", changes[1].Kind)
	assert.Equal(t, uint32(3), changes[1].Before.Node)
	assert.Equal(t, uint32(4), changes[1].After.Node)

	assert.Equal(t, "fn", changes[2].Kind)
	assert.Equal(t, uint32(1), changes[2].ID)
	assert.Nil(t, changes[2].After)
}

func TestSQLiteStore_DeleteOldSessions(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	var ids []string
	for i := 0; i < 4; i++ {
		s, err := store.CreateSession(ctx, "/project")
		require.NoError(t, err)
		require.NoError(t, store.SaveItems(ctx, s.ID, sampleItems()))
		ids = append(ids, s.ID)
	}

	require.NoError(t, store.DeleteOldSessions(ctx, 2))

	sessions, err := store.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, ids[3], sessions[0].ID)
	assert.Equal(t, ids[2], sessions[1].ID)

	// Snapshots of deleted sessions go with them.
	items, err := store.GetItems(ctx, ids[0])
	require.NoError(t, err)
	assert.Empty(t, items)
}
