// Package state persists snapshots of interned ids in SQLite.
//
// Each `rustle index` run opens a session identified by a UUID and records
// every item id and macro call id the engine handed out. Ids are only
// stable within one process, so a snapshot is a record of one session, not
// a cache to be loaded back.
package state

import (
	"context"
	"time"

	"github.com/leapstack-labs/rustle/internal/engine"
)

// Counts summarizes a session.
type Counts struct {
	Files            int `json:"files" yaml:"files"`
	Crates           int `json:"crates" yaml:"crates"`
	Items            int `json:"items" yaml:"items"`
	MacroCalls       int `json:"macro_calls" yaml:"macro_calls"`
	FailedExpansions int `json:"failed_expansions" yaml:"failed_expansions"`
}

// Session is one indexing run.
type Session struct {
	ID          string     `json:"id" yaml:"id"`
	ProjectRoot string     `json:"project_root" yaml:"project_root"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Counts      Counts     `json:"counts" yaml:"counts"`
}

// ItemChange describes an item id whose location differs between two
// sessions, or that exists in only one of them.
type ItemChange struct {
	Kind   string           `json:"kind" yaml:"kind"`
	ID     uint32           `json:"id" yaml:"id"`
	Before *engine.ItemInfo `json:"before,omitempty" yaml:"before,omitempty"`
	After  *engine.ItemInfo `json:"after,omitempty" yaml:"after,omitempty"`
}

// Store is the snapshot store.
type Store interface {
	CreateSession(ctx context.Context, projectRoot string) (*Session, error)
	CompleteSession(ctx context.Context, id string, counts Counts) error
	GetSession(ctx context.Context, id string) (*Session, error)
	LatestSession(ctx context.Context) (*Session, error)
	ListSessions(ctx context.Context, limit int) ([]*Session, error)

	SaveItems(ctx context.Context, sessionID string, items []engine.ItemInfo) error
	GetItems(ctx context.Context, sessionID string) ([]engine.ItemInfo, error)
	SaveMacroCalls(ctx context.Context, sessionID string, calls []engine.MacroInfo) error
	GetMacroCalls(ctx context.Context, sessionID string) ([]engine.MacroInfo, error)
	DiffItems(ctx context.Context, before, after string) ([]ItemChange, error)
	DeleteOldSessions(ctx context.Context, keep int) error

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
