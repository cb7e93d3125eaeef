package commands

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rustle/internal/engine"
	"github.com/leapstack-labs/rustle/internal/state"
)

// DefaultKeepSessions is the number of sessions kept by index and watch.
const DefaultKeepSessions = 10

// indexResult is the structured output of the index command.
type indexResult struct {
	Session *state.Session     `json:"session" yaml:"session"`
	Changes []state.ItemChange `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand() *cobra.Command {
	var (
		keep int
		diff bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Record a snapshot of item and macro call ids",
		Long: `Collect every crate and record the interned item ids and macro call ids
in the state database as a new session.

Ids are only meaningful within one session. Use --diff to compare the new
snapshot with the previous session.`,
		Example: `  # Snapshot the project
  rustle index

  # Snapshot and show items that moved since the last run
  rustle index --diff`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd, keep, diff)
		},
	}

	cmd.Flags().IntVar(&keep, "keep", DefaultKeepSessions, "Number of sessions to keep (0 keeps all)")
	cmd.Flags().BoolVar(&diff, "diff", false, "Compare with the previous session")

	return cmd
}

func runIndex(cmd *cobra.Command, keep int, diff bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	r := cmdCtx.Renderer

	store, err := openStore(cmdCtx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var previous *state.Session
	if diff {
		if previous, err = store.LatestSession(ctx); err != nil {
			return err
		}
	}

	sess, err := snapshot(ctx, store, cmdCtx.DB, cmdCtx.Cfg.ProjectRoot)
	if err != nil {
		return err
	}
	res := indexResult{Session: sess}
	if previous != nil {
		if res.Changes, err = store.DiffItems(ctx, previous.ID, sess.ID); err != nil {
			return err
		}
	}
	if keep > 0 {
		if err := store.DeleteOldSessions(ctx, keep); err != nil {
			return err
		}
	}

	if r.Structured() {
		return r.Encode(res)
	}
	printSession(cmdCtx, sess)
	if diff {
		printChanges(cmdCtx, previous, res.Changes)
	}
	return nil
}

func openStore(cmdCtx *CommandContext) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(cmdCtx.Logger)
	if err := store.Open(cmdCtx.Cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return store, nil
}

// snapshot collects every crate and records the result as a new session.
func snapshot(ctx context.Context, store state.Store, db *engine.Database, root string) (*state.Session, error) {
	if _, err := db.CollectAll(ctx); err != nil {
		return nil, err
	}
	sess, err := store.CreateSession(ctx, root)
	if err != nil {
		return nil, err
	}

	var (
		items []engine.ItemInfo
		calls []engine.MacroInfo
	)
	for _, krate := range db.Crates().Crates() {
		items = append(items, db.Items(krate)...)
		calls = append(calls, db.MacroCalls(krate)...)
	}
	if err := store.SaveItems(ctx, sess.ID, items); err != nil {
		return nil, err
	}
	if err := store.SaveMacroCalls(ctx, sess.ID, calls); err != nil {
		return nil, err
	}

	counts := state.Counts{
		Files:      db.Files().Len(),
		Crates:     len(db.Crates().Crates()),
		Items:      len(items),
		MacroCalls: len(calls),
	}
	for _, c := range calls {
		if c.Status == engine.MacroFailed {
			counts.FailedExpansions++
		}
	}
	if err := store.CompleteSession(ctx, sess.ID, counts); err != nil {
		return nil, err
	}
	return store.GetSession(ctx, sess.ID)
}

func printSession(cmdCtx *CommandContext, sess *state.Session) {
	r := cmdCtx.Renderer
	r.Header("Session " + sess.ID)
	r.Printf("  %d files, %d crates, %d items, %d macro calls\n",
		sess.Counts.Files, sess.Counts.Crates, sess.Counts.Items, sess.Counts.MacroCalls)
	if n := sess.Counts.FailedExpansions; n > 0 {
		r.Warn(fmt.Sprintf("%d macro expansions failed", n))
	}
}

func printChanges(cmdCtx *CommandContext, previous *state.Session, changes []state.ItemChange) {
	r := cmdCtx.Renderer
	if previous == nil {
		r.Println(r.Styles().Muted.Render("no previous session"))
		return
	}
	if len(changes) == 0 {
		r.Println(r.Styles().Success.Render("no item changes since " + previous.ID))
		return
	}
	rows := make([]table.Row, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, table.Row{c.Kind, c.ID, describeItem(c.Before), describeItem(c.After)})
	}
	r.Table(table.Row{"Kind", "ID", "Before", "After"}, rows, nil)
}

func describeItem(it *engine.ItemInfo) string {
	if it == nil {
		return "-"
	}
	return fmt.Sprintf("%s %s@%s#%d", it.Name, it.Module, it.File, it.Node)
}
