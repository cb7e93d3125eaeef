package commands

import (
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rustle/internal/cli/output"
	"github.com/leapstack-labs/rustle/internal/engine"
	"github.com/leapstack-labs/rustle/internal/state"
	"github.com/leapstack-labs/rustle/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var index bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-collect crates whenever sources change",
		Long: `Watch the project for .rs file changes and re-collect every crate after
each batch of edits. Item ids and macro call ids minted earlier in the
session keep their meaning across edits.

With --index every batch is recorded as a session and the item changes
relative to the previous batch are printed.`,
		Example: `  rustle watch
  rustle watch --index --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, index)
		},
	}

	cmd.Flags().BoolVar(&index, "index", false, "Record a session after every batch")

	return cmd
}

func runWatch(cmd *cobra.Command, index bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := cmdCtx.DB
	r := cmdCtx.Renderer
	logger := cmdCtx.Logger

	var (
		store    *state.SQLiteStore
		previous *state.Session
	)
	record := func() {
		if store == nil {
			return
		}
		sess, err := snapshot(ctx, store, db, cmdCtx.Cfg.ProjectRoot)
		if err != nil {
			logger.Error("failed to record session", slog.String("error", err.Error()))
			return
		}
		if previous != nil {
			changes, err := store.DiffItems(ctx, previous.ID, sess.ID)
			if err != nil {
				logger.Error("failed to diff sessions", slog.String("error", err.Error()))
			} else {
				printChanges(cmdCtx, previous, changes)
			}
		}
		previous = sess
		if err := store.DeleteOldSessions(ctx, DefaultKeepSessions); err != nil {
			logger.Warn("failed to prune sessions", slog.String("error", err.Error()))
		}
	}

	if index {
		if store, err = openStore(cmdCtx); err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	if _, err := db.CollectAll(ctx); err != nil {
		return err
	}
	printStats(r, db.Stats())
	record()

	w := watch.New(db, watch.Config{
		Root:     cmdCtx.Cfg.ProjectRoot,
		Debounce: cmdCtx.Cfg.WatchDebounce,
		Logger:   logger,
	})
	r.Println(r.Styles().Muted.Render("watching " + cmdCtx.Cfg.ProjectRoot))

	return w.Run(ctx, func(b watch.Batch) {
		logger.Info("sources changed",
			slog.String("changed", strings.Join(b.Changed, ",")),
			slog.String("removed", strings.Join(b.Removed, ",")))
		if _, err := db.CollectAll(ctx); err != nil {
			logger.Error("collection failed", slog.String("error", err.Error()))
			return
		}
		printStats(r, db.Stats())
		record()
	})
}

func printStats(r *output.Renderer, s engine.Stats) {
	if r.Structured() {
		_ = r.Encode(s)
		return
	}
	r.Printf("%d files, %d crates, %d macro calls, %d fns, %d structs, %d enums, %d traits\n",
		s.Files, s.Crates, s.MacroCalls, s.Functions, s.Structs, s.Enums, s.Traits)
}
