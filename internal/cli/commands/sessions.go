package commands

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rustle/internal/state"
)

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded index sessions",
		Example: `  rustle sessions
  rustle sessions --limit 3 -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSessions(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions to list")

	return cmd
}

func runSessions(cmd *cobra.Command, limit int) error {
	cmdCtx := NewCommandContextWithoutDatabase(cmd)
	r := cmdCtx.Renderer

	store, err := openStore(cmdCtx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sessions, err := store.ListSessions(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if sessions == nil {
		sessions = []*state.Session{}
	}

	if r.Structured() {
		return r.Encode(sessions)
	}

	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		completed := "running"
		if s.CompletedAt != nil {
			completed = s.CompletedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
		}
		rows = append(rows, table.Row{
			s.ID, s.StartedAt.Local().Format(time.DateTime), completed,
			s.Counts.Items, s.Counts.MacroCalls, s.Counts.FailedExpansions,
		})
	}
	r.Table(table.Row{"Session", "Started", "Took", "Items", "Macro calls", "Failed"}, rows, nil)
	return nil
}
