package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rustle/internal/engine"
)

// NewMacrosCommand creates the macros command.
func NewMacrosCommand() *cobra.Command {
	var (
		dump       bool
		failedOnly bool
	)

	cmd := &cobra.Command{
		Use:     "macros [crate]",
		Aliases: []string{"calls"},
		Short:   "List macro calls and their expansion status",
		Long: `List every macro call found while collecting the module tree, with
its macro call id, expansion depth and token count.

A call is "unresolved" when no macro_rules definition is in scope at the
call site, and "failed" when its expansion did not produce a token tree
within the limits.`,
		Example: `  # List all macro calls
  rustle macros

  # Show the debug dump of failed calls
  rustle macros --failed --dump`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: crateNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMacros(cmd, args, dump, failedOnly)
		},
	}

	cmd.Flags().BoolVar(&dump, "dump", false, "Print the debug dump of each call")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only list calls that did not expand")

	return cmd
}

func runMacros(cmd *cobra.Command, args []string, dump, failedOnly bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	db := cmdCtx.DB
	r := cmdCtx.Renderer

	crates, err := selectCrates(db, args)
	if err != nil {
		return err
	}

	calls := []engine.MacroInfo{}
	for _, krate := range crates {
		for _, c := range db.MacroCalls(krate) {
			if failedOnly && c.Status == engine.MacroExpanded {
				continue
			}
			if !dump {
				c.Dump = ""
			}
			calls = append(calls, c)
		}
	}

	if r.Structured() {
		return r.Encode(calls)
	}

	rows := make([]table.Row, 0, len(calls))
	failed := 0
	for _, c := range calls {
		id := any(c.ID)
		if c.Status == engine.MacroUnresolved {
			id = "-"
		}
		status := c.Status
		switch c.Status {
		case engine.MacroFailed:
			failed++
			status = r.Styles().Error.Render(status)
		case engine.MacroUnresolved:
			status = r.Styles().Warning.Render(status)
		default:
			status = r.Styles().Success.Render(status)
		}
		rows = append(rows, table.Row{id, c.Macro + "!", status, c.Tokens, c.Depth, c.Path, lineLabel(c.Line), c.Module})
	}
	r.Table(
		table.Row{"ID", "Macro", "Status", "Tokens", "Depth", "Path", "Line", "Module"},
		rows,
		table.Row{"", "", "", "", "", "", "Total", len(calls)},
	)

	for _, c := range calls {
		if c.Error != "" {
			r.Warn(fmt.Sprintf("%s! in %s: %s", c.Macro, c.Module, c.Error))
		}
		if dump && c.Dump != "" {
			r.Println()
			r.Println(r.Styles().Code.Render(c.Dump))
		}
	}
	if failed > 0 {
		cmdCtx.Logger.Debug("macro expansions failed", "count", failed)
	}
	return nil
}

func lineLabel(line int) string {
	if line == 0 {
		return "-"
	}
	return fmt.Sprint(line)
}
