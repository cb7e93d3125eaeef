package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rustle/internal/engine"
	"github.com/leapstack-labs/rustle/internal/hir"
)

// expansionResult is the structured output of the expand command.
type expansionResult struct {
	ID        uint32            `json:"id" yaml:"id"`
	File      string            `json:"file" yaml:"file"`
	Depth     int               `json:"depth" yaml:"depth"`
	Dump      string            `json:"dump" yaml:"dump"`
	Tokens    int               `json:"tokens" yaml:"tokens"`
	Expansion string            `json:"expansion,omitempty" yaml:"expansion,omitempty"`
	Error     string            `json:"error,omitempty" yaml:"error,omitempty"`
	Items     []engine.ItemInfo `json:"items" yaml:"items"`
}

// NewExpandCommand creates the expand command.
func NewExpandCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand <file> <line>",
		Short: "Expand the macro call at a source line",
		Long: `Expand the innermost macro call written in <file> that spans <line>
and print its token expansion and the items it defines.

<file> is relative to the project root.`,
		Example: `  # Expand the call on line 12 of src/lib.rs
  rustle expand src/lib.rs 12`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := strconv.Atoi(args[1])
			if err != nil || line < 1 {
				return fmt.Errorf("invalid line %q", args[1])
			}
			return runExpand(cmd, filepath.ToSlash(filepath.Clean(args[0])), line)
		},
	}
	return cmd
}

func runExpand(cmd *cobra.Command, path string, line int) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	db := cmdCtx.DB
	r := cmdCtx.Renderer

	if _, err := db.CollectAll(cmd.Context()); err != nil {
		return err
	}
	id, err := db.CallAt(path, line)
	if err != nil {
		return fmt.Errorf("%s:%d: %w", path, line, err)
	}

	file := hir.FromMacro(id)
	res := expansionResult{
		ID:    uint32(id),
		File:  file.String(),
		Depth: file.ExpansionDepth(db),
		Dump:  id.DebugDump(db),
		Items: itemsIn(db, file.String()),
	}
	if res.Items == nil {
		res.Items = []engine.ItemInfo{}
	}
	tokens, err := hir.ExpandTokens(db, id)
	if err == nil {
		res.Tokens = tokens.Count()
		res.Expansion = tokens.Render()
		_, err = hir.Expand(db, id)
	}
	if err != nil {
		res.Error = err.Error()
	}

	if r.Structured() {
		return r.Encode(res)
	}

	r.Header(fmt.Sprintf("%s (depth %d)", res.File, res.Depth))
	r.Println(r.Styles().Muted.Render(res.Dump))
	r.Println()
	if res.Error != "" {
		r.Warn(res.Error)
		return nil
	}
	r.Println(r.Styles().Code.Render(res.Expansion))
	r.Println()
	r.Printf("%d tokens, %d items\n", res.Tokens, len(res.Items))
	for _, it := range res.Items {
		r.Printf("  %s  %s#%d\n", itemLabel(it), it.Kind, it.ID)
	}
	return nil
}
