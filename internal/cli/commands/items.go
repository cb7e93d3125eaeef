package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rustle/internal/engine"
)

// NewItemsCommand creates the items command.
func NewItemsCommand() *cobra.Command {
	var kinds []string

	cmd := &cobra.Command{
		Use:   "items [crate]",
		Short: "List item ids of every crate",
		Long: `Collect the module tree of each crate and list every interned item id
together with the module, file and node it resolves to.

Items produced by macro expansion are listed with the macro file they live
in and the real file the expansion originates from.`,
		Example: `  # List items of every crate
  rustle items

  # Only functions and structs of one crate
  rustle items core --kind fn --kind struct

  # Machine-readable output
  rustle items -o json`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: crateNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItems(cmd, args, kinds)
		},
	}

	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "Only list items of these kinds (fn|struct|enum|const|static|trait|type)")

	return cmd
}

func runItems(cmd *cobra.Command, args, kinds []string) error {
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

	var items []engine.ItemInfo
	for _, krate := range crates {
		items = append(items, db.Items(krate)...)
	}
	items = filterKinds(items, kinds)

	if r.Structured() {
		if items == nil {
			items = []engine.ItemInfo{}
		}
		return r.Encode(items)
	}

	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		kind := it.Kind
		if it.Assoc {
			kind += " (assoc)"
		}
		rows = append(rows, table.Row{kind, it.ID, it.Name, it.Module, it.File, it.Path, it.Node})
	}
	r.Table(
		table.Row{"Kind", "ID", "Name", "Module", "File", "Path", "Node"},
		rows,
		table.Row{"", "", "", "", "", "Total", len(items)},
	)
	return nil
}

func filterKinds(items []engine.ItemInfo, kinds []string) []engine.ItemInfo {
	if len(kinds) == 0 {
		return items
	}
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[strings.ToLower(strings.TrimSpace(k))] = true
	}
	var out []engine.ItemInfo
	for _, it := range items {
		if want[it.Kind] {
			out = append(out, it)
		}
	}
	return out
}

// itemsIn returns the items whose HirFileID renders as file.
func itemsIn(db *engine.Database, file string) []engine.ItemInfo {
	var out []engine.ItemInfo
	for _, krate := range db.Crates().Crates() {
		for _, it := range db.Items(krate) {
			if it.File == file {
				out = append(out, it)
			}
		}
	}
	return out
}

func itemLabel(it engine.ItemInfo) string {
	label := fmt.Sprintf("%s %s", it.Kind, it.Name)
	if it.Assoc {
		label += " (assoc)"
	}
	return label
}
