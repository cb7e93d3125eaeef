// Package engine provides the incremental analysis database.
// It owns the source inputs, the interning tables and the memoized queries
// behind hir.DefDatabase.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/rustle/internal/hir"
	"github.com/leapstack-labs/rustle/internal/intern"
	"github.com/leapstack-labs/rustle/internal/memo"
	"github.com/leapstack-labs/rustle/internal/source"
	"github.com/leapstack-labs/rustle/pkg/mbe"
	"github.com/leapstack-labs/rustle/pkg/syntax"
)

// DefaultMaxExpansionDepth bounds nested macro expansion when Config leaves
// it unset.
const DefaultMaxExpansionDepth = 64

// DefaultMaxMacroFiles bounds the macro files collected per crate when
// Config leaves it unset.
const DefaultMaxMacroFiles = 4096

// Config holds database configuration.
type Config struct {
	// Files holds the source texts (optional, starts empty if nil)
	Files *source.FileSet
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// MaxExpansionDepth bounds nested expansion. Zero selects
	// DefaultMaxExpansionDepth; a negative value disables the check.
	MaxExpansionDepth int
	// MaxMacroFiles bounds the macro files collected per crate. Zero selects
	// DefaultMaxMacroFiles; a negative value disables the check.
	MaxMacroFiles int
}

// Database implements hir.DefDatabase.
//
// Interning tables only grow: ids minted earlier in a session keep their
// meaning across edits. Memoized queries are dropped on every input change.
type Database struct {
	files    *source.FileSet
	crates   source.CrateGraph
	logger   *slog.Logger
	maxDepth int
	maxFiles int

	// Serializes input changes.
	inputMu sync.Mutex

	parse     *memo.Cache[source.FileID, *syntax.SourceFile]
	hirParse  *memo.Cache[hir.HirFileID, *syntax.SourceFile]
	astIDMaps *memo.Cache[hir.HirFileID, *syntax.AstIDMap]
	macroDefs *memo.Cache[hir.MacroDefID, *mbe.MacroRules]
	defMaps   *memo.Cache[source.CrateID, *hir.DefMap]

	macros      *intern.Table[hir.MacroCallLoc, hir.MacroCallID]
	functions   *intern.Table[hir.ItemLoc[*syntax.FnDef], hir.FunctionID]
	structs     *intern.Table[hir.ItemLoc[*syntax.StructDef], hir.StructID]
	enums       *intern.Table[hir.ItemLoc[*syntax.EnumDef], hir.EnumID]
	consts      *intern.Table[hir.ItemLoc[*syntax.ConstDef], hir.ConstID]
	statics     *intern.Table[hir.ItemLoc[*syntax.StaticDef], hir.StaticID]
	traits      *intern.Table[hir.ItemLoc[*syntax.TraitDef], hir.TraitID]
	typeAliases *intern.Table[hir.ItemLoc[*syntax.TypeAliasDef], hir.TypeAliasID]
}

var _ hir.DefDatabase = (*Database)(nil)

// New creates an empty database.
func New(cfg Config) *Database {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	files := cfg.Files
	if files == nil {
		files = source.NewFileSet()
	}
	maxDepth := cfg.MaxExpansionDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxExpansionDepth
	}
	maxFiles := cfg.MaxMacroFiles
	if maxFiles == 0 {
		maxFiles = DefaultMaxMacroFiles
	}

	db := &Database{
		files:    files,
		logger:   logger,
		maxDepth: maxDepth,
		maxFiles: maxFiles,

		macros:      intern.NewTable[hir.MacroCallLoc, hir.MacroCallID](),
		functions:   intern.NewTable[hir.ItemLoc[*syntax.FnDef], hir.FunctionID](),
		structs:     intern.NewTable[hir.ItemLoc[*syntax.StructDef], hir.StructID](),
		enums:       intern.NewTable[hir.ItemLoc[*syntax.EnumDef], hir.EnumID](),
		consts:      intern.NewTable[hir.ItemLoc[*syntax.ConstDef], hir.ConstID](),
		statics:     intern.NewTable[hir.ItemLoc[*syntax.StaticDef], hir.StaticID](),
		traits:      intern.NewTable[hir.ItemLoc[*syntax.TraitDef], hir.TraitID](),
		typeAliases: intern.NewTable[hir.ItemLoc[*syntax.TypeAliasDef], hir.TypeAliasID](),
	}

	db.parse = memo.New("parse", logger, func(file source.FileID) *syntax.SourceFile {
		return syntax.Parse(files.Path(file), files.Text(file))
	})
	db.hirParse = memo.New("hir_parse", logger, func(file hir.HirFileID) *syntax.SourceFile {
		return hir.ResolveContents(db, file)
	})
	db.astIDMaps = memo.New("ast_id_map", logger, func(file hir.HirFileID) *syntax.AstIDMap {
		return syntax.NewAstIDMap(db.HirParse(file))
	})
	db.macroDefs = memo.New("macro_def", logger, func(def hir.MacroDefID) *mbe.MacroRules {
		return hir.MacroDefQuery(db, def)
	})
	db.defMaps = memo.New("crate_def_map", logger, func(krate source.CrateID) *hir.DefMap {
		return hir.CollectCrate(db, krate)
	})

	logger.Debug("initialized database",
		"files", files.Len(),
		"max_expansion_depth", maxDepth,
		"max_macro_files", maxFiles,
	)
	return db
}

// Files returns the source inputs.
func (d *Database) Files() *source.FileSet { return d.files }

// Crates returns the crate graph.
func (d *Database) Crates() *source.CrateGraph { return &d.crates }

// AddCrate registers a crate rooted at the file with the given path.
func (d *Database) AddCrate(name, rootPath string) (source.CrateID, error) {
	root, ok := d.files.Lookup(rootPath)
	if !ok {
		return 0, fmt.Errorf("crate %q: root file %s not found", name, rootPath)
	}
	d.inputMu.Lock()
	defer d.inputMu.Unlock()
	id := d.crates.AddCrate(name, root)
	d.invalidate()
	d.logger.Debug("added crate", "crate", name, "root", rootPath)
	return id, nil
}

// SetFileText replaces the text of a file and drops every memoized query.
func (d *Database) SetFileText(file source.FileID, text string) {
	d.inputMu.Lock()
	defer d.inputMu.Unlock()
	d.files.SetText(file, text)
	d.invalidate()
	d.logger.Debug("file changed", "file", d.files.Path(file))
}

// UpsertFile adds a file or replaces the text of an existing one.
func (d *Database) UpsertFile(path, text string) source.FileID {
	d.inputMu.Lock()
	defer d.inputMu.Unlock()
	id := d.files.Add(path, text)
	d.invalidate()
	d.logger.Debug("file changed", "file", d.files.Path(id))
	return id
}

func (d *Database) invalidate() {
	d.parse.Invalidate()
	d.hirParse.Invalidate()
	d.astIDMaps.Invalidate()
	d.macroDefs.Invalidate()
	d.defMaps.Invalidate()
}

// DefMap returns the collected module tree of a crate.
func (d *Database) DefMap(krate source.CrateID) *hir.DefMap {
	return d.defMaps.Get(krate)
}

// CollectAll collects every crate concurrently. The result is ordered like
// Crates().Crates().
func (d *Database) CollectAll(ctx context.Context) ([]*hir.DefMap, error) {
	crates := d.crates.Crates()
	maps := make([]*hir.DefMap, len(crates))

	g, ctx := errgroup.WithContext(ctx)
	for i, krate := range crates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			maps[i] = d.DefMap(krate)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect crates: %w", err)
	}
	return maps, nil
}

// Stats summarizes the interning tables and query caches.
type Stats struct {
	Files       int `json:"files" yaml:"files"`
	Crates      int `json:"crates" yaml:"crates"`
	MacroCalls  int `json:"macro_calls" yaml:"macro_calls"`
	Functions   int `json:"functions" yaml:"functions"`
	Structs     int `json:"structs" yaml:"structs"`
	Enums       int `json:"enums" yaml:"enums"`
	Consts      int `json:"consts" yaml:"consts"`
	Statics     int `json:"statics" yaml:"statics"`
	Traits      int `json:"traits" yaml:"traits"`
	TypeAliases int `json:"type_aliases" yaml:"type_aliases"`

	ParsedFiles int   `json:"parsed_files" yaml:"parsed_files"`
	HirFiles    int   `json:"hir_files" yaml:"hir_files"`
	MacroDefs   int   `json:"macro_defs" yaml:"macro_defs"`
	DefComputes int64 `json:"macro_def_computations" yaml:"macro_def_computations"`
}

// Stats returns a snapshot of table and cache sizes.
func (d *Database) Stats() Stats {
	return Stats{
		Files:       d.files.Len(),
		Crates:      len(d.crates.Crates()),
		MacroCalls:  d.macros.Len(),
		Functions:   d.functions.Len(),
		Structs:     d.structs.Len(),
		Enums:       d.enums.Len(),
		Consts:      d.consts.Len(),
		Statics:     d.statics.Len(),
		Traits:      d.traits.Len(),
		TypeAliases: d.typeAliases.Len(),

		ParsedFiles: d.parse.Len(),
		HirFiles:    d.hirParse.Len(),
		MacroDefs:   d.macroDefs.Len(),
		DefComputes: d.macroDefs.Computations(),
	}
}
