// Package commands implements the rustle subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rustle/internal/cli/output"
	"github.com/leapstack-labs/rustle/internal/config"
	"github.com/leapstack-labs/rustle/internal/engine"
	"github.com/leapstack-labs/rustle/internal/source"
)

type runtimeKey struct{}

type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
}

// WithRuntime stores the loaded configuration and logger for subcommands.
func WithRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, runtimeKey{}, runtime{cfg: cfg, logger: logger})
}

// CommandContext holds everything a subcommand needs.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	DB       *engine.Database
	Renderer *output.Renderer
}

// NewCommandContext loads the project sources into a new database.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	c := NewCommandContextWithoutDatabase(cmd)
	db, err := loadDatabase(c.Cfg, c.Logger)
	if err != nil {
		return nil, err
	}
	c.DB = db
	return c, nil
}

// NewCommandContextWithoutDatabase is NewCommandContext for commands that
// do not analyze sources.
func NewCommandContextWithoutDatabase(cmd *cobra.Command) *CommandContext {
	rt, ok := cmd.Context().Value(runtimeKey{}).(runtime)
	if !ok {
		rt = runtime{
			cfg:    &config.Config{Output: config.DefaultOutput, ProjectRoot: "."},
			logger: slog.New(slog.DiscardHandler),
		}
	}
	return &CommandContext{
		Cfg:      rt.cfg,
		Logger:   rt.logger,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), rt.cfg.Output),
	}
}

func loadDatabase(cfg *config.Config, logger *slog.Logger) (*engine.Database, error) {
	if len(cfg.Crates) == 0 {
		return nil, fmt.Errorf("no crates in %s: declare crates in %s or add src/lib.rs", cfg.ProjectRoot, config.ConfigFileName)
	}

	files := source.NewFileSet()
	n, err := files.LoadDir(cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded sources", slog.Int("files", n), slog.String("root", cfg.ProjectRoot))

	db := engine.New(engine.Config{
		Files:             files,
		Logger:            logger,
		MaxExpansionDepth: cfg.MaxExpansionDepth,
		MaxMacroFiles:     cfg.MaxMacroFiles,
	})
	for _, c := range cfg.Crates {
		if _, err := db.AddCrate(c.Name, c.Root); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// errUnknownCrate is returned when a crate argument names no crate.
var errUnknownCrate = errors.New("unknown crate")

// selectCrates returns the crate named by args, or every crate.
func selectCrates(db *engine.Database, args []string) ([]source.CrateID, error) {
	if len(args) == 0 || args[0] == "" {
		return db.Crates().Crates(), nil
	}
	id, ok := db.Crates().Lookup(args[0])
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownCrate, args[0])
	}
	return []source.CrateID{id}, nil
}

// crateNames completes crate arguments from the configuration.
func crateNames(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	c := NewCommandContextWithoutDatabase(cmd)
	names := make([]string, 0, len(c.Cfg.Crates))
	for _, crate := range c.Cfg.Crates {
		names = append(names, crate.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
