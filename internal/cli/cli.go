// Package cli implements the nunet command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nunet/pkg/buildinfo"
	"github.com/matzehuels/nunet/pkg/cache"
	"github.com/matzehuels/nunet/pkg/config"
	"github.com/matzehuels/nunet/pkg/pipeline"
	"github.com/matzehuels/nunet/pkg/script"
	"github.com/matzehuels/nunet/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "nunet"

	// defaultDesign is the design file used when --design is not given.
	defaultDesign = "design.nunet"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	designPath string
}

// New creates a new CLI instance with a default logger and the built-in
// configuration. The user's config file is loaded before each command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "nunet designs layered neural networks",
		Long: `nunet edits neural-network designs: neurons placed on a layer/offset grid,
joined by synapses that always run from a lower layer to a higher one.
Valid designs are turned into Python network classes or diagrams.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/nunet/config.toml)")
	root.PersistentFlags().StringVarP(&c.designPath, "design", "d", defaultDesign, "design file (.nunet, .json or .toml)")

	root.AddCommand(c.initCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// synapseDefaults returns the configured initialization for new synapses.
func (c *CLI) synapseDefaults() script.Defaults {
	s := c.Config.Synapse
	return script.Defaults{Interval: s.Interval, Min: s.Min, Max: s.Max, Bias: s.Bias}
}

// =============================================================================
// Runner and Storage Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, cache.NewScopedKeyer(nil, buildinfo.CacheScope()), c.Logger)
	if c.Config.Cache.TTL > 0 {
		r.TTL = c.Config.Cache.TTL
	}
	return r, nil
}

// newCache picks the generation cache: none when disabled, Redis when a
// URL is configured, and the local file cache otherwise. An unusable local
// cache directory disables caching rather than failing the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if url := c.Config.Cache.RedisURL; url != "" {
		return cache.NewRedisCache(ctx, url, appName+":cache:")
	}
	dir, err := config.CacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// openStorage opens the configured design store.
func (c *CLI) openStorage(ctx context.Context) (storage.Store, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	st, err := storage.Open(ctx, c.Config.Storage.Backend, c.Config.Storage.DSN, dataDir)
	if err != nil {
		return nil, err
	}
	loggerFromContext(ctx).Debug("opened design store", "backend", c.Config.Storage.Backend)
	return st, nil
}

// output is where command results are printed.
var output io.Writer = os.Stdout
