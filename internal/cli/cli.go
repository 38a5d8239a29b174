package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hoshipkg/hoshi/pkg/buildinfo"
	"github.com/hoshipkg/hoshi/pkg/cache"
	"github.com/hoshipkg/hoshi/pkg/catalog"
	"github.com/hoshipkg/hoshi/pkg/config"
	"github.com/hoshipkg/hoshi/pkg/errors"
	"github.com/hoshipkg/hoshi/pkg/httputil"
	"github.com/hoshipkg/hoshi/pkg/observability"
	"github.com/hoshipkg/hoshi/pkg/registry"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// catalogKeyScope versions cached constellation documents.
	catalogKeyScope = "v1:"

	// catalogTimeout bounds fetching every constellation.
	catalogTimeout = 30 * time.Second
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

	// ConfigPath overrides the config file location.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Hoshi fetches, unpacks and tracks packages from constellations",
		Long:         `Hoshi downloads packages and their direct dependencies from constellation metadata documents, extracts them into a local install tree and records them in a package registry.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.installHooks()
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/hoshi/config.toml)")

	// Register all subcommands
	root.AddCommand(c.mergeCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.archiveCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) installHooks() {
	hooks := newLogHooks(c.Logger)
	observability.SetAcquisitionHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
}

// =============================================================================
// Factories
// =============================================================================

// loadConfig reads and validates the effective configuration.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newCache opens the configured catalog cache backend.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.Prefix)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis at %s", cfg.Cache.RedisAddr)
		}
		return rc, nil
	default:
		if cfg.Cache.Dir == "" {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(cfg.Cache.Dir)
	}
}

// newCatalog creates a catalog client over the configured cache. The
// returned cache must be closed by the caller.
func (c *CLI) newCatalog(ctx context.Context, cfg *config.Config, noCache bool) (*catalog.Client, cache.Cache, error) {
	backend, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, nil, err
	}
	client := catalog.NewClient(
		httputil.NewCache(backend, time.Duration(cfg.Cache.TTL)),
		catalog.WithKeyer(cache.NewScopedKeyer(cache.NewDefaultKeyer(), catalogKeyScope)),
		catalog.WithLogger(c.Logger),
	)
	return client, backend, nil
}

// fetchArtifacts loads every configured constellation and flattens their
// packages. Failing constellations are reported and skipped.
func (c *CLI) fetchArtifacts(ctx context.Context, cfg *config.Config, noCache bool) ([]catalog.Artifact, error) {
	client, backend, err := c.newCatalog(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	spinner := newSpinnerWithContext(ctx, "Fetching constellations...")
	spinner.Start()
	results := client.FetchAll(ctx, cfg.Constellations, false)
	if spinner.Cancelled() {
		spinner.Stop()
		return nil, ctx.Err()
	}
	spinner.Stop()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			printWarning("Skipping %s: %s", r.Constellation.Name, errors.UserMessage(r.Err))
		}
	}
	if len(results) > 0 && failed == len(results) {
		return nil, errors.New(errors.ErrCodeNetwork, "no constellation could be fetched")
	}
	return catalog.Artifacts(results), nil
}

// newStore returns the registry store for cfg.
func newStore(cfg *config.Config) *registry.Store {
	return registry.NewStore(cfg.RegistryPath)
}
