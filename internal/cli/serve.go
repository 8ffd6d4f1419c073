package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fpbviz/fpbviz/internal/api"
	"github.com/fpbviz/fpbviz/pkg/cache"
	"github.com/fpbviz/fpbviz/pkg/config"
	"github.com/fpbviz/fpbviz/pkg/pipeline"
	"github.com/fpbviz/fpbviz/pkg/session"
	"github.com/fpbviz/fpbviz/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the diagram editor backend",
		Long: `Run the HTTP backend of the diagram editor.

The server computes layouts for posted process models, manages editing
sessions and persists saved documents. Cache, session and document
backends are selected in the config file; the defaults need no external
services.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), configPath, addr)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: standard location)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the config")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, configPath, addr string) error {
	if configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	cch, err := buildCache(cfg.Cache)
	if err != nil {
		return err
	}
	sessions, err := buildSessionStore(cfg.Session)
	if err != nil {
		return err
	}
	docs, err := buildDocumentStore(ctx, cfg.Store)
	if err != nil {
		return err
	}

	c.Logger.Info("starting server",
		"addr", cfg.Server.Addr,
		"cache", cfg.Cache.Backend,
		"sessions", cfg.Session.Backend,
		"store", cfg.Store.Backend)

	runner := buildRunner(cch, c.Logger)
	srv := api.NewServer(cfg, runner, sessions, docs, c.Logger)
	return srv.Start(ctx)
}

// serverKeyPrefix namespaces the server's cache entries, so a Redis
// instance shared with ad-hoc CLI runs never mixes the two.
const serverKeyPrefix = "server:"

func buildRunner(cch cache.Cache, logger *log.Logger) *pipeline.Runner {
	return pipeline.NewRunner(cch, cache.NewScopedKeyer(nil, serverKeyPrefix), logger)
}

func buildCache(cfg config.Cache) (cache.Cache, error) {
	switch cfg.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	}
}

func buildSessionStore(cfg config.Session) (session.Store, error) {
	switch cfg.Backend {
	case "file":
		return session.NewFileStore(cfg.Dir)
	case "redis":
		return session.NewRedisStore(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return session.NewMemoryStore(), nil
	}
}

func buildDocumentStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	switch cfg.Backend {
	case "mongo":
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	default:
		dir := cfg.Dir
		if dir == "" {
			d, err := documentsDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return store.NewFileStore(dir)
	}
}
