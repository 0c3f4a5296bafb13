package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/eringen/folio"
)

// version is set at build time via ldflags.
var version = "dev"

type CLI struct {
	EnvFile     string           `name:"env-file" help:"Dotenv file loaded before parsing the environment" default:".env"`
	Debug       bool             `short:"d" help:"Enable development logging"`
	ShowVersion kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve   ServeCmd   `cmd:"" default:"withargs" help:"Serve the portfolio (default)"`
	Seed    SeedCmd    `cmd:"" help:"Load a projects YAML file into the database and exit"`
	Version VersionCmd `cmd:"" help:"Print the version"`
}

// ServeCmd flags override the environment when set.
type ServeCmd struct {
	Addr      string `short:"a" help:"Listen address (overrides ADDR)"`
	URL       string `help:"Canonical site URL (overrides SITE_URL)"`
	DB        string `name:"db" help:"SQLite database path (overrides DATABASE_PATH)" type:"path"`
	Projects  string `help:"Projects YAML seed file (overrides PROJECTS_FILE)" type:"path"`
	StaticDir string `name:"static" help:"Static assets directory" default:"public" type:"path"`
	Metrics   bool   `help:"Expose /metrics (overrides METRICS_ENABLED)"`
}

type SeedCmd struct {
	File string `arg:"" help:"Projects YAML file" type:"existingfile"`
	DB   string `name:"db" help:"SQLite database path (overrides DATABASE_PATH)" type:"path"`
}

type VersionCmd struct{}

type runContext struct {
	cfg    folio.SiteConfig
	logger *zap.Logger
}

// apply overlays the flags that were set on cfg.
func (c *ServeCmd) apply(cfg folio.SiteConfig) folio.SiteConfig {
	if c.Addr != "" {
		cfg.Addr = c.Addr
	}
	if c.URL != "" {
		cfg.URL = c.URL
	}
	if c.DB != "" {
		cfg.DatabasePath = c.DB
	}
	if c.Projects != "" {
		cfg.ProjectsFile = c.Projects
	}
	if c.Metrics {
		cfg.MetricsEnabled = true
	}
	return cfg
}

func (c *ServeCmd) Run(rc *runContext) error {
	cfg := c.apply(rc.cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := folio.New(cfg, folio.WithLogger(rc.logger), folio.WithStaticDir(c.StaticDir))
	defer func() {
		if err := app.Close(); err != nil {
			rc.logger.Warn("close", zap.Error(err))
		}
	}()
	return app.Start(ctx)
}

func (c *SeedCmd) Run(rc *runContext) error {
	path := rc.cfg.DatabasePath
	if c.DB != "" {
		path = c.DB
	}
	if path == "" {
		path = "data/folio.db"
	}
	store, err := folio.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	n, err := folio.SeedProjects(context.Background(), store, c.File)
	if err != nil {
		return err
	}
	rc.logger.Info("projects seeded", zap.String("file", c.File), zap.Int("count", n))
	return nil
}

func (VersionCmd) Run(*runContext) error {
	fmt.Printf("folio %s\n", version)
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("folio"),
		kong.Description("A personal portfolio server: projects, blog, analytics and performance monitoring."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)

	cfg, err := folio.LoadConfig(cli.EnvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "folio: %v\n", err)
		os.Exit(1)
	}
	cfg.Version = version
	if cli.Debug {
		cfg.Debug = true
	}

	logger, err := folio.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "folio: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := kctx.Run(&runContext{cfg: cfg, logger: logger}); err != nil {
		logger.Error("command failed", zap.String("command", kctx.Command()), zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
