package folio

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `env:"SITE_NAME"`        // Site name (default "Portfolio")
	URL         string `env:"SITE_URL"`         // Canonical URL (default "http://localhost:3000")
	Description string `env:"SITE_DESCRIPTION"` // Site description for RSS and meta tags
	Author      string `env:"SITE_AUTHOR"`      // Owner name for the home page and JSON-LD
	GitHub      string `env:"SITE_GITHUB"`      // Profile URL linked from JSON-LD

	Addr         string `env:"ADDR"`          // Listen address (default ":3000")
	DatabasePath string `env:"DATABASE_PATH"` // SQLite path (default "data/folio.db")
	ProjectsFile string `env:"PROJECTS_FILE"` // Optional YAML seed of projects

	AnalyticsEnabled       bool   `env:"ANALYTICS_ENABLED" envDefault:"true"`
	AnalyticsDatabasePath  string `env:"ANALYTICS_DATABASE_PATH"` // default "data/analytics.db"
	AnalyticsRetentionDays int    `env:"ANALYTICS_RETENTION_DAYS"`

	MetricsEnabled      bool          `env:"METRICS_ENABLED"` // expose /metrics
	RemoteWriteURL      string        `env:"PROM_REMOTE_WRITE_URL"`
	RemoteWriteInterval time.Duration `env:"PROM_REMOTE_WRITE_INTERVAL"`
	OTelEndpoint        string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	AdminPassword string `env:"ADMIN_PASSWORD"` // Required: admin login password
	SessionSecret string `env:"SESSION_SECRET"` // Required: session encryption secret
	CookieSecure  bool   `env:"COOKIE_SECURE"`  // Set true for HTTPS

	CacheTTL time.Duration `env:"CACHE_TTL"` // Content cache TTL (default 5m)
	Debug    bool          `env:"FOLIO_DEBUG"`
	Version  string        `env:"-"`
}

// LoadConfig reads an optional .env file and parses the environment into a
// SiteConfig. Variables already set in the environment win over the file.
func LoadConfig(dotenvFiles ...string) (SiteConfig, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return SiteConfig{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg SiteConfig
	if err := ParseEnv(&cfg); err != nil {
		return SiteConfig{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/folio.db"
	}
	if c.AnalyticsDatabasePath == "" {
		c.AnalyticsDatabasePath = "data/analytics.db"
	}
	if c.AnalyticsRetentionDays == 0 {
		c.AnalyticsRetentionDays = 365
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.Version == "" {
		c.Version = "dev"
	}
}

func (c SiteConfig) validate() error {
	if c.AdminPassword == "" {
		return errors.New("folio: AdminPassword is required")
	}
	if c.SessionSecret == "" {
		return errors.New("folio: SessionSecret is required")
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger replaces the logger built from the Debug flag.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithViews replaces the page components. Start from DefaultViews and
// override the fields you need.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}
