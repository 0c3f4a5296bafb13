// Package folio is a personal portfolio server built with Go, Echo and templ.
// It serves a home page, a projects section and a blog, with an admin
// dashboard, privacy-first analytics, RSS, a sitemap and a performance
// monitor that starts on the first rendered page.
//
// Page components are supplied through ViewFuncs; DefaultViews wires the
// components of the views package.
package folio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/analytics"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/perfmon"
	"github.com/eringen/folio/views"
)

// ViewFuncs holds the page components the handlers render. Replacing a
// field changes the markup without touching handler logic.
type ViewFuncs struct {
	Home             func(site views.Site, featured []content.Project, latest []content.BlogPost) templ.Component
	ProjectsIndex    func(projects []content.Project, activeTag string, tags []string) templ.Component
	ProjectDetail    func(p content.Project) templ.Component
	BlogIndex        func(posts []content.BlogPost, activeTag string, tags []string) templ.Component
	Post             func(post content.BlogPost, related []content.BlogPost) templ.Component
	AdminLogin       func(showError bool, csrfToken string) templ.Component
	AdminDashboard   func(posts []content.BlogPost, projects []content.Project, message, csrfToken string) templ.Component
	AdminPostForm    func(post content.BlogPost, csrfToken string) templ.Component
	AdminProjectForm func(p content.Project, csrfToken string) templ.Component
	AdminImages      func(images []content.Image, csrfToken string) templ.Component
	AdminAnalytics   func(stats *analytics.Stats, realtime int) templ.Component
	NotFound         func() templ.Component
	ServerError      func() templ.Component
}

// DefaultViews returns the components of the views package.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:             views.Home,
		ProjectsIndex:    views.ProjectsIndex,
		ProjectDetail:    views.ProjectDetail,
		BlogIndex:        views.BlogIndex,
		Post:             views.Post,
		AdminLogin:       views.AdminLogin,
		AdminDashboard:   views.AdminDashboard,
		AdminPostForm:    views.AdminPostForm,
		AdminProjectForm: views.AdminProjectForm,
		AdminImages:      views.AdminImages,
		AdminAnalytics:   views.AdminAnalytics,
		NotFound:         views.NotFound,
		ServerError:      views.ServerError,
	}
}

// App is the central folio application. It wires together the stores,
// cache, handlers, middleware and page components.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Logger   *zap.Logger
	Store    *Store
	Cache    *ContentCache
	Views    ViewFuncs
	Sections *views.Sections

	monitor          *views.PerformanceMonitor
	loginLimiter     *LoginLimiter
	analyticsStore   *analytics.Store
	analyticsHandler *analytics.Handler
	maintenance      *analytics.Maintenance
	customRoutes     []func(*App)
	staticDir        string
	ready            bool
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     DefaultViews(),
		Sections:  views.NewSections(views.ProjectsSection()),
		staticDir: "public",
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		l, err := NewLogger(cfg.Debug)
		if err != nil {
			l = zap.NewNop()
		}
		a.Logger = l
	}
	return a
}

// Setup opens the stores, loads the projects seed and registers middleware
// and routes. Start calls it; tests call it to serve through a.Echo
// without listening.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if err := a.Config.validate(); err != nil {
		return err
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("folio: init store: %w", err)
	}
	a.Store = store

	if a.Config.ProjectsFile != "" {
		n, err := SeedProjects(ctx, a.Store, a.Config.ProjectsFile)
		if err != nil {
			return fmt.Errorf("folio: seed projects: %w", err)
		}
		a.Logger.Info("projects seeded", zap.String("file", a.Config.ProjectsFile), zap.Int("count", n))
	}

	a.Cache = NewContentCache(a.Store, a.Config.CacheTTL)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	if a.Config.AnalyticsEnabled {
		as, err := analytics.NewStore(a.Config.AnalyticsDatabasePath)
		if err != nil {
			return fmt.Errorf("folio: init analytics: %w", err)
		}
		a.analyticsStore = as
		if _, err := as.Salt(ctx); err != nil {
			return fmt.Errorf("folio: init analytics salt: %w", err)
		}
		a.analyticsHandler = analytics.NewHandler(as, a.Logger)
		m, err := analytics.StartMaintenance(as, a.analyticsHandler, a.Config.AnalyticsRetentionDays, a.Logger)
		if err != nil {
			return fmt.Errorf("folio: schedule analytics maintenance: %w", err)
		}
		a.maintenance = m
	}

	a.monitor = views.NewPerformanceMonitor(a.initMonitoring)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// initMonitoring runs once, after the first page has shipped the widget.
func (a *App) initMonitoring() error {
	return perfmon.Init(perfmon.Config{
		ServiceName:         "folio",
		Version:             a.Config.Version,
		RemoteWriteURL:      a.Config.RemoteWriteURL,
		RemoteWriteInterval: a.Config.RemoteWriteInterval,
		OTelEndpoint:        a.Config.OTelEndpoint,
		Logger:              a.Logger.Named("perfmon"),
	})
}

// Start sets up the app and serves until ctx is cancelled, then shuts the
// server down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("url", a.Config.URL))
		errCh <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("folio: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Logger.Info("shutting down")
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("folio: shutdown: %w", err)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets are served under /public/ and fall through to the
	// user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/analytics.js", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS)))))
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/projects/", a.handleProjects)
	e.GET("/projects/:slug/", a.handleProject)
	e.GET("/blog/", a.handleBlog)
	e.GET("/blog/:slug/", a.handlePost)

	perfmon.RegisterRoutes(e, a.Config.MetricsEnabled)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)

	admin := e.Group("/admin", a.requireAdmin)
	admin.GET("/post/new/", a.handleAdminNewPost)
	admin.GET("/post/:slug/", a.handleAdminPost)
	admin.POST("/save/", a.handleAdminSave)
	admin.DELETE("/post/:slug/", a.handleAdminDelete)
	admin.GET("/project/new/", a.handleAdminNewProject)
	admin.GET("/project/:slug/", a.handleAdminProject)
	admin.POST("/project/save/", a.handleAdminProjectSave)
	admin.DELETE("/project/:slug/", a.handleAdminProjectDelete)
	admin.GET("/images/", a.handleImageList)
	admin.POST("/images/upload/", a.handleImageUpload)
	admin.DELETE("/images/:filename/", a.handleImageDelete)

	if a.analyticsHandler != nil {
		a.analyticsHandler.RegisterRoutes(e, e.Group(""), a.requireAdmin)
		admin.GET("/analytics/", a.handleAdminAnalytics)
	}
}

// Close releases the stores, the scheduler and the monitoring subsystem.
func (a *App) Close() error {
	var errs []error
	if a.maintenance != nil {
		errs = append(errs, a.maintenance.Stop())
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.analyticsStore != nil {
		errs = append(errs, a.analyticsStore.Close())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errs = append(errs, perfmon.Shutdown(ctx))
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
