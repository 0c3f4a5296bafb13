package folio

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/content"
)

func newTestApp(t *testing.T, mutate ...func(*SiteConfig)) *App {
	t.Helper()
	return newTestAppWith(t, mutate)
}

func newTestAppWith(t *testing.T, mutate []func(*SiteConfig), opts ...Option) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := SiteConfig{
		Name:                  "Portfolio",
		URL:                   "https://example.com",
		Author:                "Ada",
		DatabasePath:          filepath.Join(dir, "folio.db"),
		AnalyticsDatabasePath: filepath.Join(dir, "analytics.db"),
		AdminPassword:         "secret",
		SessionSecret:         "0123456789abcdef0123456789abcdef",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	opts = append([]Option{WithLogger(zap.NewNop()), WithStaticDir(filepath.Join(dir, "public"))}, opts...)
	a := New(cfg, opts...)
	if err := a.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func get(a *App, target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func TestSetupRequiresSecrets(t *testing.T) {
	a := New(SiteConfig{DatabasePath: filepath.Join(t.TempDir(), "folio.db")}, WithLogger(zap.NewNop()))
	if err := a.Setup(context.Background()); err == nil {
		t.Fatal("expected Setup to fail without admin password and session secret")
	}
}

func TestHomeMountsMonitorOnFirstRender(t *testing.T) {
	a := newTestApp(t)
	if a.monitor.Mounted() {
		t.Fatal("monitor should not be mounted before the first page")
	}

	rec := get(a, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<script defer src="/public/analytics.js" data-collect="/api/analytics/collect" data-vitals="/api/perf/vitals"></script>`) {
		t.Errorf("home page is missing the widget:\n%s", body)
	}
	if !strings.Contains(body, "<title>Portfolio</title>") {
		t.Errorf("home page should use the site title")
	}
	if !a.monitor.Mounted() {
		t.Fatal("monitor should be mounted after the first page")
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected a request id header")
	}

	if rec = get(a, "/"); rec.Code != http.StatusOK {
		t.Fatalf("second render status = %d, want 200", rec.Code)
	}
}

func TestProjectsSectionUsesSectionMetadata(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	if err := a.Store.SaveProject(ctx, content.Project{Slug: "folio", Name: "Folio", Summary: "This site.", Tags: []string{"go"}, Published: true}); err != nil {
		t.Fatal(err)
	}
	a.Cache.Invalidate()

	for _, path := range []string{"/projects/", "/projects/folio/"} {
		rec := get(a, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<title>Projects | Portfolio</title>") {
			t.Errorf("%s is missing the projects title", path)
		}
		if !strings.Contains(body, "Explore my open source projects and contributions.") {
			t.Errorf("%s is missing the projects description", path)
		}
		if !strings.Contains(body, "Folio") {
			t.Errorf("%s is missing the project", path)
		}
	}

	if rec := get(a, "/projects/missing/"); rec.Code != http.StatusNotFound {
		t.Errorf("missing project status = %d, want 404", rec.Code)
	}
}

func TestTrailingSlashRedirect(t *testing.T) {
	a := newTestApp(t)
	rec := get(a, "/projects")
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/projects/" {
		t.Errorf("Location = %q, want /projects/", loc)
	}
}

func TestBlogSidebarOnlyWithTags(t *testing.T) {
	a := newTestApp(t)

	rec := get(a, "/blog/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<aside") {
		t.Error("blog without tags should not render a sidebar")
	}

	a.Store.SavePost(context.Background(), content.BlogPost{Slug: "hello", Title: "Hello", Date: "2024-01-01", Tags: []string{"go"}, Published: true})
	a.Cache.Invalidate()

	body := get(a, "/blog/").Body.String()
	if !strings.Contains(body, "<aside") {
		t.Error("blog with tags should render the tag sidebar")
	}
	if !strings.Contains(body, "<title>Blog | Portfolio</title>") {
		t.Error("blog index should use the site metadata")
	}
	if strings.Contains(body, "Projects | Portfolio") {
		t.Error("blog pages are outside the projects section")
	}

	post := get(a, "/blog/hello/").Body.String()
	if !strings.Contains(post, "<title>Hello | Portfolio</title>") {
		t.Error("post should use its own title")
	}
	if strings.Contains(post, "<aside") {
		t.Error("post without related posts should not render a sidebar")
	}
}

func TestPartialRenderOmitsShell(t *testing.T) {
	a := newTestApp(t)
	rec := get(a, "/blog/?partial=1", "HX-Request", "true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<html") || strings.Contains(body, "analytics.js") {
		t.Errorf("partial response should only contain the body:\n%s", body)
	}
	if a.monitor.Mounted() {
		t.Error("a partial render should not mount the monitor")
	}
}

func TestNotFoundPage(t *testing.T) {
	a := newTestApp(t)
	rec := get(a, "/nope/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<title>Not found | Portfolio</title>") {
		t.Error("expected the styled 404 page")
	}
}

func TestSitemapListsProjectsAndPosts(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	a.Store.SaveProject(ctx, content.Project{Slug: "folio", Name: "Folio", Published: true})
	a.Store.SavePost(ctx, content.BlogPost{Slug: "hello", Title: "Hello", Date: "2024-01-01", Published: true})
	a.Cache.Invalidate()

	rec := get(a, "/sitemap.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<loc>https://example.com/</loc>",
		"<loc>https://example.com/projects/</loc>",
		"<loc>https://example.com/projects/folio/</loc>",
		"<loc>https://example.com/blog/hello/</loc>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("sitemap is missing %s", want)
		}
	}
}

func TestRobotsFallback(t *testing.T) {
	a := newTestApp(t)
	rec := get(a, "/robots.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Sitemap: https://example.com/sitemap.xml") {
		t.Errorf("robots.txt = %q", rec.Body.String())
	}
}

func TestAdminRoutesRequireLogin(t *testing.T) {
	a := newTestApp(t)
	for _, path := range []string{"/admin/post/new/", "/admin/project/new/", "/admin/images/"} {
		rec := get(a, path)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("%s status = %d, want 303", path, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/admin/" {
			t.Errorf("%s Location = %q, want /admin/", path, loc)
		}
	}
}

func TestAnalyticsRoutesWhenEnabled(t *testing.T) {
	a := newTestApp(t, func(c *SiteConfig) { c.AnalyticsEnabled = true })

	req := httptest.NewRequest(http.MethodPost, "/api/analytics/collect", strings.NewReader(`{"path":"/"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("collect status = %d, want 204", rec.Code)
	}

	if rec := get(a, "/admin/analytics/api/stats"); rec.Code != http.StatusSeeOther {
		t.Errorf("stats status = %d, want 303 for anonymous users", rec.Code)
	}
}

func TestAnalyticsRoutesWhenDisabled(t *testing.T) {
	a := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/analytics/collect", strings.NewReader(`{"path":"/"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	if rec.Code == http.StatusNoContent {
		t.Fatal("collect should not be registered when analytics is disabled")
	}
}

func TestCustomRoutesAndViews(t *testing.T) {
	v := DefaultViews()
	v.NotFound = func() templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "<p>custom missing</p>")
			return err
		})
	}
	a := newTestAppWith(t, nil,
		WithViews(v),
		WithCustomRoutes(func(a *App) {
			a.Echo.GET("/ping/", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
		}),
	)

	if rec := get(a, "/ping/"); rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Errorf("/ping/ = %d %q, want 200 pong", rec.Code, rec.Body.String())
	}
	if body := get(a, "/nope/").Body.String(); !strings.Contains(body, "custom missing") {
		t.Errorf("expected the custom 404 body, got:\n%s", body)
	}
}
