package folio

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/views"
)

const (
	homeFeaturedProjects = 4
	homeLatestPosts      = 5
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	featured, err := a.Cache.FeaturedProjects(ctx, homeFeaturedProjects)
	if err != nil {
		return err
	}
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	if len(posts) > homeLatestPosts {
		posts = posts[:homeLatestPosts]
	}
	site := a.site()
	return a.renderPage(c, http.StatusOK, page{
		Metadata: a.siteMetadata(""),
		JSONLD:   views.PersonJsonLD(site),
		Body:     a.Views.Home(site, featured, posts),
	})
}

func (a *App) handleProjects(c echo.Context) error {
	ctx := c.Request().Context()
	tag := c.QueryParam("tag")
	projects, err := a.Cache.ListProjects(ctx, tag)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListProjectTags(ctx)
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, page{
		Body: a.Views.ProjectsIndex(projects, tag, tags),
	})
}

func (a *App) handleProject(c echo.Context) error {
	p, err := a.Cache.GetProject(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return a.renderNotFound(c)
		}
		return err
	}
	return a.renderPage(c, http.StatusOK, page{
		JSONLD: views.SoftwareJsonLD(a.site(), p),
		Body:   a.Views.ProjectDetail(p),
	})
}

func (a *App) handleBlog(c echo.Context) error {
	ctx := c.Request().Context()
	tag := c.QueryParam("tag")
	posts, err := a.Cache.ListPosts(ctx, tag)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags(ctx)
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, page{
		Metadata: a.siteMetadata("Blog"),
		Body:     a.Views.BlogIndex(posts, tag, tags),
	})
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Cache.GetPost(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return a.renderNotFound(c)
		}
		return err
	}
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, page{
		Metadata: views.SiteMetadata(post.Title+" | "+a.Config.Name, post.Summary, "article"),
		JSONLD:   views.BlogPostingJsonLD(a.site(), post),
		Body:     a.Views.Post(post, content.FilterRelatedPosts(post, posts)),
	})
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	projects, err := a.Cache.ListProjects(ctx, "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts, projects)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(filepath.Join(a.staticDir, "favicon.svg"))
}

// handleRobots serves the static robots.txt, or a permissive default that
// points crawlers at the sitemap.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	return c.String(http.StatusOK, "User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: "+BuildURL(a.Config.URL)+"sitemap.xml\n")
}

func (a *App) renderNotFound(c echo.Context) error {
	return a.renderShell(c, http.StatusNotFound, page{
		Metadata: a.siteMetadata("Not found"),
		Body:     a.Views.NotFound(),
	})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = a.renderNotFound(c)
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error",
			zap.Error(err),
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
		_ = a.renderShell(c, code, page{
			Metadata: a.siteMetadata("Error"),
			Body:     a.Views.ServerError(),
		})
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
