package folio

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/analytics"
	"github.com/eringen/folio/content"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		a.Logger.Info("admin login", zap.String("ip", ip))
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warn("admin login failed", zap.String("ip", ip))
	return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func redirectWithMessage(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func formTags(c echo.Context) []string {
	return content.FilterEmpty(strings.Split(c.FormValue("tags"), ","))
}

// Posts

func (a *App) handleAdminNewPost(c echo.Context) error {
	return Render(c, a.Views.AdminPostForm(content.BlogPost{
		Date:      time.Now().Format("2006-01-02"),
		Published: true,
	}, CsrfToken(c)))
}

func (a *App) handleAdminPost(c echo.Context) error {
	post, err := a.Store.GetPostAny(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	return Render(c, a.Views.AdminPostForm(post, CsrfToken(c)))
}

func (a *App) handleAdminSave(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	title := strings.TrimSpace(c.FormValue("title"))
	slug := strings.TrimSpace(c.FormValue("slug"))
	if slug == "" {
		slug = content.Slugify(title)
	}
	if slug == "" {
		return redirectWithMessage(c, "Slug is required. Add a title or slug.")
	}
	date := strings.TrimSpace(c.FormValue("date"))
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return redirectWithMessage(c, "Invalid date format. Use YYYY-MM-DD.")
	}
	if err := a.Store.SavePost(c.Request().Context(), content.BlogPost{
		Slug:      slug,
		Title:     title,
		Date:      date,
		Tags:      formTags(c),
		Summary:   c.FormValue("summary"),
		Content:   c.FormValue("content"),
		Published: c.FormValue("published") != "",
	}); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "saved")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if err := a.Store.DeletePost(c.Request().Context(), c.Param("slug")); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "deleted")
}

// Projects

func (a *App) handleAdminNewProject(c echo.Context) error {
	return Render(c, a.Views.AdminProjectForm(content.Project{Published: true}, CsrfToken(c)))
}

func (a *App) handleAdminProject(c echo.Context) error {
	p, err := a.Store.GetProjectAny(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	return Render(c, a.Views.AdminProjectForm(p, CsrfToken(c)))
}

func formInt(c echo.Context, name string) (int, error) {
	v := strings.TrimSpace(c.FormValue(name))
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func (a *App) handleAdminProjectSave(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	name := strings.TrimSpace(c.FormValue("name"))
	slug := strings.TrimSpace(c.FormValue("slug"))
	if slug == "" {
		slug = content.Slugify(name)
	}
	if slug == "" {
		return redirectWithMessage(c, "Slug is required. Add a name or slug.")
	}
	stars, err := formInt(c, "stars")
	if err != nil || stars < 0 {
		return redirectWithMessage(c, "Stars must be a non-negative number.")
	}
	order, err := formInt(c, "order")
	if err != nil {
		return redirectWithMessage(c, "Order must be a number.")
	}
	if err := a.Store.SaveProject(c.Request().Context(), content.Project{
		Slug:        slug,
		Name:        name,
		Summary:     strings.TrimSpace(c.FormValue("summary")),
		Description: c.FormValue("description"),
		RepoURL:     strings.TrimSpace(c.FormValue("repo")),
		HomepageURL: strings.TrimSpace(c.FormValue("homepage")),
		Language:    strings.TrimSpace(c.FormValue("language")),
		Tags:        formTags(c),
		Stars:       stars,
		SortOrder:   order,
		CoverImage:  c.FormValue("cover"),
		Featured:    c.FormValue("featured") != "",
		Published:   c.FormValue("published") != "",
	}); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "project saved")
}

func (a *App) handleAdminProjectDelete(c echo.Context) error {
	if err := a.Store.DeleteProject(c.Request().Context(), c.Param("slug")); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "project deleted")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	ctx := c.Request().Context()
	posts, err := a.Store.ListAllPosts(ctx)
	if err != nil {
		return err
	}
	projects, err := a.Store.ListAllProjects(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(posts, projects, msg, CsrfToken(c)))
}

// Analytics

func (a *App) handleAdminAnalytics(c echo.Context) error {
	p := analytics.ParsePeriod(c.QueryParam("period"))
	stats, realtime, err := a.analyticsHandler.Summary(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminAnalytics(stats, realtime))
}
