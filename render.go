package folio

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// isPartial reports an htmx request for a page body without the shell.
func isPartial(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true" && c.QueryParam("partial") != ""
}

// site returns the shell settings, with the performance monitor as widget.
func (a *App) site() views.Site {
	s := views.Site{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
		GitHub:      a.Config.GitHub,
	}
	if a.monitor != nil {
		s.Widget = a.monitor
	}
	return s
}

// page describes one public page render.
type page struct {
	Metadata views.Metadata
	JSONLD   string
	Body     templ.Component
}

// renderPage renders p inside the section owning the request path: the
// section layout wraps the body and the section metadata fills the head.
func (a *App) renderPage(c echo.Context, code int, p page) error {
	if sec, ok := a.Sections.Lookup(c.Request().URL.Path); ok {
		p.Body = sec.Wrap(p.Body)
		if sec.Metadata != nil {
			p.Metadata = sec.Metadata()
		}
	}
	return a.renderShell(c, code, p)
}

// renderShell renders p in the document shell, or only its body for htmx
// partial requests.
func (a *App) renderShell(c echo.Context, code int, p page) error {
	if isPartial(c) {
		return RenderStatus(c, code, p.Body)
	}
	return RenderStatus(c, code, views.Page(views.PageProps{
		Site:     a.site(),
		Metadata: p.Metadata,
		Path:     c.Request().URL.Path,
		JSONLD:   p.JSONLD,
		Body:     p.Body,
	}))
}

func (a *App) siteMetadata(title string) views.Metadata {
	if title == "" {
		title = a.Config.Name
	} else {
		title += " | " + a.Config.Name
	}
	return views.SiteMetadata(title, a.Config.Description, "website")
}
