package folio

import (
	"encoding/xml"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/content"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc      string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
	Priority string `xml:"priority,omitempty"`
}

func (a *App) renderSitemap(c echo.Context, posts []content.BlogPost, projects []content.Project) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base), Priority: "1.0"},
		{Loc: BuildURL(base, "projects"), Priority: "0.8"},
	}
	for _, p := range projects {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "projects", p.Slug), Priority: "0.7"})
	}
	urls = append(urls, sitemapURL{Loc: BuildURL(base, "blog"), Priority: "0.8"})
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "blog", p.Slug),
			LastMod: p.Date,
		})
	}
	return writeXML(c, "application/xml; charset=utf-8", sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}
