package views

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// canonicalURL joins a request path onto the site URL.
func canonicalURL(base, p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	if len(segments) == 1 && segments[0] == "" {
		return buildURL(base, "/")
	}
	return buildURL(base, segments...)
}

// Head renders the document head from a Metadata record.
func Head(site Site, meta Metadata, path string, jsonLD string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		url := canonicalURL(site.URL, path)
		h := newHTMLWriter(w)
		h.raw(`<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(meta.Title)
		h.raw("</title>")
		h.raw(`<meta name="description"`)
		h.attr("content", meta.Description)
		h.raw(`><link rel="canonical"`)
		h.attr("href", url)
		h.raw(`><meta property="og:title"`)
		h.attr("content", meta.OpenGraph.Title)
		h.raw(`><meta property="og:description"`)
		h.attr("content", meta.OpenGraph.Description)
		h.raw(`><meta property="og:type"`)
		h.attr("content", meta.OpenGraph.Type)
		h.raw(`><meta property="og:url"`)
		h.attr("content", url)
		h.raw(`><meta property="og:site_name"`)
		h.attr("content", site.Name)
		h.raw(`><meta name="twitter:card" content="summary">`)
		h.raw(`<link rel="icon" href="/favicon.svg" type="image/svg+xml">`)
		h.raw(`<link rel="stylesheet" href="/public/styles.css">`)
		h.raw(`<script src="/public/htmx.min.js" defer></script>`)
		if jsonLD != "" {
			h.raw(`<script type="application/ld+json">`)
			h.raw(jsonLD)
			h.raw("</script>")
		}
		h.raw("</head>")
		return h.err
	})
}

var navLinks = []struct{ href, label string }{
	{"/", "Home"},
	{"/projects/", "Projects"},
	{"/blog/", "Blog"},
}

func navClass(active bool) string {
	if active {
		return "font-semibold underline underline-offset-4"
	}
	return "hover:underline underline-offset-4"
}

func isActive(href, path string) bool {
	if href == "/" {
		return path == "/"
	}
	return strings.HasPrefix(path, href)
}

// PageProps configures Page.
type PageProps struct {
	Site     Site
	Metadata Metadata
	Path     string
	JSONLD   string
	Body     templ.Component
}

// Page renders a full HTML document around Body.
func Page(p PageProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<!doctype html><html lang="en">`)
		if h.err != nil {
			return h.err
		}
		if err := Head(p.Site, p.Metadata, p.Path, p.JSONLD).Render(ctx, w); err != nil {
			return err
		}
		h.raw(`<body class="bg-paper text-ink antialiased"><header class="mx-auto flex max-w-5xl items-center justify-between px-4 py-6">`)
		h.raw(`<a href="/" class="text-lg font-bold">`)
		h.text(p.Site.Name)
		h.raw(`</a><nav class="flex gap-6 text-sm">`)
		for _, l := range navLinks {
			h.raw("<a")
			h.attr("href", l.href)
			h.attr("class", navClass(isActive(l.href, p.Path)))
			h.raw(` hx-boost="true">`)
			h.text(l.label)
			h.raw("</a>")
		}
		h.raw(`</nav></header><main id="content" class="mx-auto max-w-5xl px-4 pb-16">`)
		if h.err != nil {
			return h.err
		}
		if p.Body != nil {
			if err := p.Body.Render(ctx, w); err != nil {
				return err
			}
		}
		h.raw(`</main><footer class="mx-auto max-w-5xl px-4 py-8 text-xs text-stone-500">`)
		h.raw("&copy; ")
		h.text(p.Site.Author)
		h.raw(` &middot; <a href="/feed.xml">RSS</a></footer>`)
		if h.err != nil {
			return h.err
		}
		if p.Site.Widget != nil {
			if err := p.Site.Widget.Render(ctx, w); err != nil {
				return err
			}
		}
		h.raw("</body></html>")
		return h.err
	})
}
