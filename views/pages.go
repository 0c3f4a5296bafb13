package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/markdown"
)

// render is a shorthand for nested component calls inside ComponentFuncs.
func render(ctx context.Context, w io.Writer, h *htmlWriter, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, w)
}

func projectCard(h *htmlWriter, p content.Project) {
	h.raw(`<article class="rounded border border-ink p-5"><h3 class="text-lg font-semibold"><a`)
	h.attr("href", p.Link())
	h.raw(">")
	h.text(p.Name)
	h.raw(`</a></h3><p class="mt-2 text-sm">`)
	h.text(p.Summary)
	h.raw(`</p><p class="mt-3 flex gap-3 text-xs text-stone-500">`)
	if p.Language != "" {
		h.raw("<span>")
		h.text(p.Language)
		h.raw("</span>")
	}
	if p.Stars > 0 {
		h.raw("<span>&#9733; ")
		h.raw(strconv.Itoa(p.Stars))
		h.raw("</span>")
	}
	h.raw("</p></article>")
}

func postItem(h *htmlWriter, p content.BlogPost) {
	h.raw(`<li class="py-3"><a class="font-semibold"`)
	h.attr("href", p.Link+"/")
	h.raw(">")
	h.text(p.Title)
	h.raw(`</a> <time class="text-xs text-stone-500"`)
	h.attr("datetime", p.Date)
	h.raw(">")
	h.text(p.Date)
	h.raw("</time>")
	if p.Summary != "" {
		h.raw(`<p class="text-sm">`)
		h.text(p.Summary)
		h.raw("</p>")
	}
	h.raw("</li>")
}

func tagPills(h *htmlWriter, base, activeTag string, tags []string) {
	h.raw(`<div class="flex flex-wrap gap-2">`)
	for _, t := range tags {
		h.raw("<a")
		h.attr("href", base+"?tag="+PathEscape(t))
		h.attr("class", TagClass(t == activeTag))
		h.raw(">")
		h.text(t)
		h.raw("</a>")
	}
	h.raw("</div>")
}

// Home renders the landing page body.
func Home(site Site, featured []content.Project, latest []content.BlogPost) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<section class="py-10"><h1 class="text-4xl font-bold">`)
		h.text(site.Author)
		h.raw(`</h1><p class="mt-4 max-w-2xl text-lg">`)
		h.text(site.Description)
		h.raw("</p></section>")
		if len(featured) > 0 {
			h.raw(`<section class="py-6"><h2 class="mb-4 text-2xl font-semibold">Featured projects</h2><div class="grid gap-4 md:grid-cols-2">`)
			for _, p := range featured {
				projectCard(h, p)
			}
			h.raw(`</div><a href="/projects/" class="mt-4 inline-block text-sm underline">All projects</a></section>`)
		}
		if len(latest) > 0 {
			h.raw(`<section class="py-6"><h2 class="mb-4 text-2xl font-semibold">Latest writing</h2><ul>`)
			for _, p := range latest {
				postItem(h, p)
			}
			h.raw("</ul></section>")
		}
		return h.err
	})
}

// ProjectsIndex renders the list of projects, optionally filtered by tag.
func ProjectsIndex(projects []content.Project, activeTag string, tags []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<h1 class="py-6 text-3xl font-bold">Projects</h1>`)
		if len(tags) > 0 {
			tagPills(h, "/projects/", activeTag, tags)
		}
		if len(projects) == 0 {
			h.raw(`<p class="py-6">No projects yet.</p>`)
			return h.err
		}
		h.raw(`<div class="mt-6 grid gap-4 md:grid-cols-2">`)
		for _, p := range projects {
			projectCard(h, p)
		}
		h.raw("</div>")
		return h.err
	})
}

// ProjectDetail renders a single project.
func ProjectDetail(p content.Project) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<article class="py-6"><h1 class="text-3xl font-bold">`)
		h.text(p.Name)
		h.raw(`</h1><p class="mt-2 text-lg">`)
		h.text(p.Summary)
		h.raw("</p>")
		if p.CoverImage != "" {
			h.raw(`<img class="mt-6 rounded" loading="lazy"`)
			h.attr("src", "/public/uploads/"+p.CoverImage)
			h.attr("alt", p.Name)
			h.raw(">")
		}
		h.raw(`<p class="mt-4 flex gap-4 text-sm">`)
		if p.RepoURL != "" {
			h.raw(`<a rel="noopener"`)
			h.attr("href", p.RepoURL)
			h.raw(">Source</a>")
		}
		if p.HomepageURL != "" {
			h.raw(`<a rel="noopener"`)
			h.attr("href", p.HomepageURL)
			h.raw(">Website</a>")
		}
		h.raw(`</p><div class="prose mt-6">`)
		render(ctx, w, h, markdown.Markdown(p.Description))
		h.raw("</div></article>")
		return h.err
	})
}

func tagSidebar(activeTag string, tags []string) templ.Component {
	if len(tags) == 0 {
		return nil
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<h2 class="mb-3 text-sm font-semibold uppercase">Tags</h2>`)
		tagPills(h, "/blog/", activeTag, tags)
		return h.err
	})
}

// BlogIndex renders the post list with a tag sidebar.
func BlogIndex(posts []content.BlogPost, activeTag string, tags []string) templ.Component {
	list := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<h1 class="py-6 text-3xl font-bold">Blog</h1>`)
		if len(posts) == 0 {
			h.raw("<p>No posts found.</p>")
			return h.err
		}
		h.raw("<ul>")
		for _, p := range posts {
			postItem(h, p)
		}
		h.raw("</ul>")
		return h.err
	})
	return BlogLayout(BlogLayoutProps{Children: list, Sidebar: tagSidebar(activeTag, tags)})
}

// Post renders one post; related posts fill the sidebar when there are any.
func Post(post content.BlogPost, related []content.BlogPost) templ.Component {
	article := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<article class="py-6"><h1 class="text-3xl font-bold">`)
		h.text(post.Title)
		h.raw(`</h1><time class="text-sm text-stone-500"`)
		h.attr("datetime", post.Date)
		h.raw(">")
		h.text(post.Date)
		h.raw(`</time><div class="prose mt-6">`)
		render(ctx, w, h, markdown.Markdown(post.Content))
		h.raw("</div></article>")
		return h.err
	})
	props := BlogLayoutProps{Children: article, Class: "gap-12"}
	if len(related) > 0 {
		props.Sidebar = templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			h := newHTMLWriter(w)
			h.raw(`<h2 class="mb-3 text-sm font-semibold uppercase">Related</h2><ul>`)
			for _, p := range related {
				postItem(h, p)
			}
			h.raw("</ul>")
			return h.err
		})
	}
	return BlogLayout(props)
}

// NotFound renders the 404 body.
func NotFound() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section class="py-16 text-center"><h1 class="text-3xl font-bold">Page not found</h1><p class="mt-4"><a href="/" class="underline">Back home</a></p></section>`)
		return err
	})
}

// ServerError renders the 5xx body.
func ServerError() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section class="py-16 text-center"><h1 class="text-3xl font-bold">Something went wrong</h1><p class="mt-4">Please try again later.</p></section>`)
		return err
	})
}
