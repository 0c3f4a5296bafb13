package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/folio/analytics"
	"github.com/eringen/folio/content"
)

func csrfField(h *htmlWriter, token string) {
	h.raw(`<input type="hidden" name="_csrf"`)
	h.attr("value", token)
	h.raw(">")
}

func textInput(h *htmlWriter, label, name, value string) {
	h.raw(`<label class="block text-sm">`)
	h.text(label)
	h.raw(`<input class="mt-1 w-full border px-2 py-1"`)
	h.attr("name", name)
	h.attr("value", value)
	h.raw("></label>")
}

func textArea(h *htmlWriter, label, name, value string, rows int) {
	h.raw(`<label class="block text-sm">`)
	h.text(label)
	h.raw(`<textarea class="mt-1 w-full border px-2 py-1 font-mono"`)
	h.attr("name", name)
	h.attr("rows", strconv.Itoa(rows))
	h.raw(">")
	h.text(value)
	h.raw("</textarea></label>")
}

func checkbox(h *htmlWriter, label, name string, checked bool) {
	h.raw(`<label class="flex items-center gap-2 text-sm"><input type="checkbox" value="on"`)
	h.attr("name", name)
	if checked {
		h.raw(" checked")
	}
	h.raw(">")
	h.text(label)
	h.raw("</label>")
}

// AdminLogin renders the password form.
func AdminLogin(showError bool, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<section class="mx-auto max-w-sm py-16"><h1 class="mb-6 text-2xl font-bold">Admin</h1>`)
		if showError {
			h.raw(`<p class="mb-4 text-red-700">Invalid password.</p>`)
		}
		h.raw(`<form method="post" action="/admin/login/" class="space-y-4">`)
		csrfField(h, csrfToken)
		h.raw(`<input type="password" name="password" class="w-full border px-2 py-1" autofocus><button class="border px-4 py-1">Sign in</button></form></section>`)
		return h.err
	})
}

// AdminDashboard lists posts and projects with edit and delete controls.
func AdminDashboard(posts []content.BlogPost, projects []content.Project, message, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<section class="py-6"><div class="flex items-center justify-between"><h1 class="text-2xl font-bold">Dashboard</h1>`)
		h.raw(`<form method="post" action="/admin/logout/">`)
		csrfField(h, csrfToken)
		h.raw(`<button class="text-sm underline">Sign out</button></form></div>`)
		if message != "" {
			h.raw(`<p class="my-4 rounded bg-stone-100 px-3 py-2 text-sm">`)
			h.text(message)
			h.raw("</p>")
		}
		h.raw(`<nav class="my-4 flex gap-4 text-sm"><a href="/admin/post/new/">New post</a><a href="/admin/project/new/">New project</a><a href="/admin/images/">Images</a><a href="/admin/analytics/">Analytics</a></nav>`)
		h.raw(`<h2 class="mt-6 font-semibold">Posts</h2><ul>`)
		for _, p := range posts {
			h.raw(`<li class="flex justify-between py-1"><a`)
			h.attr("href", "/admin/post/"+PathEscape(p.Slug)+"/")
			h.raw(">")
			h.text(p.Title)
			h.raw("</a>")
			if !p.Published {
				h.raw(`<span class="text-xs">draft</span>`)
			}
			h.raw(`<button class="text-xs underline"`)
			h.attr("hx-delete", "/admin/post/"+PathEscape(p.Slug)+"/")
			h.attr("hx-headers", `{"X-CSRF-Token":"`+csrfToken+`"}`)
			h.raw(` hx-target="#content" hx-confirm="Delete this post?">Delete</button></li>`)
		}
		h.raw(`</ul><h2 class="mt-6 font-semibold">Projects</h2><ul>`)
		for _, p := range projects {
			h.raw(`<li class="flex justify-between py-1"><a`)
			h.attr("href", "/admin/project/"+PathEscape(p.Slug)+"/")
			h.raw(">")
			h.text(p.Name)
			h.raw(`</a><button class="text-xs underline"`)
			h.attr("hx-delete", "/admin/project/"+PathEscape(p.Slug)+"/")
			h.attr("hx-headers", `{"X-CSRF-Token":"`+csrfToken+`"}`)
			h.raw(` hx-target="#content" hx-confirm="Delete this project?">Delete</button></li>`)
		}
		h.raw("</ul></section>")
		return h.err
	})
}

// AdminPostForm renders the create/edit form for a post.
func AdminPostForm(post content.BlogPost, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<form method="post" action="/admin/save/" class="space-y-4 py-6">`)
		csrfField(h, csrfToken)
		textInput(h, "Title", "title", post.Title)
		textInput(h, "Slug", "slug", post.Slug)
		textInput(h, "Date (YYYY-MM-DD)", "date", post.Date)
		textInput(h, "Tags", "tags", JoinTags(post.Tags))
		textArea(h, "Summary", "summary", post.Summary, 3)
		textArea(h, "Content", "content", post.Content, 20)
		checkbox(h, "Published", "published", post.Published)
		h.raw(`<button class="border px-4 py-1">Save</button></form>`)
		return h.err
	})
}

// AdminProjectForm renders the create/edit form for a project.
func AdminProjectForm(p content.Project, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<form method="post" action="/admin/project/save/" class="space-y-4 py-6">`)
		csrfField(h, csrfToken)
		textInput(h, "Name", "name", p.Name)
		textInput(h, "Slug", "slug", p.Slug)
		textInput(h, "Summary", "summary", p.Summary)
		textInput(h, "Repository URL", "repo", p.RepoURL)
		textInput(h, "Homepage URL", "homepage", p.HomepageURL)
		textInput(h, "Language", "language", p.Language)
		textInput(h, "Tags", "tags", JoinTags(p.Tags))
		textInput(h, "Stars", "stars", strconv.Itoa(p.Stars))
		textInput(h, "Order", "order", strconv.Itoa(p.SortOrder))
		textInput(h, "Cover image", "cover", p.CoverImage)
		textArea(h, "Description", "description", p.Description, 14)
		checkbox(h, "Featured", "featured", p.Featured)
		checkbox(h, "Published", "published", p.Published)
		h.raw(`<button class="border px-4 py-1">Save</button></form>`)
		return h.err
	})
}

// AdminImages lists uploaded cover images with an upload form.
func AdminImages(images []content.Image, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<section class="py-6"><h1 class="text-2xl font-bold">Images</h1>`)
		h.raw(`<form method="post" action="/admin/images/upload/" enctype="multipart/form-data" hx-encoding="multipart/form-data" hx-post="/admin/images/upload/" hx-target="#content" class="my-4">`)
		csrfField(h, csrfToken)
		h.raw(`<input type="file" name="image" accept="image/*"><button class="border px-4 py-1">Upload</button></form><ul class="grid grid-cols-3 gap-4">`)
		for _, img := range images {
			h.raw(`<li><img loading="lazy"`)
			h.attr("src", "/public/uploads/"+img.Filename)
			h.attr("alt", img.OriginalName)
			h.raw(`><p class="text-xs">`)
			h.text(img.Filename)
			h.rawf(" (%dx%d)", img.Width, img.Height)
			h.raw(`</p><button class="text-xs underline"`)
			h.attr("hx-delete", "/admin/images/"+PathEscape(img.Filename)+"/")
			h.attr("hx-headers", `{"X-CSRF-Token":"`+csrfToken+`"}`)
			h.raw(` hx-target="#content">Delete</button></li>`)
		}
		h.raw("</ul></section>")
		return h.err
	})
}

// AdminAnalytics renders a summary of visitor statistics.
func AdminAnalytics(stats *analytics.Stats, realtime int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(w)
		h.raw(`<section class="py-6"><h1 class="text-2xl font-bold">Analytics</h1><p class="text-sm text-stone-500">`)
		h.text(stats.Period)
		h.raw(`</p><dl class="my-6 grid grid-cols-4 gap-4">`)
		stat := func(label string, v int) {
			h.raw(`<div><dt class="text-xs uppercase">`)
			h.text(label)
			h.raw(`</dt><dd class="text-2xl font-bold">`)
			h.raw(strconv.Itoa(v))
			h.raw("</dd></div>")
		}
		stat("Visitors", stats.UniqueVisitors)
		stat("Views", stats.TotalViews)
		stat("Avg. seconds", stats.AvgDuration)
		stat("Online now", realtime)
		h.raw(`</dl><h2 class="font-semibold">Top pages</h2><table class="w-full text-sm">`)
		for _, p := range stats.TopPages {
			h.raw("<tr><td>")
			h.text(p.Path)
			h.raw(`</td><td class="text-right">`)
			h.raw(strconv.Itoa(p.Views))
			h.raw("</td></tr>")
		}
		h.raw(`</table><h2 class="mt-6 font-semibold">Referrers</h2><table class="w-full text-sm">`)
		for _, r := range stats.ReferrerStats {
			h.raw("<tr><td>")
			h.text(r.Name)
			h.raw(`</td><td class="text-right">`)
			h.raw(strconv.Itoa(r.Count))
			h.raw("</td></tr>")
		}
		h.raw("</table></section>")
		return h.err
	})
}
