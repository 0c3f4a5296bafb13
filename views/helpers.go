package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/eringen/folio/content"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PathEscape wraps url.PathEscape for use in hrefs.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	base := "inline-flex items-center rounded border border-ink px-2.5 py-1 text-[11px] font-semibold uppercase tracking-[0.12em] hover:-translate-y-0.5 transition"
	if active {
		return MergeClasses(base, "bg-ink text-white")
	}
	return MergeClasses(base, "bg-stone-100")
}

// JoinTags formats a tag slice as a comma-separated string for form fields.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

func marshalJSONLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// PersonJsonLD produces a Schema.org ProfilePage JSON-LD block for the site owner.
func PersonJsonLD(site Site) string {
	person := map[string]any{
		"@type": "Person",
		"name":  site.Author,
		"url":   buildURL(site.URL),
	}
	if site.GitHub != "" {
		person["sameAs"] = []string{site.GitHub}
	}
	return marshalJSONLD(map[string]any{
		"@context":   "https://schema.org",
		"@type":      "ProfilePage",
		"name":       site.Name,
		"mainEntity": person,
	})
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(site Site, post content.BlogPost) string {
	postURL := buildURL(site.URL, "blog", post.Slug)
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Summary,
		"datePublished": post.Date,
		"url":           postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if site.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  site.Author,
		}
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	return marshalJSONLD(data)
}

// SoftwareJsonLD produces a Schema.org SoftwareSourceCode block for a project.
func SoftwareJsonLD(site Site, p content.Project) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "SoftwareSourceCode",
		"name":        p.Name,
		"description": p.Summary,
		"url":         buildURL(site.URL, "projects", p.Slug),
	}
	if p.RepoURL != "" {
		data["codeRepository"] = p.RepoURL
	}
	if p.Language != "" {
		data["programmingLanguage"] = p.Language
	}
	return marshalJSONLD(data)
}
