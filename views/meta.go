package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// OpenGraph holds the social-preview fields read by link unfurlers.
type OpenGraph struct {
	Title       string
	Description string
	Type        string // "website" or "article"
}

// Metadata is the descriptive record a page section hands to the document head.
type Metadata struct {
	Title       string
	Description string
	OpenGraph   OpenGraph
}

const (
	projectsTitle       = "Projects | Portfolio"
	projectsDescription = "Explore my open source projects and contributions."
)

// ProjectsMetadata returns the head metadata of the projects section.
func ProjectsMetadata() Metadata {
	return Metadata{
		Title:       projectsTitle,
		Description: projectsDescription,
		OpenGraph: OpenGraph{
			Title:       projectsTitle,
			Description: projectsDescription,
			Type:        "website",
		},
	}
}

// ProjectsLayout renders its children unchanged. Children are supplied with
// templ.WithChildren.
func ProjectsLayout() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		return children.Render(templ.ClearChildren(ctx), w)
	})
}

// SiteMetadata builds the record used by pages outside any section.
func SiteMetadata(title, description, ogType string) Metadata {
	if ogType == "" {
		ogType = "website"
	}
	return Metadata{
		Title:       title,
		Description: description,
		OpenGraph: OpenGraph{
			Title:       title,
			Description: description,
			Type:        ogType,
		},
	}
}
