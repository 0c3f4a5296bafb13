package views

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// Section groups the pages under a path prefix with the metadata and layout
// they share.
type Section struct {
	Prefix   string
	Metadata func() Metadata
	Layout   func() templ.Component
}

// Sections resolves a request path to its Section.
type Sections struct {
	entries []Section
}

// NewSections returns a registry of the given sections.
func NewSections(sections ...Section) *Sections {
	s := &Sections{}
	for _, sec := range sections {
		s.Register(sec)
	}
	return s
}

// Register adds a section. Longer prefixes win on lookup.
func (s *Sections) Register(sec Section) {
	s.entries = append(s.entries, sec)
	sort.SliceStable(s.entries, func(i, j int) bool {
		return len(s.entries[i].Prefix) > len(s.entries[j].Prefix)
	})
}

// Lookup returns the section owning path.
func (s *Sections) Lookup(path string) (Section, bool) {
	for _, sec := range s.entries {
		if path == strings.TrimSuffix(sec.Prefix, "/") || strings.HasPrefix(path, sec.Prefix) {
			return sec, true
		}
	}
	return Section{}, false
}

// ProjectsSection is the /projects/ section.
func ProjectsSection() Section {
	return Section{
		Prefix:   "/projects/",
		Metadata: ProjectsMetadata,
		Layout:   ProjectsLayout,
	}
}

// Wrap renders body inside the section layout. A section without a layout
// renders body as is.
func (sec Section) Wrap(body templ.Component) templ.Component {
	if sec.Layout == nil {
		return body
	}
	layout := sec.Layout()
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout.Render(templ.WithChildren(ctx, body), w)
	})
}
