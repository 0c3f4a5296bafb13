// Package content holds the portfolio's domain types: blog posts, projects,
// and uploaded images, plus the tag and slug helpers shared by the store and
// the views.
package content

// BlogPost is a blog entry stored in SQLite and rendered in the blog layout.
type BlogPost struct {
	Title     string
	Date      string
	Tags      []string
	Summary   string
	Link      string
	Slug      string
	Content   string
	Published bool
}

// Project is a portfolio entry shown in the projects section.
type Project struct {
	Slug        string   `yaml:"slug"`
	Name        string   `yaml:"name"`
	Summary     string   `yaml:"summary"`
	Description string   `yaml:"description"` // markdown
	RepoURL     string   `yaml:"repo"`
	HomepageURL string   `yaml:"homepage"`
	Language    string   `yaml:"language"`
	Tags        []string `yaml:"tags"`
	Stars       int      `yaml:"stars"`
	Featured    bool     `yaml:"featured"`
	SortOrder   int      `yaml:"order"`
	CoverImage  string   `yaml:"cover"` // filename under /public/uploads
	Published   bool     `yaml:"published"`
}

// Link returns the canonical path of the project page.
func (p Project) Link() string {
	return "/projects/" + p.Slug + "/"
}

// Image is the metadata of an uploaded, resized cover image.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}
