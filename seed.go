package folio

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eringen/folio/content"
)

// LoadProjects parses a projects YAML file. Missing slugs are derived from
// the name; projects are published unless the file says otherwise.
//
//	projects:
//	  - name: folio
//	    summary: This site.
//	    repo: https://github.com/eringen/folio
//	    tags: [go, web]
//	    featured: true
func LoadProjects(path string) ([]content.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Projects []yaml.Node `yaml:"projects"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	projects := make([]content.Project, 0, len(raw.Projects))
	for i, node := range raw.Projects {
		p := content.Project{Published: true}
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("parse %s: project %d: %w", path, i+1, err)
		}
		if p.Slug == "" {
			p.Slug = content.Slugify(p.Name)
		}
		if p.Slug == "" {
			return nil, fmt.Errorf("parse %s: project %d: name or slug is required", path, i+1)
		}
		p.Tags = content.FilterEmpty(p.Tags)
		projects = append(projects, p)
	}
	return projects, nil
}

// SeedProjects upserts every project of the YAML file at path.
func SeedProjects(ctx context.Context, s *Store, path string) (int, error) {
	projects, err := LoadProjects(path)
	if err != nil {
		return 0, err
	}
	for _, p := range projects {
		if err := s.SaveProject(ctx, p); err != nil {
			return 0, fmt.Errorf("save project %q: %w", p.Slug, err)
		}
	}
	return len(projects), nil
}
