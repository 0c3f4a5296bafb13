package folio

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const projectsYAML = `projects:
  - name: Café Tools
    summary: Small utilities.
    repo: https://github.com/example/cafe-tools
    language: Go
    tags: [go, "", cli]
    featured: true
    order: 2
  - slug: notes
    name: Notes
    published: false
`

func TestLoadProjects(t *testing.T) {
	projects, err := LoadProjects(writeFile(t, "projects.yaml", projectsYAML))
	if err != nil {
		t.Fatalf("LoadProjects failed: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("len(projects) = %d, want 2", len(projects))
	}

	p := projects[0]
	if p.Slug != "cafe-tools" {
		t.Errorf("Slug = %q, want cafe-tools", p.Slug)
	}
	if !p.Published || !p.Featured || p.SortOrder != 2 {
		t.Errorf("project = %+v, want published, featured, order 2", p)
	}
	if !reflect.DeepEqual(p.Tags, []string{"go", "cli"}) {
		t.Errorf("Tags = %v, want [go cli]", p.Tags)
	}
	if projects[1].Published {
		t.Errorf("notes should stay unpublished")
	}
}

func TestLoadProjectsRequiresName(t *testing.T) {
	_, err := LoadProjects(writeFile(t, "projects.yaml", "projects:\n  - summary: nameless\n"))
	if err == nil || !strings.Contains(err.Error(), "project 1") {
		t.Fatalf("err = %v, want an error naming project 1", err)
	}
}

func TestLoadProjectsInvalidYAML(t *testing.T) {
	if _, err := LoadProjects(writeFile(t, "projects.yaml", "projects: [")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestSeedProjectsUpserts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	path := writeFile(t, "projects.yaml", projectsYAML)

	for i := 0; i < 2; i++ {
		n, err := SeedProjects(ctx, s, path)
		if err != nil {
			t.Fatalf("SeedProjects failed: %v", err)
		}
		if n != 2 {
			t.Fatalf("seeded %d projects, want 2", n)
		}
	}
	all, err := s.ListAllProjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2 after seeding twice", len(all))
	}
}
