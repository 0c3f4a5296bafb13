package folio

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/folio/content"
)

// ContentCache is an in-memory TTL cache of published posts, projects and
// their tags. Admin writes call Invalidate.
type ContentCache struct {
	mu      sync.RWMutex
	snap    *snapshot
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

type snapshot struct {
	posts       []content.BlogPost
	postTags    []string
	projects    []content.Project
	projectTags []string
}

// NewContentCache creates a ContentCache backed by the given Store.
func NewContentCache(s *Store, ttl time.Duration) *ContentCache {
	return &ContentCache{store: s, ttl: ttl}
}

func (c *ContentCache) valid() bool {
	return c.snap != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

func (c *ContentCache) load(ctx context.Context) (*snapshot, error) {
	var (
		s   snapshot
		err error
	)
	if s.posts, err = c.store.ListPosts(ctx, ""); err != nil {
		return nil, err
	}
	if s.postTags, err = c.store.ListTags(ctx); err != nil {
		return nil, err
	}
	if s.projects, err = c.store.ListProjects(ctx); err != nil {
		return nil, err
	}
	if s.projectTags, err = c.store.ListProjectTags(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}

// current returns a fresh snapshot. It tries a read lock first and only
// takes the write lock when a reload is needed.
func (c *ContentCache) current(ctx context.Context) (*snapshot, error) {
	c.mu.RLock()
	if c.valid() {
		s := c.snap
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.snap, nil
	}
	s, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.snap = s
	c.fetched = time.Now()
	return s, nil
}

// ListPosts returns published posts, optionally filtered by tag.
func (c *ContentCache) ListPosts(ctx context.Context, tag string) ([]content.BlogPost, error) {
	s, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return s.posts, nil
	}
	var filtered []content.BlogPost
	for _, p := range s.posts {
		if content.HasTag(p.Tags, tag) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// ListTags returns all unique tags from published posts.
func (c *ContentCache) ListTags(ctx context.Context) ([]string, error) {
	s, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return s.postTags, nil
}

// GetPost returns a single published post by slug.
func (c *ContentCache) GetPost(ctx context.Context, slug string) (content.BlogPost, error) {
	s, err := c.current(ctx)
	if err != nil {
		return content.BlogPost{}, err
	}
	for _, p := range s.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return content.BlogPost{}, ErrNotFound
}

// ListProjects returns published projects, optionally filtered by tag.
func (c *ContentCache) ListProjects(ctx context.Context, tag string) ([]content.Project, error) {
	s, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return s.projects, nil
	}
	var filtered []content.Project
	for _, p := range s.projects {
		if content.HasTag(p.Tags, tag) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// ListProjectTags returns all unique tags from published projects.
func (c *ContentCache) ListProjectTags(ctx context.Context) ([]string, error) {
	s, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return s.projectTags, nil
}

// GetProject returns a single published project by slug.
func (c *ContentCache) GetProject(ctx context.Context, slug string) (content.Project, error) {
	s, err := c.current(ctx)
	if err != nil {
		return content.Project{}, err
	}
	for _, p := range s.projects {
		if p.Slug == slug {
			return p, nil
		}
	}
	return content.Project{}, ErrNotFound
}

// FeaturedProjects returns up to n featured projects.
func (c *ContentCache) FeaturedProjects(ctx context.Context, n int) ([]content.Project, error) {
	s, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	var out []content.Project
	for _, p := range s.projects {
		if p.Featured && len(out) < n {
			out = append(out, p)
		}
	}
	return out, nil
}
