package folio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/eringen/folio/content"
)

// ErrNotFound is returned when a requested post, project or image does not exist.
var ErrNotFound = errors.New("folio: not found")

// Store wraps a SQLite database holding posts, projects and image metadata.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL lets readers proceed during writes; synchronous=NORMAL is safe with WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    tags TEXT NOT NULL,
    summary TEXT NOT NULL,
    content TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS projects (
    slug TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    summary TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    repo_url TEXT NOT NULL DEFAULT '',
    homepage_url TEXT NOT NULL DEFAULT '',
    language TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT ',,',
    stars INTEGER NOT NULL DEFAULT 0,
    featured INTEGER NOT NULL DEFAULT 0,
    sort_order INTEGER NOT NULL DEFAULT 0,
    cover_image TEXT NOT NULL DEFAULT '',
    published INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Posts

const postColumns = `slug, title, date, tags, summary, content, published`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (content.BlogPost, error) {
	var p content.BlogPost
	var tags string
	var published int
	if err := r.Scan(&p.Slug, &p.Title, &p.Date, &tags, &p.Summary, &p.Content, &published); err != nil {
		return content.BlogPost{}, err
	}
	p.Tags = content.ParseTags(tags)
	p.Link = "/blog/" + p.Slug
	p.Published = published == 1
	return p, nil
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]content.BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []content.BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPosts returns published posts ordered by date descending.
// If tag is non-empty, results are filtered to posts containing that tag.
func (s *Store) ListPosts(ctx context.Context, tag string) ([]content.BlogPost, error) {
	if tag == "" {
		return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE published = 1 ORDER BY date DESC`)
	}
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts
		WHERE published = 1 AND instr(tags, ',' || ? || ',') > 0 ORDER BY date DESC`, content.NormalizeTag(tag))
}

// ListAllPosts returns every post, drafts included, ordered by date descending.
func (s *Store) ListAllPosts(ctx context.Context) ([]content.BlogPost, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts ORDER BY date DESC`)
}

// ListTags returns the sorted, deduplicated tags of published posts.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	return s.collectTags(ctx, `SELECT tags FROM posts WHERE published = 1`)
}

func (s *Store) collectTags(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range content.ParseTags(tags) {
			set[content.NormalizeTag(t)] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// GetPost returns a single published post by slug.
func (s *Store) GetPost(ctx context.Context, slug string) (content.BlogPost, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = ? AND published = 1`, slug))
	return p, notFound(err)
}

// GetPostAny returns a post by slug regardless of published status (for admin).
func (s *Store) GetPostAny(ctx context.Context, slug string) (content.BlogPost, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug))
	return p, notFound(err)
}

// SavePost upserts a blog post. Tags are normalized to lowercase.
func (s *Store) SavePost(ctx context.Context, p content.BlogPost) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Date, content.JoinTagsForStorage(p.Tags), p.Summary, p.Content, boolInt(p.Published))
	return err
}

// DeletePost removes a post by slug.
func (s *Store) DeletePost(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug)
	return err
}

// Projects

const projectColumns = `slug, name, summary, description, repo_url, homepage_url, language,
	tags, stars, featured, sort_order, cover_image, published`

func scanProject(r rowScanner) (content.Project, error) {
	var p content.Project
	var tags string
	var featured, published int
	if err := r.Scan(&p.Slug, &p.Name, &p.Summary, &p.Description, &p.RepoURL, &p.HomepageURL,
		&p.Language, &tags, &p.Stars, &featured, &p.SortOrder, &p.CoverImage, &published); err != nil {
		return content.Project{}, err
	}
	p.Tags = content.ParseTags(tags)
	p.Featured = featured == 1
	p.Published = published == 1
	return p, nil
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]content.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var projects []content.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

const projectOrder = ` ORDER BY featured DESC, sort_order ASC, name COLLATE NOCASE ASC`

// ListProjects returns published projects: featured first, then by sort order and name.
func (s *Store) ListProjects(ctx context.Context) ([]content.Project, error) {
	return s.queryProjects(ctx, `SELECT `+projectColumns+` FROM projects WHERE published = 1`+projectOrder)
}

// ListAllProjects returns every project, drafts included.
func (s *Store) ListAllProjects(ctx context.Context) ([]content.Project, error) {
	return s.queryProjects(ctx, `SELECT `+projectColumns+` FROM projects`+projectOrder)
}

// ListProjectTags returns the sorted, deduplicated tags of published projects.
func (s *Store) ListProjectTags(ctx context.Context) ([]string, error) {
	return s.collectTags(ctx, `SELECT tags FROM projects WHERE published = 1`)
}

// GetProjectAny returns a project by slug regardless of published status.
func (s *Store) GetProjectAny(ctx context.Context, slug string) (content.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug = ?`, slug))
	return p, notFound(err)
}

// SaveProject upserts a project.
func (s *Store) SaveProject(ctx context.Context, p content.Project) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Name, p.Summary, p.Description, p.RepoURL, p.HomepageURL, p.Language,
		content.JoinTagsForStorage(p.Tags), p.Stars, boolInt(p.Featured), p.SortOrder,
		strings.TrimSpace(p.CoverImage), boolInt(p.Published))
	return err
}

// DeleteProject removes a project by slug.
func (s *Store) DeleteProject(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE slug = ?`, slug)
	return err
}

// Images

// ListImages returns uploaded images, newest first.
func (s *Store) ListImages(ctx context.Context) ([]content.Image, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename, original_name, width, height, size, uploaded_at
		FROM images ORDER BY uploaded_at DESC, filename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var images []content.Image
	for rows.Next() {
		var img content.Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ImageExists reports whether filename is already recorded.
func (s *Store) ImageExists(ctx context.Context, filename string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE filename = ?`, filename).Scan(&n)
	return n > 0, err
}

// SaveImage records an uploaded image.
func (s *Store) SaveImage(ctx context.Context, img content.Image) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO images
		(filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// DeleteImage removes an image record.
func (s *Store) DeleteImage(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE filename = ?`, filename)
	return err
}
