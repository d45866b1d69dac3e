package brctc

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/brctc/brctc/realtime"
)

const postColumns = `id, title, slug, content, excerpt, author, tags, status, featured_image,
	meta_description, meta_keywords, published_at, created_at, updated_at`

func scanPost(row rowScanner) (BlogPost, error) {
	var p BlogPost
	var tags, status, created, updated string
	var published sql.NullString
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Author, &tags,
		&status, &p.FeaturedImage, &p.MetaDescription, &p.MetaKeywords, &published,
		&created, &updated)
	if err != nil {
		return BlogPost{}, err
	}
	p.Tags = ParseTags(tags)
	p.Status = PostStatus(status)
	p.PublishedAt = timePtr(published)
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// tagString stores tags delimited on both sides (",a,b,") so a single tag
// can be matched with instr.
func tagString(tags []string) string {
	tags = FilterEmpty(tags)
	if len(tags) == 0 {
		return ""
	}
	return "," + strings.Join(tags, ",") + ","
}

func validatePost(p BlogPost) error {
	if err := requireFields(map[string]string{
		"title":   p.Title,
		"slug":    p.Slug,
		"content": p.Content,
	}); err != nil {
		return err
	}
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// CreatePost inserts a post. published_at is stamped when the post is
// created as published.
func (s *Store) CreatePost(ctx context.Context, p BlogPost) (BlogPost, error) {
	if p.Status == "" {
		p.Status = PostDraft
	}
	if err := validatePost(p); err != nil {
		return BlogPost{}, err
	}
	p.ID = newID()
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	p.PublishedAt = nil
	if p.Published() {
		p.PublishedAt = &now
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO blog_posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Slug, p.Content, p.Excerpt, p.Author, tagString(p.Tags),
		string(p.Status), p.FeaturedImage, p.MetaDescription, p.MetaKeywords,
		nullTime(p.PublishedAt), formatTime(now), formatTime(now))
	if err != nil {
		return BlogPost{}, wrapStoreErr("create post", err)
	}
	s.publish(TableBlogPosts, realtime.OpInsert, p.ID)
	return p, nil
}

// UpdatePost overwrites every editable field of an existing post. Moving to
// draft clears published_at; a published post keeps its first publication
// time.
func (s *Store) UpdatePost(ctx context.Context, p BlogPost) error {
	if err := validatePost(p); err != nil {
		return err
	}
	now := formatTime(s.now())
	err := s.execOne(ctx, `UPDATE blog_posts SET
		title = ?, slug = ?, content = ?, excerpt = ?, author = ?, tags = ?, status = ?,
		featured_image = ?, meta_description = ?, meta_keywords = ?,
		published_at = CASE WHEN ? = 'published' THEN COALESCE(published_at, ?) ELSE NULL END,
		updated_at = ?
		WHERE id = ?`,
		p.Title, p.Slug, p.Content, p.Excerpt, p.Author, tagString(p.Tags), string(p.Status),
		p.FeaturedImage, p.MetaDescription, p.MetaKeywords,
		string(p.Status), now, now, p.ID)
	if err != nil {
		return err
	}
	s.publish(TableBlogPosts, realtime.OpUpdate, p.ID)
	return nil
}

// DeletePost removes a post. Its featured image is left in storage.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	if err := s.execOne(ctx, `DELETE FROM blog_posts WHERE id = ?`, id); err != nil {
		return err
	}
	s.publish(TableBlogPosts, realtime.OpDelete, id)
	return nil
}

// GetPost returns a post by id regardless of status.
func (s *Store) GetPost(ctx context.Context, id string) (BlogPost, error) {
	return scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id))
}

// ListAllPosts returns every post, drafts included, newest first.
func (s *Store) ListAllPosts(ctx context.Context) ([]BlogPost, error) {
	posts, err := s.queryPosts(ctx, `SELECT `+postColumns+` FROM blog_posts ORDER BY created_at DESC, rowid DESC`)
	return posts, wrapStoreErr("list posts", err)
}

// ListPublishedPosts returns published posts, most recently published first.
func (s *Store) ListPublishedPosts(ctx context.Context) ([]BlogPost, error) {
	posts, err := s.queryPosts(ctx, `SELECT `+postColumns+` FROM blog_posts
		WHERE status = 'published' ORDER BY published_at DESC, rowid DESC`)
	return posts, wrapStoreErr("list published posts", err)
}

// GetPublishedPost returns the published post with slug. Slugs are not
// unique; the most recently published match wins.
func (s *Store) GetPublishedPost(ctx context.Context, slug string) (BlogPost, error) {
	return scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts
		WHERE slug = ? AND status = 'published' ORDER BY published_at DESC LIMIT 1`, slug))
}

// ListTags returns a sorted, deduplicated slice of all tags from published
// posts, lowercased.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM blog_posts WHERE status = 'published'`)
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
		for _, t := range ParseTags(tags) {
			set[strings.ToLower(t)] = struct{}{}
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

// ParseTags splits a comma-delimited tag string (e.g. ",anxiety,teens,"
// or "anxiety, teens") into trimmed, non-empty tags.
func ParseTags(tagString string) []string {
	return FilterEmpty(strings.Split(tagString, ","))
}
