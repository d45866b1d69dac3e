package brctc

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/brctc/brctc/realtime"
)

// PostSource is the subset of Store that PostCache reads from.
type PostSource interface {
	ListPublishedPosts(ctx context.Context) ([]BlogPost, error)
	ListTags(ctx context.Context) ([]string, error)
}

// PostCache is an in-memory cache of published blog posts and tags with TTL.
type PostCache struct {
	mu      sync.RWMutex
	posts   []BlogPost
	tags    []string
	fetched time.Time
	ttl     time.Duration
	source  PostSource
}

// NewPostCache creates a PostCache backed by source.
func NewPostCache(source PostSource, ttl time.Duration) *PostCache {
	return &PostCache{source: source, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.tags = nil
	c.mu.Unlock()
}

func (c *PostCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	posts, err := c.source.ListPublishedPosts(ctx)
	if err != nil {
		return err
	}
	tags, err := c.source.ListTags(ctx)
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []BlogPost{}
	}
	c.posts = posts
	c.tags = tags
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached posts and tags after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]BlogPost, []string, error) {
	c.mu.RLock()
	if c.valid() {
		posts, tags := c.posts, c.tags
		c.mu.RUnlock()
		return posts, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.posts, c.tags, nil
}

// ListPosts returns published posts, optionally filtered by tag.
func (c *PostCache) ListPosts(ctx context.Context, tag string) ([]BlogPost, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return posts, nil
	}
	normalized := normalizeTag(tag)
	var filtered []BlogPost
	for _, p := range posts {
		for _, t := range p.Tags {
			if normalizeTag(t) == normalized {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered, nil
}

// ListTags returns all unique tags from published posts.
func (c *PostCache) ListTags(ctx context.Context) ([]string, error) {
	_, tags, err := c.ensureLoaded(ctx)
	return tags, err
}

// GetPost returns a single published post by slug from the cache.
func (c *PostCache) GetPost(ctx context.Context, slug string) (BlogPost, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return BlogPost{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return BlogPost{}, ErrNotFound
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// SettingsSource loads the full settings map.
type SettingsSource interface {
	ListSettings(ctx context.Context) (Settings, error)
}

// SettingsCache holds the site settings for page rendering. Callers get a
// copy they may modify.
type SettingsCache struct {
	mu       sync.RWMutex
	settings Settings
	fetched  time.Time
	ttl      time.Duration
	source   SettingsSource
}

// NewSettingsCache creates a SettingsCache backed by source.
func NewSettingsCache(source SettingsSource, ttl time.Duration) *SettingsCache {
	return &SettingsCache{source: source, ttl: ttl}
}

func (c *SettingsCache) valid() bool {
	return c.settings != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate drops the cached map.
func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	c.settings = nil
	c.mu.Unlock()
}

// Get returns the current settings, reloading them when stale.
func (c *SettingsCache) Get(ctx context.Context) (Settings, error) {
	c.mu.RLock()
	if c.valid() {
		s := c.settings.Clone()
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid() {
		s, err := c.source.ListSettings(ctx)
		if err != nil {
			return nil, err
		}
		if s == nil {
			s = Settings{}
		}
		c.settings = s
		c.fetched = time.Now()
	}
	return c.settings.Clone(), nil
}

// Invalidator is anything holding derived state that a row change makes stale.
type Invalidator interface {
	Invalidate()
}

// InvalidateOnChange drops inv's state whenever hub reports a change to
// table. The returned func stops watching.
func InvalidateOnChange(hub *realtime.Hub, table string, inv Invalidator) (stop func()) {
	sub := hub.Subscribe(table)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range sub.Events() {
			inv.Invalidate()
		}
	}()
	return func() {
		sub.Close()
		<-done
	}
}
