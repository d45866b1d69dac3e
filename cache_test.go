package brctc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brctc/brctc/realtime"
)

type countingPostSource struct {
	posts []BlogPost
	calls int
}

func (s *countingPostSource) ListPublishedPosts(context.Context) ([]BlogPost, error) {
	s.calls++
	return s.posts, nil
}

func (s *countingPostSource) ListTags(context.Context) ([]string, error) {
	return []string{"anxiety", "teens"}, nil
}

func TestPostCacheLoadsOnce(t *testing.T) {
	src := &countingPostSource{posts: []BlogPost{
		{ID: "1", Slug: "one", Tags: []string{"Anxiety"}},
		{ID: "2", Slug: "two", Tags: []string{"teens"}},
	}}
	c := NewPostCache(src, time.Minute)
	ctx := context.Background()

	all, err := c.ListPosts(ctx, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("ListPosts = %d, %v", len(all), err)
	}
	tagged, _ := c.ListPosts(ctx, " ANXIETY ")
	if len(tagged) != 1 || tagged[0].ID != "1" {
		t.Errorf("tag filter = %+v", tagged)
	}
	if p, err := c.GetPost(ctx, "two"); err != nil || p.ID != "2" {
		t.Errorf("GetPost = %+v, %v", p, err)
	}
	if _, err := c.GetPost(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}

	c.Invalidate()
	c.ListTags(ctx)
	if src.calls != 2 {
		t.Errorf("source called %d times after Invalidate, want 2", src.calls)
	}
}

func TestPostCacheExpires(t *testing.T) {
	src := &countingPostSource{}
	c := NewPostCache(src, time.Nanosecond)
	ctx := context.Background()
	c.ListPosts(ctx, "")
	time.Sleep(time.Millisecond)
	c.ListPosts(ctx, "")
	if src.calls != 2 {
		t.Errorf("source called %d times, want 2", src.calls)
	}
}

type staticSettings struct {
	settings Settings
	calls    int
}

func (s *staticSettings) ListSettings(context.Context) (Settings, error) {
	s.calls++
	return s.settings, nil
}

func TestSettingsCacheReturnsCopy(t *testing.T) {
	src := &staticSettings{settings: Settings{"hero_title": "Hello"}}
	c := NewSettingsCache(src, time.Minute)
	ctx := context.Background()

	s, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	s["hero_title"] = "changed"

	again, _ := c.Get(ctx)
	if again["hero_title"] != "Hello" {
		t.Error("callers must not be able to modify the cached map")
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}
}

func TestInvalidateOnChange(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	src := &staticSettings{settings: Settings{}}
	c := NewSettingsCache(src, time.Hour)
	ctx := context.Background()
	c.Get(ctx)

	stop := InvalidateOnChange(hub, TableSettings, c)
	hub.Publish(realtime.Event{Table: TableBookings, Op: realtime.OpInsert})
	hub.Publish(realtime.Event{Table: TableSettings, Op: realtime.OpUpdate, ID: "hero_title"})

	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.RLock()
		cleared := c.settings == nil
		c.mu.RUnlock()
		if cleared {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("settings change did not invalidate the cache")
		}
		time.Sleep(5 * time.Millisecond)
	}
	stop()

	c.Get(ctx)
	if src.calls != 2 {
		t.Errorf("source called %d times, want 2", src.calls)
	}
}
