package brctc

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const latestPostsOnHome = 3

func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Posts.ListPosts(c.Request().Context(), "")
	if err != nil {
		slog.Error("list posts", "error", err)
		AddToast(c, "error", "Failed to load the latest articles.")
	}
	latest := posts[:min(latestPostsOnHome, len(posts))]
	p := a.page(c, PageMeta{Title: a.Config.Name})
	return Render(c, a.Views.Home(p, latest))
}

func (a *App) handleAbout(c echo.Context) error {
	p := a.page(c, PageMeta{Title: "About Us"})
	p.Meta.Title = p.Settings.Setting("about_page_title")
	return Render(c, a.Views.About(p))
}

func (a *App) handleServices(c echo.Context) error {
	p := a.page(c, PageMeta{})
	p.Meta.Title = p.Settings.Setting("services_page_title")
	return Render(c, a.Views.Services(p))
}

func (a *App) handleTraining(c echo.Context) error {
	p := a.page(c, PageMeta{})
	p.Meta.Title = p.Settings.Setting("training_page_title")
	return Render(c, a.Views.Training(p))
}

func (a *App) handleBlog(c echo.Context) error {
	ctx := c.Request().Context()
	tag := c.QueryParam("tag")
	posts, err := a.Posts.ListPosts(ctx, tag)
	if err != nil {
		slog.Error("list posts", "error", err, "tag", tag)
		AddToast(c, "error", "Failed to load blog posts.")
	}
	tags, err := a.Posts.ListTags(ctx)
	if err != nil {
		slog.Error("list tags", "error", err)
	}
	p := a.page(c, PageMeta{Title: "Blog", Description: "Articles on mental health, counseling and wellbeing."})
	return Render(c, a.Views.Blog(p, posts, tag, tags))
}

// handlePost shows a published post. Unknown and unpublished slugs go back
// to the blog index.
func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Posts.GetPost(ctx, c.Param("slug"))
	if errors.Is(err, ErrNotFound) {
		return c.Redirect(http.StatusSeeOther, "/blog")
	}
	if err != nil {
		return err
	}
	posts, err := a.Posts.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	description := post.MetaDescription
	if description == "" {
		description = Excerpt(post, 160)
	}
	p := a.page(c, PageMeta{
		Title:       post.Title,
		Description: description,
		URL:         BuildURL(a.Config.URL, "blog", post.Slug),
		OGType:      "article",
	})
	return Render(c, a.Views.Post(p, post, RelatedPosts(post, posts, 3)))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Posts.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Posts.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleRobots(c echo.Context) error {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	for _, path := range []string{"/admin", "/chat", "/auth", "/realtime"} {
		fmt.Fprintf(&b, "Disallow: %s\n", path)
	}
	fmt.Fprintf(&b, "\nSitemap: %s\n", BuildURL(a.Config.URL, "sitemap.xml"))
	return c.String(http.StatusOK, b.String())
}

func (a *App) handleHealth(c echo.Context) error {
	if err := a.Store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c, PageMeta{Title: "Page not found"})))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(c, PageMeta{Title: "Something went wrong"})))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
