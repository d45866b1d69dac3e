package brctc

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleAdminBlog(c echo.Context) error {
	posts, err := a.Store.ListAllPosts(c.Request().Context())
	if err != nil {
		slog.Error("list posts", "error", err)
		AddToast(c, "error", "Failed to fetch blog posts.")
	}
	return Render(c, a.Views.AdminBlog(a.page(c, PageMeta{Title: "Blog"}), posts))
}

func (a *App) handleAdminPostNew(c echo.Context) error {
	form := PostForm{Status: string(PostDraft)}
	return a.renderPostForm(c, http.StatusOK, form, nil)
}

func (a *App) handleAdminPostEdit(c echo.Context) error {
	post, err := a.Store.GetPost(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		AddToast(c, "error", "That post no longer exists.")
		return c.Redirect(http.StatusSeeOther, "/admin/blog")
	}
	if err != nil {
		return err
	}
	return a.renderPostForm(c, http.StatusOK, PostFormFrom(post), nil)
}

func (a *App) renderPostForm(c echo.Context, code int, form PostForm, errs FieldErrors) error {
	title := "New post"
	if form.Editing() {
		title = "Edit post"
	}
	return RenderStatus(c, code, a.Views.AdminPostForm(a.page(c, PageMeta{Title: title}), form, errs))
}

// handleAdminPostSave creates or updates a post. An attached "image" file
// is uploaded first and becomes the featured image.
func (a *App) handleAdminPostSave(c echo.Context) error {
	ctx := c.Request().Context()
	var form PostForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	form.ResolveSlug()

	if file, err := c.FormFile("image"); err == nil && file.Size > 0 {
		url, err := a.UploadImage(ctx, file)
		if err != nil {
			slog.Error("upload image", "error", err)
			AddToast(c, "error", "Failed to upload image.")
			return a.renderPostForm(c, http.StatusOK, form, nil)
		}
		form.FeaturedImage = url
		AddToast(c, "success", "Image uploaded.")
	}

	if errs := form.Validate(); !errs.Empty() {
		return a.renderPostForm(c, http.StatusUnprocessableEntity, form, errs)
	}

	post := form.Post()
	var err error
	if form.Editing() {
		err = a.Store.UpdatePost(ctx, post)
	} else {
		_, err = a.Store.CreatePost(ctx, post)
	}
	if err != nil {
		slog.Error("save post", "error", err, "slug", post.Slug)
		AddToast(c, "error", "Failed to save post.")
		return a.renderPostForm(c, http.StatusOK, form, nil)
	}

	if form.Editing() {
		AddToast(c, "success", "Post updated.")
	} else {
		AddToast(c, "success", "Post created.")
	}
	return c.Redirect(http.StatusSeeOther, "/admin/blog")
}

func (a *App) handleAdminPostDelete(c echo.Context) error {
	err := a.Store.DeletePost(c.Request().Context(), c.Param("id"))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fail(c, "/admin/blog", "Failed to delete post.", err)
	}
	AddToast(c, "success", "Post deleted.")
	return c.Redirect(http.StatusSeeOther, "/admin/blog")
}
