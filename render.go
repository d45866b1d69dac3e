package brctc

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// page assembles the data every template needs. A settings load failure
// is logged and the page falls back to the built-in copy.
func (a *App) page(c echo.Context, meta PageMeta) Page {
	settings, err := a.Settings.Get(c.Request().Context())
	if err != nil {
		slog.Error("load settings", "error", err)
		settings = Settings{}
	}
	if meta.URL == "" {
		meta.URL = BuildURL(a.Config.URL, c.Request().URL.Path)
	}
	if meta.OGType == "" {
		meta.OGType = "website"
	}
	if meta.Description == "" {
		meta.Description = a.Config.Description
	}
	return Page{
		Site:     a.Config.Info(),
		Settings: settings,
		Viewer:   a.Viewer(c),
		CSRF:     CsrfToken(c),
		Path:     c.Request().URL.Path,
		Toasts:   popToasts(c),
		Meta:     meta,
	}
}

// fail logs err, queues an error toast and redirects to target. Backend
// failures in form actions go through here so the visitor keeps browsing.
func fail(c echo.Context, target, toast string, err error) error {
	slog.Error(toast, "error", err, "path", c.Request().URL.Path)
	AddToast(c, "error", toast)
	return c.Redirect(http.StatusSeeOther, target)
}
