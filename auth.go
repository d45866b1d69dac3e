package brctc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	sessionUserKey = "user_id"
	viewerKey      = "brctc.viewer"
)

// Viewer returns the signed-in user for the request. The lookup happens at
// most once per request.
func (a *App) Viewer(c echo.Context) Viewer {
	if v, ok := c.Get(viewerKey).(Viewer); ok {
		return v
	}
	v := a.loadViewer(c)
	c.Set(viewerKey, v)
	return v
}

func (a *App) loadViewer(c echo.Context) Viewer {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return Viewer{}
	}
	id, _ := sess.Values[sessionUserKey].(string)
	if id == "" {
		return Viewer{}
	}
	ctx := c.Request().Context()
	u, err := a.Store.GetUser(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("load session user", "error", err)
		}
		return Viewer{}
	}
	isAdmin, err := a.Store.HasRole(ctx, u.ID, RoleAdmin)
	if err != nil {
		slog.Error("check admin role", "user", u.ID, "error", err)
	}
	return Viewer{User: &u, IsAdmin: isAdmin}
}

func setUserSession(c echo.Context, userID string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessionUserKey] = userID
	return sess.Save(c.Request(), c.Response())
}

func clearUserSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, sessionUserKey)
	return sess.Save(c.Request(), c.Response())
}

// RequireUser redirects anonymous visitors to the sign-in page.
func (a *App) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.Viewer(c).SignedIn() {
			return c.Redirect(http.StatusSeeOther, "/auth")
		}
		return next(c)
	}
}

// RequireAdmin lets only admins through. Anonymous visitors are sent to
// sign in; signed-in users without the admin role get a 403 page.
func (a *App) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		v := a.Viewer(c)
		if !v.SignedIn() {
			return c.Redirect(http.StatusSeeOther, "/auth")
		}
		if !v.IsAdmin {
			return RenderStatus(c, http.StatusForbidden, a.Views.Forbidden(a.page(c, PageMeta{Title: "Access denied"})))
		}
		return next(c)
	}
}

func (a *App) handleAuth(c echo.Context) error {
	if a.Viewer(c).SignedIn() {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	form := AuthForm{Mode: c.QueryParam("mode")}
	return a.renderAuth(c, http.StatusOK, form, nil, "")
}

func (a *App) renderAuth(c echo.Context, code int, form AuthForm, errs FieldErrors, failure string) error {
	form.Password = ""
	p := a.page(c, PageMeta{Title: "Sign in", Description: "Sign in to chat with our counselors."})
	return RenderStatus(c, code, a.Views.Auth(p, form, errs, failure))
}

func (a *App) handleSignIn(c echo.Context) error {
	ip := c.RealIP()
	var form AuthForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	form.Mode = "signin"
	if !a.loginLimiter.Check(ip) {
		return a.renderAuth(c, http.StatusTooManyRequests, form, nil, "Too many sign-in attempts. Try again later.")
	}
	u, err := a.Store.Authenticate(c.Request().Context(), form.Email, form.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		a.loginLimiter.Record(ip)
		return a.renderAuth(c, http.StatusUnauthorized, form, nil, err.Error())
	}
	if err != nil {
		return err
	}
	if err := setUserSession(c, u.ID); err != nil {
		return err
	}
	AddToast(c, "success", "Welcome back!")
	return c.Redirect(http.StatusSeeOther, a.landingFor(c.Request().Context(), u))
}

func (a *App) handleSignUp(c echo.Context) error {
	var form AuthForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	form.Mode = "signup"
	if !a.submitLimiter.Allow(c.RealIP()) {
		return a.renderAuth(c, http.StatusTooManyRequests, form, nil, "Too many attempts. Try again later.")
	}
	u, err := a.Store.CreateUser(c.Request().Context(), form.Email, form.Password, form.FullName)
	var fe FieldErrors
	switch {
	case errors.As(err, &fe):
		return a.renderAuth(c, http.StatusUnprocessableEntity, form, fe, "")
	case errors.Is(err, ErrEmailTaken):
		return a.renderAuth(c, http.StatusConflict, form, FieldErrors{"email": err.Error()}, "")
	case err != nil:
		return err
	}
	if err := setUserSession(c, u.ID); err != nil {
		return err
	}
	AddToast(c, "success", "Your account has been created.")
	return c.Redirect(http.StatusSeeOther, "/chat")
}

func (a *App) handleSignOut(c echo.Context) error {
	if err := clearUserSession(c); err != nil {
		return err
	}
	AddToast(c, "success", "You have been signed out.")
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) landingFor(ctx context.Context, u User) string {
	if ok, _ := a.Store.HasRole(ctx, u.ID, RoleAdmin); ok {
		return "/admin"
	}
	return "/chat"
}

type viewerCtxKey struct{}

// realtimeAuthorize decides which change-feed tables a connection may
// watch: intake tables need an admin, chat needs any signed-in user, and
// public content is open.
func realtimeAuthorize(r *http.Request, table string) bool {
	v, _ := r.Context().Value(viewerCtxKey{}).(Viewer)
	switch table {
	case TableBookings, TableContactMessages:
		return v.IsAdmin
	case TableChatMessages:
		return v.SignedIn()
	case TableBlogPosts, TableSettings:
		return true
	default:
		return false
	}
}

func (a *App) handleRealtime(c echo.Context) error {
	ctx := context.WithValue(c.Request().Context(), viewerCtxKey{}, a.Viewer(c))
	a.feedHandler.ServeHTTP(c.Response(), c.Request().WithContext(ctx))
	return nil
}

// BootstrapAdmin creates or promotes the configured admin account.
func (a *App) BootstrapAdmin(ctx context.Context) error {
	if a.Config.AdminEmail == "" || a.Config.AdminPassword == "" {
		return nil
	}
	u, err := a.Store.EnsureAdmin(ctx, a.Config.AdminEmail, a.Config.AdminPassword, "")
	if err != nil {
		return err
	}
	slog.Info("admin account ready", "email", u.Email)
	return nil
}
