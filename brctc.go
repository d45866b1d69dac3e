// Package brctc is the website and back office of a counseling and training
// centre: public pages, a contact form, a multi-step booking wizard, a
// client/staff chat, and an admin area for bookings, messages, blog posts
// and site copy.
//
// Templates are supplied through the ViewFuncs struct; brctc owns the
// handlers, middleware, storage and change feed.
package brctc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/brctc/brctc/notify"
	"github.com/brctc/brctc/realtime"
	"github.com/brctc/brctc/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ViewFuncs holds the templ components the app calls when rendering pages.
type ViewFuncs struct {
	Home     func(p Page, latest []BlogPost) templ.Component
	About    func(p Page) templ.Component
	Services func(p Page) templ.Component
	Training func(p Page) templ.Component
	Contact  func(p Page, form ContactForm, errs FieldErrors) templ.Component
	Booking  func(p Page, w BookingWizard, errs FieldErrors) templ.Component
	Blog     func(p Page, posts []BlogPost, activeTag string, tags []string) templ.Component
	Post     func(p Page, post BlogPost, related []BlogPost) templ.Component
	Auth     func(p Page, form AuthForm, errs FieldErrors, failure string) templ.Component

	Chat         func(p Page, entries []ChatEntry) templ.Component
	ChatMessages func(p Page, entries []ChatEntry) templ.Component

	AdminDashboard   func(p Page, d Dashboard) templ.Component
	AdminBookings    func(p Page, l BookingList) templ.Component
	AdminBookingRows func(p Page, l BookingList) templ.Component
	AdminMessages    func(p Page, l MessageList) templ.Component
	AdminMessageRows func(p Page, l MessageList) templ.Component
	AdminBlog        func(p Page, posts []BlogPost) templ.Component
	AdminPostForm    func(p Page, form PostForm, errs FieldErrors) templ.Component
	AdminSettings    func(p Page, ed *SettingsEditor) templ.Component

	Forbidden   func(p Page) templ.Component
	NotFound    func(p Page) templ.Component
	ServerError func(p Page) templ.Component
}

// App is the central application. It wires together the store, caches,
// change feed, handlers, middleware and templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Posts    *PostCache
	Settings *SettingsCache
	Feed     *realtime.Hub
	Images   storage.Bucket
	Notifier notify.Notifier
	Views    ViewFuncs

	sessions      *sessions.CookieStore
	feedHandler   *realtime.Handler
	loginLimiter  *RateLimiter
	submitLimiter *RateLimiter
	digest        *notify.Digest
	stopWatchers  []func()

	customRoutes    []func(*App)
	extraMiddleware []echo.MiddlewareFunc
	staticDir       string
	initialized     bool
}

// New creates an App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens the database and wires every component without listening.
// Start calls it; tests call it directly and drive a.Echo.
func (a *App) Init(ctx context.Context) error {
	if a.initialized {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("brctc: SessionSecret is required")
	}

	a.Feed = realtime.NewHub()
	a.feedHandler = realtime.NewHandler(a.Feed, realtimeAuthorize)

	store, err := NewStore(a.Config.DatabasePath, a.Feed)
	if err != nil {
		return fmt.Errorf("brctc: init store: %w", err)
	}
	a.Store = store

	a.Posts = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.Settings = NewSettingsCache(a.Store, a.Config.SettingsCacheTTL)
	a.stopWatchers = append(a.stopWatchers,
		InvalidateOnChange(a.Feed, TableBlogPosts, a.Posts),
		InvalidateOnChange(a.Feed, TableSettings, a.Settings),
	)

	if a.Images == nil {
		a.Images = storage.NewLocalBucket(a.Config.UploadsDir, "/uploads", BlogImagesBucket)
	}
	if a.Notifier == nil {
		a.Notifier = notify.FromConfig(a.Config.Twilio)
	}

	a.sessions = newSessionStore(a.Config.SessionSecret, a.Config.CookieSecure)
	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.submitLimiter = NewRateLimiter(10, 10*time.Minute)

	if err := a.BootstrapAdmin(ctx); err != nil {
		return fmt.Errorf("brctc: bootstrap admin: %w", err)
	}

	if a.Config.DigestSchedule != "" {
		a.digest = notify.NewDigest(a.Notifier, a.Store)
		if err := a.digest.Schedule(a.Config.DigestSchedule); err != nil {
			return fmt.Errorf("brctc: %w", err)
		}
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.initialized = true
	return nil
}

// Start initializes the app and serves HTTP until ctx is cancelled, then
// shuts down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}
	defer a.Close()

	if a.digest != nil {
		a.digest.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", a.Config.Addr, "url", a.Config.URL)
		errCh <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	a.Feed.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("brctc: shutdown: %w", err)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets ship embedded and fall through to the site's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/site.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/site.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.Static("/public", a.staticDir)
	e.Static("/uploads", a.Config.UploadsDir)

	e.GET("/health", a.handleHealth)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/about", a.handleAbout)
	e.GET("/services", a.handleServices)
	e.GET("/training", a.handleTraining)
	e.GET("/contact", a.handleContact)
	e.POST("/contact", a.handleContactSubmit)
	e.GET("/book", a.handleBooking)
	e.POST("/book", a.handleBookingStep)
	e.GET("/blog", a.handleBlog)
	e.GET("/blog/:slug", a.handlePost)

	// Accounts and chat
	e.GET("/auth", a.handleAuth)
	e.POST("/auth/signin", a.handleSignIn)
	e.POST("/auth/signup", a.handleSignUp)
	e.POST("/auth/signout", a.handleSignOut)
	chat := e.Group("/chat", a.RequireUser)
	chat.GET("", a.handleChat)
	chat.GET("/messages", a.handleChatMessages)
	chat.POST("/messages", a.handleChatSend)

	e.GET("/realtime", a.handleRealtime)

	// Back office
	admin := e.Group("/admin", a.RequireAdmin)
	admin.GET("", a.handleAdminDashboard)
	admin.GET("/bookings", a.handleAdminBookings)
	admin.GET("/bookings/rows", a.handleAdminBookingRows)
	admin.GET("/bookings/export.csv", a.handleAdminBookingsExport)
	admin.POST("/bookings/:id/status", a.handleAdminBookingStatus)
	admin.GET("/messages", a.handleAdminMessages)
	admin.GET("/messages/rows", a.handleAdminMessageRows)
	admin.GET("/messages/export.csv", a.handleAdminMessagesExport)
	admin.POST("/messages/:id/status", a.handleAdminMessageStatus)
	admin.POST("/messages/:id/replied", a.handleAdminMessageReplied)
	admin.POST("/messages/:id/delete", a.handleAdminMessageDelete)
	admin.GET("/blog", a.handleAdminBlog)
	admin.GET("/blog/new", a.handleAdminPostNew)
	admin.GET("/blog/:id/edit", a.handleAdminPostEdit)
	admin.POST("/blog", a.handleAdminPostSave)
	admin.POST("/blog/:id/delete", a.handleAdminPostDelete)
	admin.GET("/settings", a.handleAdminSettings)
	admin.POST("/settings", a.handleAdminSettingsSave)
}

// Close releases every resource opened by Init. Call it when the app is
// shutting down.
func (a *App) Close() error {
	if a.digest != nil {
		a.digest.Stop()
	}
	for _, stop := range a.stopWatchers {
		stop()
	}
	a.stopWatchers = nil
	if a.Feed != nil {
		a.Feed.Close()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.submitLimiter != nil {
		a.submitLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvBool parses key as a boolean, returning fallback when unset or invalid.
func EnvBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes":
		return true
	case "0", "false", "FALSE", "False", "no":
		return false
	default:
		return fallback
	}
}

// EnvDuration parses key with time.ParseDuration, returning fallback when
// unset or invalid.
func EnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}
