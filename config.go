package brctc

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brctc/brctc/notify"
	"github.com/brctc/brctc/storage"
)

// SiteConfig holds all configuration for the site.
type SiteConfig struct {
	Name        string // Site name (default "BRCTC")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/brctc.db")
	UploadsDir   string // Object storage root (default "data/uploads")

	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	AdminEmail    string // Optional bootstrap admin account
	AdminPassword string

	PostCacheTTL     time.Duration // Post cache TTL (default 5min)
	SettingsCacheTTL time.Duration // Settings cache TTL (default 1min)

	Twilio         notify.TwilioConfig
	DigestSchedule string // cron spec for the staff digest; empty disables it
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "BRCTC"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Description == "" {
		c.Description = "Professional counseling and accredited training programs."
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/brctc.db"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "data/uploads"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.SettingsCacheTTL == 0 {
		c.SettingsCacheTTL = time.Minute
	}
}

// Info returns the public subset of the configuration.
func (c SiteConfig) Info() SiteInfo {
	return SiteInfo{Name: c.Name, URL: c.URL, Description: c.Description}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for site-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithNotifier replaces the notifier built from the Twilio settings.
func WithNotifier(n notify.Notifier) Option {
	return func(a *App) {
		a.Notifier = n
	}
}

// WithBucket replaces the local blog image bucket.
func WithBucket(b storage.Bucket) Option {
	return func(a *App) {
		a.Images = b
	}
}

// WithMiddleware appends middleware after the built-in stack.
func WithMiddleware(mw ...echo.MiddlewareFunc) Option {
	return func(a *App) {
		a.extraMiddleware = append(a.extraMiddleware, mw...)
	}
}
