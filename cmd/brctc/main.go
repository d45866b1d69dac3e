package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/brctc/brctc"
	"github.com/brctc/brctc/logging"
	"github.com/brctc/brctc/notify"
	"github.com/brctc/brctc/views"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()
	logging.Setup(os.Getenv("LOG_LEVEL"))

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := runServe(); err != nil {
			logging.Fatal("server stopped", "error", err)
		}
	case "create-admin":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: brctc create-admin <email> <password> [full name]")
			os.Exit(1)
		}
		fullName := ""
		if len(os.Args) > 4 {
			fullName = os.Args[4]
		}
		if err := runCreateAdmin(os.Args[2], os.Args[3], fullName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("brctc %s\n", brctc.Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func configFromEnv() brctc.SiteConfig {
	return brctc.SiteConfig{
		Name:             os.Getenv("SITE_NAME"),
		URL:              os.Getenv("SITE_URL"),
		Description:      os.Getenv("SITE_DESCRIPTION"),
		Addr:             os.Getenv("ADDR"),
		DatabasePath:     os.Getenv("DATABASE_PATH"),
		UploadsDir:       os.Getenv("UPLOADS_DIR"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		CookieSecure:     brctc.EnvBool("COOKIE_SECURE", false),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		PostCacheTTL:     brctc.EnvDuration("POST_CACHE_TTL", 5*time.Minute),
		SettingsCacheTTL: brctc.EnvDuration("SETTINGS_CACHE_TTL", time.Minute),
		Twilio: notify.TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			From:       os.Getenv("TWILIO_FROM_NUMBER"),
			To:         os.Getenv("STAFF_PHONE"),
		},
		DigestSchedule: os.Getenv("DIGEST_SCHEDULE"),
	}
}

func runServe() error {
	cfg := configFromEnv()
	cfg.SessionSecret = brctc.MustEnv("SESSION_SECRET")

	app := brctc.New(cfg, views.Funcs(),
		brctc.WithStaticDir(brctc.EnvOr("STATIC_DIR", "public")),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Start(ctx)
}

// runCreateAdmin opens the database directly; the server does not need to
// be running.
func runCreateAdmin(email, password, fullName string) error {
	store, err := brctc.NewStore(brctc.EnvOr("DATABASE_PATH", "data/brctc.db"), nil)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	u, err := store.EnsureAdmin(context.Background(), email, password, fullName)
	if err != nil {
		return err
	}
	slog.Info("admin account ready", "email", u.Email, "id", u.ID)
	return nil
}

func printUsage() {
	fmt.Println(`brctc - counseling and training centre website

Usage:
  brctc [command] [arguments]

Commands:
  serve                                    Run the web server (default)
  create-admin <email> <password> [name]   Create or promote an admin account
  version                                  Print the version
  help                                     Show this help message

Configuration is read from the environment and an optional .env file.
SESSION_SECRET is required to serve.`)
}
