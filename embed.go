package brctc

import "embed"

// EmbeddedAssets contains the script and stylesheet every page loads:
// site.js (change-feed refetch, toasts, slug preview) and site.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
