// Package storage stores uploaded files in named buckets and hands back
// public URLs for them.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidKey is returned for empty keys and keys that escape the bucket.
var ErrInvalidKey = errors.New("storage: invalid key")

// Bucket is a flat namespace of objects addressed by key.
type Bucket interface {
	// Upload stores data under key and returns its public URL. An existing
	// object with the same key is replaced.
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)

	// PublicURL returns the URL an object is (or would be) served at.
	PublicURL(key string) string

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// CleanKey normalizes key and rejects anything that would resolve outside
// the bucket root.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(strings.TrimSpace(key), "\\", "/")
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == "" {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
