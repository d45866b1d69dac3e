package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalBucket keeps objects on disk under <baseDir>/<name>/ and serves them
// below <urlPrefix>/<name>/.
type LocalBucket struct {
	name      string
	baseDir   string
	urlPrefix string
}

// NewLocalBucket returns a bucket rooted at filepath.Join(baseDir, name).
func NewLocalBucket(baseDir, urlPrefix, name string) *LocalBucket {
	return &LocalBucket{
		name:      name,
		baseDir:   baseDir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}
}

// Name returns the bucket name.
func (b *LocalBucket) Name() string { return b.name }

// Dir returns the directory holding the bucket's objects.
func (b *LocalBucket) Dir() string {
	return filepath.Join(b.baseDir, b.name)
}

func (b *LocalBucket) Upload(_ context.Context, key string, data io.Reader, _ string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(b.Dir(), filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("storage: write: %w", err)
	}
	return b.PublicURL(key), nil
}

func (b *LocalBucket) PublicURL(key string) string {
	return b.urlPrefix + "/" + path.Join(b.name, key)
}

func (b *LocalBucket) Delete(_ context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	dest := filepath.Join(b.Dir(), filepath.FromSlash(key))
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}

var _ Bucket = (*LocalBucket)(nil)
