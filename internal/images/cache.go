// Package images localizes document-source images to an on-disk cache.
// Source-hosted image URLs are signed and short-lived, so blocks are
// rewritten to a stable local path before rendering.
package images

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/jasoncui/notion-blog/internal/models"
)

// URLPrefix is the public path the cached files are served under.
const URLPrefix = "/images/notion/"

// Cache stores downloaded images under one directory, named by the md5 of
// their source URL so repeat fetches are no-ops.
type Cache struct {
	dir    string
	client *http.Client
	logger *slog.Logger
}

// New creates the cache directory if needed.
func New(dir string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("images: create cache dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		dir:    dir,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}, nil
}

// Dir returns the cache directory for serving.
func (c *Cache) Dir() string {
	return c.dir
}

// Localize downloads the image at rawURL into the cache and returns its
// public path. An already-cached image is returned without a fetch.
func (c *Cache) Localize(ctx context.Context, rawURL string) (string, error) {
	name := cacheName(rawURL)
	dst := filepath.Join(c.dir, name)

	if _, err := os.Stat(dst); err == nil {
		return URLPrefix + name, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("images: build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("images: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("images: download %s: status %d", rawURL, resp.StatusCode)
	}

	// Write via temp file + rename so a failed download never leaves a
	// truncated image behind.
	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("images: temp file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("images: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("images: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("images: rename: %w", err)
	}

	c.logger.Debug("images: cached", slog.String("file", name))
	return URLPrefix + name, nil
}

// Process walks the block tree and sets LocalURL on every image block.
// Download failures fall back to the original URL; one bad image never
// fails a page.
func (c *Cache) Process(ctx context.Context, blocks []*models.Block) {
	for _, b := range blocks {
		if b.Kind == models.KindImage && b.URL != "" {
			local, err := c.Localize(ctx, b.URL)
			if err != nil {
				c.logger.Warn("images: localize failed",
					slog.String("url", b.URL),
					slog.String("error", err.Error()))
			} else {
				b.LocalURL = local
			}
		}
		if len(b.Children) > 0 {
			c.Process(ctx, b.Children)
		}
	}
}

// Cleanup removes cached files older than maxAge and returns how many were
// deleted.
func (c *Cache) Cleanup(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("images: read cache dir: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		c.logger.Info("images: cleanup", slog.Int("removed", removed))
	}
	return removed, nil
}

// Handler serves the cache directory.
func (c *Cache) Handler() http.Handler {
	return http.StripPrefix(URLPrefix, http.FileServer(http.Dir(c.dir)))
}

// cacheName derives a stable filename from the source URL: md5 of the full
// URL plus the best extension guess. Signed URLs for the same object differ
// per fetch, so this intentionally hashes the whole URL rather than
// deduplicating across signatures.
func cacheName(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:]) + extension(rawURL)
}

func extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".jpg"
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return ".jpg"
}
