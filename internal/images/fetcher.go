// Package images opens sticker sources for the command line: a local file or
// an image URL.
package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher retrieves sticker images from disk or over HTTP.
type Fetcher struct {
	HTTPClient *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsURL reports whether src should be downloaded rather than opened.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Open returns the display name and contents of src. The caller closes the reader.
func (f *Fetcher) Open(ctx context.Context, src string) (string, io.ReadCloser, error) {
	if !IsURL(src) {
		file, err := os.Open(src)
		if err != nil {
			return "", nil, fmt.Errorf("failed to open %s: %w", src, err)
		}
		return filepath.Base(src), file, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return "", nil, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	slog.Debug("Fetched sticker", "url", src, "content_type", resp.Header.Get("Content-Type"))
	return nameFromURL(src), resp.Body, nil
}

// nameFromURL uses the last path segment, falling back to the host.
func nameFromURL(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return "sticker"
	}
	if base := path.Base(u.Path); base != "." && base != "/" {
		return base
	}
	if u.Hostname() != "" {
		return u.Hostname()
	}
	return "sticker"
}
