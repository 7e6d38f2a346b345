// Package fetch downloads remote calendar exports with HTTP conditional
// caching (ETag / Last-Modified) backed by a disk cache.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "calaudit/internal/log"
)

// MaxBodyBytes caps a downloaded export.
const MaxBodyBytes = 20 << 20

var (
	// ErrNotModifiedWithoutCache means the server answered 304 but nothing
	// was cached for the URL.
	ErrNotModifiedWithoutCache = errors.New("received 304 Not Modified but no cached body available")
	// ErrBodyTooLarge means the response exceeded MaxBodyBytes.
	ErrBodyTooLarge = fmt.Errorf("response body exceeds %d bytes", MaxBodyBytes)
)

// Source is one remote export.
type Source struct {
	ID  string
	URL string
}

// Result is the outcome of fetching a single source.
type Result struct {
	Source    Source
	Body      []byte
	FromCache bool
	// Filename is the last path segment of the URL; it lets type detection
	// see a .ics or .csv extension.
	Filename string
}

// cacheEntry holds HTTP cache metadata for a single URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher fetches exports, keeping per-URL cache directories under cacheDir.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher. An empty cacheDir falls back to a relative
// directory so development runs work without extra setup.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/fetch-cache"
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir: cacheDir,
	}
}

// FetchAll fetches every source. Results only contain sources that produced
// a body; failures are logged and returned in the error slice.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]Result, []error) {
	results := make([]Result, 0, len(sources))
	errs := make([]error, 0)

	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch %s: %w", src.ID, err))
			appLog.Error("fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		results = append(results, res)
	}

	return results, errs
}

// FetchOne fetches a single source, honoring ETag and Last-Modified. Network
// errors and non-OK responses fall back to the cached body when one exists.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (Result, error) {
	target := NormalizeURL(src.URL)
	if target == "" {
		return Result{}, errors.New("source URL is empty")
	}

	cachePath := f.cachePathForURL(target)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return Result{}, fmt.Errorf("create cache dir: %w", err)
	}

	meta, _ := f.loadCacheMeta(cachePath)
	cachedBody, _ := f.loadCacheBody(cachePath)
	cached := Result{Source: src, Body: cachedBody, FromCache: true, Filename: urlFilename(target)}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{}, err
	}
	if meta.URL == target {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	appLog.Debug("fetch start", "id", src.ID, "url", redactURL(target))

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("fetch network error, using cached body", err, "id", src.ID, "url", redactURL(target))
			return cached, nil
		}
		return Result{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := readLimited(resp.Body)
		if err != nil {
			return Result{}, err
		}

		newMeta := cacheEntry{
			URL:          target,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := f.saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("fetch cache save failed", err, "id", src.ID, "url", redactURL(target))
		}

		appLog.Info("fetch success", "id", src.ID, "url", redactURL(target), "bytes", len(body))
		return Result{Source: src, Body: body, Filename: urlFilename(target)}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return Result{}, ErrNotModifiedWithoutCache
		}
		appLog.Info("fetch not modified; using cache", "id", src.ID, "url", redactURL(target))
		return cached, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("fetch non-OK, using cached body", errors.New(resp.Status), "id", src.ID, "url", redactURL(target), "status", resp.StatusCode)
			return cached, nil
		}
		return Result{}, errors.New(resp.Status)
	}
}

// NormalizeURL trims u and rewrites the webcal scheme to https.
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if len(u) >= len("webcal://") && strings.EqualFold(u[:len("webcal://")], "webcal://") {
		return "https://" + u[len("webcal://"):]
	}
	return u
}

func readLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}

func (f *Fetcher) cachePathForURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (f *Fetcher) loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body"))
}

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

func urlFilename(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	name := filepath.Base(parsed.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// redactURL keeps only scheme and host; paths and query strings of calendar
// feeds often carry secrets.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "url://...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host + "/...(redacted)"
}
