package palette

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/finefindus/eyedropper/internal/atomicfile"
	"github.com/finefindus/eyedropper/internal/color"
	"github.com/hashicorp/go-retryablehttp"
)

// ///////////////////////////////////////////////
// Local files
// ///////////////////////////////////////////////

// LoadDir loads every file under dir matching any of the doublestar
// patterns, in lexical path order. Files that fail to parse are logged and
// skipped. A missing dir yields an empty result.
func LoadDir(dir string, patterns []string, pos color.AlphaPosition) ([]*Palette, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	return loadFS(os.DirFS(dir), dir, patterns, pos)
}

// loadFS is LoadDir over an arbitrary file system; root only labels sources.
func loadFS(fsys fs.FS, root string, patterns []string, pos color.AlphaPosition) ([]*Palette, error) {
	seen := map[string]bool{}
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	slices.Sort(files)

	var out []*Palette
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			slog.Warn("cannot read palette", "path", name, "error", err)
			continue
		}
		p, err := Parse(data, name, pos)
		if err != nil {
			slog.Warn("skipping invalid palette", "path", name, "error", err)
			continue
		}
		p.Source = filepath.Join(root, filepath.FromSlash(name))
		out = append(out, p)
	}
	return out, nil
}

// ///////////////////////////////////////////////
// Remote palettes
// ///////////////////////////////////////////////

// maxResponseBytes caps the size of a remote palette document.
const maxResponseBytes = 1 << 20

// httpClient is a lazily-initialized retryablehttp client shared across all
// palette fetches.
var (
	httpClient     *retryablehttp.Client
	httpClientOnce sync.Once
)

func getHTTPClient() *retryablehttp.Client {
	httpClientOnce.Do(func() {
		httpClient = retryablehttp.NewClient()
		httpClient.RetryMax = 2
		httpClient.RetryWaitMin = 200 * time.Millisecond
		httpClient.RetryWaitMax = 2 * time.Second
		httpClient.HTTPClient.Timeout = 10 * time.Second
		httpClient.Logger = nil
	})
	return httpClient
}

// Fetch downloads a palette from url. On success the raw document is cached
// in cacheDir; when the download fails the cached copy is used and a
// non-nil error describing the fallback is returned alongside it. Only when
// both fail is the palette nil.
func Fetch(url, cacheDir string, pos color.AlphaPosition) (*Palette, error) {
	cachePath := filepath.Join(cacheDir, cacheName(url))

	data, err := download(url)
	if err == nil {
		var p *Palette
		if p, err = Parse(data, urlPath(url), pos); err == nil {
			p.Source = url
			if werr := writeCache(cachePath, data); werr != nil {
				slog.Warn("failed to write palette cache", "url", url, "error", werr)
			}
			return p, nil
		}
	}
	slog.Warn("failed to fetch palette, trying cache", "url", url, "error", err)

	cached, cacheErr := os.ReadFile(cachePath)
	if cacheErr != nil {
		return nil, fmt.Errorf("fetch palette %s: %w; cache: %w", url, err, cacheErr)
	}
	p, cacheErr := Parse(cached, urlPath(url), pos)
	if cacheErr != nil {
		return nil, fmt.Errorf("fetch palette %s: %w; cache: %w", url, err, cacheErr)
	}
	p.Source = url
	return p, fmt.Errorf("using cached palette: %w", err)
}

// download GETs url with retries and a response size limit.
func download(url string) ([]byte, error) {
	resp, err := getHTTPClient().Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", url, maxResponseBytes)
	}
	return body, nil
}

func writeCache(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomicfile.Write(path, data, 0o644)
}

// cacheName derives a stable file name from url, keeping its extension so
// the cached copy parses with the same format.
func cacheName(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:8]) + path.Ext(urlPath(url))
}

// urlPath strips the query and fragment from url.
func urlPath(url string) string {
	for i, r := range url {
		if r == '?' || r == '#' {
			return url[:i]
		}
	}
	return url
}

// ///////////////////////////////////////////////
// Everything
// ///////////////////////////////////////////////

// Sources names where LoadAll looks for palettes.
type Sources struct {
	Dir      string
	Patterns []string
	URLs     []string
	CacheDir string
}

// FetchAll fetches every url in order. Failures are logged; palettes served
// from the cache are kept.
func FetchAll(urls []string, cacheDir string, pos color.AlphaPosition) []*Palette {
	var out []*Palette
	for _, u := range urls {
		p, err := Fetch(u, cacheDir, pos)
		if err != nil {
			slog.Warn("remote palette degraded", "url", u, "error", err)
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// LoadAll loads local palettes then remote ones into a Set. Only a glob
// error aborts.
func LoadAll(src Sources, pos color.AlphaPosition) (*Set, error) {
	local, err := LoadDir(src.Dir, src.Patterns, pos)
	if err != nil {
		return nil, err
	}
	return &Set{Palettes: append(local, FetchAll(src.URLs, src.CacheDir, pos)...)}, nil
}
