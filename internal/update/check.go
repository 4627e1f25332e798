// Package update checks a release manifest for a newer eyedropper version.
//
// The manifest is a JSON object mapping channels to versions; the "." key
// holds the latest stable release:
//
//	{".": "1.4.0"}
package update

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/mod/semver"
)

// maxManifestBytes caps the manifest download.
const maxManifestBytes = 64 << 10

var (
	httpClient     *retryablehttp.Client
	httpClientOnce sync.Once
)

func getHTTPClient() *retryablehttp.Client {
	httpClientOnce.Do(func() {
		httpClient = retryablehttp.NewClient()
		httpClient.RetryMax = 1
		httpClient.RetryWaitMin = 200 * time.Millisecond
		httpClient.RetryWaitMax = time.Second
		httpClient.HTTPClient.Timeout = 5 * time.Second
		httpClient.Logger = nil
	})
	return httpClient
}

// ///////////////////////////////////////////////
// Public API
// ///////////////////////////////////////////////

// Result is the outcome of a check.
type Result struct {
	Current string
	Latest  string
	// Available is true when Latest is a newer release than Current.
	Available bool
}

// Check fetches the manifest at manifestURL and compares its latest version
// with current. Development builds ("dev", "dev+hash") never report an update.
func Check(manifestURL, current string) (Result, error) {
	latest, err := Latest(manifestURL)
	if err != nil {
		return Result{Current: current}, err
	}
	return Result{Current: current, Latest: latest, Available: Newer(current, latest)}, nil
}

// Latest returns the version stored under the manifest's "." key.
func Latest(manifestURL string) (string, error) {
	resp, err := getHTTPClient().Get(manifestURL)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", manifestURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: status %d", manifestURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var manifest map[string]string
	if err := json.Unmarshal(body, &manifest); err != nil {
		return "", fmt.Errorf("parsing manifest: %w", err)
	}
	latest := manifest["."]
	if latest == "" {
		return "", fmt.Errorf("manifest has no latest version")
	}
	return latest, nil
}

// Newer reports whether latest is a later release than current. Versions
// may omit the leading "v". Anything that is not semver compares as not newer.
func Newer(current, latest string) bool {
	cur, lat := canonical(current), canonical(latest)
	if !semver.IsValid(cur) || !semver.IsValid(lat) {
		return false
	}
	return semver.Compare(cur, lat) < 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
