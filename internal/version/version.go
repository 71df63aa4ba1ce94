// Package version carries build identity and the release check used by
// "lantern version --check".
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"runtime"
	"strings"
	"time"
)

// Build identity, injected at link time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const (
	releaseBaseURL      = "https://api.github.com"
	releaseOwner        = "mrz1836"
	releaseRepo         = "lantern"
	releaseTimeout      = 15 * time.Second
	maxResponseBodySize = 64 * 1024
)

// ErrReleaseAPIFailed wraps non-200 responses from the release API.
var ErrReleaseAPIFailed = errors.New("release API request failed")

var commitHashRe = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// String returns the full build identity.
func String() string {
	return fmt.Sprintf("lantern %s (commit %s, built %s, %s/%s)",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}

// Release is the subset of a GitHub release this package cares about.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
}

// Client fetches release metadata.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a release client. baseURL overrides the GitHub API root
// when non-empty (tests).
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = releaseBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: releaseTimeout},
	}
}

// LatestRelease fetches the newest published release.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, releaseOwner, releaseRepo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("lantern/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH))
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrReleaseAPIFailed, resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&release); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &release, nil
}

// IsNewer reports whether latest is a newer release than current.
func IsNewer(current, latest string) bool {
	return Compare(current, latest) < 0
}

// Compare orders two version strings: -1 when a < b, 0 when equal, 1 when
// a > b. Development builds and bare commit hashes sort below any release.
func Compare(a, b string) int {
	a = strings.TrimPrefix(a, "v")
	b = strings.TrimPrefix(b, "v")

	aDev := a == "" || a == "dev" || commitHashRe.MatchString(a)
	bDev := b == "" || b == "dev" || commitHashRe.MatchString(b)
	switch {
	case aDev && bDev:
		return 0
	case aDev:
		return -1
	case bDev:
		return 1
	}

	pa := parseParts(a)
	pb := parseParts(b)
	for i := 0; i < 3; i++ {
		var va, vb int
		if i < len(pa) {
			va = pa[i]
		}
		if i < len(pb) {
			vb = pb[i]
		}
		if va != vb {
			if va > vb {
				return 1
			}
			return -1
		}
	}
	return 0
}

func parseParts(version string) []int {
	// Strip pre-release and build suffixes.
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}
	fields := strings.Split(version, ".")
	parts := make([]int, 0, len(fields))
	for _, field := range fields {
		var n int
		if _, err := fmt.Sscanf(field, "%d", &n); err != nil {
			break
		}
		parts = append(parts, n)
	}
	return parts
}
