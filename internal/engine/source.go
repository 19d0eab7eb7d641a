package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Bundle file names inside the mvs-stories build directory.
const (
	ScriptFile = "mvs-stories.js"
	StyleFile  = "mvs-stories.css"
)

// DefaultCDNBaseURL hosts published molstar builds.
const DefaultCDNBaseURL = "https://cdn.jsdelivr.net/npm"

// maxBundleBytes bounds a single downloaded bundle file.
const maxBundleBytes = 64 << 20

// HTTPDoer describes the HTTP client used to download the viewer bundle.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source fetches the script and style for a molstar version.
type Source interface {
	Fetch(ctx context.Context, version string) (script, style []byte, err error)
}

// BundleURL returns the CDN URL of file for version.
func BundleURL(baseURL, version, file string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultCDNBaseURL
	}
	return fmt.Sprintf("%s/molstar@%s/build/mvs-stories/%s", base, version, file)
}

// CDNSource downloads bundles over HTTP.
type CDNSource struct {
	BaseURL string
	Client  HTTPDoer
}

// Fetch downloads the script and style for version.
func (s CDNSource) Fetch(ctx context.Context, version string) ([]byte, []byte, error) {
	script, err := s.get(ctx, BundleURL(s.BaseURL, version, ScriptFile))
	if err != nil {
		return nil, nil, err
	}
	style, err := s.get(ctx, BundleURL(s.BaseURL, version, StyleFile))
	if err != nil {
		return nil, nil, err
	}
	return script, style, nil
}

func (s CDNSource) get(ctx context.Context, url string) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build bundle request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s returned %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBundleBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(data) > maxBundleBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", url, maxBundleBytes)
	}
	return data, nil
}

// StaticSource serves a fixed bundle.
type StaticSource struct {
	Script []byte
	Style  []byte
}

// Fetch returns the fixed bundle regardless of version.
func (s StaticSource) Fetch(ctx context.Context, _ string) ([]byte, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(s.Script) == 0 {
		return nil, nil, fmt.Errorf("static source has no script")
	}
	return s.Script, s.Style, nil
}
