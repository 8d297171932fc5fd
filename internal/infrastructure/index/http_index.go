package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ravenml.io/cli/internal/core/domain/manifest"
	"ravenml.io/cli/internal/core/ports"
)

// HTTPIndex implements the package index over an HTTP API
type HTTPIndex struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPIndex creates a new HTTP-based package index client
func NewHTTPIndex(endpoint, apiKey string) *HTTPIndex {
	return &HTTPIndex{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Metadata returns the published releases of a package
func (i *HTTPIndex) Metadata(ctx context.Context, name string) (ports.PackageMeta, error) {
	name = manifest.CanonicalName(name)
	requestURL := fmt.Sprintf("%s/api/packages/%s", i.endpoint, url.PathEscape(name))

	body, status, err := i.get(ctx, requestURL)
	if err != nil {
		return ports.PackageMeta{}, err
	}
	if status == http.StatusNotFound {
		return ports.PackageMeta{}, fmt.Errorf("package %q not found in index", name)
	}
	if status != http.StatusOK {
		return ports.PackageMeta{}, fmt.Errorf("index request failed with status %d: %s", status, string(body))
	}

	var meta ports.PackageMeta
	if err := json.Unmarshal(body, &meta); err != nil {
		return ports.PackageMeta{}, fmt.Errorf("failed to decode index response: %w", err)
	}
	if meta.Name == "" {
		meta.Name = name
	}
	if meta.Releases == nil {
		meta.Releases = make(map[string]ports.Release)
	}
	return meta, nil
}

// Download fetches the payload of a specific release
func (i *HTTPIndex) Download(ctx context.Context, name, version string) ([]byte, error) {
	name = manifest.CanonicalName(name)
	requestURL := fmt.Sprintf("%s/api/packages/%s/%s/download",
		i.endpoint, url.PathEscape(name), url.PathEscape(version))

	body, status, err := i.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("package %s has no release %s", name, version)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d: %s", status, string(body))
	}
	return body, nil
}

// get performs an authenticated GET and returns the body and status
func (i *HTTPIndex) get(ctx context.Context, requestURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "rvn/1.0")
	if i.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", i.apiKey))
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
