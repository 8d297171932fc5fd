package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ravenml.io/cli/internal/core/domain/manifest"
	"ravenml.io/cli/internal/core/ports"
)

// FileIndex serves package metadata and payloads from a local directory.
// The directory holds an index.json catalog and payload archives beside it:
//
//	index.json
//	numpy-1.18.1.tar.gz
//	...
type FileIndex struct {
	dir string
}

// NewFileIndex creates an index backed by a local directory
func NewFileIndex(dir string) *FileIndex {
	return &FileIndex{dir: dir}
}

// CatalogFile is the catalog file name inside an index directory
const CatalogFile = "index.json"

type catalogRelease struct {
	Requires []string `json:"requires,omitempty"`
	Checksum string   `json:"checksum,omitempty"`
	Payload  string   `json:"payload,omitempty"`
}

type catalogEntry struct {
	Releases map[string]catalogRelease `json:"releases"`
}

type catalog struct {
	Packages map[string]catalogEntry `json:"packages"`
}

// Metadata returns the published releases of a package
func (i *FileIndex) Metadata(ctx context.Context, name string) (ports.PackageMeta, error) {
	cat, err := i.load()
	if err != nil {
		return ports.PackageMeta{}, err
	}

	name = manifest.CanonicalName(name)
	entry, ok := cat.Packages[name]
	if !ok {
		return ports.PackageMeta{}, fmt.Errorf("package %q not found in index", name)
	}

	meta := ports.PackageMeta{Name: name, Releases: make(map[string]ports.Release, len(entry.Releases))}
	for version, release := range entry.Releases {
		meta.Releases[version] = ports.Release{
			Version:  version,
			Requires: release.Requires,
			Checksum: release.Checksum,
		}
	}
	return meta, nil
}

// Download reads the payload archive of a specific release
func (i *FileIndex) Download(ctx context.Context, name, version string) ([]byte, error) {
	cat, err := i.load()
	if err != nil {
		return nil, err
	}

	name = manifest.CanonicalName(name)
	entry, ok := cat.Packages[name]
	if !ok {
		return nil, fmt.Errorf("package %q not found in index", name)
	}
	release, ok := entry.Releases[version]
	if !ok {
		return nil, fmt.Errorf("package %s has no release %s", name, version)
	}

	payload := release.Payload
	if payload == "" {
		payload = fmt.Sprintf("%s-%s.tar.gz", name, version)
	}

	data, err := os.ReadFile(filepath.Join(i.dir, payload))
	if err != nil {
		return nil, fmt.Errorf("failed to read payload for %s==%s: %w", name, version, err)
	}
	return data, nil
}

func (i *FileIndex) load() (catalog, error) {
	data, err := os.ReadFile(filepath.Join(i.dir, CatalogFile))
	if err != nil {
		return catalog{}, fmt.Errorf("failed to read index catalog: %w", err)
	}
	var cat catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return catalog{}, fmt.Errorf("failed to parse index catalog: %w", err)
	}
	if cat.Packages == nil {
		cat.Packages = make(map[string]catalogEntry)
	}
	return cat, nil
}
