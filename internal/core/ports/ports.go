package ports

import (
	"context"

	"ravenml.io/cli/internal/core/domain/environment"
)

// Release is one published version of a package in the index
type Release struct {
	Version  string   `json:"version"`
	Requires []string `json:"requires,omitempty"`
	Checksum string   `json:"checksum,omitempty"`
}

// PackageMeta is the index metadata for a package: every published release
type PackageMeta struct {
	Name     string             `json:"name"`
	Releases map[string]Release `json:"releases"`
}

// PackageIndex serves package metadata and payloads for dependency resolution
// and installation
type PackageIndex interface {
	// Metadata returns the published releases of a package
	Metadata(ctx context.Context, name string) (PackageMeta, error)

	// Download fetches the payload of a specific release
	Download(ctx context.Context, name, version string) ([]byte, error)
}

// EnvironmentStore persists installed-environment state and materializes
// package payloads into the environment directory
type EnvironmentStore interface {
	// Load loads the environment state, returning an empty state when none
	// has been saved yet
	Load(ctx context.Context) (*environment.State, error)

	// Save persists the environment state atomically
	Save(ctx context.Context, state *environment.State) error

	// InstallPayload unpacks a dependency payload into the environment,
	// replacing any payload already present under the same name
	InstallPayload(ctx context.Context, name, version string, payload []byte) error

	// RemovePayload removes a package payload from the environment; removing
	// an absent payload is a no-op
	RemovePayload(ctx context.Context, name string) error

	// InstallArtifact copies a plugin package tree into the environment and
	// returns the installed path
	InstallArtifact(ctx context.Context, name, srcDir string) (string, error)

	// RemoveArtifact removes an installed plugin package tree; removing an
	// absent artifact is a no-op
	RemoveArtifact(ctx context.Context, name string) error
}

// Locker serializes install/uninstall operations against one environment.
// Environment mutation is not safe to run concurrently.
type Locker interface {
	// Acquire takes the environment lock, returning the release function
	Acquire(ctx context.Context) (func(), error)
}
