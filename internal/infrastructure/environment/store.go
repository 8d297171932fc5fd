package environment

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	envdomain "ravenml.io/cli/internal/core/domain/environment"
	"ravenml.io/cli/internal/core/domain/manifest"
)

// Store is the filesystem-backed environment: a state file plus materialized
// package payloads and plugin artifact trees.
//
//	<dir>/environment.json
//	<dir>/packages/<dependency>/...
//	<dir>/plugins/<plugin>/...
type Store struct {
	dir   string
	debug bool
}

// NewStore creates a filesystem environment store rooted at dir
func NewStore(dir string, debug bool) (*Store, error) {
	dir = expandPath(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create environment directory: %w", err)
	}
	return &Store{dir: dir, debug: debug}, nil
}

// Dir returns the environment root directory
func (s *Store) Dir() string {
	return s.dir
}

// stateData is the persisted environment state format
type stateData struct {
	Version     string           `json:"version"`
	LastUpdated time.Time        `json:"last_updated"`
	State       *envdomain.State `json:"state"`
}

func (s *Store) statePath() string {
	return filepath.Join(s.dir, "environment.json")
}

// Load loads the environment state, returning an empty state when none has
// been saved yet
func (s *Store) Load(ctx context.Context) (*envdomain.State, error) {
	if _, err := os.Stat(s.statePath()); os.IsNotExist(err) {
		return envdomain.NewState(), nil
	}

	data, err := os.ReadFile(s.statePath())
	if err != nil {
		return nil, fmt.Errorf("failed to read environment state: %w", err)
	}

	var persisted stateData
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, fmt.Errorf("failed to parse environment state: %w", err)
	}
	if persisted.State == nil {
		return envdomain.NewState(), nil
	}
	return persisted.State, nil
}

// Save persists the environment state atomically
func (s *Store) Save(ctx context.Context, state *envdomain.State) error {
	persisted := stateData{
		Version:     "1.0",
		LastUpdated: time.Now(),
		State:       state,
	}

	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal environment state: %w", err)
	}

	tempFile := s.statePath() + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write environment state: %w", err)
	}
	if err := os.Rename(tempFile, s.statePath()); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save environment state: %w", err)
	}
	return nil
}

// InstallPayload unpacks a dependency payload under packages/<name>,
// replacing any payload already present. A tar.gz payload is extracted; a
// raw payload is written as a single file.
func (s *Store) InstallPayload(ctx context.Context, name, version string, payload []byte) error {
	name = manifest.CanonicalName(name)
	target := filepath.Join(s.dir, "packages", name)

	// Replace rather than merge so version changes converge
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("failed to clear existing payload: %w", err)
	}
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("failed to create package directory: %w", err)
	}

	if isGzip(payload) {
		if err := extractTarGz(target, payload); err != nil {
			return fmt.Errorf("failed to unpack %s==%s: %w", name, version, err)
		}
	} else {
		file := filepath.Join(target, fmt.Sprintf("%s-%s", name, version))
		if err := os.WriteFile(file, payload, 0644); err != nil {
			return fmt.Errorf("failed to write payload: %w", err)
		}
	}

	if s.debug {
		fmt.Printf("[DEBUG] Installed %s==%s to %s\n", name, version, target)
	}
	return nil
}

// RemovePayload removes a package payload; removing an absent payload is a
// no-op
func (s *Store) RemovePayload(ctx context.Context, name string) error {
	name = manifest.CanonicalName(name)
	target := filepath.Join(s.dir, "packages", name)
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("failed to remove payload %s: %w", name, err)
	}
	if s.debug {
		fmt.Printf("[DEBUG] Removed payload: %s\n", target)
	}
	return nil
}

// InstallArtifact copies a plugin package tree into plugins/<name>, replacing
// any tree already present, and returns the installed path
func (s *Store) InstallArtifact(ctx context.Context, name, srcDir string) (string, error) {
	name = manifest.CanonicalName(name)
	target := filepath.Join(s.dir, "plugins", name)

	if err := os.RemoveAll(target); err != nil {
		return "", fmt.Errorf("failed to clear existing artifact: %w", err)
	}
	if err := copyTree(srcDir, target); err != nil {
		return "", fmt.Errorf("failed to copy plugin artifact: %w", err)
	}

	if s.debug {
		fmt.Printf("[DEBUG] Installed plugin %s to %s\n", name, target)
	}
	return target, nil
}

// RemoveArtifact removes an installed plugin tree; removing an absent
// artifact is a no-op
func (s *Store) RemoveArtifact(ctx context.Context, name string) error {
	name = manifest.CanonicalName(name)
	target := filepath.Join(s.dir, "plugins", name)
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("failed to remove plugin artifact %s: %w", name, err)
	}
	if s.debug {
		fmt.Printf("[DEBUG] Removed plugin artifact: %s\n", target)
	}
	return nil
}

// extractTarGz extracts a tar.gz payload into target
func extractTarGz(target string, data []byte) error {
	gzReader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		targetPath := filepath.Join(target, header.Name)

		// Security: prevent path traversal. A bare prefix check would let
		// "../foo-evil/x" escape into a sibling of "foo", so compare against
		// the target directory plus separator.
		cleanTarget := filepath.Clean(target)
		if targetPath != cleanTarget && !strings.HasPrefix(targetPath, cleanTarget+string(os.PathSeparator)) {
			return fmt.Errorf("unsafe tar path: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			file, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			if _, err := io.Copy(file, tarReader); err != nil {
				file.Close()
				return fmt.Errorf("failed to write file: %w", err)
			}
			file.Close()
		}
	}
	return nil
}

// copyTree copies a directory tree from src to dst
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode().Perm())
	})
}

// isGzip checks if data is gzip compressed
func isGzip(data []byte) bool {
	return len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b
}

// expandPath expands ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
