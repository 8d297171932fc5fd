package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	envdomain "ravenml.io/cli/internal/core/domain/environment"
	"ravenml.io/cli/internal/core/domain/manifest"
	"ravenml.io/cli/internal/core/domain/plugin"
	"ravenml.io/cli/internal/core/ports"
)

// InstallService implements the single-plugin install and uninstall paths.
//
// Install materializes the plugin's full pinned closure and its own artifact.
// Uninstall removes only the plugin's own artifact: shared dependencies are
// never removed here, even when no other plugin uses them afterward. Cleanup
// of shared dependencies is deferred entirely to the aggregate path.
type InstallService struct {
	index  ports.PackageIndex
	store  ports.EnvironmentStore
	locker ports.Locker
	logger *log.Logger
}

// NewInstallService creates the single-plugin install service
func NewInstallService(index ports.PackageIndex, store ports.EnvironmentStore, locker ports.Locker, logger *log.Logger) *InstallService {
	return &InstallService{index: index, store: store, locker: locker, logger: logger}
}

// Install installs the plugin's own artifact and every dependency of its
// compiled manifest for the selected variant. Safe to repeat and safe to
// interleave with other plugins' installs in any order.
func (s *InstallService) Install(ctx context.Context, pkg plugin.Package, variant manifest.Variant) error {
	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	state, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if err := s.install(ctx, state, pkg, variant); err != nil {
		return err
	}
	return s.store.Save(ctx, state)
}

// Uninstall removes only the plugin's own artifact. Returns false when the
// plugin was not installed, which is a no-op success, not an error.
func (s *InstallService) Uninstall(ctx context.Context, pkg plugin.Package) (bool, error) {
	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	state, err := s.store.Load(ctx)
	if err != nil {
		return false, err
	}
	removed, err := s.uninstall(ctx, state, pkg)
	if err != nil {
		return removed, err
	}
	return removed, s.store.Save(ctx, state)
}

// install is the lock-free install path, shared with the aggregate service
func (s *InstallService) install(ctx context.Context, state *envdomain.State, pkg plugin.Package, variant manifest.Variant) error {
	compiled, err := pkg.CompiledManifest(variant)
	if err != nil {
		return fmt.Errorf("failed to load compiled manifest for %s (%s): %w", pkg.Name, variant, err)
	}

	for _, pin := range compiled.Pins {
		if err := s.installDependency(ctx, state, pin); err != nil {
			return fmt.Errorf("failed to install dependency %s==%s for %s: %w", pin.Name, pin.Version, pkg.Name, err)
		}
	}

	path, err := s.store.InstallArtifact(ctx, pkg.Name, pkg.Dir)
	if err != nil {
		return fmt.Errorf("failed to install plugin artifact %s: %w", pkg.Name, err)
	}

	state.PutArtifact(envdomain.Artifact{
		Name:        pkg.Name,
		Version:     pkg.Version,
		Variant:     variant,
		InstalledAt: time.Now(),
		Closure:     compiled,
	})
	s.logger.Printf("installed plugin %s (%s variant) to %s", pkg.Name, variant, path)
	return nil
}

// uninstall is the lock-free uninstall path, shared with the aggregate service.
// The on-disk artifact is removed before the state entry: a failed removal
// leaves the artifact recorded, so its dependencies stay attributed as in-use.
func (s *InstallService) uninstall(ctx context.Context, state *envdomain.State, pkg plugin.Package) (bool, error) {
	if err := s.store.RemoveArtifact(ctx, pkg.Name); err != nil {
		return false, err
	}
	removed := state.RemoveArtifact(pkg.Name)
	if removed {
		s.logger.Printf("uninstalled plugin %s (dependencies preserved)", pkg.Name)
	} else {
		s.logger.Printf("plugin %s is not installed; nothing to do", pkg.Name)
	}
	return removed, nil
}

// installDependency materializes a single pinned dependency. Same version
// already present: no-op. Different version present: the new pin replaces it,
// so overlapping installs converge to one resolved set per environment.
func (s *InstallService) installDependency(ctx context.Context, state *envdomain.State, pin manifest.Pinned) error {
	if existing, ok := state.Dependency(pin.Name); ok {
		if existing.Version == pin.Version {
			return nil
		}
		s.logger.Printf("warning: replacing %s %s with pinned %s", pin.Name, existing.Version, pin.Version)
	}

	payload, err := s.index.Download(ctx, pin.Name, pin.Version)
	if err != nil {
		return err
	}

	checksum, err := s.expectedChecksum(ctx, pin)
	if err != nil {
		return err
	}
	if checksum != "" {
		if err := verifyChecksum(payload, checksum); err != nil {
			return err
		}
	}

	if err := s.store.InstallPayload(ctx, pin.Name, pin.Version, payload); err != nil {
		return err
	}
	state.PutDependency(envdomain.Dependency{Name: pin.Name, Version: pin.Version, Checksum: checksum})
	return nil
}

// expectedChecksum looks up the release checksum from the index metadata
func (s *InstallService) expectedChecksum(ctx context.Context, pin manifest.Pinned) (string, error) {
	meta, err := s.index.Metadata(ctx, pin.Name)
	if err != nil {
		return "", err
	}
	release, ok := meta.Releases[pin.Version]
	if !ok {
		return "", fmt.Errorf("package %s has no release %s", pin.Name, pin.Version)
	}
	return release.Checksum, nil
}

// verifyChecksum verifies the downloaded payload checksum
func verifyChecksum(data []byte, expectedChecksum string) error {
	hash := sha256.Sum256(data)
	actualChecksum := hex.EncodeToString(hash[:])
	if actualChecksum != expectedChecksum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedChecksum, actualChecksum)
	}
	return nil
}
