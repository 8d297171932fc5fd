package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"ravenml.io/cli/internal/core/domain/manifest"
	"ravenml.io/cli/internal/core/domain/plugin"
	"ravenml.io/cli/internal/core/ports"
)

// PluginResult is the outcome of one plugin's step in an aggregate operation
type PluginResult struct {
	Name string
	Err  error
}

// Summary is the outcome of an aggregate operation. A partial failure leaves
// successfully processed plugins processed; there is no rollback.
type Summary struct {
	Succeeded []PluginResult
	Failed    []PluginResult

	// RemovedDependencies lists the shared dependencies removed by the
	// reconciliation phase of an aggregate uninstall
	RemovedDependencies []string

	// CleanupErr is set when the reconciliation phase itself failed; the
	// per-plugin artifact removals already performed are not rolled back
	CleanupErr error
}

// Ok reports whether every plugin step and the cleanup phase succeeded
func (s Summary) Ok() bool {
	return len(s.Failed) == 0 && s.CleanupErr == nil
}

// AggregateService orchestrates the per-plugin install service across every
// plugin in a directory, and owns the only point in the protocol where shared
// dependencies are removed: the post-uninstall reconciliation against the
// baseline environment manifest.
type AggregateService struct {
	installs     *InstallService
	store        ports.EnvironmentStore
	locker       ports.Locker
	baselinePath string
	logger       *log.Logger
}

// NewAggregateService creates the aggregate install service
func NewAggregateService(installs *InstallService, store ports.EnvironmentStore, locker ports.Locker, baselinePath string, logger *log.Logger) *AggregateService {
	return &AggregateService{
		installs:     installs,
		store:        store,
		locker:       locker,
		baselinePath: baselinePath,
		logger:       logger,
	}
}

// OverrideBaseline points the reconciliation phase at a different baseline
// environment manifest
func (s *AggregateService) OverrideBaseline(path string) {
	s.baselinePath = path
}

// InstallAll runs the single-plugin install path for every plugin. Order does
// not matter; a plugin failure is recorded and does not abort the rest.
func (s *AggregateService) InstallAll(ctx context.Context, pkgs []plugin.Package, variant manifest.Variant) (Summary, error) {
	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return Summary{}, err
	}
	defer release()

	state, err := s.store.Load(ctx)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, pkg := range pkgs {
		if err := s.installs.install(ctx, state, pkg, variant); err != nil {
			summary.Failed = append(summary.Failed, PluginResult{Name: pkg.Name, Err: err})
			continue
		}
		summary.Succeeded = append(summary.Succeeded, PluginResult{Name: pkg.Name})
	}

	if err := s.store.Save(ctx, state); err != nil {
		return summary, err
	}
	return summary, nil
}

// UninstallAll runs the single-plugin uninstall path for every plugin, then
// reconciles: dependencies neither declared by the baseline manifest nor
// required by any remaining installed plugin are removed. A plugin whose
// uninstall failed stays attributed as in-use, so its dependencies survive
// reconciliation.
func (s *AggregateService) UninstallAll(ctx context.Context, pkgs []plugin.Package, variant manifest.Variant) (Summary, error) {
	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return Summary{}, err
	}
	defer release()

	state, err := s.store.Load(ctx)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, pkg := range pkgs {
		if _, err := s.installs.uninstall(ctx, state, pkg); err != nil {
			summary.Failed = append(summary.Failed, PluginResult{Name: pkg.Name, Err: err})
			continue
		}
		summary.Succeeded = append(summary.Succeeded, PluginResult{Name: pkg.Name})
	}

	// Persist artifact removals before the cleanup phase so a baseline
	// failure cannot lose them
	if err := s.store.Save(ctx, state); err != nil {
		return summary, err
	}

	baseline, err := s.loadBaseline()
	if err != nil {
		summary.CleanupErr = fmt.Errorf("dependency cleanup skipped: %w", err)
		return summary, nil
	}

	for _, name := range state.Reconcile(baseline) {
		if err := s.store.RemovePayload(ctx, name); err != nil {
			summary.CleanupErr = err
			break
		}
		state.RemoveDependency(name)
		summary.RemovedDependencies = append(summary.RemovedDependencies, name)
	}

	if err := s.store.Save(ctx, state); err != nil {
		return summary, err
	}
	return summary, nil
}

// loadBaseline reads and parses the baseline environment manifest
func (s *AggregateService) loadBaseline() (manifest.Baseline, error) {
	path := expandPath(s.baselinePath)
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest.Baseline{}, fmt.Errorf("failed to read baseline manifest %s: %w", path, err)
	}
	baseline, err := manifest.ParseBaseline(data)
	if err != nil {
		return manifest.Baseline{}, fmt.Errorf("failed to parse baseline manifest %s: %w", path, err)
	}
	return baseline, nil
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
