package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ravenml.io/cli/internal/application/services"
	"ravenml.io/cli/internal/core/domain/manifest"
	"ravenml.io/cli/internal/core/domain/plugin"
)

// NewInstallAllCommand creates the aggregate installer command. This is the
// only entry point that removes shared dependencies.
func NewInstallAllCommand(container *CLIContainer) *cobra.Command {
	var uninstall bool
	var gpu bool
	var baseline string

	cmd := &cobra.Command{
		Use:   "install-all",
		Short: "Install or uninstall every plugin in the plugins directory",
		Long: `Run the single-plugin install (or uninstall) path for every plugin package
found in the plugins directory, in any order. A plugin failure is reported
and does not abort the remaining plugins; successfully processed plugins stay
processed.

With -u, after all plugin artifacts are removed, dependencies that are neither
declared by the baseline environment manifest nor required by a remaining
installed plugin are removed from the environment. This reconciliation is the
only point where shared dependencies are cleaned up.`,
		Example: `  # Install every plugin, CPU variant
  rvn install-all

  # Uninstall every plugin and reclaim shared dependencies
  rvn install-all -u

  # GPU-variant uninstall against an explicit baseline
  rvn install-all -u -g --baseline ./baseline.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstallAll(cmd, container, uninstall, gpu, baseline)
		},
	}

	cmd.Flags().BoolVarP(&uninstall, "uninstall", "u", false, "Uninstall every plugin and reclaim shared dependencies")
	cmd.Flags().BoolVarP(&gpu, "gpu", "g", false, "Select the GPU-variant dependency manifests")
	cmd.Flags().StringVar(&baseline, "baseline", "", "Baseline manifest path (default from configuration)")

	return cmd
}

// runInstallAll handles the aggregate install/uninstall paths
func runInstallAll(cmd *cobra.Command, container *CLIContainer, uninstall, gpu bool, baseline string) error {
	pkgs, err := plugin.Discover(container.Config.PluginsDir)
	if err != nil {
		return fmt.Errorf("failed to discover plugins: %w", err)
	}
	if len(pkgs) == 0 {
		fmt.Printf("No plugin packages found in %s.\n", container.Config.PluginsDir)
		return nil
	}
	if baseline != "" {
		container.AggregateService.OverrideBaseline(baseline)
	}

	variant := manifest.VariantFromGPUFlag(gpu)
	var summary services.Summary
	if uninstall {
		summary, err = container.AggregateService.UninstallAll(cmd.Context(), pkgs, variant)
	} else {
		summary, err = container.AggregateService.InstallAll(cmd.Context(), pkgs, variant)
	}
	if err != nil {
		return err
	}

	printSummary(summary, uninstall)
	if !summary.Ok() {
		return fmt.Errorf("one or more plugins failed")
	}
	return nil
}

// printSummary reports every per-plugin outcome so one plugin's failure never
// masks the others
func printSummary(summary services.Summary, uninstall bool) {
	verb := "installed"
	if uninstall {
		verb = "uninstalled"
	}

	for _, result := range summary.Succeeded {
		fmt.Printf("✅ %s %s\n", result.Name, verb)
	}
	for _, result := range summary.Failed {
		fmt.Printf("❌ %s failed: %v\n", result.Name, result.Err)
	}

	if uninstall {
		if len(summary.RemovedDependencies) > 0 {
			fmt.Printf("🧹 Removed %d shared dependencies:\n", len(summary.RemovedDependencies))
			for _, name := range summary.RemovedDependencies {
				fmt.Printf("   - %s\n", name)
			}
		} else if summary.CleanupErr == nil {
			fmt.Printf("No shared dependencies to remove.\n")
		}
		if summary.CleanupErr != nil {
			fmt.Printf("⚠️  %v\n", summary.CleanupErr)
			fmt.Printf("Plugin artifact removals are kept; fix the baseline manifest and rerun.\n")
		}
	}
}
