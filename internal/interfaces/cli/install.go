package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ravenml.io/cli/internal/core/domain/manifest"
	"ravenml.io/cli/internal/core/domain/plugin"
)

// NewInstallCommand creates the per-plugin installer command. The -u and -g
// flags compose orthogonally: four distinct operations.
func NewInstallCommand(container *CLIContainer) *cobra.Command {
	var uninstall bool
	var gpu bool

	cmd := &cobra.Command{
		Use:   "install <plugin>",
		Short: "Install or uninstall a single plugin",
		Long: `Install a plugin package and all of its declared dependencies (direct and
transitive, resolved from its compiled manifest), or uninstall the plugin's
own artifact.

Uninstall never removes dependencies, even ones no other plugin uses
afterward. Reclaiming shared dependencies is deferred to 'rvn install-all -u',
which reconciles the environment against the baseline manifest.`,
		Example: `  # Install with CPU-variant dependencies
  rvn install tf_bbox

  # Install with GPU-variant dependencies
  rvn install tf_bbox -g

  # Remove only the plugin's own artifact
  rvn install tf_bbox -u`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, container, args[0], uninstall, gpu)
		},
	}

	cmd.Flags().BoolVarP(&uninstall, "uninstall", "u", false, "Uninstall the plugin's own artifact instead of installing")
	cmd.Flags().BoolVarP(&gpu, "gpu", "g", false, "Select the GPU-variant dependency manifest")

	return cmd
}

// runInstall handles the single-plugin install/uninstall paths
func runInstall(cmd *cobra.Command, container *CLIContainer, name string, uninstall, gpu bool) error {
	pkg, err := resolvePluginArg(container, name)
	if err != nil {
		return err
	}
	variant := manifest.VariantFromGPUFlag(gpu)

	if uninstall {
		removed, err := container.InstallService.Uninstall(cmd.Context(), pkg)
		if err != nil {
			return fmt.Errorf("failed to uninstall plugin %s: %w", pkg.Name, err)
		}
		if removed {
			fmt.Printf("✅ Plugin '%s' uninstalled (dependencies preserved)\n", pkg.Name)
			fmt.Printf("Run 'rvn install-all -u' to reclaim shared dependencies.\n")
		} else {
			fmt.Printf("Plugin '%s' is not installed; nothing to do.\n", pkg.Name)
		}
		return nil
	}

	if err := container.InstallService.Install(cmd.Context(), pkg, variant); err != nil {
		return fmt.Errorf("failed to install plugin %s: %w", pkg.Name, err)
	}
	fmt.Printf("✅ Plugin '%s' installed (%s variant)\n", pkg.Name, variant)
	return nil
}

// resolvePluginArg resolves a command argument to a plugin package: a path
// when it points at a directory, otherwise a name looked up in the
// configured plugins directory.
func resolvePluginArg(container *CLIContainer, arg string) (plugin.Package, error) {
	if strings.ContainsRune(arg, os.PathSeparator) || dirExists(arg) {
		return plugin.Load(arg)
	}

	dir := filepath.Join(container.Config.PluginsDir, arg)
	if dirExists(dir) {
		return plugin.Load(dir)
	}
	return plugin.Package{}, fmt.Errorf("plugin %q not found in %s", arg, container.Config.PluginsDir)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
