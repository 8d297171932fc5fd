package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ravenml.io/cli/internal/core/domain/manifest"
	"ravenml.io/cli/internal/core/domain/plugin"
)

// NewCompileCommand creates the manifest compilation command
func NewCompileCommand(container *CLIContainer) *cobra.Command {
	var gpu bool
	var all bool

	cmd := &cobra.Command{
		Use:   "compile [plugin]",
		Short: "Compile authored manifests into pinned manifests",
		Long: `Resolve a plugin's authored manifest (requirements.in or
requirements-gui.in) against the package index and write the fully pinned
result to the matching compiled manifest (.txt).

Compiled manifests are generated caches: rerun this command whenever an
authored manifest changes, and never edit the .txt files by hand.`,
		Example: `  # Compile the CPU manifest of one plugin
  rvn compile tf_bbox

  # Compile the GPU manifest
  rvn compile tf_bbox -g

  # Compile every plugin in the plugins directory
  rvn compile --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, container, args, gpu, all)
		},
	}

	cmd.Flags().BoolVarP(&gpu, "gpu", "g", false, "Compile the GPU-variant manifest")
	cmd.Flags().BoolVar(&all, "all", false, "Compile every plugin in the plugins directory")

	return cmd
}

// runCompile handles the compile command
func runCompile(cmd *cobra.Command, container *CLIContainer, args []string, gpu, all bool) error {
	variant := manifest.VariantFromGPUFlag(gpu)

	var pkgs []plugin.Package
	switch {
	case all:
		discovered, err := plugin.Discover(container.Config.PluginsDir)
		if err != nil {
			return fmt.Errorf("failed to discover plugins: %w", err)
		}
		if len(discovered) == 0 {
			fmt.Printf("No plugin packages found in %s.\n", container.Config.PluginsDir)
			return nil
		}
		pkgs = discovered
	case len(args) == 1:
		pkg, err := resolvePluginArg(container, args[0])
		if err != nil {
			return err
		}
		pkgs = []plugin.Package{pkg}
	default:
		return fmt.Errorf("provide a plugin name or --all")
	}

	failed := 0
	for _, pkg := range pkgs {
		compiled, err := container.CompileService.Compile(cmd.Context(), pkg, variant)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", pkg.Name, err)
			failed++
			continue
		}
		fmt.Printf("✅ %s: wrote %s (%d pins)\n", pkg.Name, variant.CompiledFile(), len(compiled.Pins))
	}
	if failed > 0 {
		return fmt.Errorf("%d plugin(s) failed to compile", failed)
	}
	return nil
}
