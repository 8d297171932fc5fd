package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ravenml.io/cli/internal/infrastructure/scaffold"
)

// NewNewCommand creates the plugin scaffolding command
func NewNewCommand(container *CLIContainer) *cobra.Command {
	var description string
	var cpuDeps []string
	var gpuDeps []string

	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Scaffold a new plugin package",
		Long: `Create a new plugin package in the plugins directory, in the standard
layout: module directory with __init__.py and the core.py command-group
skeleton, install.sh, authored and compiled manifests for both variants, and
setup.py registering the train entry point.

Run without a name to fill in the details interactively.`,
		Example: `  # Scaffold with flags
  rvn new tf_bbox --description "TensorFlow bounding box training" --cpu-dep numpy

  # Scaffold interactively
  rvn new`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(container, args, description, cpuDeps, gpuDeps)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Short plugin description")
	cmd.Flags().StringSliceVar(&cpuDeps, "cpu-dep", nil, "Initial direct CPU dependency (repeatable)")
	cmd.Flags().StringSliceVar(&gpuDeps, "gpu-dep", nil, "Initial direct GPU dependency (repeatable)")

	return cmd
}

// runNew handles the new command
func runNew(container *CLIContainer, args []string, description string, cpuDeps, gpuDeps []string) error {
	opts := scaffold.Options{
		Description: description,
		CPUDeps:     cpuDeps,
		GPUDeps:     gpuDeps,
	}

	if len(args) == 1 {
		opts.Name = args[0]
	} else {
		name, wizardDescription, err := runScaffoldWizard()
		if err != nil {
			return err
		}
		opts.Name = name
		if opts.Description == "" {
			opts.Description = wizardDescription
		}
	}

	dir, err := scaffold.Scaffold(container.Config.PluginsDir, opts)
	if err != nil {
		return fmt.Errorf("failed to scaffold plugin: %w", err)
	}

	fmt.Printf("✅ Plugin '%s' created at %s\n", opts.Name, dir)
	fmt.Printf("Next steps:\n")
	fmt.Printf("  1. Add direct dependencies to %s/requirements.in (and requirements-gui.in)\n", dir)
	fmt.Printf("  2. Run 'rvn compile %s' to pin them\n", opts.Name)
	fmt.Printf("  3. Fill in run_training in %s/%s/core.py\n", dir, opts.Name)
	return nil
}
