package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ravenml.io/cli/internal/core/domain/plugin"
)

// NewDoctorCommand creates the plugin conformance check command
func NewDoctorCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [plugin]",
		Short: "Check plugin packages for layout and contract conformance",
		Long: `Check that a plugin package (or every package in the plugins directory)
conforms to the standard layout: all required files present, the train entry
point registered in setup.py, a command group with a train command in
core.py, and compiled manifests no older than their authored manifests.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(container, args)
		},
	}
}

// runDoctor handles the doctor command
func runDoctor(container *CLIContainer, args []string) error {
	var pkgs []plugin.Package
	if len(args) == 1 {
		pkg, err := resolvePluginArg(container, args[0])
		if err != nil {
			return err
		}
		pkgs = []plugin.Package{pkg}
	} else {
		discovered, err := plugin.Discover(container.Config.PluginsDir)
		if err != nil {
			return fmt.Errorf("failed to discover plugins: %w", err)
		}
		if len(discovered) == 0 {
			fmt.Printf("No plugin packages found in %s.\n", container.Config.PluginsDir)
			return nil
		}
		pkgs = discovered
	}

	failed := 0
	for _, pkg := range pkgs {
		report := plugin.Doctor(pkg)
		fmt.Println(titleStyle.Render(pkg.Name))
		for _, check := range report.Checks {
			switch check.Status {
			case plugin.CheckOK:
				fmt.Printf("  ✅ %s\n", check.Name)
			case plugin.CheckWarn:
				fmt.Printf("  ⚠️  %s: %s\n", check.Name, check.Message)
			case plugin.CheckFail:
				fmt.Printf("  ❌ %s: %s\n", check.Name, check.Message)
			}
		}
		if report.Failed() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d plugin(s) failed conformance checks", failed)
	}
	return nil
}
