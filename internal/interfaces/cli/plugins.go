package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"ravenml.io/cli/internal/core/domain/plugin"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// NewPluginsCommand creates the plugins command group
func NewPluginsCommand(container *CLIContainer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect plugin packages",
		Long:  `Inspect the plugin packages in the plugins directory and their install state.`,
	}

	cmd.AddCommand(newPluginsListCommand(container))

	return cmd
}

// newPluginsListCommand creates the plugins list command
func newPluginsListCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List plugin packages and their install state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPluginsList(cmd, container)
		},
	}
}

// runPluginsList handles the plugins list command
func runPluginsList(cmd *cobra.Command, container *CLIContainer) error {
	pkgs, err := plugin.Discover(container.Config.PluginsDir)
	if err != nil {
		return fmt.Errorf("failed to discover plugins: %w", err)
	}
	if len(pkgs) == 0 {
		fmt.Printf("No plugin packages found in %s.\n", container.Config.PluginsDir)
		return nil
	}

	state, err := container.Store.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load environment state: %w", err)
	}

	fmt.Println(titleStyle.Render("Training plugins"))
	fmt.Println(dimStyle.Render(container.Config.PluginsDir))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tINSTALLED\tDESCRIPTION")
	for _, pkg := range pkgs {
		installed := "-"
		if artifact, ok := state.Artifact(pkg.Name); ok {
			installed = fmt.Sprintf("yes (%s)", artifact.Variant)
		}
		version := pkg.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", pkg.Name, version, installed, pkg.Description)
	}
	return w.Flush()
}
