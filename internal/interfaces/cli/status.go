package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the environment status command
func NewStatusCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the installed environment",
		Long: `Show the plugin artifacts and shared dependencies currently installed in
the environment, and the baseline manifest protecting host dependencies
during aggregate uninstall.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, container)
		},
	}
}

// runStatus handles the status command
func runStatus(cmd *cobra.Command, container *CLIContainer) error {
	state, err := container.Store.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load environment state: %w", err)
	}

	fmt.Println(titleStyle.Render("Environment"))
	fmt.Println(dimStyle.Render(fmt.Sprintf("environment: %s", container.Config.EnvironmentDir)))
	fmt.Println(dimStyle.Render(fmt.Sprintf("baseline:    %s", container.Config.BaselinePath)))
	fmt.Println()

	artifacts := state.ArtifactNames()
	if len(artifacts) == 0 {
		fmt.Println("No plugins installed.")
	} else {
		fmt.Println(titleStyle.Render("Installed plugins"))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVARIANT\tINSTALLED AT\tDEPENDENCIES")
		for _, name := range artifacts {
			artifact, _ := state.Artifact(name)
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
				artifact.Name, artifact.Variant,
				artifact.InstalledAt.Format("2006-01-02 15:04"),
				len(artifact.Closure.Pins))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	fmt.Println()

	deps := state.DependencyNames()
	if len(deps) == 0 {
		fmt.Println("No shared dependencies installed.")
		return nil
	}
	fmt.Println(titleStyle.Render("Shared dependencies"))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION")
	for _, name := range deps {
		dep, _ := state.Dependency(name)
		fmt.Fprintf(w, "%s\t%s\n", dep.Name, dep.Version)
	}
	return w.Flush()
}
