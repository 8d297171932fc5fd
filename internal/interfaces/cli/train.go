package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTrainCommand creates the train command group
func NewTrainCommand(container *CLIContainer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Training plugin commands",
		Long:  `Commands for working with installed training plugins.`,
	}

	cmd.AddCommand(newTrainListCommand(container))

	return cmd
}

// newTrainListCommand creates the train list command
func newTrainListCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed training plugins",
		Long:  `List the training plugins installed in the environment, as the host's train command group sees them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := container.Store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load environment state: %w", err)
			}

			names := state.ArtifactNames()
			if len(names) == 0 {
				fmt.Println("No training plugins installed.")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}
