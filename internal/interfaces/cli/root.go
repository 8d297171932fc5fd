package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"ravenml.io/cli/internal/application/services"
	"ravenml.io/cli/internal/core/ports"
	"ravenml.io/cli/internal/infrastructure/config"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// CLIContainer holds all the dependencies for CLI commands
type CLIContainer struct {
	Config           *config.Config
	InstallService   *services.InstallService
	AggregateService *services.AggregateService
	CompileService   *services.CompileService
	Store            ports.EnvironmentStore
	Logger           *log.Logger
}

// NewRootCommand creates the base command when called without any subcommands
func NewRootCommand(container *CLIContainer) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "rvn",
		Short: "rvn - Raven training plugin manager",
		Long: `rvn manages training plugin packages for the Raven host framework.

It installs and uninstalls plugins against a shared environment, compiles
authored dependency manifests (.in) into pinned manifests (.txt), scaffolds
new plugin packages in the standard layout, and validates plugin conformance
to the host's training command contract.

Uninstalling a single plugin removes only that plugin's own artifact; shared
dependencies are reclaimed exclusively by 'rvn install-all -u', which
reconciles the environment against the baseline manifest.`,
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	// Add subcommands
	rootCmd.AddCommand(NewInstallCommand(container))
	rootCmd.AddCommand(NewInstallAllCommand(container))
	rootCmd.AddCommand(NewCompileCommand(container))
	rootCmd.AddCommand(NewPluginsCommand(container))
	rootCmd.AddCommand(NewStatusCommand(container))
	rootCmd.AddCommand(NewNewCommand(container))
	rootCmd.AddCommand(NewDoctorCommand(container))
	rootCmd.AddCommand(NewTrainCommand(container))

	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// Execute adds all child commands to the root command and runs it with
// signal-aware context cancellation.
func Execute(container *CLIContainer) {
	rootCmd := NewRootCommand(container)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
