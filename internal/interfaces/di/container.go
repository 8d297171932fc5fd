package di

import (
	"fmt"
	"log"
	"os"

	"ravenml.io/cli/internal/application/services"
	"ravenml.io/cli/internal/core/ports"
	"ravenml.io/cli/internal/core/resolve"
	"ravenml.io/cli/internal/infrastructure/config"
	envstore "ravenml.io/cli/internal/infrastructure/environment"
	"ravenml.io/cli/internal/infrastructure/index"
	"ravenml.io/cli/internal/interfaces/cli"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config

	// Infrastructure
	Index  ports.PackageIndex
	Store  *envstore.Store
	Locker *envstore.FileLocker

	// Application services
	InstallService   *services.InstallService
	AggregateService *services.AggregateService
	CompileService   *services.CompileService

	// CLI
	CLIContainer *cli.CLIContainer

	// Logger
	Logger *log.Logger
}

// NewContainer creates and configures the dependency injection container
func NewContainer() (*Container, error) {
	container := &Container{
		Logger: log.New(os.Stderr, "[rvn] ", log.LstdFlags),
	}

	if err := container.initializeComponents(); err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return container, nil
}

// initializeComponents initializes all components with proper dependencies
func (c *Container) initializeComponents() error {
	// 1. Load configuration
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	c.Config = cfg

	// 2. Initialize infrastructure components
	if cfg.IndexDir != "" {
		c.Index = index.NewFileIndex(cfg.IndexDir)
	} else {
		c.Index = index.NewHTTPIndex(cfg.IndexURL, cfg.APIKey)
	}

	c.Store, err = envstore.NewStore(cfg.EnvironmentDir, cfg.Debug)
	if err != nil {
		return err
	}
	c.Locker = envstore.NewFileLocker(cfg.EnvironmentDir)

	// 3. Initialize application services
	resolver := resolve.NewResolver(c.Index)
	c.InstallService = services.NewInstallService(c.Index, c.Store, c.Locker, c.Logger)
	c.AggregateService = services.NewAggregateService(c.InstallService, c.Store, c.Locker, cfg.BaselinePath, c.Logger)
	c.CompileService = services.NewCompileService(resolver, c.Logger)

	// 4. Initialize CLI container
	c.CLIContainer = &cli.CLIContainer{
		Config:           c.Config,
		InstallService:   c.InstallService,
		AggregateService: c.AggregateService,
		CompileService:   c.CompileService,
		Store:            c.Store,
		Logger:           c.Logger,
	}

	return nil
}

// GetCLIContainer returns the CLI dependency container
func (c *Container) GetCLIContainer() *cli.CLIContainer {
	return c.CLIContainer
}
