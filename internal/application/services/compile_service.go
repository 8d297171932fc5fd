package services

import (
	"context"
	"fmt"
	"log"

	"ravenml.io/cli/internal/core/domain/manifest"
	"ravenml.io/cli/internal/core/domain/plugin"
	"ravenml.io/cli/internal/core/resolve"
)

// CompileService regenerates compiled manifests from authored manifests.
// The compiled manifest is a cache of the resolver's output; it must be
// regenerated whenever the authored manifest changes and is never hand-edited.
type CompileService struct {
	resolver *resolve.Resolver
	logger   *log.Logger
}

// NewCompileService creates the manifest compile service
func NewCompileService(resolver *resolve.Resolver, logger *log.Logger) *CompileService {
	return &CompileService{resolver: resolver, logger: logger}
}

// Compile resolves the authored manifest for a variant and writes the pinned
// result to the plugin's compiled manifest file.
func (s *CompileService) Compile(ctx context.Context, pkg plugin.Package, variant manifest.Variant) (manifest.Compiled, error) {
	authored, err := pkg.AuthoredManifest(variant)
	if err != nil {
		return manifest.Compiled{}, fmt.Errorf("failed to load authored manifest for %s (%s): %w", pkg.Name, variant, err)
	}

	compiled, err := s.resolver.Resolve(ctx, authored.Requirements, "-r "+variant.AuthoredFile())
	if err != nil {
		return manifest.Compiled{}, fmt.Errorf("failed to compile %s (%s): %w", pkg.Name, variant, err)
	}

	command := "rvn compile " + pkg.Name
	if variant == manifest.VariantGPU {
		command += " -g"
	}
	if err := pkg.WriteCompiledManifest(variant, compiled, command); err != nil {
		return manifest.Compiled{}, err
	}

	s.logger.Printf("compiled %s for %s (%d pins)", variant.CompiledFile(), pkg.Name, len(compiled.Pins))
	return compiled, nil
}
