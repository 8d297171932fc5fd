package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ravenml.io/cli/internal/core/domain/manifest"
	"ravenml.io/cli/internal/core/resolve"
)

func TestCompileService_WritesPinnedManifest(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.writePlugin(t, "tf_bbox", nil)
	require.NoError(t, os.WriteFile(filepath.Join(pkg.Dir, manifest.VariantCPU.AuthoredFile()),
		[]byte("# direct deps\ntensorflow\n"), 0644))

	env.index.addRelease("numpy", "1.18.1", []byte("numpy"))
	env.index.addRelease("tensorflow", "1.14.0", []byte("tensorflow"))
	env.index.setRequires("tensorflow", "1.14.0", "numpy>=1.14")

	service := NewCompileService(resolve.NewResolver(env.index), env.logger)

	compiled, err := service.Compile(context.Background(), pkg, manifest.VariantCPU)
	require.NoError(t, err)
	require.Len(t, compiled.Pins, 2)

	data, err := os.ReadFile(filepath.Join(pkg.Dir, manifest.VariantCPU.CompiledFile()))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "#    rvn compile tf_bbox")
	assert.Contains(t, content, "numpy==1.18.1")
	assert.Contains(t, content, "tensorflow==1.14.0")
	assert.Contains(t, content, "    # via tensorflow")
	assert.Contains(t, content, "    # via -r requirements.in")

	// The written manifest must parse back as a valid compiled manifest
	reparsed, err := pkg.CompiledManifest(manifest.VariantCPU)
	require.NoError(t, err)
	assert.Equal(t, compiled.Names(), reparsed.Names())
}

func TestCompileService_GPUVariant(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.writePlugin(t, "tf_bbox", nil)
	require.NoError(t, os.WriteFile(filepath.Join(pkg.Dir, manifest.VariantGPU.AuthoredFile()),
		[]byte("tensorflow-gpu\n"), 0644))
	env.index.addRelease("tensorflow-gpu", "1.14.0", []byte("tensorflow-gpu"))

	service := NewCompileService(resolve.NewResolver(env.index), env.logger)

	_, err := service.Compile(context.Background(), pkg, manifest.VariantGPU)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(pkg.Dir, manifest.VariantGPU.CompiledFile()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "#    rvn compile tf_bbox -g")
	assert.Contains(t, string(data), "    # via -r requirements-gui.in")
}

func TestCompileService_MissingAuthoredManifest(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.writePlugin(t, "tf_bbox", nil)

	service := NewCompileService(resolve.NewResolver(env.index), env.logger)

	_, err := service.Compile(context.Background(), pkg, manifest.VariantCPU)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authored manifest")
}

func TestCompileService_UnknownDependency(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.writePlugin(t, "tf_bbox", nil)
	require.NoError(t, os.WriteFile(filepath.Join(pkg.Dir, manifest.VariantCPU.AuthoredFile()),
		[]byte("no_such_package\n"), 0644))

	service := NewCompileService(resolve.NewResolver(env.index), env.logger)

	_, err := service.Compile(context.Background(), pkg, manifest.VariantCPU)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile")
}
