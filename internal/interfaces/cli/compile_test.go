package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ravenml.io/cli/internal/core/domain/manifest"
)

func TestCompileCommand_PinsAuthoredManifest(t *testing.T) {
	c := newTestCLI(t)
	c.publish(t, map[string]map[string][]string{
		"tensorflow": {"1.14.0": {"numpy>=1.14"}},
		"numpy":      {"1.14.0": nil, "1.18.1": nil},
	})
	c.addPlugin(t, "tf_bbox", nil, nil)
	dir := filepath.Join(c.container.Config.PluginsDir, "tf_bbox")
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.VariantCPU.AuthoredFile()),
		[]byte("tensorflow\n"), 0644))

	require.NoError(t, c.run(t, "compile", "tf_bbox"))

	data, err := os.ReadFile(filepath.Join(dir, manifest.VariantCPU.CompiledFile()))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "tensorflow==1.14.0")
	assert.Contains(t, content, "numpy==1.18.1")
}

func TestCompileCommand_All(t *testing.T) {
	c := newTestCLI(t)
	c.publish(t, map[string]map[string][]string{"numpy": {"1.18.1": nil}})
	c.addPlugin(t, "tf_bbox", nil, nil)
	c.addPlugin(t, "pt_seg", nil, nil)
	for _, name := range []string{"tf_bbox", "pt_seg"} {
		dir := filepath.Join(c.container.Config.PluginsDir, name)
		require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.VariantCPU.AuthoredFile()),
			[]byte("numpy\n"), 0644))
	}

	require.NoError(t, c.run(t, "compile", "--all"))

	for _, name := range []string{"tf_bbox", "pt_seg"} {
		data, err := os.ReadFile(filepath.Join(c.container.Config.PluginsDir, name, manifest.VariantCPU.CompiledFile()))
		require.NoError(t, err)
		assert.Contains(t, string(data), "numpy==1.18.1")
	}
}

func TestCompileCommand_RequiresTarget(t *testing.T) {
	c := newTestCLI(t)

	err := c.run(t, "compile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
}

func TestCompileCommand_UnresolvableDependency(t *testing.T) {
	c := newTestCLI(t)
	c.publish(t, map[string]map[string][]string{})
	c.addPlugin(t, "tf_bbox", nil, nil)
	dir := filepath.Join(c.container.Config.PluginsDir, "tf_bbox")
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.VariantCPU.AuthoredFile()),
		[]byte("no_such_package\n"), 0644))

	err := c.run(t, "compile", "tf_bbox")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile")
}
