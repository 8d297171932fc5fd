package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ravenml.io/cli/internal/core/domain/manifest"
)

// writeFixture lays out a conforming plugin package by hand
func writeFixture(t *testing.T, pluginsDir, name string) string {
	t.Helper()
	dir := filepath.Join(pluginsDir, name)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0755))

	files := map[string]string{
		filepath.Join(name, InitFile): "",
		filepath.Join(name, CoreFile): "import click\n\n@click.group(name='" + name + "')\ndef " + name + "():\n    pass\n\n@" + name + ".command()\ndef train(ctx):\n    pass\n",
		InstallScript:                 "#!/bin/bash\n",
		SetupFile:                     "from setuptools import setup\n\nsetup(entry_points={'" + TrainEntryPointGroup + "': ['" + name + " = " + name + ".core:" + name + "']})\n",
		manifest.VariantCPU.AuthoredFile(): "numpy\n",
		manifest.VariantGPU.AuthoredFile(): "",
		manifest.VariantCPU.CompiledFile(): "numpy==1.18.1\n",
		manifest.VariantGPU.CompiledFile(): "",
	}
	for rel, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, rel), []byte(content), 0644))
	}
	return dir
}

func TestLayoutFiles(t *testing.T) {
	files := LayoutFiles("tf_bbox")

	assert.Equal(t, []string{
		filepath.Join("tf_bbox", "__init__.py"),
		filepath.Join("tf_bbox", "core.py"),
		"install.sh",
		"requirements.in",
		"requirements-gui.in",
		"requirements.txt",
		"requirements-gui.txt",
		"setup.py",
	}, files)
}

func TestLoad(t *testing.T) {
	dir := writeFixture(t, t.TempDir(), "tf_bbox")

	pkg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "tf_bbox", pkg.Name)
	assert.Equal(t, dir, pkg.Dir)
}

func TestLoad_MergesMetadata(t *testing.T) {
	dir := writeFixture(t, t.TempDir(), "tf_bbox")
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFile), []byte(`name: tf_bbox
version: 0.2.0
description: Bounding box training.
entry_point: tf_bbox.core:tf_bbox
`), 0644))

	pkg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", pkg.Version)
	assert.Equal(t, "Bounding box training.", pkg.Description)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoad_InvalidName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Bad-Name")
	require.NoError(t, os.MkdirAll(dir, 0755))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	pluginsDir := t.TempDir()
	writeFixture(t, pluginsDir, "tf_bbox")
	writeFixture(t, pluginsDir, "pt_seg")

	// Non-conforming entries are skipped silently
	require.NoError(t, os.MkdirAll(filepath.Join(pluginsDir, "notes"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginsDir, "README.md"), []byte("hi"), 0644))

	packages, err := Discover(pluginsDir)
	require.NoError(t, err)

	require.Len(t, packages, 2)
	assert.Equal(t, "pt_seg", packages[0].Name, "discovery is sorted by name")
	assert.Equal(t, "tf_bbox", packages[1].Name)
}

func TestDiscover_MissingDirectory(t *testing.T) {
	packages, err := Discover(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, packages)
}

func TestIsPackageDir(t *testing.T) {
	pluginsDir := t.TempDir()
	conforming := writeFixture(t, pluginsDir, "tf_bbox")

	bare := filepath.Join(pluginsDir, "bare")
	require.NoError(t, os.MkdirAll(bare, 0755))

	// setup.py but no inner module directory
	half := filepath.Join(pluginsDir, "half")
	require.NoError(t, os.MkdirAll(half, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(half, SetupFile), []byte(""), 0644))

	assert.True(t, IsPackageDir(conforming))
	assert.False(t, IsPackageDir(bare))
	assert.False(t, IsPackageDir(half))
}

func TestPackage_Manifests(t *testing.T) {
	dir := writeFixture(t, t.TempDir(), "tf_bbox")
	pkg, err := Load(dir)
	require.NoError(t, err)

	authored, err := pkg.AuthoredManifest(manifest.VariantCPU)
	require.NoError(t, err)
	require.Len(t, authored.Requirements, 1)
	assert.Equal(t, "numpy", authored.Requirements[0].Name)

	compiled, err := pkg.CompiledManifest(manifest.VariantCPU)
	require.NoError(t, err)
	require.Len(t, compiled.Pins, 1)
	assert.Equal(t, "1.18.1", compiled.Pins[0].Version)

	gpu, err := pkg.CompiledManifest(manifest.VariantGPU)
	require.NoError(t, err)
	assert.Empty(t, gpu.Pins, "an empty compiled manifest means no dependencies, not an error")
}

func TestPackage_WriteCompiledManifest(t *testing.T) {
	dir := writeFixture(t, t.TempDir(), "tf_bbox")
	pkg, err := Load(dir)
	require.NoError(t, err)

	compiled := manifest.Compiled{Pins: []manifest.Pinned{{Name: "numpy", Version: "1.18.1"}}}
	require.NoError(t, pkg.WriteCompiledManifest(manifest.VariantGPU, compiled, "rvn compile tf_bbox -g"))

	reread, err := pkg.CompiledManifest(manifest.VariantGPU)
	require.NoError(t, err)
	require.Len(t, reread.Pins, 1)

	_, err = os.Stat(filepath.Join(dir, manifest.VariantGPU.CompiledFile()+".tmp"))
	assert.True(t, os.IsNotExist(err), "the temp file must not be left behind")
}

func TestPackage_Validate(t *testing.T) {
	tests := []struct {
		name        string
		pkgName     string
		expectError bool
	}{
		{name: "Simple", pkgName: "tfbbox"},
		{name: "Underscores", pkgName: "tf_bbox_v2"},
		{name: "Empty", pkgName: "", expectError: true},
		{name: "Uppercase", pkgName: "TfBbox", expectError: true},
		{name: "Hyphen", pkgName: "tf-bbox", expectError: true},
		{name: "LeadingDigit", pkgName: "2fast", expectError: true},
		{name: "TrailingDigitOK", pkgName: "unet2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Package{Name: tt.pkgName}.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
