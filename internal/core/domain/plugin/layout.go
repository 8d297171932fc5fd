package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"ravenml.io/cli/internal/core/domain/manifest"
)

// Layout file names fixed by the plugin packaging convention
const (
	InstallScript = "install.sh"
	SetupFile     = "setup.py"
	CoreFile      = "core.py"
	InitFile      = "__init__.py"
	MetadataFile  = "plugin.yaml"
)

// LayoutFiles returns every file the convention requires, relative to the
// package root:
//
//	<name>/
//	    <name>/__init__.py
//	    <name>/core.py
//	    install.sh
//	    requirements.in
//	    requirements-gui.in
//	    requirements.txt
//	    requirements-gui.txt
//	    setup.py
func LayoutFiles(name string) []string {
	return []string{
		filepath.Join(name, InitFile),
		filepath.Join(name, CoreFile),
		InstallScript,
		manifest.VariantCPU.AuthoredFile(),
		manifest.VariantGPU.AuthoredFile(),
		manifest.VariantCPU.CompiledFile(),
		manifest.VariantGPU.CompiledFile(),
		SetupFile,
	}
}

// Load reads a plugin package from its directory. The directory name is the
// package name; metadata from plugin.yaml is merged in when present.
func Load(dir string) (Package, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Package{}, fmt.Errorf("failed to read plugin directory: %w", err)
	}
	if !info.IsDir() {
		return Package{}, fmt.Errorf("%s is not a directory", dir)
	}

	pkg := Package{Name: filepath.Base(dir), Dir: dir}
	if err := pkg.Validate(); err != nil {
		return Package{}, err
	}

	if meta, err := loadMetadata(dir); err == nil {
		pkg.Description = meta.Description
		pkg.Version = meta.Version
	}
	return pkg, nil
}

// Discover walks a plugins directory and returns every conforming package,
// sorted by name. Non-conforming entries are skipped, not reported; the
// doctor command surfaces partial layouts.
func Discover(pluginsDir string) ([]Package, error) {
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plugins directory: %w", err)
	}

	var packages []Package
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(pluginsDir, entry.Name())
		if !IsPackageDir(dir) {
			continue
		}
		pkg, err := Load(dir)
		if err != nil {
			continue
		}
		packages = append(packages, pkg)
	}

	sort.Slice(packages, func(i, j int) bool { return packages[i].Name < packages[j].Name })
	return packages, nil
}

// IsPackageDir reports whether a directory looks like a plugin package: it
// carries a setup.py and the inner module directory.
func IsPackageDir(dir string) bool {
	name := filepath.Base(dir)
	if _, err := os.Stat(filepath.Join(dir, SetupFile)); err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && info.IsDir()
}

// AuthoredManifest loads and parses the authored manifest for a variant
func (p Package) AuthoredManifest(variant manifest.Variant) (manifest.Authored, error) {
	path := filepath.Join(p.Dir, variant.AuthoredFile())
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest.Authored{}, fmt.Errorf("failed to read authored manifest: %w", err)
	}
	authored, err := manifest.ParseAuthored(data)
	if err != nil {
		return manifest.Authored{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return authored, nil
}

// CompiledManifest loads and parses the compiled manifest for a variant
func (p Package) CompiledManifest(variant manifest.Variant) (manifest.Compiled, error) {
	path := filepath.Join(p.Dir, variant.CompiledFile())
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest.Compiled{}, fmt.Errorf("failed to read compiled manifest: %w", err)
	}
	compiled, err := manifest.ParseCompiled(data)
	if err != nil {
		return manifest.Compiled{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return compiled, nil
}

// WriteCompiledManifest writes a compiled manifest for a variant atomically
func (p Package) WriteCompiledManifest(variant manifest.Variant, compiled manifest.Compiled, command string) error {
	path := filepath.Join(p.Dir, variant.CompiledFile())
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, compiled.Format(command), 0644); err != nil {
		return fmt.Errorf("failed to write compiled manifest: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save compiled manifest: %w", err)
	}
	return nil
}

// ModuleDir returns the inner module directory of the package
func (p Package) ModuleDir() string {
	return filepath.Join(p.Dir, p.Name)
}

func loadMetadata(dir string) (Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse %s: %w", MetadataFile, err)
	}
	return meta, nil
}
