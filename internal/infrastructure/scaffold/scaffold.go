package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ravenml.io/cli/internal/core/domain/manifest"
	"ravenml.io/cli/internal/core/domain/plugin"
)

// Options configures a new plugin package
type Options struct {
	Name        string
	Description string

	// Initial direct dependencies written into the authored manifests
	CPUDeps []string
	GPUDeps []string
}

// Scaffold creates a new plugin package under pluginsDir in the authoritative
// layout and returns the package directory. The target directory must not
// exist yet.
func Scaffold(pluginsDir string, opts Options) (string, error) {
	pkg := plugin.Package{Name: opts.Name}
	if err := pkg.Validate(); err != nil {
		return "", err
	}
	if opts.Description == "" {
		opts.Description = fmt.Sprintf("Training plugin %s.", opts.Name)
	}

	dir := filepath.Join(pluginsDir, opts.Name)
	if _, err := os.Stat(dir); err == nil {
		return "", fmt.Errorf("plugin directory %s already exists", dir)
	}
	if err := os.MkdirAll(filepath.Join(dir, opts.Name), 0755); err != nil {
		return "", fmt.Errorf("failed to create plugin directory: %w", err)
	}

	files := []struct {
		path string
		body string
		mode os.FileMode
	}{
		{filepath.Join(opts.Name, plugin.InitFile), "", 0644},
		{filepath.Join(opts.Name, plugin.CoreFile), render(coreTemplate, opts), 0644},
		{plugin.InstallScript, render(installScriptTemplate, opts), 0755},
		{manifest.VariantCPU.AuthoredFile(), authoredStub(cpuRequirementsTemplate, opts, opts.CPUDeps), 0644},
		{manifest.VariantGPU.AuthoredFile(), authoredStub(gpuRequirementsTemplate, opts, opts.GPUDeps), 0644},
		{manifest.VariantCPU.CompiledFile(), string(manifest.Compiled{}.Format("rvn compile " + opts.Name)), 0644},
		{manifest.VariantGPU.CompiledFile(), string(manifest.Compiled{}.Format("rvn compile " + opts.Name + " -g")), 0644},
		{plugin.SetupFile, render(setupTemplate, opts), 0644},
		{plugin.MetadataFile, render(metadataTemplate, opts), 0644},
	}

	for _, file := range files {
		path := filepath.Join(dir, file.path)
		if err := os.WriteFile(path, []byte(file.body), file.mode); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return dir, nil
}

// render substitutes template placeholders
func render(template string, opts Options) string {
	out := strings.ReplaceAll(template, "{{name}}", opts.Name)
	return strings.ReplaceAll(out, "{{description}}", opts.Description)
}

// authoredStub renders an authored manifest stub with any initial deps
func authoredStub(template string, opts Options, deps []string) string {
	body := render(template, opts)
	for _, dep := range deps {
		dep = strings.TrimSpace(dep)
		if dep != "" {
			body += dep + "\n"
		}
	}
	return body
}
