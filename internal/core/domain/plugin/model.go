package plugin

import (
	"fmt"
	"time"

	"ravenml.io/cli/internal/core/domain/manifest"
)

// TrainEntryPointGroup is the host entry-point group every training plugin
// must register its command group under.
const TrainEntryPointGroup = "raven.plugins.train"

// Package is a plugin package discovered on disk
type Package struct {
	Name        string `json:"name"`
	Dir         string `json:"dir"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
}

// Metadata is the optional plugin.yaml sidecar a package may carry
type Metadata struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	EntryPoint  string `yaml:"entry_point"`
}

// InstallStatus represents a plugin's installation state in an environment
type InstallStatus struct {
	Package     Package          `json:"package"`
	IsInstalled bool             `json:"is_installed"`
	Variant     manifest.Variant `json:"variant,omitempty"`
	InstalledAt time.Time        `json:"installed_at,omitempty"`
	LocalPath   string           `json:"local_path,omitempty"`
}

// CheckStatus classifies a single conformance check result
type CheckStatus string

const (
	CheckOK   CheckStatus = "ok"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// CheckResult is one conformance check outcome for a package
type CheckResult struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// Report aggregates conformance check results for a package
type Report struct {
	Package Package       `json:"package"`
	Checks  []CheckResult `json:"checks"`
}

// Failed reports whether any check in the report failed
func (r Report) Failed() bool {
	for _, check := range r.Checks {
		if check.Status == CheckFail {
			return true
		}
	}
	return false
}

// Validate checks the package name follows the convention (lowercase,
// underscore-separated, importable as a module)
func (p Package) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("plugin package name cannot be empty")
	}
	for _, r := range p.Name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return fmt.Errorf("plugin package name %q must be lowercase letters, digits, and underscores", p.Name)
		}
	}
	if p.Name[0] >= '0' && p.Name[0] <= '9' {
		return fmt.Errorf("plugin package name %q cannot start with a digit", p.Name)
	}
	return nil
}
