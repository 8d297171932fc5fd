package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ravenml.io/cli/internal/core/domain/manifest"
)

// Doctor runs every conformance check against a plugin package and returns
// the collected report. Checks never abort early; each reports independently.
func Doctor(pkg Package) Report {
	report := Report{Package: pkg}
	report.Checks = append(report.Checks, checkLayout(pkg)...)
	report.Checks = append(report.Checks, checkEntryPoint(pkg))
	report.Checks = append(report.Checks, checkCommandGroup(pkg))
	report.Checks = append(report.Checks, checkManifestFreshness(pkg, manifest.VariantCPU))
	report.Checks = append(report.Checks, checkManifestFreshness(pkg, manifest.VariantGPU))
	return report
}

// checkLayout verifies every file the packaging convention requires exists
func checkLayout(pkg Package) []CheckResult {
	var results []CheckResult
	for _, rel := range LayoutFiles(pkg.Name) {
		path := filepath.Join(pkg.Dir, rel)
		if _, err := os.Stat(path); err != nil {
			results = append(results, CheckResult{
				Name:    "layout:" + rel,
				Status:  CheckFail,
				Message: fmt.Sprintf("missing %s", rel),
			})
			continue
		}
		results = append(results, CheckResult{Name: "layout:" + rel, Status: CheckOK})
	}
	return results
}

// checkEntryPoint verifies setup.py registers the command group under the
// host's training entry-point group.
func checkEntryPoint(pkg Package) CheckResult {
	data, err := os.ReadFile(filepath.Join(pkg.Dir, SetupFile))
	if err != nil {
		return CheckResult{Name: "entry-point", Status: CheckFail, Message: "setup.py unreadable"}
	}
	if !strings.Contains(string(data), TrainEntryPointGroup) {
		return CheckResult{
			Name:    "entry-point",
			Status:  CheckFail,
			Message: fmt.Sprintf("setup.py does not register an entry point under %q", TrainEntryPointGroup),
		}
	}
	return CheckResult{Name: "entry-point", Status: CheckOK}
}

// checkCommandGroup verifies core.py defines a command group exposing a train
// subcommand. This is a textual check; the host performs the real import.
func checkCommandGroup(pkg Package) CheckResult {
	data, err := os.ReadFile(filepath.Join(pkg.ModuleDir(), CoreFile))
	if err != nil {
		return CheckResult{Name: "command-group", Status: CheckFail, Message: "core.py unreadable"}
	}
	src := string(data)
	if !strings.Contains(src, "click.group") {
		return CheckResult{Name: "command-group", Status: CheckFail, Message: "core.py does not define a command group"}
	}
	if !strings.Contains(src, "def train(") {
		return CheckResult{Name: "command-group", Status: CheckFail, Message: "core.py does not define a train command"}
	}
	return CheckResult{Name: "command-group", Status: CheckOK}
}

// checkManifestFreshness warns when a compiled manifest is older than its
// authored manifest, which means it must be regenerated.
func checkManifestFreshness(pkg Package, variant manifest.Variant) CheckResult {
	name := "manifest:" + variant.String()
	authored, err := os.Stat(filepath.Join(pkg.Dir, variant.AuthoredFile()))
	if err != nil {
		return CheckResult{Name: name, Status: CheckFail, Message: variant.AuthoredFile() + " missing"}
	}
	compiled, err := os.Stat(filepath.Join(pkg.Dir, variant.CompiledFile()))
	if err != nil {
		return CheckResult{Name: name, Status: CheckFail, Message: variant.CompiledFile() + " missing; run rvn compile"}
	}
	if compiled.ModTime().Before(authored.ModTime()) {
		return CheckResult{
			Name:    name,
			Status:  CheckWarn,
			Message: fmt.Sprintf("%s is older than %s; run rvn compile", variant.CompiledFile(), variant.AuthoredFile()),
		}
	}
	return CheckResult{Name: name, Status: CheckOK}
}
