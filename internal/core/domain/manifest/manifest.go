package manifest

import (
	"fmt"
	"sort"
	"strings"
)

// Variant selects which dependency manifest of a plugin is in effect
type Variant string

const (
	VariantCPU Variant = "cpu"
	VariantGPU Variant = "gpu"
)

// FilePrefix returns the on-disk file prefix for the variant's manifest pair.
// GPU manifests use the historical "requirements-gui" prefix.
func (v Variant) FilePrefix() string {
	if v == VariantGPU {
		return "requirements-gui"
	}
	return "requirements"
}

// AuthoredFile returns the hand-written manifest file name for the variant
func (v Variant) AuthoredFile() string {
	return v.FilePrefix() + ".in"
}

// CompiledFile returns the compiled manifest file name for the variant
func (v Variant) CompiledFile() string {
	return v.FilePrefix() + ".txt"
}

// String returns the variant name
func (v Variant) String() string {
	return string(v)
}

// VariantFromGPUFlag maps the -g flag onto a variant
func VariantFromGPUFlag(gpu bool) Variant {
	if gpu {
		return VariantGPU
	}
	return VariantCPU
}

// CanonicalName normalizes a package name for comparisons. Names are
// case-insensitive and underscores and dashes are interchangeable.
func CanonicalName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// Requirement is a single entry of an authored manifest: a direct dependency
// name with an optional version constraint.
type Requirement struct {
	Name       string     `json:"name"`
	Constraint Constraint `json:"constraint,omitempty"`
}

// NewRequirement creates a requirement, validating the package name
func NewRequirement(name string, constraint Constraint) (Requirement, error) {
	if CanonicalName(name) == "" {
		return Requirement{}, fmt.Errorf("requirement name cannot be empty")
	}
	return Requirement{Name: CanonicalName(name), Constraint: constraint}, nil
}

// String renders the requirement in authored-manifest form
func (r Requirement) String() string {
	if r.Constraint.IsZero() {
		return r.Name
	}
	return r.Name + r.Constraint.String()
}

// ParseRequirement parses a single authored-manifest line, e.g. "numpy>=1.16"
func ParseRequirement(line string) (Requirement, error) {
	line = strings.TrimSpace(line)
	for _, op := range []string{"==", ">=", "<=", "!=", ">", "<"} {
		if idx := strings.Index(line, op); idx >= 0 {
			constraint, err := NewConstraint(op, strings.TrimSpace(line[idx+len(op):]))
			if err != nil {
				return Requirement{}, fmt.Errorf("invalid constraint in %q: %w", line, err)
			}
			return NewRequirement(line[:idx], constraint)
		}
	}
	return NewRequirement(line, Constraint{})
}

// Authored is a hand-written manifest: an unordered list of direct
// dependencies, no transitive closure.
type Authored struct {
	Requirements []Requirement `json:"requirements"`
}

// ParseAuthored parses the contents of a .in file. Blank lines and
// #-comments are skipped.
func ParseAuthored(data []byte) (Authored, error) {
	var authored Authored
	seen := make(map[string]bool)
	for i, line := range strings.Split(string(data), "\n") {
		line = stripComment(line)
		if line == "" {
			continue
		}
		req, err := ParseRequirement(line)
		if err != nil {
			return Authored{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		if seen[req.Name] {
			return Authored{}, fmt.Errorf("line %d: duplicate requirement %q", i+1, req.Name)
		}
		seen[req.Name] = true
		authored.Requirements = append(authored.Requirements, req)
	}
	return authored, nil
}

// Pinned is a single entry of a compiled manifest: an exact version of a
// package, annotated with the requirements that pulled it in.
type Pinned struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Via     []string `json:"via,omitempty"`
}

// Compiled is a fully resolved, pinned manifest covering all direct and
// transitive dependencies of an authored manifest. Treated as a generated
// cache: regenerated whenever the authored manifest changes, never hand-edited.
type Compiled struct {
	Pins []Pinned `json:"pins"`
}

// Names returns the canonical name set of the compiled manifest
func (c Compiled) Names() map[string]bool {
	names := make(map[string]bool, len(c.Pins))
	for _, pin := range c.Pins {
		names[CanonicalName(pin.Name)] = true
	}
	return names
}

// Lookup returns the pin for a package name, if present
func (c Compiled) Lookup(name string) (Pinned, bool) {
	name = CanonicalName(name)
	for _, pin := range c.Pins {
		if CanonicalName(pin.Name) == name {
			return pin, true
		}
	}
	return Pinned{}, false
}

// Sort orders pins by canonical name for deterministic output
func (c *Compiled) Sort() {
	sort.Slice(c.Pins, func(i, j int) bool {
		return CanonicalName(c.Pins[i].Name) < CanonicalName(c.Pins[j].Name)
	})
}

// Format serializes the compiled manifest in the generated .txt form:
//
//	# This file is autogenerated by rvn compile; do not edit by hand.
//	#    rvn compile <plugin> [-g]
//	numpy==1.18.1
//	    # via tensorflow
func (c Compiled) Format(command string) []byte {
	sorted := Compiled{Pins: append([]Pinned(nil), c.Pins...)}
	sorted.Sort()

	var b strings.Builder
	b.WriteString("# This file is autogenerated by rvn compile; do not edit by hand.\n")
	if command != "" {
		b.WriteString("#    " + command + "\n")
	}
	for _, pin := range sorted.Pins {
		fmt.Fprintf(&b, "%s==%s\n", CanonicalName(pin.Name), pin.Version)
		via := append([]string(nil), pin.Via...)
		sort.Strings(via)
		for _, parent := range via {
			fmt.Fprintf(&b, "    # via %s\n", parent)
		}
	}
	return []byte(b.String())
}

// ParseCompiled parses the contents of a .txt file. Every entry must be an
// exact pin; annotations and comments are ignored.
func ParseCompiled(data []byte) (Compiled, error) {
	var compiled Compiled
	seen := make(map[string]bool)
	for i, line := range strings.Split(string(data), "\n") {
		line = stripComment(line)
		if line == "" {
			continue
		}
		req, err := ParseRequirement(line)
		if err != nil {
			return Compiled{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		if req.Constraint.Op != "==" {
			return Compiled{}, fmt.Errorf("line %d: compiled manifest entry %q is not an exact pin", i+1, line)
		}
		if seen[req.Name] {
			return Compiled{}, fmt.Errorf("line %d: duplicate pin %q", i+1, req.Name)
		}
		seen[req.Name] = true
		compiled.Pins = append(compiled.Pins, Pinned{Name: req.Name, Version: req.Constraint.Version})
	}
	return compiled, nil
}

// Baseline is the host system's own required-dependency declaration, used as
// the uninstall-safety floor during aggregate reconciliation. Entries may be
// bare names or pins; only the name set matters.
type Baseline struct {
	Names map[string]bool `json:"names"`
}

// ParseBaseline parses a baseline environment manifest
func ParseBaseline(data []byte) (Baseline, error) {
	baseline := Baseline{Names: make(map[string]bool)}
	for i, line := range strings.Split(string(data), "\n") {
		line = stripComment(line)
		if line == "" {
			continue
		}
		req, err := ParseRequirement(line)
		if err != nil {
			return Baseline{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		baseline.Names[req.Name] = true
	}
	return baseline, nil
}

// Contains reports whether the baseline declares the package
func (b Baseline) Contains(name string) bool {
	return b.Names[CanonicalName(name)]
}

// stripComment removes a trailing #-comment and surrounding whitespace
func stripComment(line string) string {
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}
