package environment

import (
	"sort"
	"time"

	"ravenml.io/cli/internal/core/domain/manifest"
)

// Dependency is an installed shared dependency of the environment
type Dependency struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Checksum string `json:"checksum,omitempty"`
}

// Artifact is an installed plugin's own package, together with the pinned
// dependency closure recorded at install time. The recorded closure is what
// attributes shared dependencies to still-installed plugins during aggregate
// reconciliation.
type Artifact struct {
	Name        string            `json:"name"`
	Version     string            `json:"version,omitempty"`
	Variant     manifest.Variant  `json:"variant"`
	InstalledAt time.Time         `json:"installed_at"`
	Closure     manifest.Compiled `json:"closure"`
}

// State is the durable installed-environment state: which plugin artifacts
// and which shared dependencies are present.
type State struct {
	Artifacts    map[string]Artifact   `json:"artifacts"`
	Dependencies map[string]Dependency `json:"dependencies"`
}

// NewState returns an empty environment state
func NewState() *State {
	return &State{
		Artifacts:    make(map[string]Artifact),
		Dependencies: make(map[string]Dependency),
	}
}

// normalize repairs nil maps after JSON decoding
func (s *State) normalize() {
	if s.Artifacts == nil {
		s.Artifacts = make(map[string]Artifact)
	}
	if s.Dependencies == nil {
		s.Dependencies = make(map[string]Dependency)
	}
}

// PutDependency records a dependency. Re-recording the same name converges on
// the most recently pinned version, which keeps overlapping installs
// consistent regardless of order at the per-name level.
func (s *State) PutDependency(dep Dependency) {
	s.normalize()
	s.Dependencies[manifest.CanonicalName(dep.Name)] = Dependency{
		Name:     manifest.CanonicalName(dep.Name),
		Version:  dep.Version,
		Checksum: dep.Checksum,
	}
}

// Dependency looks up an installed dependency by name
func (s *State) Dependency(name string) (Dependency, bool) {
	s.normalize()
	dep, ok := s.Dependencies[manifest.CanonicalName(name)]
	return dep, ok
}

// RemoveDependency removes a dependency record. Removing an absent name is a
// no-op.
func (s *State) RemoveDependency(name string) {
	s.normalize()
	delete(s.Dependencies, manifest.CanonicalName(name))
}

// PutArtifact records a plugin artifact and its closure
func (s *State) PutArtifact(artifact Artifact) {
	s.normalize()
	s.Artifacts[manifest.CanonicalName(artifact.Name)] = artifact
}

// Artifact looks up an installed plugin artifact by name
func (s *State) Artifact(name string) (Artifact, bool) {
	s.normalize()
	artifact, ok := s.Artifacts[manifest.CanonicalName(name)]
	return artifact, ok
}

// RemoveArtifact removes a plugin artifact record and reports whether it was
// present. Dependencies are deliberately untouched; shared-dependency cleanup
// happens only through Reconcile.
func (s *State) RemoveArtifact(name string) bool {
	s.normalize()
	key := manifest.CanonicalName(name)
	_, ok := s.Artifacts[key]
	delete(s.Artifacts, key)
	return ok
}

// ArtifactNames returns the installed plugin names, sorted
func (s *State) ArtifactNames() []string {
	s.normalize()
	names := make([]string, 0, len(s.Artifacts))
	for name := range s.Artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DependencyNames returns the installed dependency names, sorted
func (s *State) DependencyNames() []string {
	s.normalize()
	names := make([]string, 0, len(s.Dependencies))
	for name := range s.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequiredByRemaining returns the union of the recorded closures of every
// still-installed artifact.
func (s *State) RequiredByRemaining() map[string]bool {
	s.normalize()
	required := make(map[string]bool)
	for _, artifact := range s.Artifacts {
		for name := range artifact.Closure.Names() {
			required[name] = true
		}
	}
	return required
}

// Reconcile computes the dependencies that may be removed now: those present
// in the environment but neither declared by the baseline manifest nor
// required by any remaining installed artifact. It must run after the batch's
// artifacts are already removed from the state. Returns sorted names.
func (s *State) Reconcile(baseline manifest.Baseline) []string {
	s.normalize()
	required := s.RequiredByRemaining()

	var removable []string
	for name := range s.Dependencies {
		if baseline.Contains(name) || required[name] {
			continue
		}
		removable = append(removable, name)
	}
	sort.Strings(removable)
	return removable
}

// Clone returns a deep copy of the state
func (s *State) Clone() *State {
	clone := NewState()
	for name, artifact := range s.Artifacts {
		copied := artifact
		copied.Closure = manifest.Compiled{Pins: append([]manifest.Pinned(nil), artifact.Closure.Pins...)}
		clone.Artifacts[name] = copied
	}
	for name, dep := range s.Dependencies {
		clone.Dependencies[name] = dep
	}
	return clone
}
