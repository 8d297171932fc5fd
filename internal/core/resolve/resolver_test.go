package resolve

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"ravenml.io/cli/internal/core/domain/manifest"
	"ravenml.io/cli/internal/core/ports"
)

// stubIndex serves a fixed package graph from memory
type stubIndex struct {
	packages map[string]ports.PackageMeta
}

func (s *stubIndex) Metadata(_ context.Context, name string) (ports.PackageMeta, error) {
	meta, ok := s.packages[name]
	if !ok {
		return ports.PackageMeta{}, fmt.Errorf("package %q not found", name)
	}
	return meta, nil
}

func (s *stubIndex) Download(_ context.Context, name, version string) ([]byte, error) {
	return []byte(name + "==" + version), nil
}

func indexWith(packages map[string]map[string][]string) *stubIndex {
	idx := &stubIndex{packages: make(map[string]ports.PackageMeta)}
	for name, releases := range packages {
		meta := ports.PackageMeta{Name: name, Releases: make(map[string]ports.Release)}
		for version, requires := range releases {
			meta.Releases[version] = ports.Release{Version: version, Requires: requires}
		}
		idx.packages[name] = meta
	}
	return idx
}

func reqs(t require.TestingT, lines ...string) []manifest.Requirement {
	parsed := make([]manifest.Requirement, 0, len(lines))
	for _, line := range lines {
		req, err := manifest.ParseRequirement(line)
		require.NoError(t, err)
		parsed = append(parsed, req)
	}
	return parsed
}

func TestResolver_TransitiveClosure(t *testing.T) {
	idx := indexWith(map[string]map[string][]string{
		"tensorflow": {"1.14.0": {"numpy>=1.14", "six"}},
		"numpy":      {"1.14.0": nil, "1.18.1": nil},
		"six":        {"1.12.0": nil},
	})
	resolver := NewResolver(idx)

	compiled, err := resolver.Resolve(context.Background(), reqs(t, "tensorflow"), "-r requirements.in")
	require.NoError(t, err)

	require.Len(t, compiled.Pins, 3)
	assert.Equal(t, "numpy", compiled.Pins[0].Name)
	assert.Equal(t, "1.18.1", compiled.Pins[0].Version, "highest satisfying version wins")
	assert.Equal(t, []string{"tensorflow"}, compiled.Pins[0].Via)
	assert.Equal(t, "six", compiled.Pins[1].Name)
	assert.Equal(t, "tensorflow", compiled.Pins[2].Name)
	assert.Equal(t, []string{"-r requirements.in"}, compiled.Pins[2].Via)
}

func TestResolver_AccumulatesConstraints(t *testing.T) {
	idx := indexWith(map[string]map[string][]string{
		"a":     {"1.0": {"numpy>=1.14"}},
		"b":     {"1.0": {"numpy<1.18"}},
		"numpy": {"1.13.0": nil, "1.16.0": nil, "1.18.1": nil},
	})
	resolver := NewResolver(idx)

	compiled, err := resolver.Resolve(context.Background(), reqs(t, "a", "b"), "")
	require.NoError(t, err)

	pin, ok := compiled.Lookup("numpy")
	require.True(t, ok)
	assert.Equal(t, "1.16.0", pin.Version, "both parents' constraints must hold")
}

func TestResolver_DowngradeReexpandsRequirements(t *testing.T) {
	// Tightening a constraint after the first pick must re-expand the
	// downgraded release's own requirements.
	idx := indexWith(map[string]map[string][]string{
		"tf":     {"2.0": {"absl"}, "1.14.0": {"legacy"}},
		"pinner": {"1.0": {"tf<2.0"}},
		"absl":   {"1.0": nil},
		"legacy": {"1.0": nil},
	})
	resolver := NewResolver(idx)

	compiled, err := resolver.Resolve(context.Background(), reqs(t, "tf", "pinner"), "")
	require.NoError(t, err)

	pin, ok := compiled.Lookup("tf")
	require.True(t, ok)
	assert.Equal(t, "1.14.0", pin.Version)
	_, ok = compiled.Lookup("legacy")
	assert.True(t, ok, "requirements of the finally chosen release must be in the closure")
}

func TestResolver_DowngradeDropsSupersededRequirements(t *testing.T) {
	// absl is needed only by tf 2.0; once pinner forces tf down to 1.14.0
	// it must not be pinned.
	idx := indexWith(map[string]map[string][]string{
		"tf":     {"2.0": {"absl"}, "1.14.0": nil},
		"pinner": {"1.0": {"tf<2.0"}},
		"absl":   {"1.0": nil},
	})
	resolver := NewResolver(idx)

	compiled, err := resolver.Resolve(context.Background(), reqs(t, "tf", "pinner"), "")
	require.NoError(t, err)

	pin, ok := compiled.Lookup("tf")
	require.True(t, ok)
	assert.Equal(t, "1.14.0", pin.Version)
	_, ok = compiled.Lookup("absl")
	assert.False(t, ok, "requirements of a superseded version must not be in the closure")
}

func TestResolver_UnknownPackage(t *testing.T) {
	resolver := NewResolver(indexWith(nil))

	_, err := resolver.Resolve(context.Background(), reqs(t, "ghost"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestResolver_UnsatisfiableConstraints(t *testing.T) {
	idx := indexWith(map[string]map[string][]string{
		"numpy": {"1.16.0": nil},
	})
	resolver := NewResolver(idx)

	_, err := resolver.Resolve(context.Background(), reqs(t, "numpy>=2.0"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no version")
}

func TestResolver_CyclicRequirementsConverge(t *testing.T) {
	idx := indexWith(map[string]map[string][]string{
		"a": {"1.0": {"b"}},
		"b": {"1.0": {"a"}},
	})
	resolver := NewResolver(idx)

	compiled, err := resolver.Resolve(context.Background(), reqs(t, "a"), "")
	require.NoError(t, err)
	assert.Len(t, compiled.Pins, 2)
}

// TestResolver_OrderIndependence feeds the same requirement set in random
// orders and checks the pinned closure never changes.
func TestResolver_OrderIndependence(t *testing.T) {
	idx := indexWith(map[string]map[string][]string{
		"tensorflow": {"1.14.0": {"numpy>=1.14", "six"}, "1.13.0": {"numpy"}},
		"torch":      {"1.4.0": {"numpy"}},
		"numpy":      {"1.13.0": nil, "1.16.0": nil, "1.18.1": nil},
		"six":        {"1.12.0": nil},
		"pyyaml":     {"5.3": nil},
	})
	resolver := NewResolver(idx)
	direct := []string{"tensorflow", "torch", "numpy>=1.14", "pyyaml"}

	reference, err := resolver.Resolve(context.Background(), reqs(t, direct...), "-r requirements.in")
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		perm := rapid.Permutation(direct).Draw(t, "perm")

		compiled, err := resolver.Resolve(context.Background(), reqs(t, perm...), "-r requirements.in")
		require.NoError(t, err)
		assert.Equal(t, reference, compiled)
	})
}
