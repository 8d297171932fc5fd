package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ravenml.io/cli/internal/core/domain/manifest"
	"ravenml.io/cli/internal/core/ports"
)

// maxVisits bounds constraint re-expansion per resolution so a pathological
// index cannot loop the resolver forever.
const maxVisits = 10000

// Resolver resolves authored requirements to a pinned transitive closure
// against a package index. Resolution is deterministic: for each package the
// highest indexed version satisfying every accumulated constraint is chosen,
// so the result is independent of input order.
type Resolver struct {
	index ports.PackageIndex
}

// NewResolver creates a resolver backed by a package index
func NewResolver(index ports.PackageIndex) *Resolver {
	return &Resolver{index: index}
}

// Resolve computes the pinned closure of the given direct requirements.
// origin labels the direct requirements' provenance in the result (for
// compiled-manifest "via" annotations), e.g. "-r requirements.in".
func (r *Resolver) Resolve(ctx context.Context, reqs []manifest.Requirement, origin string) (manifest.Compiled, error) {
	constraints := make(map[string][]manifest.Constraint)
	chosen := make(map[string]string)
	metas := make(map[string]ports.PackageMeta)

	queue := make([]manifest.Requirement, 0, len(reqs))
	queue = append(queue, reqs...)
	sort.Slice(queue, func(i, j int) bool { return queue[i].Name < queue[j].Name })

	visits := 0
	for len(queue) > 0 {
		if visits++; visits > maxVisits {
			return manifest.Compiled{}, fmt.Errorf("dependency resolution did not converge")
		}
		req := queue[0]
		queue = queue[1:]

		name := manifest.CanonicalName(req.Name)
		if !req.Constraint.IsZero() || len(constraints[name]) == 0 {
			constraints[name] = append(constraints[name], req.Constraint)
		}

		meta, ok := metas[name]
		if !ok {
			var err error
			meta, err = r.index.Metadata(ctx, name)
			if err != nil {
				return manifest.Compiled{}, fmt.Errorf("failed to resolve %q: %w", name, err)
			}
			metas[name] = meta
		}

		version, err := selectVersion(meta, constraints[name])
		if err != nil {
			return manifest.Compiled{}, err
		}
		if chosen[name] == version {
			continue
		}
		chosen[name] = version

		release := meta.Releases[version]
		children := make([]manifest.Requirement, 0, len(release.Requires))
		for _, line := range release.Requires {
			childReq, err := manifest.ParseRequirement(line)
			if err != nil {
				return manifest.Compiled{}, fmt.Errorf("invalid requirement %q declared by %s==%s: %w", line, name, version, err)
			}
			children = append(children, childReq)
		}
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
		queue = append(queue, children...)
	}

	// A constraint arriving after a package's first pick can force it down to
	// a version with different requirements, leaving chosen entries that only
	// the superseded version needed. Walk the final graph from the direct
	// requirements so the closure pins exactly what the chosen versions
	// require.
	reached := make(map[string]bool)
	finalVia := make(map[string]map[string]bool)
	walk := make([]string, 0, len(reqs))
	for _, req := range reqs {
		name := manifest.CanonicalName(req.Name)
		if finalVia[name] == nil {
			finalVia[name] = make(map[string]bool)
		}
		if origin != "" {
			finalVia[name][origin] = true
		}
		walk = append(walk, name)
	}
	for len(walk) > 0 {
		name := walk[0]
		walk = walk[1:]
		if reached[name] {
			continue
		}
		reached[name] = true

		release := metas[name].Releases[chosen[name]]
		for _, line := range release.Requires {
			childReq, err := manifest.ParseRequirement(line)
			if err != nil {
				return manifest.Compiled{}, fmt.Errorf("invalid requirement %q declared by %s==%s: %w", line, name, chosen[name], err)
			}
			child := manifest.CanonicalName(childReq.Name)
			if finalVia[child] == nil {
				finalVia[child] = make(map[string]bool)
			}
			finalVia[child][name] = true
			walk = append(walk, child)
		}
	}

	var compiled manifest.Compiled
	for name := range reached {
		parents := make([]string, 0, len(finalVia[name]))
		for parent := range finalVia[name] {
			parents = append(parents, parent)
		}
		sort.Strings(parents)
		compiled.Pins = append(compiled.Pins, manifest.Pinned{Name: name, Version: chosen[name], Via: parents})
	}
	compiled.Sort()
	return compiled, nil
}

// selectVersion picks the highest release satisfying every constraint
func selectVersion(meta ports.PackageMeta, constraints []manifest.Constraint) (string, error) {
	versions := make([]string, 0, len(meta.Releases))
	for version := range meta.Releases {
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool {
		return manifest.CompareVersions(versions[i], versions[j]) > 0
	})

	for _, version := range versions {
		ok := true
		for _, constraint := range constraints {
			if !constraint.Satisfies(version) {
				ok = false
				break
			}
		}
		if ok {
			return version, nil
		}
	}
	return "", fmt.Errorf("no version of %q satisfies %s", meta.Name, describeConstraints(constraints))
}

func describeConstraints(constraints []manifest.Constraint) string {
	parts := make([]string, 0, len(constraints))
	for _, constraint := range constraints {
		if constraint.IsZero() {
			continue
		}
		parts = append(parts, constraint.String())
	}
	if len(parts) == 0 {
		return "any version"
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
