package merge

import (
	"fmt"

	"github.com/hoshipkg/hoshi/pkg/catalog"
	"github.com/hoshipkg/hoshi/pkg/errors"
)

// Plan is the resolved set of artifacts for one run. The target comes first,
// followed by its direct dependencies in declaration order.
type Plan struct {
	Target    catalog.Artifact
	Artifacts []catalog.Artifact
	Missing   []MissingDependency
}

// MissingDependency is a declared dependency absent from every constellation.
type MissingDependency struct {
	Artifact   string
	Dependency string
}

func (m MissingDependency) String() string {
	return fmt.Sprintf("dependency %q of %q not found in any constellation", m.Dependency, m.Artifact)
}

// TotalSizeMB sums the declared sizes of all planned artifacts.
func (p *Plan) TotalSizeMB() float64 {
	var total float64
	for _, a := range p.Artifacts {
		total += a.SizeMB
	}
	return total
}

// Resolve locates name in available and adds its direct dependencies.
// It fails with NOT_FOUND only when the target itself is missing.
func Resolve(available []catalog.Artifact, name string) (*Plan, error) {
	target, ok := catalog.Find(available, name)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "package %q not found in any constellation", name)
	}

	plan := &Plan{Target: target, Artifacts: []catalog.Artifact{target}}
	seen := map[string]bool{target.Name: true}
	for _, dep := range target.Dependencies {
		if seen[dep] {
			continue
		}
		seen[dep] = true

		a, ok := catalog.Find(available, dep)
		if !ok {
			plan.Missing = append(plan.Missing, MissingDependency{Artifact: target.Name, Dependency: dep})
			continue
		}
		plan.Artifacts = append(plan.Artifacts, a)
	}
	return plan, nil
}
