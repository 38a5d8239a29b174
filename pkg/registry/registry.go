// Package registry records which artifacts are installed and where.
//
// A [Registry] is an in-memory map from a composite "name-version" key to an
// installed [Package]. Several versions of one name may be installed side by
// side. A [Store] loads and saves a registry as a single JSON document and
// guards read-modify-write cycles with an advisory file lock.
//
// The on-disk document looks like:
//
//	{
//	  "packages": {
//	    "cometlib-1.0.0": {
//	      "name": "cometlib",
//	      "version": "1.0.0",
//	      "install_path": "/home/me/hoshi_packages/cometlib/1.0.0"
//	    }
//	  }
//	}
//
// Keys are written sorted, so saving an unmodified registry reproduces a
// file written by [Store.Save] byte for byte. Other valid layouts (compact,
// no trailing newline) are rewritten in this form. Unknown fields make the
// file corrupt instead of being dropped on the next save.
package registry

import (
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Package is one installed artifact.
type Package struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	InstallPath string `json:"install_path"`
}

// Key returns the composite registry key for the package.
func (p Package) Key() string { return Key(p.Name, p.Version) }

// Key builds the composite registry key for name and version.
func Key(name, version string) string { return name + "-" + version }

// Registry maps composite keys to installed packages. It is not safe for
// concurrent use.
type Registry struct {
	Packages map[string]Package `json:"packages"`
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{Packages: make(map[string]Package)}
}

// Add inserts p, replacing any record with the same key.
func (r *Registry) Add(p Package) {
	if r.Packages == nil {
		r.Packages = make(map[string]Package)
	}
	r.Packages[p.Key()] = p
}

// Get returns the record for name and version.
func (r *Registry) Get(name, version string) (Package, bool) {
	p, ok := r.Packages[Key(name, version)]
	if !ok || p.Name != name || p.Version != version {
		return Package{}, false
	}
	return p, true
}

// Versions returns every installed record for name, highest version first.
func (r *Registry) Versions(name string) []Package {
	var out []Package
	for _, p := range r.Packages {
		if p.Name == name {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Package) int { return compareVersions(b.Version, a.Version) })
	return out
}

// Remove deletes one record and returns it. With a version, only the exact
// name and version match is removed. With an empty version and several
// versions installed, the highest version is removed.
func (r *Registry) Remove(name, version string) (Package, bool) {
	var p Package
	if version != "" {
		var ok bool
		if p, ok = r.Get(name, version); !ok {
			return Package{}, false
		}
	} else {
		versions := r.Versions(name)
		if len(versions) == 0 {
			return Package{}, false
		}
		p = versions[0]
	}
	delete(r.Packages, p.Key())
	return p, true
}

// List returns all records sorted by name, then by version ascending.
func (r *Registry) List() []Package {
	out := make([]Package, 0, len(r.Packages))
	for _, p := range r.Packages {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Package) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return compareVersions(a.Version, b.Version)
	})
	return out
}

// Len returns the number of records.
func (r *Registry) Len() int { return len(r.Packages) }

// compareVersions orders semantic versions by precedence and falls back to
// lexical order when either side does not parse.
func compareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		if c := va.Compare(vb); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}
