package catalog

import (
	"net/url"
	"path"
	"strings"

	"github.com/hoshipkg/hoshi/pkg/archive"
)

// Constellation names a metadata document and where to fetch it.
type Constellation struct {
	Name        string `json:"name" toml:"name"`
	MetadataURL string `json:"metadata_url" toml:"metadata_url"`
}

// DefaultConstellations returns the constellations served by a local
// `hoshi serve` on port 8000.
func DefaultConstellations() []Constellation {
	return []Constellation{
		{Name: "Hoshi-Core", MetadataURL: "http://localhost:8000/hoshi-core-constellation.json"},
		{Name: "Hoshi-Extra", MetadataURL: "http://localhost:8000/hoshi-extra-constellation.json"},
	}
}

// FindConstellation returns the constellation whose name matches name,
// ignoring case.
func FindConstellation(list []Constellation, name string) (Constellation, bool) {
	for _, c := range list {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Constellation{}, false
}

// Metadata is a decoded constellation document.
type Metadata struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Packages    []Artifact `json:"packages"`
}

// Artifact describes one downloadable, installable unit.
type Artifact struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description,omitempty"`
	DownloadURL  string   `json:"download_url"`
	SizeMB       float64  `json:"size_mb"`
	ArchiveType  string   `json:"archive_type,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// String returns "name vversion".
func (a Artifact) String() string { return a.Name + " v" + a.Version }

// Kind returns the declared archive kind. The explicit archive_type wins;
// without one the kind comes from the download URL's extension.
func (a Artifact) Kind() (archive.Kind, error) {
	if a.ArchiveType != "" {
		return archive.ParseKind(a.ArchiveType)
	}
	return archive.KindFromPath(a.urlPath())
}

// FileName returns the download file name: the last segment of the URL
// path, or "name-version.archive" when the URL has none.
func (a Artifact) FileName() string {
	base := path.Base(a.urlPath())
	if base == "." || base == "/" || base == "" {
		return a.Name + "-" + a.Version + ".archive"
	}
	return base
}

func (a Artifact) urlPath() string {
	if u, err := url.Parse(a.DownloadURL); err == nil && u.Path != "" {
		return u.Path
	}
	return a.DownloadURL
}
