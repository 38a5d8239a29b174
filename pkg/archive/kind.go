package archive

import (
	"path/filepath"
	"strings"

	"github.com/hoshipkg/hoshi/pkg/errors"
)

// Kind identifies an archive container format.
type Kind string

const (
	KindTar   Kind = "tar"
	KindGzip  Kind = "gz"
	KindBzip2 Kind = "bz2"
	KindXz    Kind = "xz"
	KindZip   Kind = "zip"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindTar, KindGzip, KindBzip2, KindXz, KindZip}

// Extension returns the file extension for the kind, including the dot.
func (k Kind) Extension() string { return "." + string(k) }

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// KindFromPath selects the kind from the final extension of path.
// "pkg.tar.gz" is KindGzip; "pkg.tgz" is unsupported.
func KindFromPath(path string) (Kind, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, k := range Kinds {
		if ext == string(k) {
			return k, nil
		}
	}
	return "", errors.New(errors.ErrCodeUnsupportedFormat, "unsupported archive format: %s", path)
}

var kindAliases = map[string]Kind{
	"tar":     KindTar,
	"gz":      KindGzip,
	"gzip":    KindGzip,
	"tgz":     KindGzip,
	"tar.gz":  KindGzip,
	"bz2":     KindBzip2,
	"bzip2":   KindBzip2,
	"tbz2":    KindBzip2,
	"tar.bz2": KindBzip2,
	"xz":      KindXz,
	"txz":     KindXz,
	"tar.xz":  KindXz,
	"zip":     KindZip,
}

// ParseKind parses a declared archive type such as "tar.gz" or "zip".
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))]; ok {
		return k, nil
	}
	return "", errors.New(errors.ErrCodeUnsupportedFormat, "unsupported archive type %q", s)
}
