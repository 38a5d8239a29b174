package archive

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// entry is one filesystem object queued for archiving.
type entry struct {
	src  string      // path on disk
	name string      // slash-separated name inside the archive
	info fs.FileInfo // lstat result for src
}

// collect expands sources into archive entries. Directories are walked
// recursively in lexical order; a directory that is the working directory
// itself contributes its children only. The archive being written is never
// added to itself.
func collect(archivePath string, sources []string) ([]entry, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, ioError(err, "resolve working directory")
	}
	self, _ := filepath.Abs(archivePath)

	var entries []entry
	for _, src := range sources {
		info, err := os.Stat(src)
		if err != nil {
			return nil, ioError(err, "stat %s", src)
		}
		base := entryName(cwd, src)

		if !info.IsDir() {
			entries = append(entries, entry{src: src, name: base, info: info})
			continue
		}

		err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if abs, _ := filepath.Abs(p); abs == self {
				return nil
			}
			rel, err := filepath.Rel(src, p)
			if err != nil {
				return err
			}
			name := path.Join(base, filepath.ToSlash(rel))
			if name == "." {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			if p == src {
				fi = info
			}
			entries = append(entries, entry{src: p, name: name, info: fi})
			return nil
		})
		if err != nil {
			return nil, ioError(err, "walk %s", src)
		}
	}
	return entries, nil
}

// entryName returns the archive name for p: relative to cwd when p lies
// beneath it, otherwise the cleaned literal path without a root or parent
// prefix.
func entryName(cwd, p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		if rel, err := filepath.Rel(cwd, abs); err == nil && !escapes(rel) {
			return filepath.ToSlash(rel)
		}
	}

	name := filepath.ToSlash(filepath.Clean(p))
	name = strings.TrimPrefix(name, filepath.ToSlash(filepath.VolumeName(p)))
	for {
		switch {
		case strings.HasPrefix(name, "/"):
			name = name[1:]
		case strings.HasPrefix(name, "../"):
			name = name[3:]
		case name == "..":
			name = "."
		default:
			return name
		}
	}
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
