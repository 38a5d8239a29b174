package archive

import (
	"archive/tar"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/hoshipkg/hoshi/pkg/errors"
)

func ioError(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeArchiveIO, err, format, args...)
}

// classify wraps err as malformed when it reports a structural problem with
// the archive and as I/O otherwise.
func classify(err error, format string, args ...any) error {
	var e *errors.Error
	if stderrors.As(err, &e) && (e.Code == errors.ErrCodeArchiveIO || e.Code == errors.ErrCodeArchiveMalformed) {
		return err
	}
	if isMalformed(err) {
		return errors.Wrap(errors.ErrCodeArchiveMalformed, err, format, args...)
	}
	return ioError(err, format, args...)
}

func isMalformed(err error) bool {
	for _, target := range []error{
		tar.ErrHeader,
		tar.ErrFieldTooLong,
		zip.ErrFormat,
		zip.ErrAlgorithm,
		gzip.ErrHeader,
	} {
		if stderrors.Is(err, target) {
			return true
		}
	}
	return false
}

// resolve maps an archive entry name to a path under root. Absolute names
// and names with ".." components are rejected rather than clamped.
func resolve(root, name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", errors.New(errors.ErrCodeArchiveMalformed, "entry %q has an absolute path", name)
	}
	if slices.Contains(strings.Split(slashed, "/"), "..") {
		return "", errors.New(errors.ErrCodeArchiveMalformed, "entry %q escapes the output directory", name)
	}
	p, err := securejoin.SecureJoin(root, name)
	if err != nil {
		return "", ioError(err, "resolve entry %q", name)
	}
	return p, nil
}

// writeFile creates path from r and applies mode exactly, independent of
// the process umask.
func writeFile(path string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ioError(err, "create parent of %s", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return ioError(err, "create %s", path)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return classify(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return ioError(err, "close %s", path)
	}
	return chmod(path, mode)
}

func writeSymlink(path, target string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ioError(err, "create parent of %s", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return ioError(err, "replace %s", path)
	}
	if err := os.Symlink(target, path); err != nil {
		return ioError(err, "symlink %s", path)
	}
	return nil
}

// chmod applies permission bits. Platforms without Unix permissions treat
// the stored mode as advisory.
func chmod(path string, mode fs.FileMode) error {
	if err := os.Chmod(path, mode.Perm()); err != nil {
		if runtime.GOOS == "windows" {
			return nil
		}
		return ioError(err, "chmod %s", path)
	}
	return nil
}

// dirModes records directory permissions to apply once extraction is done.
type dirModes []dirMode

type dirMode struct {
	path string
	mode fs.FileMode
}

func (d *dirModes) add(path string, mode fs.FileMode) {
	*d = append(*d, dirMode{path: path, mode: mode})
}

// apply sets modes in reverse order of appearance, children before parents.
func (d dirModes) apply() error {
	for i := len(d) - 1; i >= 0; i-- {
		if err := chmod(d[i].path, d[i].mode); err != nil {
			return err
		}
	}
	return nil
}
