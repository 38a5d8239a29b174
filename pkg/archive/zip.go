package archive

import (
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
)

// zipCodec stores files with Deflate and keeps Unix mode bits in the
// external attributes.
type zipCodec struct{}

func (zipCodec) Kind() Kind { return KindZip }

func (zipCodec) Create(archivePath string, sources []string) (err error) {
	entries, err := collect(archivePath, sources)
	if err != nil {
		return err
	}

	f, err := os.Create(archivePath)
	if err != nil {
		return ioError(err, "create %s", archivePath)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = ioError(cerr, "close %s", archivePath)
		}
	}()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		if err := addZipEntry(zw, e); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return ioError(err, "finish zip directory")
	}
	return nil
}

func addZipEntry(zw *zip.Writer, e entry) error {
	hdr, err := zip.FileInfoHeader(e.info)
	if err != nil {
		return ioError(err, "header for %s", e.src)
	}
	hdr.Name = e.name
	hdr.SetMode(e.info.Mode())

	switch {
	case e.info.IsDir():
		hdr.Name += "/"
		hdr.Method = zip.Store
		_, err := zw.CreateHeader(hdr)
		if err != nil {
			return ioError(err, "write header for %s", e.name)
		}
		return nil
	case e.info.Mode()&fs.ModeSymlink != 0:
		target, err := os.Readlink(e.src)
		if err != nil {
			return ioError(err, "read link %s", e.src)
		}
		hdr.Method = zip.Store
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return ioError(err, "write header for %s", e.name)
		}
		if _, err := io.WriteString(w, target); err != nil {
			return ioError(err, "write %s", e.name)
		}
		return nil
	case !e.info.Mode().IsRegular():
		return nil
	}

	hdr.Method = zip.Deflate
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return ioError(err, "write header for %s", e.name)
	}
	src, err := os.Open(e.src)
	if err != nil {
		return ioError(err, "open %s", e.src)
	}
	defer src.Close()
	if _, err := io.Copy(w, src); err != nil {
		return ioError(err, "write %s", e.name)
	}
	return nil
}

func (zipCodec) Extract(archivePath, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return ioError(err, "create %s", outputDir)
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return classify(err, "open %s", archivePath)
	}
	defer zr.Close()

	var dirs dirModes
	for _, zf := range zr.File {
		if err := extractZipEntry(zf, outputDir, &dirs); err != nil {
			return err
		}
	}
	return dirs.apply()
}

func extractZipEntry(zf *zip.File, outputDir string, dirs *dirModes) error {
	target, err := resolve(outputDir, zf.Name)
	if err != nil {
		return err
	}
	mode := zf.Mode()

	if strings.HasSuffix(zf.Name, "/") {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return ioError(err, "create %s", target)
		}
		if hasUnixMode(zf) {
			dirs.add(target, mode)
		}
		return nil
	}

	rc, err := zf.Open()
	if err != nil {
		return classify(err, "open entry %s", zf.Name)
	}
	defer rc.Close()

	if mode&fs.ModeSymlink != 0 {
		link, err := io.ReadAll(rc)
		if err != nil {
			return classify(err, "read entry %s", zf.Name)
		}
		return writeSymlink(target, string(link))
	}

	if !hasUnixMode(zf) {
		mode = 0o644
	}
	return writeFile(target, rc, mode)
}

// hasUnixMode reports whether the entry was written by a Unix-aware tool
// and so carries meaningful permission bits.
func hasUnixMode(zf *zip.File) bool {
	const creatorUnix = 3
	return zf.CreatorVersion>>8 == creatorUnix
}
