package archive

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"

	"github.com/hoshipkg/hoshi/pkg/errors"
)

// tarCodec handles plain tar and the compressed tar family. Compression is
// a streaming filter around the tar stream.
type tarCodec struct {
	kind       Kind
	compress   compressFunc
	decompress decompressFunc
}

func (c tarCodec) Kind() Kind { return c.kind }

func (c tarCodec) Create(archivePath string, sources []string) (err error) {
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

	zw, err := c.compress(f)
	if err != nil {
		return ioError(err, "start %s stream", c.kind)
	}
	tw := tar.NewWriter(zw)

	for _, e := range entries {
		if err := addTarEntry(tw, e); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return ioError(err, "finish tar stream")
	}
	if err := zw.Close(); err != nil {
		return ioError(err, "finish %s stream", c.kind)
	}
	return nil
}

func addTarEntry(tw *tar.Writer, e entry) error {
	var link string
	if e.info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(e.src)
		if err != nil {
			return ioError(err, "read link %s", e.src)
		}
		link = target
	}

	hdr, err := tar.FileInfoHeader(e.info, link)
	if err != nil {
		return ioError(err, "header for %s", e.src)
	}
	hdr.Name = e.name
	if e.info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return ioError(err, "write header for %s", e.name)
	}
	if !e.info.Mode().IsRegular() {
		return nil
	}

	src, err := os.Open(e.src)
	if err != nil {
		return ioError(err, "open %s", e.src)
	}
	defer src.Close()
	if _, err := io.Copy(tw, src); err != nil {
		return ioError(err, "write %s", e.name)
	}
	return nil
}

func (c tarCodec) Extract(archivePath, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return ioError(err, "create %s", outputDir)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return ioError(err, "open %s", archivePath)
	}
	defer f.Close()

	zr, err := c.decompress(f)
	if err != nil {
		return classify(err, "read %s stream of %s", c.kind, archivePath)
	}
	defer zr.Close()

	return unpackTar(tar.NewReader(zr), outputDir)
}

func unpackTar(tr *tar.Reader, outputDir string) error {
	var dirs dirModes
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return classify(err, "read tar entry")
		}

		target, err := resolve(outputDir, hdr.Name)
		if err != nil {
			return err
		}
		mode := hdr.FileInfo().Mode()

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return ioError(err, "create %s", target)
			}
			dirs.add(target, mode)
		case tar.TypeReg:
			if err := writeFile(target, tr, mode); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(target, hdr.Linkname); err != nil {
				return err
			}
		case tar.TypeLink:
			src, err := resolve(outputDir, hdr.Linkname)
			if err != nil {
				return err
			}
			if err := os.Link(src, target); err != nil {
				return ioError(err, "link %s", target)
			}
		case tar.TypeXGlobalHeader, tar.TypeXHeader, tar.TypeGNULongName, tar.TypeGNULongLink:
			continue
		default:
			return errors.New(errors.ErrCodeArchiveMalformed, "unsupported tar entry type %q for %s", hdr.Typeflag, hdr.Name)
		}
	}
	return dirs.apply()
}
