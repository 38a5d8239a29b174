package archive

import (
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// Stream filters wrapped around the tar byte stream.
type (
	compressFunc   func(io.Writer) (io.WriteCloser, error)
	decompressFunc func(io.Reader) (io.ReadCloser, error)
)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func nopCompress(w io.Writer) (io.WriteCloser, error) { return nopWriteCloser{w}, nil }

func nopDecompress(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(r), nil }

func gzipCompress(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, gzip.DefaultCompression)
}

func gzipDecompress(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func bzip2Compress(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
}

func bzip2Decompress(r io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(r, nil)
}

func xzCompress(w io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}

func xzDecompress(r io.Reader) (io.ReadCloser, error) {
	zr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(zr), nil
}
