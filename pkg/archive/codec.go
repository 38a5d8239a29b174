package archive

import "github.com/hoshipkg/hoshi/pkg/errors"

// Codec creates and extracts archives of a single kind.
type Codec interface {
	// Kind returns the format handled by the codec.
	Kind() Kind

	// Create writes an archive at archivePath containing sources.
	// An existing file at archivePath is truncated.
	Create(archivePath string, sources []string) error

	// Extract unpacks archivePath into outputDir, creating it if needed.
	Extract(archivePath, outputDir string) error
}

var codecs = map[Kind]Codec{
	KindTar:   tarCodec{kind: KindTar, compress: nopCompress, decompress: nopDecompress},
	KindGzip:  tarCodec{kind: KindGzip, compress: gzipCompress, decompress: gzipDecompress},
	KindBzip2: tarCodec{kind: KindBzip2, compress: bzip2Compress, decompress: bzip2Decompress},
	KindXz:    tarCodec{kind: KindXz, compress: xzCompress, decompress: xzDecompress},
	KindZip:   zipCodec{},
}

// For returns the codec for kind.
func For(kind Kind) (Codec, error) {
	c, ok := codecs[kind]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedFormat, "unsupported archive kind %q", kind)
	}
	return c, nil
}

// Create writes an archive whose format is chosen by archivePath's extension.
func Create(archivePath string, sources []string) error {
	c, err := codecFor(archivePath)
	if err != nil {
		return err
	}
	return c.Create(archivePath, sources)
}

// Extract unpacks an archive whose format is chosen by archivePath's extension.
func Extract(archivePath, outputDir string) error {
	c, err := codecFor(archivePath)
	if err != nil {
		return err
	}
	return c.Extract(archivePath, outputDir)
}

func codecFor(archivePath string) (Codec, error) {
	kind, err := KindFromPath(archivePath)
	if err != nil {
		return nil, err
	}
	return For(kind)
}
