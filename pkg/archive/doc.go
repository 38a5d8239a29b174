// Package archive creates and extracts compressed container files.
//
// Five formats are supported, each selected by the archive path's final
// extension:
//
//	.tar  plain tar
//	.gz   gzip-compressed tar
//	.bz2  bzip2-compressed tar
//	.xz   xz (LZMA2) compressed tar
//	.zip  zip with Deflate entries
//
// Each format is a [Kind] with a matching [Codec]. Call sites go through
// [For] or the package-level [Create] and [Extract] and never switch on the
// format themselves.
//
// # Entry names
//
// Sources are stored under names relative to the working directory. A source
// outside the working directory is stored under its literal path with any
// leading "/" or "../" removed. Directories are walked in lexical order.
//
// # Extraction
//
// The output directory is created first. Regular files, directories and
// symlinks are restored with their permission bits. Directory permissions are
// applied after all contents are written so that read-only directories do
// not block their own extraction. Entries whose names would escape the output
// directory are rejected.
//
// # Errors
//
// Filesystem and stream failures are ARCHIVE_IO errors. Structurally invalid
// archives (bad tar headers, bad zip directories, escaping names) are
// ARCHIVE_MALFORMED. Unknown extensions are UNSUPPORTED_FORMAT.
package archive
