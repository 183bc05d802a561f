package scanner

import (
	"bytes"
	"os"
	"strings"
)

// Magic bytes for compression detection
var (
	// Gzip magic bytes (.tar.gz snapshots)
	gzipMagic = []byte{0x1F, 0x8B}

	// Zstandard magic bytes (.tar.zst snapshots)
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

	// XZ magic bytes (.tar.xz snapshots)
	xzMagic = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}

	// A POSIX tar header carries "ustar" at offset 257
	tarMagic = []byte("ustar")
)

// DetectFormat determines the compression format of a snapshot archive
// based on magic bytes, falling back to the file extension
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		return FormatUnknown, err
	}
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, zstdMagic):
		return FormatZstd, nil
	case bytes.HasPrefix(header, xzMagic):
		return FormatXz, nil
	case bytes.HasPrefix(header, gzipMagic):
		return FormatGzip, nil
	case len(header) > 262 && bytes.Equal(header[257:262], tarMagic):
		return FormatTar, nil
	}

	switch {
	case strings.HasSuffix(path, ".tar.zst"):
		return FormatZstd, nil
	case strings.HasSuffix(path, ".tar.xz"):
		return FormatXz, nil
	case strings.HasSuffix(path, ".tar.gz") || strings.HasSuffix(path, ".tgz"):
		return FormatGzip, nil
	case strings.HasSuffix(path, ".tar"):
		return FormatTar, nil
	}
	return FormatUnknown, nil
}

// IsSnapshotName reports whether a file name looks like a snapshot archive
func IsSnapshotName(path string) bool {
	for _, suffix := range []string{".tar", ".tar.gz", ".tgz", ".tar.xz", ".tar.zst"} {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
