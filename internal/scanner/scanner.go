package scanner

import "context"

// RecipeFileName is the canonical file name of a build recipe
const RecipeFileName = "PKGBUILD"

// Format is the compression wrapping of a snapshot archive
type Format int

const (
	FormatUnknown Format = iota
	FormatTar
	FormatGzip
	FormatXz
	FormatZstd
)

// String returns the string representation of Format
func (f Format) String() string {
	switch f {
	case FormatTar:
		return "tar"
	case FormatGzip:
		return "gzip"
	case FormatXz:
		return "xz"
	case FormatZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// FoundRecipe is a recipe file found during scanning
type FoundRecipe struct {
	Path string
	Size int64
}

// Scanner finds recipe files under a directory tree
type Scanner interface {
	// Scan recursively scans a directory for recipe files
	Scan(ctx context.Context, dir string) ([]FoundRecipe, error)
}
