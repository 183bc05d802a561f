package scanner

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
)

// ExtractRecipes unpacks every recipe file inside a snapshot archive into
// destDir, preserving the archive's directory layout, and returns the
// extracted paths in archive order
func ExtractRecipes(archivePath, destDir string) ([]string, error) {
	format, err := DetectFormat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", archivePath, err)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	var reader io.Reader
	switch format {
	case FormatTar:
		reader = f
	case FormatGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		reader = gz
	case FormatXz:
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open xz stream: %w", err)
		}
		reader = xr
	case FormatZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		defer zr.Close()
		reader = zr
	default:
		return nil, fmt.Errorf("unsupported snapshot format for %s", archivePath)
	}

	var extracted []string
	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg || filepath.Base(header.Name) != RecipeFileName {
			continue
		}

		rel := filepath.Clean(header.Name)
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			logrus.Warnf("Skipping snapshot entry escaping the destination: %s", header.Name)
			continue
		}

		dest := filepath.Join(destDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
		}
		if err := writeEntry(dest, tr); err != nil {
			return nil, err
		}
		logrus.Debugf("Extracted recipe: %s", dest)
		extracted = append(extracted, dest)
	}
	return extracted, nil
}

func writeEntry(dest string, r io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}
	return nil
}
