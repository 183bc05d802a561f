package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileSystemScanner implements Scanner for on-disk directory trees
type FileSystemScanner struct{}

// NewFileSystemScanner creates a new filesystem scanner
func NewFileSystemScanner() *FileSystemScanner {
	return &FileSystemScanner{}
}

// Scan recursively scans a directory for recipe files
func (s *FileSystemScanner) Scan(ctx context.Context, dir string) ([]FoundRecipe, error) {
	var recipes []FoundRecipe

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if entry.IsDir() || entry.Name() != RecipeFileName {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			logrus.Warnf("Failed to stat %s: %v", path, err)
			return nil
		}

		logrus.Debugf("Found recipe: %s", path)
		recipes = append(recipes, FoundRecipe{Path: path, Size: info.Size()})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	logrus.Infof("Found %d recipes in %s", len(recipes), dir)
	return recipes, nil
}
