package script

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Script is an assembled evaluation script on disk, either at a
// caller-given persistent path or as an ephemeral temp file
type Script struct {
	path string
	temp bool
}

// Path returns the on-disk location of the script
func (s *Script) Path() string {
	return s.path
}

// Remove deletes the script if it is ephemeral; persistent scripts are
// left in place
func (s *Script) Remove() error {
	if !s.temp {
		return nil
	}
	return os.Remove(s.path)
}

// FromPath wraps an already assembled script at path. The caller keeps
// ownership of the file.
func FromPath(path string) *Script {
	return &Script{path: path}
}

// Build assembles the script and writes it to path, overwriting any
// existing file
func Build(cfg Config, path string) (*Script, error) {
	content, err := cfg.Generate()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write script to %s: %w", path, err)
	}
	return &Script{path: path}, nil
}

// BuildTemp assembles the script into a self-deleting temp file; the caller
// releases it with Remove
func BuildTemp(cfg Config) (*Script, error) {
	content, err := cfg.Generate()
	if err != nil {
		return nil, err
	}
	f, err := os.CreateTemp("", ".pkgparse-*.bash")
	if err != nil {
		return nil, fmt.Errorf("failed to create script temp file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		if rmErr := os.Remove(f.Name()); rmErr != nil {
			logrus.Warnf("Failed to clean up script temp file: %v", rmErr)
		}
		return nil, fmt.Errorf("failed to write script temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rmErr := os.Remove(f.Name()); rmErr != nil {
			logrus.Warnf("Failed to clean up script temp file: %v", rmErr)
		}
		return nil, fmt.Errorf("failed to close script temp file: %w", err)
	}
	return &Script{path: f.Name(), temp: true}, nil
}
