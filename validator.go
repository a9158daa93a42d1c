package datascope

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// validateInputPath checks that path names an existing regular file of one
// of the given types.
func validateInputPath(path string, allowed ...FileType) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path cannot be empty")
	}

	info, err := os.Stat(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", path)
		}
		return fmt.Errorf("failed to stat path %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory: %s", path)
	}

	ft := DetectFileType(path)
	for _, a := range allowed {
		if ft == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// validateOutputPath checks that the parent directory of path exists and
// that path is not a directory.
func validateOutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("output path cannot be empty")
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("output path is a directory: %s", path)
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
		return fmt.Errorf("failed to check output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory is not a directory: %s", dir)
	}
	return nil
}
