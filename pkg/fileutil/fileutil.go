package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rohmanhakim/query-crawler/pkg/failure"
)

// EnsureDir checks if the given directory plus the following path segments
// exist, then creates them if not.
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	target := filepath.Join(targetPath...)
	if err := os.MkdirAll(target, 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}
	return nil
}

// EnsureParentDir creates the directory that will contain the given file path.
func EnsureParentDir(filePath string) failure.ClassifiedError {
	return EnsureDir(filepath.Dir(filePath))
}
