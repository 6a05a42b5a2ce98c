// Package fsx abstracts the blob storage that holds per-user auxiliary
// resources. Paths are slash-separated and relative to the store root.
package fsx

import (
	"context"

	"github.com/Abraxas-365/portal/pkg/errx"
)

// FileReader provides read-only operations. Only writes are on the request
// path; reads serve inspection and tests.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// FileWriter provides write operations
type FileWriter interface {
	WriteFile(ctx context.Context, path string, data []byte) error
}

// FileSystem combines all file operations
type FileSystem interface {
	FileReader
	FileWriter
}

var fsxErrors = errx.NewRegistry("FSX")

var (
	ErrNotFound    = fsxErrors.Register("NOT_FOUND", errx.TypeNotFound, "File not found")
	ErrInvalidPath = fsxErrors.Register("INVALID_PATH", errx.TypeInvalidArgument, "Path escapes the storage root")
	ErrIO          = fsxErrors.Register("IO", errx.TypeInternal, "Storage operation failed")
)

// NotFound builds the error returned for a missing path
func NotFound(path string) *errx.Error {
	return fsxErrors.New(ErrNotFound).WithDetail("path", path)
}

// InvalidPath builds the error returned for a path outside the root
func InvalidPath(path string) *errx.Error {
	return fsxErrors.New(ErrInvalidPath).WithDetail("path", path)
}

// IOError wraps a backend failure
func IOError(op, path string, cause error) *errx.Error {
	return fsxErrors.NewWithCause(ErrIO, cause).WithDetail("op", op).WithDetail("path", path)
}
