package fsxlocal

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/portal/pkg/fsx"
)

// LocalFileSystem implements fsx.FileSystem on local disk
type LocalFileSystem struct {
	basePath string
}

// NewLocalFileSystem creates the root directory if needed and returns a
// file system rooted there.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fsx.IOError("mkdir", basePath, err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fsx.IOError("abs", basePath, err)
	}

	return &LocalFileSystem{basePath: absPath}, nil
}

func (l *LocalFileSystem) ReadFile(_ context.Context, path string) ([]byte, error) {
	full, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fsx.NotFound(path)
		}
		return nil, fsx.IOError("read", path, err)
	}
	return data, nil
}

func (l *LocalFileSystem) Exists(_ context.Context, path string) (bool, error) {
	full, err := l.fullPath(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fsx.IOError("stat", path, err)
	}
	return true, nil
}

func (l *LocalFileSystem) WriteFile(_ context.Context, path string, data []byte) error {
	full, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fsx.IOError("mkdir", path, err)
	}

	// write then rename so readers never observe a partial file
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fsx.IOError("write", path, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fsx.IOError("rename", path, err)
	}
	return nil
}

// GetBasePath returns the base path
func (l *LocalFileSystem) GetBasePath() string {
	return l.basePath
}

func (l *LocalFileSystem) fullPath(path string) (string, error) {
	full := filepath.Join(l.basePath, filepath.FromSlash(path))
	if full != l.basePath && !strings.HasPrefix(full, l.basePath+string(filepath.Separator)) {
		return "", fsx.InvalidPath(path)
	}
	return full, nil
}

var _ fsx.FileSystem = (*LocalFileSystem)(nil)
