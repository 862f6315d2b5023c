package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FilesystemError reports a directory or settings file that could not be
// created or written.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// EnsureDir creates dir and its parents when missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &FilesystemError{Op: "create directory", Path: dir, Err: err}
	}
	return nil
}

// EnsureFile writes template() to path when no file exists there yet.
// It reports whether the file was created; an existing file is left
// untouched.
func EnsureFile(path string, template func() string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, &FilesystemError{Op: "stat", Path: path, Err: err}
	}

	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(template()), 0o600); err != nil {
		return false, &FilesystemError{Op: "write config file", Path: path, Err: err}
	}
	return true, nil
}
