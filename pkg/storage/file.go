// ABOUTME: Directory-backed store writing one file per id
// ABOUTME: Writes go to a temp file, are fsynced and renamed into place

package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"syscall"
)

// File stores each id as a file inside Dir
type File struct {
	Dir string
}

// NewFile creates the directory if needed and returns a store rooted there
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("file store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	return &File{Dir: dir}, nil
}

// path escapes id so any id maps to a single file name
func (f *File) path(id string) string {
	return filepath.Join(f.Dir, url.PathEscape(id)+".json")
}

func (f *File) Get(ctx context.Context, id string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(f.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", id, err)
	}
	return string(data), true, nil
}

func (f *File) Set(ctx context.Context, id string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.Dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", id, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fsync %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), f.path(id)); err != nil {
		return fmt.Errorf("rename %s: %w", id, err)
	}
	return syncDir(f.Dir)
}

// syncDir fsyncs the directory so the rename is durable
func syncDir(dir string) error {
	dirfd, err := syscall.Open(dir, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open directory: %w", err)
	}
	defer syscall.Close(dirfd)

	if err := syscall.Fsync(dirfd); err != nil {
		return fmt.Errorf("fsync directory: %w", err)
	}
	return nil
}
