package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const stagingPrefix = ".upload-"

type LocalStorage struct {
	basePath    string
	stagingPath string
}

// NewLocalStorage creates basePath and stagingPath if needed. An empty
// stagingPath puts staged uploads in a hidden directory under basePath so the
// final rename never crosses a filesystem boundary.
func NewLocalStorage(basePath, stagingPath string) (*LocalStorage, error) {
	if stagingPath == "" {
		stagingPath = filepath.Join(basePath, ".staging")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.MkdirAll(stagingPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, stagingPath: stagingPath}, nil
}

func (ls *LocalStorage) Dir() string {
	return ls.basePath
}

func (ls *LocalStorage) Stage(r io.Reader) (string, error) {
	fullPath := filepath.Join(ls.stagingPath, stagingPrefix+uuid.New().String())

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to stage file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to stage file: %w", err)
	}

	return fullPath, nil
}

func (ls *LocalStorage) Place(stagedPath, name string) error {
	fullPath, err := ls.path(name)
	if err != nil {
		return err
	}
	if err := move(stagedPath, fullPath); err != nil {
		return fmt.Errorf("failed to place file: %w", err)
	}
	return nil
}

func (ls *LocalStorage) Discard(stagedPath string) error {
	if stagedPath == "" {
		return nil
	}
	if err := os.Remove(stagedPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to discard staged file: %w", err)
	}
	return nil
}

func (ls *LocalStorage) Rename(oldName, newName string) error {
	oldPath, err := ls.path(oldName)
	if err != nil {
		return err
	}
	newPath, err := ls.path(newName)
	if err != nil {
		return err
	}
	if err := move(oldPath, newPath); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

func (ls *LocalStorage) Exists(name string) (bool, error) {
	fullPath, err := ls.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fullPath)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
}

func (ls *LocalStorage) Open(name string) (io.ReadSeekCloser, error) {
	fullPath, err := ls.path(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

func (ls *LocalStorage) Remove(name string) error {
	fullPath, err := ls.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// path resolves name inside the media directory. Only bare, non-hidden file
// names are accepted.
func (ls *LocalStorage) path(name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(ls.basePath, name), nil
}

// ValidName reports whether name is a bare file name that cannot escape the
// media directory.
func ValidName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}
