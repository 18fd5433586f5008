package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Swapped out in tests to simulate cross-device renames.
var renameFunc = os.Rename

// move renames src to dst. When the two sit on different filesystems it falls
// back to copy followed by removal of src.
func move(src, dst string) error {
	err := renameFunc(src, dst)
	if err == nil || !isEXDEV(err) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("cross-device copy %q -> %q: %w", src, dst, err)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// Write next to dst first so a failed copy never leaves a truncated dst.
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".copy-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}
