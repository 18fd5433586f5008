package storage

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func newTestStorage(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	tmpDir := t.TempDir()
	storage, err := NewLocalStorage(filepath.Join(tmpDir, "videos"), "")
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return storage, storage.Dir()
}

func TestLocalStorage(t *testing.T) {
	storage, dir := newTestStorage(t)

	t.Run("StageAndPlace", func(t *testing.T) {
		content := []byte("test video content")

		staged, err := storage.Stage(bytes.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to stage file: %v", err)
		}
		if filepath.Dir(staged) != filepath.Join(dir, ".staging") {
			t.Errorf("Expected staged file under .staging, got %s", staged)
		}

		if err := storage.Place(staged, "clip.mp4"); err != nil {
			t.Fatalf("Failed to place file: %v", err)
		}

		got, err := os.ReadFile(filepath.Join(dir, "clip.mp4"))
		if err != nil {
			t.Fatalf("Placed file missing: %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("File content mismatch")
		}
		if _, err := os.Stat(staged); !os.IsNotExist(err) {
			t.Errorf("Staged file still present after place")
		}
	})

	t.Run("Open", func(t *testing.T) {
		content := []byte("test video content")
		if err := os.WriteFile(filepath.Join(dir, "test-file.mp4"), content, 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		file, err := storage.Open("test-file.mp4")
		if err != nil {
			t.Fatalf("Failed to open file: %v", err)
		}
		defer file.Close()

		got, err := io.ReadAll(file)
		if err != nil {
			t.Fatalf("Failed to read file: %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("File content mismatch")
		}
	})

	t.Run("RenameAndExists", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "a.mp4"), []byte("a"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		if err := storage.Rename("a.mp4", "b.mp4"); err != nil {
			t.Fatalf("Failed to rename: %v", err)
		}

		if ok, err := storage.Exists("a.mp4"); err != nil || ok {
			t.Errorf("Expected a.mp4 to be gone, ok=%v err=%v", ok, err)
		}
		if ok, err := storage.Exists("b.mp4"); err != nil || !ok {
			t.Errorf("Expected b.mp4 to exist, ok=%v err=%v", ok, err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		fullPath := filepath.Join(dir, "delete-test.mp4")
		if err := os.WriteFile(fullPath, []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		if err := storage.Remove("delete-test.mp4"); err != nil {
			t.Fatalf("Failed to delete file: %v", err)
		}
		if _, err := os.Stat(fullPath); !os.IsNotExist(err) {
			t.Errorf("File was not deleted")
		}

		err := storage.Remove("delete-test.mp4")
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Expected ErrNotExist on second delete, got %v", err)
		}
	})

	t.Run("Discard", func(t *testing.T) {
		staged, err := storage.Stage(bytes.NewReader([]byte("x")))
		if err != nil {
			t.Fatalf("Failed to stage file: %v", err)
		}
		if err := storage.Discard(staged); err != nil {
			t.Fatalf("Failed to discard: %v", err)
		}
		if err := storage.Discard(staged); err != nil {
			t.Errorf("Discarding a missing file should succeed, got %v", err)
		}
	})

	t.Run("PathTraversalPrevention", func(t *testing.T) {
		for _, name := range []string{"../../../etc/passwd", "sub/file.mp4", ".staging", "", ".."} {
			if _, err := storage.Open(name); !errors.Is(err, ErrInvalidName) {
				t.Errorf("Open(%q): expected ErrInvalidName, got %v", name, err)
			}
			if err := storage.Remove(name); !errors.Is(err, ErrInvalidName) {
				t.Errorf("Remove(%q): expected ErrInvalidName, got %v", name, err)
			}
		}
	})
}
