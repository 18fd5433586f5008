package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/kdimtricp/fairyland/internal/models"
	"github.com/kdimtricp/fairyland/internal/naming"
)

// Scan lists the media files directly under dir and returns one record per
// file, sorted by filename. The directory is created when missing.
//
// Counters are not stored anywhere on disk, so every scanned record starts at
// zero views and likes. UploadedAt is the file's modification time.
func Scan(dir string) ([]models.Video, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	// ReadDir returns entries sorted by filename.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read media directory: %w", err)
	}

	videos := make([]models.Video, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || !naming.IsMediaFile(name) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", name, err)
		}

		videos = append(videos, models.Video{
			Title:      naming.TitleFromFilename(name),
			Filename:   name,
			UploadedAt: info.ModTime().UTC(),
		})
	}

	return videos, nil
}
