package catalog

import (
	"context"

	"github.com/kdimtricp/fairyland/internal/models"
)

// Store holds catalog records keyed by filename. Implementations return
// copies; callers never share a record with the store.
type Store interface {
	Find(ctx context.Context, filename string) (models.Video, error)
	// Insert fails with ErrDuplicateName if the filename is already present.
	Insert(ctx context.Context, video models.Video) error
	// Update sets the title and filename of the record stored under
	// oldFilename, re-keying it when the filename changes. Counters and the
	// upload time stay as stored, and so does the record's list position.
	Update(ctx context.Context, oldFilename string, video models.Video) error
	Remove(ctx context.Context, filename string) error
	// All lists records in insertion order.
	All(ctx context.Context) ([]models.Video, error)
	IncrementViews(ctx context.Context, filename string) (int64, error)
	IncrementLikes(ctx context.Context, filename string) (int64, error)
	// Replace drops every record and loads videos in the given order.
	Replace(ctx context.Context, videos []models.Video) error
}
