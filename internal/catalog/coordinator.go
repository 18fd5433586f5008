package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kdimtricp/fairyland/internal/models"
	"github.com/kdimtricp/fairyland/internal/naming"
	"github.com/kdimtricp/fairyland/internal/storage"
)

// Coordinator is the only writer of the catalog. It keeps the Store and the
// media directory in step: every filename in the store has a file, and every
// media file has a record.
//
// Structural changes (create, rename, replace, delete, resync) run one at a
// time under the write lock. Reads and counter increments share the read
// lock, so an increment never lands on a record that is being moved or
// deleted.
type Coordinator struct {
	mu    sync.RWMutex
	store Store
	files storage.Storage
	log   zerolog.Logger
	now   func() time.Time
}

func NewCoordinator(store Store, files storage.Storage, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store: store,
		files: files,
		log:   logger.With().Str("component", "catalog").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Resync replaces the whole catalog with a fresh scan of the media directory.
// It runs at startup and after a StorageError.
func (c *Coordinator) Resync(ctx context.Context) ([]models.Video, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	videos, err := Scan(c.files.Dir())
	if err != nil {
		return nil, &StorageError{Op: "scan", Filename: c.files.Dir(), Err: err}
	}
	if err := c.store.Replace(ctx, videos); err != nil {
		return nil, wrapStore("replace catalog", c.files.Dir(), err)
	}

	c.log.Info().Int("count", len(videos)).Str("dir", c.files.Dir()).Msg("catalog loaded from disk")
	return videos, nil
}

// CreateVideo moves a staged upload into the media directory under the name
// derived from title and records it. The staged file is gone afterwards
// whatever the outcome.
func (c *Coordinator) CreateVideo(ctx context.Context, title, stagedPath string) (models.Video, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stagedPath == "" {
		return models.Video{}, fmt.Errorf("%w: video file is required", ErrValidation)
	}
	base, display := naming.Normalize(title)
	if base == "" {
		c.discard(stagedPath)
		return models.Video{}, fmt.Errorf("%w: title %q has no usable characters", ErrValidation, title)
	}
	filename := naming.Filename(base)

	taken, err := c.taken(ctx, filename)
	if err != nil {
		c.discard(stagedPath)
		return models.Video{}, err
	}
	if taken {
		c.discard(stagedPath)
		return models.Video{}, fmt.Errorf("%w: %s", ErrDuplicateName, filename)
	}

	if err := c.files.Place(stagedPath, filename); err != nil {
		c.discard(stagedPath)
		return models.Video{}, &StorageError{Op: "place upload", Filename: filename, Err: err}
	}

	video := models.NewVideo(display, filename, c.now())
	if err := c.store.Insert(ctx, video); err != nil {
		c.removeFile(filename)
		return models.Video{}, wrapStore("insert", filename, err)
	}

	c.log.Info().Str("filename", filename).Str("title", display).Msg("video created")
	return video, nil
}

// RenameOrUpdate changes the title of the record stored under filename and,
// when the derived filename changes, renames its file. A non-empty stagedPath
// replaces the file content as well. An empty newTitle keeps the current
// title.
func (c *Coordinator) RenameOrUpdate(ctx context.Context, filename, newTitle, stagedPath string) (models.Video, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.store.Find(ctx, filename)
	if err != nil {
		c.discard(stagedPath)
		return models.Video{}, wrapStore("find", filename, err)
	}

	title := strings.TrimSpace(newTitle)
	if title == "" {
		title = current.Title
	}
	base, display := naming.Normalize(title)
	if base == "" {
		c.discard(stagedPath)
		return models.Video{}, fmt.Errorf("%w: title %q has no usable characters", ErrValidation, title)
	}

	updated := current
	updated.Title = display
	updated.Filename = naming.Filename(base)

	switch {
	case stagedPath != "":
		err = c.replace(ctx, current, updated, stagedPath)
	case updated.Filename != current.Filename:
		err = c.rename(ctx, current, updated)
	default:
		err = wrapStore("update", current.Filename, c.store.Update(ctx, current.Filename, updated))
	}
	if err != nil {
		return models.Video{}, err
	}

	c.log.Info().
		Str("filename", current.Filename).
		Str("new_filename", updated.Filename).
		Str("title", updated.Title).
		Bool("replaced", stagedPath != "").
		Msg("video updated")
	return updated, nil
}

func (c *Coordinator) rename(ctx context.Context, current, updated models.Video) error {
	taken, err := c.taken(ctx, updated.Filename)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrDuplicateName, updated.Filename)
	}

	if err := c.files.Rename(current.Filename, updated.Filename); err != nil {
		return &StorageError{Op: "rename", Filename: current.Filename, Err: err}
	}
	if err := c.store.Update(ctx, current.Filename, updated); err != nil {
		if rerr := c.files.Rename(updated.Filename, current.Filename); rerr != nil {
			c.log.Error().Err(rerr).Str("filename", updated.Filename).Msg("failed to undo rename")
		}
		return wrapStore("update", current.Filename, err)
	}
	return nil
}

// replace swaps in a staged file. A collision with another name is refused
// before anything on disk is touched, so the old file and record survive.
func (c *Coordinator) replace(ctx context.Context, current, updated models.Video, stagedPath string) error {
	renamed := updated.Filename != current.Filename
	if renamed {
		taken, err := c.taken(ctx, updated.Filename)
		if err != nil {
			c.discard(stagedPath)
			return err
		}
		if taken {
			c.discard(stagedPath)
			return fmt.Errorf("%w: %s", ErrDuplicateName, updated.Filename)
		}
	}

	if err := c.files.Place(stagedPath, updated.Filename); err != nil {
		c.discard(stagedPath)
		return &StorageError{Op: "place upload", Filename: updated.Filename, Err: err}
	}

	if renamed {
		if err := c.files.Remove(current.Filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.removeFile(updated.Filename)
			return &StorageError{Op: "remove replaced file", Filename: current.Filename, Err: err}
		}
	}

	if err := c.store.Update(ctx, current.Filename, updated); err != nil {
		return wrapStore("update", current.Filename, err)
	}
	return nil
}

// DeleteVideo removes a record and its file. A file that is already gone is
// not an error.
func (c *Coordinator) DeleteVideo(ctx context.Context, filename string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.store.Find(ctx, filename); err != nil {
		return wrapStore("find", filename, err)
	}

	if err := c.files.Remove(filename); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return &StorageError{Op: "remove", Filename: filename, Err: err}
		}
		c.log.Warn().Str("filename", filename).Msg("deleting video whose file was already gone")
	}

	if err := c.store.Remove(ctx, filename); err != nil {
		return wrapStore("remove", filename, err)
	}

	c.log.Info().Str("filename", filename).Msg("video deleted")
	return nil
}

func (c *Coordinator) IncrementViews(ctx context.Context, filename string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, err := c.store.IncrementViews(ctx, filename)
	return n, wrapStore("increment views", filename, err)
}

func (c *Coordinator) IncrementLikes(ctx context.Context, filename string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, err := c.store.IncrementLikes(ctx, filename)
	return n, wrapStore("increment likes", filename, err)
}

func (c *Coordinator) ListAll(ctx context.Context) ([]models.Video, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	videos, err := c.store.All(ctx)
	return videos, wrapStore("list", "", err)
}

func (c *Coordinator) GetByFilename(ctx context.Context, filename string) (models.Video, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	video, err := c.store.Find(ctx, filename)
	return video, wrapStore("find", filename, err)
}

// taken reports whether filename is used by a record or by a file on disk.
func (c *Coordinator) taken(ctx context.Context, filename string) (bool, error) {
	_, err := c.store.Find(ctx, filename)
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, ErrNotFound):
		return false, wrapStore("find", filename, err)
	}

	exists, err := c.files.Exists(filename)
	if err != nil {
		return false, &StorageError{Op: "stat", Filename: filename, Err: err}
	}
	return exists, nil
}

func (c *Coordinator) discard(stagedPath string) {
	if err := c.files.Discard(stagedPath); err != nil {
		c.log.Warn().Err(err).Str("staged", stagedPath).Msg("failed to remove staged upload")
	}
}

func (c *Coordinator) removeFile(filename string) {
	if err := c.files.Remove(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.log.Error().Err(err).Str("filename", filename).Msg("failed to roll back placed file")
	}
}
