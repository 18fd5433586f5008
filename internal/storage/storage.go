package storage

import (
	"errors"
	"io"
)

// ErrInvalidName is returned for names that are not a plain file name inside
// the media directory.
var ErrInvalidName = errors.New("invalid file name")

// Storage is the media directory plus the staging area uploads land in
// before they get their final name.
type Storage interface {
	// Dir is the media directory.
	Dir() string
	// Stage copies r into a new staging file and returns its path.
	Stage(r io.Reader) (string, error)
	// Place moves a staged file into the media directory as name,
	// overwriting any file already there.
	Place(stagedPath, name string) error
	// Discard removes a staged file. A missing file is not an error.
	Discard(stagedPath string) error
	Rename(oldName, newName string) error
	Exists(name string) (bool, error)
	// Remove deletes name; the error wraps fs.ErrNotExist when it is absent.
	Remove(name string) error
	Open(name string) (io.ReadSeekCloser, error)
}
