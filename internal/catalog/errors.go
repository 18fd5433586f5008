package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName means the target filename is already taken by a
	// catalog record or a file in the media directory.
	ErrDuplicateName = errors.New("video name already exists")
	ErrNotFound      = errors.New("video not found")
	ErrValidation    = errors.New("invalid video input")
	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("storage failure")
)

// StorageError reports a failed filesystem or metadata-store call. The catalog
// may disagree with the media directory afterwards; Coordinator.Resync
// rebuilds it.
type StorageError struct {
	Op       string
	Filename string
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Filename, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// wrapStore passes catalog sentinels through and turns anything else coming
// out of a Store into a StorageError.
func wrapStore(op, filename string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateName) || errors.Is(err, ErrStorage) {
		return err
	}
	return &StorageError{Op: op, Filename: filename, Err: err}
}
