package catalog

import (
	"context"
	"sync"

	"github.com/kdimtricp/fairyland/internal/models"
)

// MemoryStore is the default Store. Its contents only live as long as the
// process; a restart rebuilds them from the media directory.
type MemoryStore struct {
	mu     sync.Mutex
	order  []string
	videos map[string]*models.Video
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{videos: make(map[string]*models.Video)}
}

func (s *MemoryStore) Find(_ context.Context, filename string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[filename]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return *v, nil
}

func (s *MemoryStore) Insert(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[video.Filename]; ok {
		return ErrDuplicateName
	}
	s.videos[video.Filename] = &video
	s.order = append(s.order, video.Filename)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, oldFilename string, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[oldFilename]
	if !ok {
		return ErrNotFound
	}
	if video.Filename != oldFilename {
		if _, taken := s.videos[video.Filename]; taken {
			return ErrDuplicateName
		}
		delete(s.videos, oldFilename)
		s.videos[video.Filename] = v
		s.order[s.index(oldFilename)] = video.Filename
	}
	v.Title = video.Title
	v.Filename = video.Filename
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[filename]; !ok {
		return ErrNotFound
	}
	delete(s.videos, filename)
	i := s.index(filename)
	s.order = append(s.order[:i], s.order[i+1:]...)
	return nil
}

func (s *MemoryStore) All(_ context.Context) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	videos := make([]models.Video, 0, len(s.order))
	for _, filename := range s.order {
		videos = append(videos, *s.videos[filename])
	}
	return videos, nil
}

func (s *MemoryStore) IncrementViews(_ context.Context, filename string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[filename]
	if !ok {
		return 0, ErrNotFound
	}
	v.Views++
	return v.Views, nil
}

func (s *MemoryStore) IncrementLikes(_ context.Context, filename string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[filename]
	if !ok {
		return 0, ErrNotFound
	}
	v.Likes++
	return v.Likes, nil
}

func (s *MemoryStore) Replace(_ context.Context, videos []models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.videos = make(map[string]*models.Video, len(videos))
	s.order = make([]string, 0, len(videos))
	for i := range videos {
		v := videos[i]
		if _, ok := s.videos[v.Filename]; ok {
			continue
		}
		s.videos[v.Filename] = &v
		s.order = append(s.order, v.Filename)
	}
	return nil
}

// index must be called with mu held and filename present.
func (s *MemoryStore) index(filename string) int {
	for i, f := range s.order {
		if f == filename {
			return i
		}
	}
	return -1
}
