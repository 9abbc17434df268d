package knowledge

import (
	"sync"
	"time"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// FileSource serves Q&A pairs from a JSON file, re-reading it when the cached
// copy is older than the refresh interval. Editors update the file in place;
// a refresh picks the change up without a restart.
type FileSource struct {
	path    string
	refresh time.Duration

	mu       sync.Mutex
	pairs    []models.QAPair
	loadedAt time.Time
	timeFunc func() time.Time
}

// DefaultRefreshInterval bounds how stale the in-memory knowledge base may be.
const DefaultRefreshInterval = time.Minute

// SourceOption configures a FileSource.
type SourceOption func(*FileSource)

// WithRefreshInterval overrides how often the file is re-read. Zero disables
// caching entirely; the file is read on every Load.
func WithRefreshInterval(d time.Duration) SourceOption {
	return func(s *FileSource) {
		s.refresh = d
	}
}

// WithSourceTimeFunc sets a custom time function (for testing)
func WithSourceTimeFunc(fn func() time.Time) SourceOption {
	return func(s *FileSource) {
		s.timeFunc = fn
	}
}

// NewFileSource creates a source backed by the JSON file at path. The file is
// not read until the first Load.
func NewFileSource(path string, opts ...SourceOption) *FileSource {
	s := &FileSource{
		path:     path,
		refresh:  DefaultRefreshInterval,
		timeFunc: time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load returns the current pairs, re-reading the file if the cached copy has
// expired. A failed re-read keeps serving the last good copy if one exists.
func (s *FileSource) Load() ([]models.QAPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timeFunc()
	if s.pairs != nil && s.refresh > 0 && now.Sub(s.loadedAt) < s.refresh {
		return s.pairs, nil
	}

	pairs, err := LoadFile(s.path)
	if err != nil {
		if s.pairs != nil {
			return s.pairs, nil
		}
		return nil, err
	}

	s.pairs = pairs
	s.loadedAt = now
	return pairs, nil
}
