package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// StubArchiveStore keeps archives in memory. It backs tests and local
// development where no object storage is configured.
type StubArchiveStore struct {
	mu       sync.RWMutex
	archives map[string][]byte
	// BaseURL prefixes generated download URLs
	BaseURL string
}

// NewStubArchiveStore creates an in-memory archive store
func NewStubArchiveStore() *StubArchiveStore {
	return &StubArchiveStore{
		archives: make(map[string][]byte),
		BaseURL:  "https://storage.example.com",
	}
}

// StoreArchive keeps the archive bytes in memory
func (s *StubArchiveStore) StoreArchive(_ context.Context, key string, data []byte) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.archives[key] = stored
	return nil
}

// DownloadURL fabricates a URL for a stored archive
func (s *StubArchiveStore) DownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	s.mu.RLock()
	_, ok := s.archives[key]
	s.mu.RUnlock()
	if !ok {
		return "", time.Time{}, errors.New("archive not found: " + key)
	}
	if expiresIn == 0 {
		expiresIn = 15 * time.Minute
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/download/" + key, expiresAt, nil
}

// Get returns a stored archive, for test assertions
func (s *StubArchiveStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.archives[key]
	return data, ok
}

var _ ArchiveStore = (*StubArchiveStore)(nil)
