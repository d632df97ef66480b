package storage

import (
	"context"
	"errors"
	"sync"

	appdispatch "github.com/codledger/backend/internal/application/dispatch"
)

// StubArchiveStore is an in-memory ArchiveStore for development and tests.
// Uploaded files are held in a map and served from a fake URL.
type StubArchiveStore struct {
	// BaseURL is the base URL for generated file URLs.
	// Defaults to "https://archive.example.com" if not set.
	BaseURL string

	mu    sync.Mutex
	files map[string][]byte
}

// NewStubArchiveStore creates a new StubArchiveStore
func NewStubArchiveStore() *StubArchiveStore {
	return &StubArchiveStore{
		BaseURL: "https://archive.example.com",
		files:   make(map[string][]byte),
	}
}

// Ensure StubArchiveStore implements the dispatch ArchiveStore
var _ appdispatch.ArchiveStore = (*StubArchiveStore)(nil)

// Put remembers the file content and returns its stub URL
func (s *StubArchiveStore) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	if key == "" {
		return "", errors.New("archive key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(body))
	copy(stored, body)
	s.files[key] = stored
	return s.BaseURL + "/" + key, nil
}

// Get returns a stored file (for tests)
func (s *StubArchiveStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.files[key]
	return body, ok
}
