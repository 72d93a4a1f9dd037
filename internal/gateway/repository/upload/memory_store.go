package upload

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is the in-process fallback used when no object store is
// configured, and by tests. URLs are served from the gateway itself
// under /uploads/.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, handle, name string, content []byte, _ string) error {
	key, err := objectKey(handle, name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, handle, name string) ([]byte, error) {
	key, err := objectKey(handle, name)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) URL(_ context.Context, handle, name string) (string, error) {
	key, err := objectKey(handle, name)
	if err != nil {
		return "", err
	}
	return "/uploads/" + key, nil
}

// Len reports the number of stored objects (test helper).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// ParseUploadPath splits a /uploads/<handle>/<name> request path.
func ParseUploadPath(path string) (handle, name string, err error) {
	trimmed := strings.TrimPrefix(path, "/uploads/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed upload path %q", path)
	}
	return parts[0], parts[1], nil
}
