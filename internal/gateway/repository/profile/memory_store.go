package profile

import (
	"context"
	"sync"

	"animaldex/internal/gateway/entity"
)

// MemoryStore keeps profiles in process memory. It backs local runs
// and tests. Updates hold a per-handle lock so the atomicity contract
// matches the postgres store; distinct handles never contend.
type MemoryStore struct {
	mu    sync.RWMutex
	byKey map[string]*memoryRecord
}

type memoryRecord struct {
	mu      sync.Mutex
	profile entity.Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: make(map[string]*memoryRecord)}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Create(_ context.Context, p entity.Profile) error {
	p.Normalize()
	key := p.Handle.String()
	if key == "" {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[key]; ok {
		return ErrDuplicate
	}
	s.byKey[key] = &memoryRecord{profile: p.Clone()}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, handle entity.Handle) (entity.Profile, error) {
	rec, ok := s.lookup(handle)
	if !ok {
		return entity.Profile{}, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.profile.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, handle entity.Handle, mutate func(*entity.Profile)) (entity.Profile, error) {
	rec, ok := s.lookup(handle)
	if !ok {
		return entity.Profile{}, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	// All-or-nothing: a caller that already gave up gets no mutation.
	if err := ctx.Err(); err != nil {
		return entity.Profile{}, err
	}

	p := rec.profile.Clone()
	mutate(&p)
	p.Handle = rec.profile.Handle
	p.Normalize()
	rec.profile = p
	return p.Clone(), nil
}

func (s *MemoryStore) lookup(handle entity.Handle) (*memoryRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byKey[handle.String()]
	return rec, ok
}
