package registry

import (
	"sort"
	"sync"
)

// MemoryRepo holds the live document instances. Documents guard their own
// values; this lock only guards the instance map.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*LiveDocument
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*LiveDocument)}
}

func (m *MemoryRepo) Put(ld *LiveDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[ld.ID] = ld
}

func (m *MemoryRepo) Get(id string) (*LiveDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ld, ok := m.store[id]; ok {
		return ld, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List() ([]*LiveDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*LiveDocument, 0, len(m.store))
	for _, ld := range m.store {
		out = append(out, ld)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
