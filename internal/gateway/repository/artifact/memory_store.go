package artifact

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore holds artifacts in-process. Used when no S3 endpoint is
// configured; exports are still downloadable through the API while the
// server runs.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, sessionID, path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(content))
	copy(cp, content)
	m.objects[objectKey(sessionID, path)] = cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, sessionID, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[objectKey(sessionID, path)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryStore) List(_ context.Context, sessionID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := strings.TrimSuffix(strings.TrimSpace(sessionID), "/") + "/"
	paths := make([]string, 0, 4)
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			paths = append(paths, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
