package archive

import (
	"context"
	"slices"
	"sync"

	"github.com/yanqian/mens-health/internal/domain/article"
)

// MemoryArchive keeps objects in memory for tests/dev.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArchive constructs an empty archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: make(map[string][]byte)}
}

func (a *MemoryArchive) Put(_ context.Context, key string, data []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = slices.Clone(data)
	return nil
}

// Get returns a stored object.
func (a *MemoryArchive) Get(key string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.objects[key]
	return data, ok
}

var _ article.Archive = (*MemoryArchive)(nil)
