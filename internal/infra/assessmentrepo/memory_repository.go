package assessmentrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/mens-health/internal/domain/healthfn"
)

// MemoryRepository keeps assessment documents in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs []healthfn.AssessmentDocument
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Save appends the document.
func (r *MemoryRepository) Save(_ context.Context, doc healthfn.AssessmentDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
	return nil
}

// ListByUser returns the user's documents, newest first.
func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]healthfn.AssessmentDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]healthfn.AssessmentDocument, 0)
	for _, doc := range r.docs {
		if doc.UserID == userID {
			out = append(out, doc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

var _ healthfn.Repository = (*MemoryRepository)(nil)
