package cart

import (
	"context"
	"sync"
)

// MemoryRepository keeps the cart in memory. Used by tests and as a fallback
// when no durable path is configured.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []Entry
	saveErr error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Load(ctx context.Context) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

func (r *MemoryRepository) Save(ctx context.Context, entries []Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.entries = make([]Entry, len(entries))
	copy(r.entries, entries)
	return nil
}

// FailSaves makes every subsequent Save return err. Test hook.
func (r *MemoryRepository) FailSaves(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}
