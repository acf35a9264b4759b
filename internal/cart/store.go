package cart

import (
	"context"
	"fmt"
	"sync"

	pkgerrors "github.com/mkrogh/storefront/pkg/errors"
	"github.com/mkrogh/storefront/pkg/logger"
)

// Entry is one line of shopper intent. The wire form matches the persisted
// shape: {"id": ..., "quantity": ...}.
type Entry struct {
	ProductID int `json:"id"`
	Quantity  int `json:"quantity"`
}

// Repository persists the full ordered entry list under a fixed key.
type Repository interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

// Store is the single source of truth for the cart. Entries are unique per
// product id and every quantity is at least 1; mutations persist before they
// are visible to readers.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	repo    Repository
	logg    *logger.Logger
}

// NewStore builds the store and rehydrates it from the repository. A failed
// load logs the cause and starts the cart empty rather than failing startup.
func NewStore(ctx context.Context, repo Repository, logg *logger.Logger) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	s := &Store{repo: repo, logg: logg}
	entries, err := repo.Load(ctx)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "cart rehydration failed, starting empty")
		return s, nil
	}
	s.entries = sanitize(entries)
	return s, nil
}

// AddOrIncrement merges quantity into an existing entry for the product or
// appends a new one. It never creates a duplicate entry for the same id.
func (s *Store) AddOrIncrement(ctx context.Context, productID, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := snapshotLocked(s.entries)
	found := false
	for i := range next {
		if next[i].ProductID == productID {
			next[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		next = append(next, Entry{ProductID: productID, Quantity: quantity})
	}
	return s.persistLocked(ctx, next)
}

// SetQuantity sets the quantity for an existing entry. Quantities below 1 are
// rejected; removal goes through Remove.
func (s *Store) SetQuantity(ctx context.Context, productID, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1, use Remove to delete the entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := snapshotLocked(s.entries)
	for i := range next {
		if next[i].ProductID == productID {
			next[i].Quantity = quantity
			return s.persistLocked(ctx, next)
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d is not in the cart", productID))
}

// Remove deletes the entry for the product. Removing an absent product is a
// no-op.
func (s *Store) Remove(ctx context.Context, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Entry, 0, len(s.entries))
	removed := false
	for _, entry := range s.entries {
		if entry.ProductID == productID {
			removed = true
			continue
		}
		next = append(next, entry)
	}
	if !removed {
		return nil
	}
	return s.persistLocked(ctx, next)
}

// Clear empties the cart. Only successful checkout calls this.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx, nil)
}

// Snapshot returns a copy of the ordered entries for read-only consumption.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotLocked(s.entries)
}

// Len reports the number of distinct products in the cart.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// persistLocked saves the candidate state and commits it to memory only when
// the save succeeded, so a failed persist leaves the cart unchanged.
func (s *Store) persistLocked(ctx context.Context, next []Entry) error {
	if err := s.repo.Save(ctx, next); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting cart")
	}
	s.entries = next
	return nil
}

func snapshotLocked(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// sanitize drops malformed persisted entries (duplicates, quantities below 1)
// so a corrupted blob cannot violate store invariants.
func sanitize(entries []Entry) []Entry {
	seen := make(map[int]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Quantity < 1 {
			continue
		}
		if _, dup := seen[entry.ProductID]; dup {
			continue
		}
		seen[entry.ProductID] = struct{}{}
		out = append(out, entry)
	}
	return out
}
