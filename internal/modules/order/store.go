// README: Snapshot store; serializes load-mutate-save behind one lock.
package order

import (
	"context"
	"fmt"
	"sync"
)

// Backend persists the full snapshot. Implementations need not be safe
// for concurrent use; the Store serializes all access.
type Backend interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// Store guards the read-modify-write cycle against the persisted
// snapshot. Concurrent handlers that each loaded, mutated and saved their
// own copy would silently drop each other's writes; the single lock here
// makes every operation one atomic logical transaction.
type Store struct {
	mu      sync.Mutex
	backend Backend
}

func NewStore(b Backend) *Store {
	return &Store{backend: b}
}

// Update runs fn against the current snapshot and persists the result.
// If fn returns an error nothing is saved. A load or save failure aborts
// the operation; there is no partial state.
func (s *Store) Update(ctx context.Context, fn func(Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	if err := fn(snap); err != nil {
		return err
	}
	if err := s.backend.Save(ctx, snap); err != nil {
		return fmt.Errorf("save orders: %w", err)
	}
	return nil
}

// View runs fn against the current snapshot without persisting. fn must
// not retain or mutate the snapshot; copy what it needs out.
func (s *Store) View(ctx context.Context, fn func(Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	return fn(snap)
}
