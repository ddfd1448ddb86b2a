package ledger

import (
	"context"
	"sync"
)

// MemoryLedger is an in-memory implementation of Ledger.
// Use this for development/testing or single-instance deployments.
type MemoryLedger struct {
	mu       sync.Mutex
	stock    map[string]int
	released map[string]bool
}

// NewMemoryLedger creates a new in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		stock:    make(map[string]int),
		released: make(map[string]bool),
	}
}

// Preload seeds the available quantity for an item.
func (l *MemoryLedger) Preload(ctx context.Context, itemID string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stock[itemID] = quantity
	return nil
}

// Available returns the current available quantity for an item.
func (l *MemoryLedger) Available(ctx context.Context, itemID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.stock[itemID], nil
}

// CheckAvailable reports whether at least quantity units are available.
func (l *MemoryLedger) CheckAvailable(ctx context.Context, itemID string, quantity int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.stock[itemID] >= quantity, nil
}

// Commit atomically decrements the available quantity.
func (l *MemoryLedger) Commit(ctx context.Context, itemID string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.stock[itemID]
	if current < quantity {
		return &InsufficientQuantityError{
			ItemID:    itemID,
			Requested: quantity,
			Available: current,
		}
	}
	l.stock[itemID] = current - quantity
	return nil
}

// Release adds quantity back, at most once per opKey.
func (l *MemoryLedger) Release(ctx context.Context, opKey, itemID string, quantity int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released[opKey] {
		return false, nil
	}
	l.released[opKey] = true
	l.stock[itemID] += quantity
	return true, nil
}

// Close is a no-op for the in-memory ledger.
func (l *MemoryLedger) Close() error {
	return nil
}

// Ensure MemoryLedger implements Ledger
var _ Ledger = (*MemoryLedger)(nil)
