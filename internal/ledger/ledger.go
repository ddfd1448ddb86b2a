package ledger

import (
	"context"
	"fmt"
)

// Ledger tracks available quantity per listed item. Availability checks are
// advisory; Commit is the single hard enforcement point and must be atomic so
// that concurrent acceptances can never over-commit an item.
//
// Two implementations are provided: MemoryLedger for development and tests,
// RedisLedger for production deployments with more than one API instance.
type Ledger interface {
	// Preload seeds (or resets) the available quantity for an item.
	Preload(ctx context.Context, itemID string, quantity int) error

	// Available returns the current available quantity for an item.
	// Unknown items report zero.
	Available(ctx context.Context, itemID string) (int, error)

	// CheckAvailable reports whether at least quantity units are available.
	// It takes no lock; the answer may be stale by the time it is used.
	CheckAvailable(ctx context.Context, itemID string, quantity int) (bool, error)

	// Commit atomically decrements the available quantity. It fails with
	// *InsufficientQuantityError when fewer than quantity units remain.
	Commit(ctx context.Context, itemID string, quantity int) error

	// Release adds quantity back, at most once per opKey. It returns true
	// on the first release for that key and false on repeats. Used to
	// compensate a commit whose surrounding operation failed afterwards.
	Release(ctx context.Context, opKey, itemID string, quantity int) (bool, error)

	// Close releases any resources held by the ledger.
	Close() error
}

// InsufficientQuantityError indicates a commit exceeding what remains.
type InsufficientQuantityError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity for item %s: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}
