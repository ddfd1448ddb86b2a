package repository

import (
	"context"
	"time"

	"labtrade-api/internal/model"
)

// Viewer role filters for listing exchange requests.
const (
	RoleFilterSent     = "sent"
	RoleFilterReceived = "received"
	RoleFilterAll      = "all"
)

// Pagination bounds for list queries.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NormalizePage applies pagination defaults and bounds. Handlers use it too
// so response metadata reports the page size actually served.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}
	return page, limit
}

// ExchangeFilter scopes a listing to the viewer's side of the negotiations.
type ExchangeFilter struct {
	Role   string       // sent, received or all
	Status model.Status // optional; empty means any
	Page   int
	Limit  int
}

// StatusUpdate carries the attachments of a single transition. Fields left
// zero are not written.
type StatusUpdate struct {
	ActorID          string
	Note             string
	RejectionReason  string
	WithdrawalReason string
	CounterOffer     *model.CounterOffer
	ViewedAt         *time.Time
	OccurredAt       time.Time
}

// ExchangeRepository defines exchange request data access methods.
type ExchangeRepository interface {
	// Create persists a new request and its initial history entry.
	Create(ctx context.Context, req *model.ExchangeRequest) error

	// GetByID retrieves a request with its full status history.
	// Returns (nil, nil) when no such request exists.
	GetByID(ctx context.Context, id string) (*model.ExchangeRequest, error)

	// ListByViewer returns requests where the viewer is initiator (sent),
	// responder (received) or either (all), newest first, plus the total
	// count for pagination. History is not loaded.
	ListByViewer(ctx context.Context, viewerID string, filter ExchangeFilter) ([]*model.ExchangeRequest, int64, error)

	// UpdateStatus applies a compare-and-swap transition: the row is
	// mutated and a history entry appended only if the current status
	// still equals from. Returns false when the guard fails.
	UpdateStatus(ctx context.Context, id string, from, to model.Status, upd StatusUpdate) (bool, error)

	// ExpireStale transitions every pending/viewed request whose deadline
	// has passed to expired and returns the affected requests.
	ExpireStale(ctx context.Context, now time.Time) ([]*model.ExchangeRequest, error)

	// GetStats returns statistics about the exchange store.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}

// ItemRepository defines catalog item data access methods. The full catalog
// (search, images, pricing) lives outside this service; this store backs
// ownership and listing checks only.
type ItemRepository interface {
	// CreateItem registers a listed item.
	CreateItem(ctx context.Context, item *model.Item) error

	// GetItem retrieves an item by ID. Returns (nil, nil) when absent.
	GetItem(ctx context.Context, id string) (*model.Item, error)

	// Close closes the repository connection.
	Close() error
}
