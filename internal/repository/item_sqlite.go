package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"labtrade-api/internal/model"
)

// SQLiteItemRepository implements ItemRepository using SQLite. It shares the
// database handle with the exchange repository.
type SQLiteItemRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteItemRepository creates a new SQLite item repository on an
// existing handle.
func NewSQLiteItemRepository(db *sql.DB) (*SQLiteItemRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		brand TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		condition TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		allow_exchange INTEGER NOT NULL DEFAULT 1,
		quantity INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create items table: %w", err)
	}

	return &SQLiteItemRepository{db: db}, nil
}

// CreateItem registers a listed item.
func (r *SQLiteItemRepository) CreateItem(ctx context.Context, item *model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO items (id, owner_id, name, brand, model, condition, status, allow_exchange, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.OwnerID, item.Name, item.Brand, item.Model, item.Condition,
		item.Status, item.AllowExchange, item.Quantity, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by ID.
func (r *SQLiteItemRepository) GetItem(ctx context.Context, id string) (*model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var item model.Item
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, brand, model, condition, status, allow_exchange, quantity, created_at
		FROM items WHERE id = ?`, id).Scan(
		&item.ID, &item.OwnerID, &item.Name, &item.Brand, &item.Model, &item.Condition,
		&item.Status, &item.AllowExchange, &item.Quantity, &item.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// Close is a no-op; the shared handle is closed by the exchange repository.
func (r *SQLiteItemRepository) Close() error {
	return nil
}

// Ensure SQLiteItemRepository implements ItemRepository
var _ ItemRepository = (*SQLiteItemRepository)(nil)
