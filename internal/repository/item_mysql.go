package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"labtrade-api/internal/model"
)

// MySQLItemRepository implements ItemRepository using MySQL. Used when the
// catalog already lives in the marketplace's MySQL database.
type MySQLItemRepository struct {
	db *sql.DB
}

// NewMySQLItemRepository creates a new MySQL item repository.
func NewMySQLItemRepository(db *sql.DB) (*MySQLItemRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS items (
		id VARCHAR(36) PRIMARY KEY,
		owner_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		brand VARCHAR(255) NOT NULL DEFAULT '',
		model VARCHAR(255) NOT NULL DEFAULT '',
		` + "`condition`" + ` VARCHAR(64) NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL,
		allow_exchange TINYINT(1) NOT NULL DEFAULT 1,
		quantity INT NOT NULL,
		created_at DATETIME NOT NULL,
		INDEX idx_items_owner (owner_id)
	)`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create items table: %w", err)
	}

	log.Printf("[MySQLItemRepository] Initialized")
	return &MySQLItemRepository{db: db}, nil
}

// CreateItem registers a listed item.
func (r *MySQLItemRepository) CreateItem(ctx context.Context, item *model.Item) error {
	query := "INSERT INTO items (id, owner_id, name, brand, model, `condition`, status, allow_exchange, quantity, created_at) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.OwnerID, item.Name, item.Brand, item.Model, item.Condition,
		item.Status, item.AllowExchange, item.Quantity, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by ID.
func (r *MySQLItemRepository) GetItem(ctx context.Context, id string) (*model.Item, error) {
	query := "SELECT id, owner_id, name, brand, model, `condition`, status, allow_exchange, quantity, created_at " +
		"FROM items WHERE id = ?"

	var item model.Item
	err := r.db.QueryRowContext(ctx, query, id).Scan(
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

// Close is a no-op; the shared MySQL handle is closed by the caller.
func (r *MySQLItemRepository) Close() error {
	return nil
}

// Ensure MySQLItemRepository implements ItemRepository
var _ ItemRepository = (*MySQLItemRepository)(nil)
