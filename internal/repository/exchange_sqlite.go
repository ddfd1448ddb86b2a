package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"labtrade-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteExchangeRepository implements ExchangeRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteExchangeRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteExchangeRepository creates a new SQLite exchange repository.
// dbPath is the path to the SQLite database file (e.g., "./data/exchange.db")
func NewSQLiteExchangeRepository(dbPath string) (*SQLiteExchangeRepository, error) {
	// Open with WAL mode and other optimizations
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection alive

	if err := createExchangeTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteExchangeRepository] Initialized with database: %s", dbPath)
	return &SQLiteExchangeRepository{db: db}, nil
}

// DB exposes the underlying handle so other repositories can share the file.
func (r *SQLiteExchangeRepository) DB() *sql.DB {
	return r.db
}

// createExchangeTables creates the exchange request and history tables.
func createExchangeTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS exchange_requests (
		id TEXT PRIMARY KEY,
		request_number TEXT NOT NULL UNIQUE,
		initiator_id TEXT NOT NULL,
		responder_id TEXT NOT NULL,
		target_item_id TEXT NOT NULL,
		requested_quantity INTEGER NOT NULL,
		offer_json TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		counter_offer_json TEXT,
		rejection_reason TEXT NOT NULL DEFAULT '',
		withdrawal_reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		viewed_at DATETIME,
		expires_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exchange_initiator ON exchange_requests(initiator_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_exchange_responder ON exchange_requests(responder_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_exchange_status ON exchange_requests(status, expires_at);

	CREATE TABLE IF NOT EXISTS exchange_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		status TEXT NOT NULL,
		actor_id TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		occurred_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_request ON exchange_history(request_id);
	`
	_, err := db.Exec(query)
	return err
}

// Create persists a new request and its initial history entry.
func (r *SQLiteExchangeRepository) Create(ctx context.Context, req *model.ExchangeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	offerJSON, err := json.Marshal(req.Offer)
	if err != nil {
		return fmt.Errorf("failed to marshal offer: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO exchange_requests
			(id, request_number, initiator_id, responder_id, target_item_id,
			 requested_quantity, offer_json, message, status,
			 created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.RequestNumber, req.InitiatorID, req.ResponderID, req.TargetItemID,
		req.RequestedQuantity, string(offerJSON), req.Message, string(req.Status),
		req.CreatedAt, req.UpdatedAt, req.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert exchange request: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO exchange_history (request_id, status, actor_id, note, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		req.ID, string(req.Status), req.InitiatorID, "", req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a request with its full status history.
func (r *SQLiteExchangeRepository) GetByID(ctx context.Context, id string) (*model.ExchangeRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, request_number, initiator_id, responder_id, target_item_id,
		       requested_quantity, offer_json, message, status, counter_offer_json,
		       rejection_reason, withdrawal_reason, created_at, updated_at, viewed_at, expires_at
		FROM exchange_requests WHERE id = ?`

	req, err := scanExchangeRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exchange request: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, actor_id, note, occurred_at
		FROM exchange_history WHERE request_id = ? ORDER BY id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry model.StatusChange
		var status string
		if err := rows.Scan(&status, &entry.ActorID, &entry.Note, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.Status = model.Status(status)
		req.History = append(req.History, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return req, nil
}

// ListByViewer returns requests scoped to the viewer's role, newest first.
func (r *SQLiteExchangeRepository) ListByViewer(ctx context.Context, viewerID string, filter ExchangeFilter) ([]*model.ExchangeRequest, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	where, args := buildViewerWhere(viewerID, filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM exchange_requests WHERE " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count exchange requests: %w", err)
	}

	page, limit := NormalizePage(filter.Page, filter.Limit)
	query := `
		SELECT id, request_number, initiator_id, responder_id, target_item_id,
		       requested_quantity, offer_json, message, status, counter_offer_json,
		       rejection_reason, withdrawal_reason, created_at, updated_at, viewed_at, expires_at
		FROM exchange_requests WHERE ` + where + `
		ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list exchange requests: %w", err)
	}
	defer rows.Close()

	var result []*model.ExchangeRequest
	for rows.Next() {
		req, err := scanExchangeRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan exchange request: %w", err)
		}
		result = append(result, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate exchange requests: %w", err)
	}

	return result, total, nil
}

// UpdateStatus applies a compare-and-swap transition.
func (r *SQLiteExchangeRepository) UpdateStatus(ctx context.Context, id string, from, to model.Status, upd StatusUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	set := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{string(to), upd.OccurredAt}
	if upd.RejectionReason != "" {
		set = append(set, "rejection_reason = ?")
		args = append(args, upd.RejectionReason)
	}
	if upd.WithdrawalReason != "" {
		set = append(set, "withdrawal_reason = ?")
		args = append(args, upd.WithdrawalReason)
	}
	if upd.CounterOffer != nil {
		counterJSON, err := json.Marshal(upd.CounterOffer)
		if err != nil {
			return false, fmt.Errorf("failed to marshal counter offer: %w", err)
		}
		set = append(set, "counter_offer_json = ?")
		args = append(args, string(counterJSON))
	}
	if upd.ViewedAt != nil {
		set = append(set, "viewed_at = ?")
		args = append(args, *upd.ViewedAt)
	}
	args = append(args, id, string(from))

	query := "UPDATE exchange_requests SET " + strings.Join(set, ", ") + " WHERE id = ? AND status = ?"
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// CAS guard failed: someone else transitioned the request first.
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO exchange_history (request_id, status, actor_id, note, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, string(to), upd.ActorID, upd.Note, upd.OccurredAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert history entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// ExpireStale transitions stale pending/viewed requests to expired.
func (r *SQLiteExchangeRepository) ExpireStale(ctx context.Context, now time.Time) ([]*model.ExchangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_number, initiator_id, responder_id, target_item_id,
		       requested_quantity, offer_json, message, status, counter_offer_json,
		       rejection_reason, withdrawal_reason, created_at, updated_at, viewed_at, expires_at
		FROM exchange_requests
		WHERE status IN (?, ?) AND expires_at < ?`,
		string(model.StatusPending), string(model.StatusViewed), now)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale requests: %w", err)
	}

	var stale []*model.ExchangeRequest
	for rows.Next() {
		req, err := scanExchangeRow(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan stale request: %w", err)
		}
		stale = append(stale, req)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate stale requests: %w", err)
	}
	rows.Close()

	var expired []*model.ExchangeRequest
	for _, req := range stale {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return expired, fmt.Errorf("failed to begin transaction: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE exchange_requests SET status = ?, updated_at = ?
			WHERE id = ? AND status = ?`,
			string(model.StatusExpired), now, req.ID, string(req.Status))
		if err != nil {
			tx.Rollback()
			return expired, fmt.Errorf("failed to expire request %s: %w", req.ID, err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			// Transitioned concurrently; skip.
			tx.Rollback()
			continue
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO exchange_history (request_id, status, actor_id, note, occurred_at)
			VALUES (?, ?, ?, ?, ?)`,
			req.ID, string(model.StatusExpired), "", "deadline elapsed", now)
		if err != nil {
			tx.Rollback()
			return expired, fmt.Errorf("failed to insert expiry history: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return expired, fmt.Errorf("failed to commit expiry: %w", err)
		}

		req.Status = model.StatusExpired
		req.UpdatedAt = now
		expired = append(expired, req)
	}

	return expired, nil
}

// GetStats returns statistics about the exchange store.
func (r *SQLiteExchangeRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{})

	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exchange_requests").Scan(&count); err != nil {
		return nil, err
	}
	stats["total_requests"] = count

	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM exchange_requests GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byStatus := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		byStatus[status] = n
	}
	stats["by_status"] = byStatus

	return stats, nil
}

// Close closes the database connection.
func (r *SQLiteExchangeRepository) Close() error {
	return r.db.Close()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanExchangeRow scans one exchange_requests row into a model.
func scanExchangeRow(row rowScanner) (*model.ExchangeRequest, error) {
	var req model.ExchangeRequest
	var offerJSON, status string
	var counterJSON sql.NullString
	var viewedAt sql.NullTime

	err := row.Scan(
		&req.ID, &req.RequestNumber, &req.InitiatorID, &req.ResponderID, &req.TargetItemID,
		&req.RequestedQuantity, &offerJSON, &req.Message, &status, &counterJSON,
		&req.RejectionReason, &req.WithdrawalReason, &req.CreatedAt, &req.UpdatedAt, &viewedAt, &req.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(offerJSON), &req.Offer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal offer: %w", err)
	}
	if counterJSON.Valid && counterJSON.String != "" {
		var counter model.CounterOffer
		if err := json.Unmarshal([]byte(counterJSON.String), &counter); err != nil {
			return nil, fmt.Errorf("failed to unmarshal counter offer: %w", err)
		}
		req.CounterOffer = &counter
	}
	if viewedAt.Valid {
		t := viewedAt.Time
		req.ViewedAt = &t
	}
	req.Status = model.Status(status)

	return &req, nil
}

// buildViewerWhere assembles the role/status WHERE clause for drivers using
// "?" parameter markers.
func buildViewerWhere(viewerID string, filter ExchangeFilter) (string, []interface{}) {
	var where string
	var args []interface{}

	switch filter.Role {
	case RoleFilterSent:
		where = "initiator_id = ?"
		args = append(args, viewerID)
	case RoleFilterReceived:
		where = "responder_id = ?"
		args = append(args, viewerID)
	default: // all
		where = "(initiator_id = ? OR responder_id = ?)"
		args = append(args, viewerID, viewerID)
	}

	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	return where, args
}

// Ensure SQLiteExchangeRepository implements ExchangeRepository
var _ ExchangeRepository = (*SQLiteExchangeRepository)(nil)
