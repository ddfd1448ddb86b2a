package model

import "time"

// Item statuses.
const (
	ItemStatusActive   = "active"
	ItemStatusInactive = "inactive"
)

// Item is a listed piece of lab equipment. The catalog itself (browsing,
// search, images) lives outside this service; only the fields the negotiation
// core needs are kept here.
type Item struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	Brand         string    `json:"brand,omitempty"`
	Model         string    `json:"model,omitempty"`
	Condition     string    `json:"condition,omitempty"`
	Status        string    `json:"status"`
	AllowExchange bool      `json:"allow_exchange"`
	Quantity      int       `json:"quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsExchangeable reports whether the item can appear in an exchange,
// either as target or as an existing-item offer.
func (i *Item) IsExchangeable() bool {
	return i.Status == ItemStatusActive && i.AllowExchange
}
