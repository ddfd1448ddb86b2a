package model

import "fmt"

// OfferKind discriminates the two offer variants.
type OfferKind string

const (
	// OfferKindExistingItem offers one of the initiator's own listed items.
	OfferKindExistingItem OfferKind = "existing_item"
	// OfferKindCustom offers a free-form described item not in the catalog.
	OfferKindCustom OfferKind = "custom"
)

// Offer is what the initiator proposes in return for the target item.
// Exactly one variant is populated, selected by Kind.
type Offer struct {
	Kind         OfferKind          `json:"kind"`
	ExistingItem *ExistingItemOffer `json:"existing_item,omitempty"`
	Custom       *CustomOffer       `json:"custom,omitempty"`
}

// ExistingItemOffer references an item the initiator already has listed.
type ExistingItemOffer struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// CustomOffer describes an item outside the catalog.
type CustomOffer struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Condition      string   `json:"condition,omitempty"`
	Quantity       int      `json:"quantity"`
	EstimatedValue float64  `json:"estimated_value"`
	Brand          string   `json:"brand,omitempty"`
	Model          string   `json:"model,omitempty"`
	Specifications []string `json:"specifications,omitempty"`
	Warranty       *string  `json:"warranty,omitempty"`
}

// Validate checks the structural rules that do not require a catalog lookup:
// exactly one variant populated and matching Kind, positive quantities,
// required custom fields. Ownership and availability of an existing-item
// offer are checked by the service against the catalog.
//
// A custom offer with zero quantity is normalized to 1.
func (o *Offer) Validate() error {
	switch o.Kind {
	case OfferKindExistingItem:
		if o.ExistingItem == nil {
			return fmt.Errorf("offer kind is %q but existing_item is not set", o.Kind)
		}
		if o.Custom != nil {
			return fmt.Errorf("offer must populate exactly one variant")
		}
		if o.ExistingItem.ItemID == "" {
			return fmt.Errorf("existing_item offer requires item_id")
		}
		if o.ExistingItem.Quantity < 1 {
			return fmt.Errorf("existing_item offer quantity must be >= 1, got %d", o.ExistingItem.Quantity)
		}
	case OfferKindCustom:
		if o.Custom == nil {
			return fmt.Errorf("offer kind is %q but custom is not set", o.Kind)
		}
		if o.ExistingItem != nil {
			return fmt.Errorf("offer must populate exactly one variant")
		}
		if o.Custom.Name == "" {
			return fmt.Errorf("custom offer requires name")
		}
		if o.Custom.Description == "" {
			return fmt.Errorf("custom offer requires description")
		}
		if o.Custom.Quantity == 0 {
			o.Custom.Quantity = 1
		}
		if o.Custom.Quantity < 1 {
			return fmt.Errorf("custom offer quantity must be >= 1, got %d", o.Custom.Quantity)
		}
		if o.Custom.EstimatedValue < 0 {
			return fmt.Errorf("custom offer estimated_value must be >= 0")
		}
	default:
		return fmt.Errorf("unknown offer kind %q", o.Kind)
	}
	return nil
}
