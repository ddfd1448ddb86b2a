package model

import (
	"strings"
	"testing"
)

func TestOfferValidate_ExistingItem(t *testing.T) {
	offer := Offer{
		Kind:         OfferKindExistingItem,
		ExistingItem: &ExistingItemOffer{ItemID: "item-1", Quantity: 2},
	}
	if err := offer.Validate(); err != nil {
		t.Fatalf("valid existing_item offer rejected: %v", err)
	}
}

func TestOfferValidate_Custom(t *testing.T) {
	warranty := "6 months remaining"
	offer := Offer{
		Kind: OfferKindCustom,
		Custom: &CustomOffer{
			Name:           "Benchtop centrifuge",
			Description:    "Lightly used, recently calibrated",
			Condition:      "good",
			Quantity:       1,
			EstimatedValue: 1200,
			Specifications: []string{"max 15000 rpm", "24-place rotor"},
			Warranty:       &warranty,
		},
	}
	if err := offer.Validate(); err != nil {
		t.Fatalf("valid custom offer rejected: %v", err)
	}
}

func TestOfferValidate_CustomZeroQuantityNormalized(t *testing.T) {
	offer := Offer{
		Kind: OfferKindCustom,
		Custom: &CustomOffer{
			Name:        "Pipette set",
			Description: "Three adjustable pipettes",
		},
	}
	if err := offer.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offer.Custom.Quantity != 1 {
		t.Errorf("zero quantity not normalized, got %d", offer.Custom.Quantity)
	}
}

func TestOfferValidate_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		offer   Offer
		wantMsg string
	}{
		{
			name:    "unknown kind",
			offer:   Offer{Kind: "barter"},
			wantMsg: "unknown offer kind",
		},
		{
			name:    "existing_item without payload",
			offer:   Offer{Kind: OfferKindExistingItem},
			wantMsg: "existing_item is not set",
		},
		{
			name: "both variants populated",
			offer: Offer{
				Kind:         OfferKindExistingItem,
				ExistingItem: &ExistingItemOffer{ItemID: "item-1", Quantity: 1},
				Custom:       &CustomOffer{Name: "x", Description: "y"},
			},
			wantMsg: "exactly one variant",
		},
		{
			name: "existing_item without item id",
			offer: Offer{
				Kind:         OfferKindExistingItem,
				ExistingItem: &ExistingItemOffer{Quantity: 1},
			},
			wantMsg: "requires item_id",
		},
		{
			name: "existing_item zero quantity",
			offer: Offer{
				Kind:         OfferKindExistingItem,
				ExistingItem: &ExistingItemOffer{ItemID: "item-1"},
			},
			wantMsg: "quantity must be >= 1",
		},
		{
			name: "custom without name",
			offer: Offer{
				Kind:   OfferKindCustom,
				Custom: &CustomOffer{Description: "no name"},
			},
			wantMsg: "requires name",
		},
		{
			name: "custom without description",
			offer: Offer{
				Kind:   OfferKindCustom,
				Custom: &CustomOffer{Name: "no description"},
			},
			wantMsg: "requires description",
		},
		{
			name: "custom negative quantity",
			offer: Offer{
				Kind:   OfferKindCustom,
				Custom: &CustomOffer{Name: "x", Description: "y", Quantity: -3},
			},
			wantMsg: "quantity must be >= 1",
		},
		{
			name: "custom negative value",
			offer: Offer{
				Kind:   OfferKindCustom,
				Custom: &CustomOffer{Name: "x", Description: "y", Quantity: 1, EstimatedValue: -1},
			},
			wantMsg: "estimated_value must be >= 0",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.offer.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), c.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), c.wantMsg)
			}
		})
	}
}
