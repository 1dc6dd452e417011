package market

import (
	"math/big"

	"github.com/tixmarket/gotix/internal/ledger"
)

// Inventory is the reconciled snapshot of one account: tickets free to
// list for sale, and tickets already covered by an active listing.
// The two slices partition the owned set; an identity never appears in
// both.
type Inventory struct {
	Sellable []ledger.OwnedTicket `json:"sellable"`
	Listed   []ledger.Listing     `json:"listed"`
}

// Reconcile partitions owned tickets against the account's active
// listings. A ticket with an active listing for the same identity is
// listed, never sellable; everything else owned is sellable. Pure and
// deterministic: no ledger access, order of inputs does not matter.
// Duplicate identities in activeBySeller collapse to one listing (the
// ledger guarantees at most one active listing per identity; inputs
// violating that do not corrupt the partition).
func Reconcile(owned []ledger.OwnedTicket, activeBySeller []ledger.Listing) Inventory {
	byIdentity := make(map[ledger.TicketIdentity]ledger.Listing, len(activeBySeller))
	for _, l := range activeBySeller {
		if _, dup := byIdentity[l.Ticket]; !dup {
			byIdentity[l.Ticket] = l
		}
	}

	inv := Inventory{
		Sellable: make([]ledger.OwnedTicket, 0, len(owned)),
		Listed:   make([]ledger.Listing, 0, len(byIdentity)),
	}
	seen := make(map[ledger.TicketIdentity]bool, len(owned))
	for _, t := range owned {
		if seen[t.TicketIdentity] {
			continue
		}
		seen[t.TicketIdentity] = true
		if l, ok := byIdentity[t.TicketIdentity]; ok {
			inv.Listed = append(inv.Listed, l)
		} else {
			inv.Sellable = append(inv.Sellable, t)
		}
	}
	return inv
}

// PriceRange is the min/max of a non-empty group of listing prices.
// "No listings" is represented by a nil *PriceRange, a distinct
// display state, not a zero range.
type PriceRange struct {
	MinWei *big.Int `json:"minWei"`
	MaxWei *big.Int `json:"maxWei"`
}

// ListingPriceRange reduces a group of listings to its price range.
// Returns nil for an empty group.
func ListingPriceRange(listings []ledger.Listing) *PriceRange {
	var r *PriceRange
	for _, l := range listings {
		if l.PriceWei == nil {
			continue
		}
		if r == nil {
			r = &PriceRange{
				MinWei: new(big.Int).Set(l.PriceWei),
				MaxWei: new(big.Int).Set(l.PriceWei),
			}
			continue
		}
		if l.PriceWei.Cmp(r.MinWei) < 0 {
			r.MinWei.Set(l.PriceWei)
		}
		if l.PriceWei.Cmp(r.MaxWei) > 0 {
			r.MaxWei.Set(l.PriceWei)
		}
	}
	return r
}

// Display renders the range for the event page: a single value when
// min and max coincide, otherwise "min - max".
func (r *PriceRange) Display() string {
	if r == nil {
		return "no listings"
	}
	if r.MinWei.Cmp(r.MaxWei) == 0 {
		return FormatPrice(r.MinWei)
	}
	return formatEth(r.MinWei) + " - " + FormatPrice(r.MaxWei)
}
