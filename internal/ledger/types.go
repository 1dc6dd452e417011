// Package ledger is the access layer for the two on-chain surfaces:
// the per-event ticket collections (ERC-721) and the shared ticket
// marketplace. It translates contract calls into typed records and
// submits confirmed transactions; it never retries and never caches.
package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TicketIdentity is the composite key identifying one ticket across
// the whole system. Token ids are only unique within a collection, so
// every cross-aggregate join goes through this pair.
type TicketIdentity struct {
	Collection common.Address `json:"collection"`
	TokenID    uint64         `json:"tokenId"`
}

// OwnedTicket is one ticket held by an account, as read from its
// issuing collection.
type OwnedTicket struct {
	TicketIdentity
	EventName      string         `json:"eventName"`
	EventDate      string         `json:"eventDate"`
	SeatNumber     string         `json:"seatNumber"`
	CollectionName string         `json:"collectionName"`
	Owner          common.Address `json:"owner"`
}

// TicketInfo is the per-token metadata stored on the collection.
// Immutable once minted, except for Owner which tracks transfers.
type TicketInfo struct {
	EventName  string
	EventDate  string
	SeatNumber string
	Owner      common.Address
}

// EventDetails is the collection-level metadata of one event.
type EventDetails struct {
	EventName      string   `json:"eventName"`
	EventDate      string   `json:"eventDate"`
	TicketPriceWei *big.Int `json:"ticketPriceWei"`
	MaxTickets     uint64   `json:"maxTickets"`
	TotalSupply    uint64   `json:"totalSupply"`
}

// Available returns how many tickets the issuer can still mint.
func (d EventDetails) Available() uint64 {
	if d.TotalSupply >= d.MaxTickets {
		return 0
	}
	return d.MaxTickets - d.TotalSupply
}

// ListingStatus is the marketplace listing state. Active is the only
// non-terminal state; the contract never reuses a listing id and never
// leaves Sold or Cancelled.
type ListingStatus uint8

const (
	ListingActive ListingStatus = iota
	ListingSold
	ListingCancelled
)

func (s ListingStatus) String() string {
	switch s {
	case ListingActive:
		return "active"
	case ListingSold:
		return "sold"
	case ListingCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText makes the status render as its name in JSON responses.
func (s ListingStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *ListingStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "active":
		*s = ListingActive
	case "sold":
		*s = ListingSold
	case "cancelled":
		*s = ListingCancelled
	default:
		return fmt.Errorf("unknown listing status %q", text)
	}
	return nil
}

// Listing is one marketplace record offering a ticket at a fixed
// price.
type Listing struct {
	ID       uint64         `json:"id"`
	Seller   common.Address `json:"seller"`
	Ticket   TicketIdentity `json:"ticket"`
	PriceWei *big.Int       `json:"priceWei"`
	Status   ListingStatus  `json:"status"`
}

// Active reports whether the listing can still be bought or cancelled.
func (l Listing) Active() bool {
	return l.Status == ListingActive
}
