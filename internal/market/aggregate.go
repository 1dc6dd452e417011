package market

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tixmarket/gotix/internal/ledger"
	"github.com/tixmarket/gotix/pkg/scan"
)

// AggregateOwned walks every configured collection and returns the
// tickets currently owned by owner. Collections are scanned in
// parallel, token ids within a collection in bounded batches. A failed
// or missing read for one token never aborts the aggregation: burned
// and not-yet-minted ids are expected, and transient failures are
// logged and skipped so one flaky read cannot hide the rest of the
// inventory. Result order is not guaranteed.
func (e *Engine) AggregateOwned(ctx context.Context, owner common.Address) ([]ledger.OwnedTicket, error) {
	var (
		mu  sync.Mutex
		out []ledger.OwnedTicket
	)

	collections := e.cfg.Collections
	err := scan.Each(ctx, uint64(len(collections)), scan.Options{Concurrency: len(collections)}, func(ctx context.Context, ci uint64) {
		col := collections[ci]
		colLog := e.log.WithField("collection", col.DisplayName)

		supply, err := e.ledger.TotalSupply(ctx, col.Address)
		if err != nil {
			colLog.WithError(err).Warn("total supply read failed, skipping collection")
			return
		}

		_ = scan.Each(ctx, supply, scan.Options{
			Concurrency: e.cfg.ScanConcurrency,
			Max:         e.cfg.MaxScanPerCollection,
		}, func(ctx context.Context, tokenID uint64) {
			holder, err := e.ledger.OwnerOf(ctx, col.Address, tokenID)
			if err != nil {
				if !errors.Is(err, ledger.ErrNotFound) {
					colLog.WithField("tokenId", tokenID).WithError(err).Warn("owner read failed, skipping token")
				}
				return
			}
			if holder != owner {
				return
			}

			id := ledger.TicketIdentity{Collection: col.Address, TokenID: tokenID}
			info, err := e.ticketMeta(ctx, id)
			if err != nil {
				colLog.WithField("tokenId", tokenID).WithError(err).Warn("metadata read failed, skipping token")
				return
			}

			mu.Lock()
			out = append(out, ledger.OwnedTicket{
				TicketIdentity: id,
				EventName:      info.EventName,
				EventDate:      info.EventDate,
				SeatNumber:     info.SeatNumber,
				CollectionName: col.DisplayName,
				Owner:          holder,
			})
			mu.Unlock()
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListingFilter selects a slice of the listing ledger. Nil fields
// match everything.
type ListingFilter struct {
	Collection *common.Address
	Seller     *common.Address
	ActiveOnly bool
}

func (f ListingFilter) match(l ledger.Listing) bool {
	if f.ActiveOnly && !l.Active() {
		return false
	}
	if f.Collection != nil && l.Ticket.Collection != *f.Collection {
		return false
	}
	if f.Seller != nil && l.Seller != *f.Seller {
		return false
	}
	return true
}

// AggregateListings walks the marketplace listing ledger and returns
// the listings matching the filter. Individual read failures are
// skipped, same policy as the ownership scan.
func (e *Engine) AggregateListings(ctx context.Context, filter ListingFilter) ([]ledger.Listing, error) {
	count, err := e.ledger.ListingCount(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu  sync.Mutex
		out []ledger.Listing
	)
	err = scan.Each(ctx, count, scan.Options{Concurrency: e.cfg.ScanConcurrency}, func(ctx context.Context, id uint64) {
		l, err := e.ledger.Listing(ctx, id)
		if err != nil {
			if !errors.Is(err, ledger.ErrNotFound) {
				e.log.WithField("listingId", id).WithError(err).Warn("listing read failed, skipping")
			}
			return
		}
		if !filter.match(l) {
			return
		}
		mu.Lock()
		out = append(out, l)
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EventListing is an active listing enriched with the metadata of the
// ticket it offers, for event pages.
type EventListing struct {
	ledger.Listing
	EventName  string `json:"eventName"`
	EventDate  string `json:"eventDate"`
	SeatNumber string `json:"seatNumber"`
}

// EventListings returns the active listings for one collection,
// enriched with per-ticket metadata. A listing whose metadata read
// fails is returned unenriched rather than dropped.
func (e *Engine) EventListings(ctx context.Context, collection common.Address) ([]EventListing, error) {
	listings, err := e.AggregateListings(ctx, ListingFilter{Collection: &collection, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	out := make([]EventListing, 0, len(listings))
	for _, l := range listings {
		el := EventListing{Listing: l}
		if info, err := e.ticketMeta(ctx, l.Ticket); err == nil {
			el.EventName = info.EventName
			el.EventDate = info.EventDate
			el.SeatNumber = info.SeatNumber
		} else {
			e.log.WithField("listingId", l.ID).WithError(err).Warn("listing metadata read failed")
		}
		out = append(out, el)
	}
	return out, nil
}

// SellerListings returns every listing a seller has ever created,
// regardless of status, for historical counts.
func (e *Engine) SellerListings(ctx context.Context, seller common.Address) ([]ledger.Listing, error) {
	return e.AggregateListings(ctx, ListingFilter{Seller: &seller})
}

// ActiveSellerListings returns the seller's currently active listings,
// the input the reconciler needs.
func (e *Engine) ActiveSellerListings(ctx context.Context, seller common.Address) ([]ledger.Listing, error) {
	return e.AggregateListings(ctx, ListingFilter{Seller: &seller, ActiveOnly: true})
}

// Inventory aggregates ownership and active listings for owner and
// reconciles them into the sellable/listed partition.
func (e *Engine) Inventory(ctx context.Context, owner common.Address) (Inventory, error) {
	owned, err := e.AggregateOwned(ctx, owner)
	if err != nil {
		return Inventory{}, err
	}
	active, err := e.ActiveSellerListings(ctx, owner)
	if err != nil {
		return Inventory{}, err
	}
	return Reconcile(owned, active), nil
}
