package market

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tixmarket/gotix/internal/ledger"
)

func TestAggregateOwnedSkipsBurnedTokens(t *testing.T) {
	mock := NewMockLedger()
	eng := newTestEngine(mock, accountX)

	mock.Mint(collectionA, 0, accountX, ledger.TicketInfo{EventName: "Gig", SeatNumber: "A1"})
	mock.Mint(collectionA, 1, accountX, ledger.TicketInfo{EventName: "Gig", SeatNumber: "A2"})
	mock.Mint(collectionA, 2, accountX, ledger.TicketInfo{EventName: "Gig", SeatNumber: "A3"})
	mock.Burn(collectionA, 1)

	owned, err := eng.AggregateOwned(context.Background(), accountX)
	require.NoError(t, err)
	require.Len(t, owned, 2)

	ids := map[uint64]bool{}
	for _, tkt := range owned {
		ids[tkt.TokenID] = true
		assert.Equal(t, "Collection A", tkt.CollectionName)
	}
	assert.True(t, ids[0])
	assert.True(t, ids[2])
}

func TestAggregateOwnedFiltersByOwner(t *testing.T) {
	other := common.HexToAddress("0x3333333333333333333333333333333333333333")
	mock := NewMockLedger()
	eng := newTestEngine(mock, accountX)

	mock.Mint(collectionA, 0, accountX, ledger.TicketInfo{})
	mock.Mint(collectionA, 1, other, ledger.TicketInfo{})
	mock.Mint(collectionB, 0, accountX, ledger.TicketInfo{})

	owned, err := eng.AggregateOwned(context.Background(), accountX)
	require.NoError(t, err)
	assert.Len(t, owned, 2)
	for _, tkt := range owned {
		assert.Equal(t, accountX, tkt.Owner)
	}
}

func TestAggregateListingsFilters(t *testing.T) {
	accountY := common.HexToAddress("0x2222222222222222222222222222222222222222")
	mock := NewMockLedger()
	eng := newTestEngine(mock, accountX)

	mock.Listings = []ledger.Listing{
		{ID: 0, Seller: accountX, Ticket: ledger.TicketIdentity{Collection: collectionA, TokenID: 0}, PriceWei: big.NewInt(1), Status: ledger.ListingActive},
		{ID: 1, Seller: accountX, Ticket: ledger.TicketIdentity{Collection: collectionB, TokenID: 1}, PriceWei: big.NewInt(2), Status: ledger.ListingSold},
		{ID: 2, Seller: accountY, Ticket: ledger.TicketIdentity{Collection: collectionA, TokenID: 2}, PriceWei: big.NewInt(3), Status: ledger.ListingActive},
	}

	all, err := eng.AggregateListings(context.Background(), ListingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	sellerAll, err := eng.SellerListings(context.Background(), accountX)
	require.NoError(t, err)
	assert.Len(t, sellerAll, 2, "seller history includes terminal listings")

	sellerActive, err := eng.ActiveSellerListings(context.Background(), accountX)
	require.NoError(t, err)
	require.Len(t, sellerActive, 1)
	assert.Equal(t, uint64(0), sellerActive[0].ID)

	byCollection, err := eng.AggregateListings(context.Background(), ListingFilter{Collection: &collectionA, ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, byCollection, 2)
}

func TestEventListingsEnrichment(t *testing.T) {
	mock := NewMockLedger()
	eng := newTestEngine(mock, accountX)

	mock.Mint(collectionA, 4, accountX, ledger.TicketInfo{EventName: "Gig", EventDate: "2026-09-01", SeatNumber: "B12"})
	mock.Listings = []ledger.Listing{
		{ID: 0, Seller: accountX, Ticket: ledger.TicketIdentity{Collection: collectionA, TokenID: 4}, PriceWei: big.NewInt(7), Status: ledger.ListingActive},
	}

	listings, err := eng.EventListings(context.Background(), collectionA)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Gig", listings[0].EventName)
	assert.Equal(t, "B12", listings[0].SeatNumber)
}

// Full sell/buy round trip: a sellable ticket becomes listed, then
// sold, and re-aggregation reflects each step.
func TestListBuyRoundTrip(t *testing.T) {
	accountY := common.HexToAddress("0x2222222222222222222222222222222222222222")
	ctx := context.Background()

	mock := NewMockLedger()
	sellerEng := newTestEngine(mock, accountX)
	mock.Mint(collectionA, 7, accountX, ledger.TicketInfo{EventName: "Gig"})

	identity := ledger.TicketIdentity{Collection: collectionA, TokenID: 7}

	inv, err := sellerEng.Inventory(ctx, accountX)
	require.NoError(t, err)
	require.Len(t, inv.Sellable, 1)
	assert.Equal(t, identity, inv.Sellable[0].TicketIdentity)
	assert.Empty(t, inv.Listed)

	price, err := ParsePrice("0.1")
	require.NoError(t, err)
	require.NoError(t, sellerEng.AuthorizeTransfer(ctx, collectionA, 7))
	listingID, err := sellerEng.CreateListing(ctx, collectionA, 7, price)
	require.NoError(t, err)

	inv, err = sellerEng.Inventory(ctx, accountX)
	require.NoError(t, err)
	assert.Empty(t, inv.Sellable)
	require.Len(t, inv.Listed, 1)
	assert.Equal(t, listingID, inv.Listed[0].ID)
	assert.Equal(t, ledger.ListingActive, inv.Listed[0].Status)
	assert.Zero(t, inv.Listed[0].PriceWei.Cmp(price))

	// Another account buys at the listed price.
	mock.Sender = accountY
	buyerEng := NewEngine(mock, testConfig(), accountY)
	require.NoError(t, buyerEng.BuyListing(ctx, listingID))

	l, err := mock.Listing(ctx, listingID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ListingSold, l.Status)
	owner, err := mock.OwnerOf(ctx, collectionA, 7)
	require.NoError(t, err)
	assert.Equal(t, accountY, owner)

	// The seller no longer owns or lists the ticket.
	inv, err = sellerEng.Inventory(ctx, accountX)
	require.NoError(t, err)
	assert.Empty(t, inv.Sellable)
	assert.Empty(t, inv.Listed)

	// The buyer now holds it as sellable.
	inv, err = buyerEng.Inventory(ctx, accountY)
	require.NoError(t, err)
	require.Len(t, inv.Sellable, 1)
	assert.Equal(t, identity, inv.Sellable[0].TicketIdentity)
}
