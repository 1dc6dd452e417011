package market

import (
	"math/big"
	"testing"
	"testing/quick"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tixmarket/gotix/internal/ledger"
)

var (
	collectionA = common.HexToAddress("0xe730be3C37E470B710b8C484AA32d308335796Bb")
	collectionB = common.HexToAddress("0x0A7D07f9ca664E3b2D21BceF53c7ec66E52B5036")
	accountX    = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func ownedTicket(collection common.Address, tokenID uint64) ledger.OwnedTicket {
	return ledger.OwnedTicket{
		TicketIdentity: ledger.TicketIdentity{Collection: collection, TokenID: tokenID},
		Owner:          accountX,
	}
}

func activeListing(id uint64, collection common.Address, tokenID uint64, priceWei int64) ledger.Listing {
	return ledger.Listing{
		ID:       id,
		Seller:   accountX,
		Ticket:   ledger.TicketIdentity{Collection: collection, TokenID: tokenID},
		PriceWei: big.NewInt(priceWei),
		Status:   ledger.ListingActive,
	}
}

func TestReconcilePartitions(t *testing.T) {
	owned := []ledger.OwnedTicket{
		ownedTicket(collectionA, 0),
		ownedTicket(collectionA, 7),
		ownedTicket(collectionB, 7), // same token id, different collection
	}
	active := []ledger.Listing{
		activeListing(3, collectionA, 7, 100),
	}

	inv := Reconcile(owned, active)

	require.Len(t, inv.Listed, 1)
	assert.Equal(t, uint64(3), inv.Listed[0].ID)
	require.Len(t, inv.Sellable, 2)
	for _, s := range inv.Sellable {
		assert.NotEqual(t, ledger.TicketIdentity{Collection: collectionA, TokenID: 7}, s.TicketIdentity)
	}
}

func TestReconcileEmptyListings(t *testing.T) {
	owned := []ledger.OwnedTicket{
		ownedTicket(collectionA, 1),
		ownedTicket(collectionA, 2),
	}

	inv := Reconcile(owned, nil)

	assert.Equal(t, owned, inv.Sellable)
	assert.Empty(t, inv.Listed)
}

func TestReconcileEmptyOwned(t *testing.T) {
	inv := Reconcile(nil, []ledger.Listing{activeListing(0, collectionA, 1, 5)})
	assert.Empty(t, inv.Sellable)
	assert.Empty(t, inv.Listed)
}

// For any owned set and any subset of it listed, sellable and listed
// partition the owned identities: disjoint, and together covering
// everything owned.
func TestReconcilePartitionProperty(t *testing.T) {
	property := func(tokenIDs []uint16, listedMask []bool, useB []bool) bool {
		var owned []ledger.OwnedTicket
		var active []ledger.Listing
		for i, id := range tokenIDs {
			col := collectionA
			if i < len(useB) && useB[i] {
				col = collectionB
			}
			owned = append(owned, ownedTicket(col, uint64(id)))
			if i < len(listedMask) && listedMask[i] {
				active = append(active, activeListing(uint64(i), col, uint64(id), 10))
			}
		}

		inv := Reconcile(owned, active)

		listed := make(map[ledger.TicketIdentity]bool)
		for _, l := range inv.Listed {
			listed[l.Ticket] = true
		}
		for _, s := range inv.Sellable {
			if listed[s.TicketIdentity] {
				return false // not disjoint
			}
		}

		covered := make(map[ledger.TicketIdentity]bool)
		for _, s := range inv.Sellable {
			covered[s.TicketIdentity] = true
		}
		for id := range listed {
			covered[id] = true
		}
		for _, o := range owned {
			if !covered[o.TicketIdentity] {
				return false // identity dropped
			}
		}
		return true
	}
	if err := quick.Check(property, nil); err != nil {
		t.Fatal(err)
	}
}

func TestListingPriceRange(t *testing.T) {
	eth := func(milli int64) *big.Int {
		return new(big.Int).Mul(big.NewInt(milli), big.NewInt(1e15))
	}

	t.Run("single value", func(t *testing.T) {
		r := ListingPriceRange([]ledger.Listing{
			{PriceWei: eth(50)},
			{PriceWei: eth(50)},
		})
		require.NotNil(t, r)
		assert.Equal(t, "0.050 ETH", r.Display())
	})

	t.Run("range", func(t *testing.T) {
		r := ListingPriceRange([]ledger.Listing{
			{PriceWei: eth(80)},
			{PriceWei: eth(30)},
		})
		require.NotNil(t, r)
		assert.Equal(t, "0.030 - 0.080 ETH", r.Display())
	})

	t.Run("no listings", func(t *testing.T) {
		r := ListingPriceRange(nil)
		assert.Nil(t, r)
		assert.Equal(t, "no listings", r.Display())
	})
}
