package market

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tixmarket/gotix/internal/ledger"
)

// MockLedger is an in-memory Ledger for tests. It models the contract
// rules the engine depends on: sequential listing ids, terminal
// statuses, approval-gated listing, exact payment, ownership transfer
// on sale. Call counts and per-method error injection follow the same
// shape as the other mock clients in this codebase.
type MockLedger struct {
	mu sync.Mutex

	// Chain state
	Marketplace common.Address
	Sender      common.Address // account transactions are signed as
	Supplies    map[common.Address]uint64
	Owners      map[ledger.TicketIdentity]common.Address
	Infos       map[ledger.TicketIdentity]ledger.TicketInfo
	Details     map[common.Address]ledger.EventDetails
	Approvals   map[ledger.TicketIdentity]common.Address
	Listings    []ledger.Listing

	// LoseListedLog simulates a mined listTicket whose TicketListed
	// log cannot be recovered.
	LoseListedLog bool

	// Call tracking
	Calls map[string]int

	// Error injection
	ErrorOnNext map[string]error
}

// NewMockLedger creates an empty mock ledger.
func NewMockLedger() *MockLedger {
	return &MockLedger{
		Supplies:    make(map[common.Address]uint64),
		Owners:      make(map[ledger.TicketIdentity]common.Address),
		Infos:       make(map[ledger.TicketIdentity]ledger.TicketInfo),
		Details:     make(map[common.Address]ledger.EventDetails),
		Approvals:   make(map[ledger.TicketIdentity]common.Address),
		Calls:       make(map[string]int),
		ErrorOnNext: make(map[string]error),
	}
}

// Mint seeds a ticket with an owner and metadata, growing the
// collection's supply to cover the token id.
func (m *MockLedger) Mint(collection common.Address, tokenID uint64, owner common.Address, info ledger.TicketInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := ledger.TicketIdentity{Collection: collection, TokenID: tokenID}
	info.Owner = owner
	m.Owners[id] = owner
	m.Infos[id] = info
	if m.Supplies[collection] <= tokenID {
		m.Supplies[collection] = tokenID + 1
	}
}

// Burn removes a token, leaving a gap in the id space.
func (m *MockLedger) Burn(collection common.Address, tokenID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := ledger.TicketIdentity{Collection: collection, TokenID: tokenID}
	delete(m.Owners, id)
	delete(m.Infos, id)
}

// CallCount returns how many times a method was invoked.
func (m *MockLedger) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[name]
}

func (m *MockLedger) trackCall(name string) error {
	m.Calls[name]++
	if err, ok := m.ErrorOnNext[name]; ok {
		delete(m.ErrorOnNext, name)
		return err
	}
	return nil
}

func (m *MockLedger) OwnerOf(_ context.Context, collection common.Address, tokenID uint64) (common.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.trackCall("OwnerOf"); err != nil {
		return common.Address{}, err
	}
	owner, ok := m.Owners[ledger.TicketIdentity{Collection: collection, TokenID: tokenID}]
	if !ok {
		return common.Address{}, ledger.ErrNotFound
	}
	return owner, nil
}

func (m *MockLedger) TicketInfo(_ context.Context, collection common.Address, tokenID uint64) (ledger.TicketInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.trackCall("TicketInfo"); err != nil {
		return ledger.TicketInfo{}, err
	}
	info, ok := m.Infos[ledger.TicketIdentity{Collection: collection, TokenID: tokenID}]
	if !ok {
		return ledger.TicketInfo{}, ledger.ErrNotFound
	}
	return info, nil
}

func (m *MockLedger) TotalSupply(_ context.Context, collection common.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.trackCall("TotalSupply"); err != nil {
		return 0, err
	}
	return m.Supplies[collection], nil
}

func (m *MockLedger) EventDetails(_ context.Context, collection common.Address) (ledger.EventDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.trackCall("EventDetails"); err != nil {
		return ledger.EventDetails{}, err
	}
	d, ok := m.Details[collection]
	if !ok {
		return ledger.EventDetails{}, ledger.ErrNotFound
	}
	d.TotalSupply = m.Supplies[collection]
	return d, nil
}

func (m *MockLedger) Approved(_ context.Context, collection common.Address, tokenID uint64) (common.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.trackCall("Approved"); err != nil {
		return common.Address{}, err
	}
	return m.Approvals[ledger.TicketIdentity{Collection: collection, TokenID: tokenID}], nil
}

func (m *MockLedger) Listing(_ context.Context, listingID uint64) (ledger.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.trackCall("Listing"); err != nil {
		return ledger.Listing{}, err
	}
	if listingID >= uint64(len(m.Listings)) {
		return ledger.Listing{}, ledger.ErrNotFound
	}
	return m.Listings[listingID], nil
}

func (m *MockLedger) ListingCount(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.trackCall("ListingCount"); err != nil {
		return 0, err
	}
	return uint64(len(m.Listings)), nil
}

func (m *MockLedger) SubmitApprove(_ context.Context, collection, spender common.Address, tokenID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.trackCall("SubmitApprove"); err != nil {
		return err
	}
	id := ledger.TicketIdentity{Collection: collection, TokenID: tokenID}
	if m.Owners[id] != m.Sender {
		return fmt.Errorf("approve: caller is not owner of token %d", tokenID)
	}
	m.Approvals[id] = spender
	return nil
}

func (m *MockLedger) SubmitList(_ context.Context, collection common.Address, tokenID uint64, priceWei *big.Int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.trackCall("SubmitList"); err != nil {
		return 0, err
	}
	id := ledger.TicketIdentity{Collection: collection, TokenID: tokenID}
	owner, ok := m.Owners[id]
	if !ok {
		return 0, fmt.Errorf("listTicket: nonexistent token %d", tokenID)
	}
	if owner != m.Sender {
		return 0, fmt.Errorf("listTicket: caller is not owner of token %d", tokenID)
	}
	if m.Approvals[id] != m.Marketplace {
		return 0, fmt.Errorf("listTicket: marketplace not approved for token %d", tokenID)
	}

	listingID := uint64(len(m.Listings))
	m.Listings = append(m.Listings, ledger.Listing{
		ID:       listingID,
		Seller:   m.Sender,
		Ticket:   id,
		PriceWei: new(big.Int).Set(priceWei),
		Status:   ledger.ListingActive,
	})
	if m.LoseListedLog {
		return 0, &ledger.Error{Op: "listTicket", Cause: ledger.ErrAmbiguousResult}
	}
	return listingID, nil
}

func (m *MockLedger) SubmitBuy(_ context.Context, listingID uint64, priceWei *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.trackCall("SubmitBuy"); err != nil {
		return err
	}
	if listingID >= uint64(len(m.Listings)) {
		return fmt.Errorf("buyTicket: nonexistent listing %d", listingID)
	}
	l := &m.Listings[listingID]
	if !l.Active() {
		return fmt.Errorf("buyTicket: listing %d not active", listingID)
	}
	if priceWei == nil || l.PriceWei.Cmp(priceWei) != 0 {
		return fmt.Errorf("buyTicket: incorrect payment for listing %d", listingID)
	}
	l.Status = ledger.ListingSold
	m.Owners[l.Ticket] = m.Sender
	if info, ok := m.Infos[l.Ticket]; ok {
		info.Owner = m.Sender
		m.Infos[l.Ticket] = info
	}
	return nil
}

func (m *MockLedger) SubmitCancel(_ context.Context, listingID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.trackCall("SubmitCancel"); err != nil {
		return err
	}
	if listingID >= uint64(len(m.Listings)) {
		return fmt.Errorf("cancelListing: nonexistent listing %d", listingID)
	}
	l := &m.Listings[listingID]
	if !l.Active() {
		return fmt.Errorf("cancelListing: listing %d not active", listingID)
	}
	if l.Seller != m.Sender {
		return fmt.Errorf("cancelListing: only seller can cancel listing %d", listingID)
	}
	l.Status = ledger.ListingCancelled
	return nil
}
