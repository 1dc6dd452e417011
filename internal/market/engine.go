// Package market is the reconciliation and listing-lifecycle engine.
// It aggregates ticket ownership across the configured collections,
// aggregates marketplace listings, reconciles the two into a
// consistent view, and drives the sell/buy/cancel flows. The engine
// itself is stateless; every view it hands out is a snapshot of the
// ledger and must be recomputed after any mutating operation.
package market

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/tixmarket/gotix/internal/chain"
	"github.com/tixmarket/gotix/internal/ledger"
	"github.com/tixmarket/gotix/pkg/cache"
)

// Ledger is what the engine needs from the ledger access layer.
// Implemented by ledger.Adapter; tests substitute a mock.
type Ledger interface {
	OwnerOf(ctx context.Context, collection common.Address, tokenID uint64) (common.Address, error)
	TicketInfo(ctx context.Context, collection common.Address, tokenID uint64) (ledger.TicketInfo, error)
	TotalSupply(ctx context.Context, collection common.Address) (uint64, error)
	EventDetails(ctx context.Context, collection common.Address) (ledger.EventDetails, error)
	Approved(ctx context.Context, collection common.Address, tokenID uint64) (common.Address, error)
	Listing(ctx context.Context, listingID uint64) (ledger.Listing, error)
	ListingCount(ctx context.Context) (uint64, error)

	SubmitApprove(ctx context.Context, collection, spender common.Address, tokenID uint64) error
	SubmitList(ctx context.Context, collection common.Address, tokenID uint64, priceWei *big.Int) (uint64, error)
	SubmitBuy(ctx context.Context, listingID uint64, priceWei *big.Int) error
	SubmitCancel(ctx context.Context, listingID uint64) error
}

// metaTTL bounds how long immutable ticket metadata is reused between
// scans. Ownership and listings are never cached.
const metaTTL = 10 * time.Minute

// Engine ties one connected account to one chain configuration.
type Engine struct {
	ledger  Ledger
	cfg     *chain.Config
	account common.Address
	meta    *cache.InMemoryCache[ledger.TicketIdentity, ledger.TicketInfo]
	log     *logrus.Entry

	// submitMu serializes mutating operations: one signer, one nonce
	// stream. Reads are not held up by an in-flight submit.
	submitMu sync.Mutex
}

// NewEngine builds an engine for the given session account. The
// configuration is taken as-is and never mutated; reconfiguring means
// constructing a new engine.
func NewEngine(l Ledger, cfg *chain.Config, account common.Address) *Engine {
	return &Engine{
		ledger:  l,
		cfg:     cfg,
		account: account,
		meta:    cache.NewInMemoryCache[ledger.TicketIdentity, ledger.TicketInfo](metaTTL),
		log: logrus.WithFields(logrus.Fields{
			"component": "engine",
			"chain":     cfg.ChainID.String(),
		}),
	}
}

// Account returns the session account the engine acts as.
func (e *Engine) Account() common.Address {
	return e.account
}

// Config returns the injected chain configuration.
func (e *Engine) Config() *chain.Config {
	return e.cfg
}

// Ledger exposes the underlying access layer for read-through
// callers, the single-listing and event-detail endpoints mostly.
func (e *Engine) Ledger() Ledger {
	return e.ledger
}

// ticketMeta reads per-token metadata through the metadata cache. The
// cached Owner field is stale by design; callers take ownership from
// the scan, not from here.
func (e *Engine) ticketMeta(ctx context.Context, id ledger.TicketIdentity) (ledger.TicketInfo, error) {
	if info, ok := e.meta.Get(id); ok {
		return info, nil
	}
	info, err := e.ledger.TicketInfo(ctx, id.Collection, id.TokenID)
	if err != nil {
		return ledger.TicketInfo{}, err
	}
	e.meta.Set(id, info, 0)
	return info, nil
}
