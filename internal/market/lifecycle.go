package market

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// The listing lifecycle: Active -> Sold (buy) or Active -> Cancelled
// (cancel), both terminal. The ledger serializes the transitions; this
// layer re-reads before acting, rejects what it can locally, and never
// mutates any view model ahead of confirmation. None of these
// operations are retried here: they move funds.

// AuthorizeTransfer is phase one of the sell flow. It grants the
// marketplace a one-token transfer right. Idempotent: if the
// marketplace already holds the approval, no transaction is submitted,
// and re-approving on-chain is valid anyway.
func (e *Engine) AuthorizeTransfer(ctx context.Context, collection common.Address, tokenID uint64) error {
	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	approved, err := e.ledger.Approved(ctx, collection, tokenID)
	if err == nil && approved == e.cfg.Marketplace {
		e.log.WithFields(logrus.Fields{
			"collection": collection.Hex(),
			"tokenId":    tokenID,
		}).Debug("marketplace already approved, skipping submit")
		return nil
	}
	// A failed approval read is not fatal: the submit settles it.
	return e.ledger.SubmitApprove(ctx, collection, e.cfg.Marketplace, tokenID)
}

// CreateListing is phase two of the sell flow. The ledger rejects it
// if AuthorizeTransfer was never confirmed. On success it returns the
// marketplace-assigned listing id; when the transaction confirmed but
// the id could not be recovered from its logs, the error is
// ledger.ErrAmbiguousResult and the listing must be assumed to
// possibly exist.
func (e *Engine) CreateListing(ctx context.Context, collection common.Address, tokenID uint64, priceWei *big.Int) (uint64, error) {
	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	listingID, err := e.ledger.SubmitList(ctx, collection, tokenID, priceWei)
	if err != nil {
		return 0, err
	}
	e.log.WithFields(logrus.Fields{
		"collection": collection.Hex(),
		"tokenId":    tokenID,
		"listingId":  listingID,
		"price":      FormatPrice(priceWei),
	}).Info("listing created")
	return listingID, nil
}

// BuyListing pays for a listing and waits for the transfer. The price
// is taken from a fresh read, never from a cached view: the view may
// be stale. A non-active listing fails with ErrStaleListing; buying
// from oneself fails with ErrSelfTrade before anything is submitted.
func (e *Engine) BuyListing(ctx context.Context, listingID uint64) error {
	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	l, err := e.ledger.Listing(ctx, listingID)
	if err != nil {
		return err
	}
	if !l.Active() {
		return ErrStaleListing
	}
	if l.Seller == e.account {
		return ErrSelfTrade
	}
	if err := e.ledger.SubmitBuy(ctx, listingID, l.PriceWei); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{
		"listingId": listingID,
		"price":     FormatPrice(l.PriceWei),
		"seller":    FormatAddress(l.Seller),
	}).Info("listing bought")
	return nil
}

// CancelListing withdraws the session account's own listing. The
// ledger enforces the seller check too; rejecting locally just saves
// the gas. Callers must re-aggregate after success: cancellation moves
// the identity from listed back to sellable.
func (e *Engine) CancelListing(ctx context.Context, listingID uint64) error {
	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	l, err := e.ledger.Listing(ctx, listingID)
	if err != nil {
		return err
	}
	if !l.Active() {
		return ErrStaleListing
	}
	if l.Seller != e.account {
		return ErrUnauthorized
	}
	if err := e.ledger.SubmitCancel(ctx, listingID); err != nil {
		return err
	}
	e.log.WithField("listingId", listingID).Info("listing cancelled")
	return nil
}
