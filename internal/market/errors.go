package market

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/tixmarket/gotix/internal/ledger"
)

var (
	// ErrStaleListing marks a buy or cancel against a listing that is
	// no longer active. The cached view that suggested the operation
	// was stale; re-aggregate and try again.
	ErrStaleListing = errors.New("listing is no longer active")

	// ErrSelfTrade marks an attempt to buy one's own listing. Rejected
	// locally; no transaction is submitted.
	ErrSelfTrade = errors.New("cannot buy your own listing")

	// ErrUnauthorized marks an operation the ledger's authorization
	// rules reject: listing before the marketplace was approved, or
	// cancelling someone else's listing.
	ErrUnauthorized = errors.New("operation not authorized")
)

// ErrorKind is the stable failure taxonomy surfaced to the
// presentation layer.
type ErrorKind string

const (
	KindUserRejected      ErrorKind = "user_rejected"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindStaleListing      ErrorKind = "stale_listing"
	KindSelfTrade         ErrorKind = "self_trade"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindAmbiguousResult   ErrorKind = "ambiguous_result"
	KindNetwork           ErrorKind = "network"
	KindUnknownLedger     ErrorKind = "unknown_ledger"
)

// Classify maps a raw failure onto the taxonomy. Engine sentinels are
// matched first, then best-effort string matching over the raw cause;
// anything unrecognized falls through to KindUnknownLedger so the
// original message is never dropped.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStaleListing):
		return KindStaleListing
	case errors.Is(err, ErrSelfTrade):
		return KindSelfTrade
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ledger.ErrAmbiguousResult):
		return KindAmbiguousResult
	}

	// An abandoned signing prompt surfaces as a cancelled context.
	if errors.Is(err, context.Canceled) {
		return KindUserRejected
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user rejected"),
		strings.Contains(msg, "user denied"),
		strings.Contains(msg, "request rejected"):
		return KindUserRejected
	case strings.Contains(msg, "insufficient funds"),
		strings.Contains(msg, "insufficient balance"):
		return KindInsufficientFunds
	case strings.Contains(msg, "not approved"),
		strings.Contains(msg, "not authorized"),
		strings.Contains(msg, "caller is not owner"),
		strings.Contains(msg, "only seller"):
		return KindUnauthorized
	case strings.Contains(msg, "not active"),
		strings.Contains(msg, "already sold"),
		strings.Contains(msg, "already cancelled"):
		return KindStaleListing
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "i/o timeout"),
		strings.Contains(msg, "context deadline exceeded"):
		return KindNetwork
	}
	return KindUnknownLedger
}
