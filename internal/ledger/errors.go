package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a read for a token or listing the ledger has no
	// record of (burned, never minted, never assigned). Aggregation
	// scans treat it as "skip and continue", never as a hard failure.
	ErrNotFound = errors.New("not found on ledger")

	// ErrAmbiguousResult marks a listing transaction that was mined but
	// whose TicketListed log could not be recovered. The listing most
	// likely exists on-chain; callers must not report it as a failure
	// and must not guess an id.
	ErrAmbiguousResult = errors.New("transaction confirmed but listing id not recovered")
)

// Error wraps a raw ledger or signing failure with the operation that
// produced it. The raw cause is preserved for the error classifier.
type Error struct {
	Op    string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger: %s: %v", e.Op, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func opErr(op string, cause error) error {
	return &Error{Op: op, Cause: cause}
}

// isNonexistentToken recognizes the reverts ERC-721 collections and
// the marketplace produce for ids that have no record. Everything else
// (connectivity, rate limits) stays a real error so callers can tell
// transient trouble from a genuine gap in the id space.
func isNonexistentToken(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "nonexistent token") ||
		strings.Contains(msg, "invalid token id")
}
