package ledger

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tixmarket/gotix/internal/chain"
)

var adapterLog = logrus.WithField("component", "ledger")

// defaultPollInterval is how often the adapter polls for a receipt
// while waiting for a submitted transaction to be mined.
const defaultPollInterval = 500 * time.Millisecond

// Client is the subset of ethclient the adapter relies on. Narrowed to
// an interface so tests can run against a fake node.
type Client interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// Adapter is the per-session ledger access layer. All reads are
// idempotent; all submits suspend until the transaction is mined or
// the context ends, and are never retried here.
type Adapter struct {
	client       Client
	signer       chain.Signer
	marketplace  common.Address
	chainID      *big.Int
	ticketABI    abi.ABI
	marketABI    abi.ABI
	pollInterval time.Duration
}

// NewAdapter dials the RPC endpoint and prepares the contract ABIs.
func NewAdapter(cfg *chain.Config, signer chain.Signer) (*Adapter, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial rpc %s", cfg.RPCURL)
	}
	return NewAdapterWithClient(client, cfg, signer)
}

// NewAdapterWithClient builds an adapter over an existing client.
func NewAdapterWithClient(client Client, cfg *chain.Config, signer chain.Signer) (*Adapter, error) {
	ticketABI, err := abi.JSON(strings.NewReader(EventTicketABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse event ticket abi")
	}
	marketABI, err := abi.JSON(strings.NewReader(TicketMarketplaceABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse marketplace abi")
	}
	return &Adapter{
		client:       client,
		signer:       signer,
		marketplace:  cfg.Marketplace,
		chainID:      new(big.Int).SetUint64(uint64(cfg.ChainID)),
		ticketABI:    ticketABI,
		marketABI:    marketABI,
		pollInterval: defaultPollInterval,
	}, nil
}

// Account returns the address the adapter signs with.
func (a *Adapter) Account() common.Address {
	return a.signer.Address()
}

// Marketplace returns the marketplace contract address.
func (a *Adapter) Marketplace() common.Address {
	return a.marketplace
}

func (a *Adapter) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, opErr(method, err)
	}
	result, err := a.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		if isNonexistentToken(err) {
			return nil, ErrNotFound
		}
		return nil, opErr(method, err)
	}
	vals, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, opErr(method, err)
	}
	return vals, nil
}

// OwnerOf reads the current owner of a token. Returns ErrNotFound for
// burned or never-minted ids.
func (a *Adapter) OwnerOf(ctx context.Context, collection common.Address, tokenID uint64) (common.Address, error) {
	vals, err := a.call(ctx, collection, a.ticketABI, "ownerOf", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return common.Address{}, err
	}
	return vals[0].(common.Address), nil
}

// TicketInfo reads the per-token metadata.
func (a *Adapter) TicketInfo(ctx context.Context, collection common.Address, tokenID uint64) (TicketInfo, error) {
	vals, err := a.call(ctx, collection, a.ticketABI, "getTicketInfo", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return TicketInfo{}, err
	}
	return TicketInfo{
		EventName:  vals[0].(string),
		EventDate:  vals[1].(string),
		SeatNumber: vals[2].(string),
		Owner:      vals[3].(common.Address),
	}, nil
}

// TotalSupply reads how many tokens a collection has issued. Token ids
// are contiguous from zero, so this bounds the ownership scan.
func (a *Adapter) TotalSupply(ctx context.Context, collection common.Address) (uint64, error) {
	vals, err := a.call(ctx, collection, a.ticketABI, "totalSupply")
	if err != nil {
		return 0, err
	}
	return vals[0].(*big.Int).Uint64(), nil
}

// EventDetails reads the collection-level event metadata.
func (a *Adapter) EventDetails(ctx context.Context, collection common.Address) (EventDetails, error) {
	var details EventDetails
	vals, err := a.call(ctx, collection, a.ticketABI, "eventName")
	if err != nil {
		return details, err
	}
	details.EventName = vals[0].(string)

	if vals, err = a.call(ctx, collection, a.ticketABI, "eventDate"); err != nil {
		return details, err
	}
	details.EventDate = vals[0].(string)

	if vals, err = a.call(ctx, collection, a.ticketABI, "ticketPrice"); err != nil {
		return details, err
	}
	details.TicketPriceWei = vals[0].(*big.Int)

	if vals, err = a.call(ctx, collection, a.ticketABI, "maxTickets"); err != nil {
		return details, err
	}
	details.MaxTickets = vals[0].(*big.Int).Uint64()

	if vals, err = a.call(ctx, collection, a.ticketABI, "totalSupply"); err != nil {
		return details, err
	}
	details.TotalSupply = vals[0].(*big.Int).Uint64()
	return details, nil
}

// Approved reads which address may transfer a token on the owner's
// behalf.
func (a *Adapter) Approved(ctx context.Context, collection common.Address, tokenID uint64) (common.Address, error) {
	vals, err := a.call(ctx, collection, a.ticketABI, "getApproved", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return common.Address{}, err
	}
	return vals[0].(common.Address), nil
}

// Listing reads one marketplace listing. Ids the counter has not
// reached yet come back as zeroed records; those map to ErrNotFound.
func (a *Adapter) Listing(ctx context.Context, listingID uint64) (Listing, error) {
	vals, err := a.call(ctx, a.marketplace, a.marketABI, "listings", new(big.Int).SetUint64(listingID))
	if err != nil {
		return Listing{}, err
	}
	seller := vals[0].(common.Address)
	if seller == (common.Address{}) {
		return Listing{}, ErrNotFound
	}
	return Listing{
		ID:     listingID,
		Seller: seller,
		Ticket: TicketIdentity{
			Collection: vals[1].(common.Address),
			TokenID:    vals[2].(*big.Int).Uint64(),
		},
		PriceWei: vals[3].(*big.Int),
		Status:   ListingStatus(vals[4].(uint8)),
	}, nil
}

// ListingCount reads the next listing id to be assigned, which bounds
// the listing scan.
func (a *Adapter) ListingCount(ctx context.Context) (uint64, error) {
	vals, err := a.call(ctx, a.marketplace, a.marketABI, "listingCounter")
	if err != nil {
		return 0, err
	}
	return vals[0].(*big.Int).Uint64(), nil
}

// SubmitApprove grants the marketplace a one-token transfer right.
// Re-approving an already approved token is a valid no-op on-chain.
func (a *Adapter) SubmitApprove(ctx context.Context, collection, spender common.Address, tokenID uint64) error {
	data, err := a.ticketABI.Pack("approve", spender, new(big.Int).SetUint64(tokenID))
	if err != nil {
		return opErr("approve", err)
	}
	_, err = a.submit(ctx, "approve", collection, data, nil)
	return err
}

// SubmitList creates a listing and returns the id the marketplace
// assigned, recovered from the TicketListed log of the mined
// transaction. When the log is absent the listing may still exist
// on-chain, so the error is ErrAmbiguousResult rather than a failure.
func (a *Adapter) SubmitList(ctx context.Context, collection common.Address, tokenID uint64, priceWei *big.Int) (uint64, error) {
	data, err := a.marketABI.Pack("listTicket", collection, new(big.Int).SetUint64(tokenID), priceWei)
	if err != nil {
		return 0, opErr("listTicket", err)
	}
	receipt, err := a.submit(ctx, "listTicket", a.marketplace, data, nil)
	if err != nil {
		return 0, err
	}

	listedTopic := a.marketABI.Events["TicketListed"].ID
	for _, entry := range receipt.Logs {
		if entry.Address != a.marketplace || len(entry.Topics) < 2 || entry.Topics[0] != listedTopic {
			continue
		}
		return new(big.Int).SetBytes(entry.Topics[1].Bytes()).Uint64(), nil
	}
	adapterLog.WithField("tx", receipt.TxHash.Hex()).Warn("listTicket mined without a TicketListed log")
	return 0, &Error{Op: "listTicket", Cause: ErrAmbiguousResult}
}

// SubmitBuy pays priceWei for a listing and waits for the transfer to
// confirm. The caller is responsible for reading the price fresh.
func (a *Adapter) SubmitBuy(ctx context.Context, listingID uint64, priceWei *big.Int) error {
	data, err := a.marketABI.Pack("buyTicket", new(big.Int).SetUint64(listingID))
	if err != nil {
		return opErr("buyTicket", err)
	}
	_, err = a.submit(ctx, "buyTicket", a.marketplace, data, priceWei)
	return err
}

// SubmitCancel withdraws a listing. Only the original seller succeeds;
// the marketplace enforces that.
func (a *Adapter) SubmitCancel(ctx context.Context, listingID uint64) error {
	data, err := a.marketABI.Pack("cancelListing", new(big.Int).SetUint64(listingID))
	if err != nil {
		return opErr("cancelListing", err)
	}
	_, err = a.submit(ctx, "cancelListing", a.marketplace, data, nil)
	return err
}

// submit runs the full transaction pipeline: nonce, gas, sign, send,
// wait for the receipt. Any failure surfaces with the raw cause
// attached; nothing is resubmitted.
func (a *Adapter) submit(ctx context.Context, op string, to common.Address, data []byte, value *big.Int) (*ethtypes.Receipt, error) {
	if value == nil {
		value = new(big.Int)
	}
	from := a.signer.Address()

	nonce, err := a.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, opErr(op, errors.Wrap(err, "fetch nonce"))
	}
	gasPrice, err := a.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, opErr(op, errors.Wrap(err, "suggest gas price"))
	}
	gasLimit, err := a.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Data:  data,
		Value: value,
	})
	if err != nil {
		// Estimation simulates the call, so contract-side rejections
		// (not approved, not active, wrong payment) surface here.
		return nil, opErr(op, err)
	}

	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := a.signer.SignTx(tx, a.chainID)
	if err != nil {
		return nil, opErr(op, err)
	}
	if err := a.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, opErr(op, err)
	}

	adapterLog.WithFields(logrus.Fields{
		"op": op,
		"tx": signedTx.Hash().Hex(),
	}).Info("transaction submitted, waiting for confirmation")

	receipt, err := a.waitMined(ctx, signedTx.Hash())
	if err != nil {
		return nil, opErr(op, err)
	}
	if receipt.Status == ethtypes.ReceiptStatusFailed {
		return nil, opErr(op, errors.Errorf("transaction %s reverted", receipt.TxHash.Hex()))
	}
	return receipt, nil
}

func (a *Adapter) waitMined(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := a.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			adapterLog.WithField("tx", txHash.Hex()).WithError(err).Warn("receipt poll failed")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
