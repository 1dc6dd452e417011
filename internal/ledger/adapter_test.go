package ledger

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tixmarket/gotix/internal/chain"
)

// Hardhat dev account #0, a throwaway key.
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	testCollection  = common.HexToAddress("0xe730be3C37E470B710b8C484AA32d308335796Bb")
	testMarketplace = common.HexToAddress("0x0517a53bBCA7402ad8452cC801e30e93D430e223")
)

// fakeClient answers contract calls from a canned table keyed by the
// 4-byte selector and plays the mined-transaction sequence back for
// submits.
type fakeClient struct {
	returns map[string][]byte // selector hex -> abi-encoded return data
	callErr error

	nonce    uint64
	sent     []*ethtypes.Transaction
	receipt  *ethtypes.Receipt
	pending  int // receipt polls answered with ethereum.NotFound first
	sendErr  error
	gasErr   error
	revertRc bool
}

func (f *fakeClient) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	data, ok := f.returns[hex.EncodeToString(call.Data[:4])]
	if !ok {
		return nil, errors.New("unexpected call")
	}
	return data, nil
}

func (f *fakeClient) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeClient) SuggestGasPrice(_ context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeClient) EstimateGas(_ context.Context, _ ethereum.CallMsg) (uint64, error) {
	if f.gasErr != nil {
		return 0, f.gasErr
	}
	return 90_000, nil
}

func (f *fakeClient) SendTransaction(_ context.Context, tx *ethtypes.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeClient) TransactionReceipt(_ context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	if f.pending > 0 {
		f.pending--
		return nil, ethereum.NotFound
	}
	rc := f.receipt
	if rc == nil {
		rc = &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful}
	}
	if f.revertRc {
		rc.Status = ethtypes.ReceiptStatusFailed
	}
	rc.TxHash = txHash
	return rc, nil
}

func newTestAdapter(t *testing.T, client *fakeClient) *Adapter {
	t.Helper()
	signer, err := chain.NewKeySigner(testKeyHex)
	require.NoError(t, err)
	cfg := &chain.Config{ChainID: chain.ChainLocal, Marketplace: testMarketplace}
	a, err := NewAdapterWithClient(client, cfg, signer)
	require.NoError(t, err)
	a.pollInterval = time.Millisecond
	return a
}

// ret encodes return values for a method the way the node would.
func ret(t *testing.T, contractABI abi.ABI, method string, vals ...interface{}) (string, []byte) {
	t.Helper()
	m, ok := contractABI.Methods[method]
	require.True(t, ok, "unknown method %s", method)
	data, err := m.Outputs.Pack(vals...)
	require.NoError(t, err)
	return hex.EncodeToString(m.ID), data
}

func TestOwnerOfMapsRevertToNotFound(t *testing.T) {
	client := &fakeClient{callErr: errors.New("execution reverted: ERC721: invalid token ID")}
	a := newTestAdapter(t, client)

	_, err := a.OwnerOf(context.Background(), testCollection, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOwnerOfDecodesAddress(t *testing.T) {
	ticketABI, err := abi.JSON(strings.NewReader(EventTicketABI))
	require.NoError(t, err)
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	sel, data := ret(t, ticketABI, "ownerOf", owner)

	a := newTestAdapter(t, &fakeClient{returns: map[string][]byte{sel: data}})
	got, err := a.OwnerOf(context.Background(), testCollection, 0)
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestListingZeroSellerIsNotFound(t *testing.T) {
	marketABI, err := abi.JSON(strings.NewReader(TicketMarketplaceABI))
	require.NoError(t, err)
	sel, data := ret(t, marketABI, "listings",
		common.Address{}, common.Address{}, big.NewInt(0), big.NewInt(0), uint8(0))

	a := newTestAdapter(t, &fakeClient{returns: map[string][]byte{sel: data}})
	_, err = a.Listing(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListingDecodesRecord(t *testing.T) {
	marketABI, err := abi.JSON(strings.NewReader(TicketMarketplaceABI))
	require.NoError(t, err)
	seller := common.HexToAddress("0x2222222222222222222222222222222222222222")
	sel, data := ret(t, marketABI, "listings",
		seller, testCollection, big.NewInt(4), big.NewInt(1500), uint8(ListingSold))

	a := newTestAdapter(t, &fakeClient{returns: map[string][]byte{sel: data}})
	l, err := a.Listing(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), l.ID)
	assert.Equal(t, seller, l.Seller)
	assert.Equal(t, TicketIdentity{Collection: testCollection, TokenID: 4}, l.Ticket)
	assert.Equal(t, "1500", l.PriceWei.String())
	assert.Equal(t, ListingSold, l.Status)
	assert.False(t, l.Active())
}

func TestSubmitListRecoversListingID(t *testing.T) {
	marketABI, err := abi.JSON(strings.NewReader(TicketMarketplaceABI))
	require.NoError(t, err)

	client := &fakeClient{
		nonce:   7,
		pending: 2, // receipt shows up on the third poll
		receipt: &ethtypes.Receipt{
			Status: ethtypes.ReceiptStatusSuccessful,
			Logs: []*ethtypes.Log{{
				Address: testMarketplace,
				Topics: []common.Hash{
					marketABI.Events["TicketListed"].ID,
					common.BigToHash(big.NewInt(5)),
				},
			}},
		},
	}
	a := newTestAdapter(t, client)

	id, err := a.SubmitList(context.Background(), testCollection, 2, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), id)

	require.Len(t, client.sent, 1)
	tx := client.sent[0]
	assert.Equal(t, testMarketplace, *tx.To())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Zero(t, tx.Value().Sign(), "listTicket sends no value")
}

func TestSubmitListWithoutLogIsAmbiguous(t *testing.T) {
	client := &fakeClient{
		receipt: &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful},
	}
	a := newTestAdapter(t, client)

	_, err := a.SubmitList(context.Background(), testCollection, 2, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrAmbiguousResult)
	assert.Len(t, client.sent, 1, "the transaction was still submitted")
}

func TestSubmitBuySendsValue(t *testing.T) {
	client := &fakeClient{}
	a := newTestAdapter(t, client)

	err := a.SubmitBuy(context.Background(), 3, big.NewInt(2500))
	require.NoError(t, err)
	require.Len(t, client.sent, 1)
	assert.Equal(t, "2500", client.sent[0].Value().String())
}

func TestSubmitSurfacesEstimationRejection(t *testing.T) {
	client := &fakeClient{gasErr: errors.New("execution reverted: Marketplace not approved")}
	a := newTestAdapter(t, client)

	err := a.SubmitApprove(context.Background(), testCollection, testMarketplace, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not approved")
	assert.Empty(t, client.sent, "nothing is sent after a failed estimation")
}

func TestSubmitRevertedReceiptFails(t *testing.T) {
	client := &fakeClient{revertRc: true}
	a := newTestAdapter(t, client)

	err := a.SubmitCancel(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reverted")
}

func TestSubmitWaitHonorsContext(t *testing.T) {
	client := &fakeClient{pending: 1 << 30}
	a := newTestAdapter(t, client)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := a.SubmitCancel(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
