package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
)

// Signer is the session's transaction signer. The wallet layer decides
// how keys are held; the engine only needs an address and a signature.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// KeySigner signs with an in-process secp256k1 key.
type KeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewKeySigner builds a signer from a hex-encoded private key, with or
// without the 0x prefix.
func NewKeySigner(hexKey string) (*KeySigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeySigner{
		key:  key,
		addr: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// NewMnemonicSigner derives account `index` on the standard Ethereum
// path from a BIP-39 mnemonic. Matches the accounts Ganache seeds from
// its mnemonic, so index 0 is the usual dev account.
func NewMnemonicSigner(mnemonic string, index uint) (*KeySigner, error) {
	w, err := hdwallet.NewFromMnemonic(strings.TrimSpace(mnemonic))
	if err != nil {
		return nil, fmt.Errorf("open hd wallet: %w", err)
	}
	path, err := hdwallet.ParseDerivationPath(fmt.Sprintf("m/44'/60'/0'/0/%d", index))
	if err != nil {
		return nil, fmt.Errorf("parse derivation path: %w", err)
	}
	account, err := w.Derive(path, false)
	if err != nil {
		return nil, fmt.Errorf("derive account %d: %w", index, err)
	}
	key, err := w.PrivateKey(account)
	if err != nil {
		return nil, fmt.Errorf("derive private key: %w", err)
	}
	return &KeySigner{
		key:  key,
		addr: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the signer's account address.
func (s *KeySigner) Address() common.Address {
	return s.addr
}

// SignTx signs tx for the given chain.
func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.NewEIP155Signer(chainID), s.key)
}
