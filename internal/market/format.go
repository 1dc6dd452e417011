package market

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/tixmarket/gotix/internal/chain"
)

// weiDecimals converts wei amounts to ETH for display.
const weiDecimals = 18

// formatEth renders a wei amount as an ETH quantity with three
// decimals, no unit.
func formatEth(wei *big.Int) string {
	if wei == nil {
		wei = new(big.Int)
	}
	return decimal.NewFromBigInt(wei, -weiDecimals).StringFixed(3)
}

// FormatPrice renders a wei amount as "0.050 ETH".
func FormatPrice(wei *big.Int) string {
	return formatEth(wei) + " ETH"
}

// ParsePrice converts a decimal ETH string ("0.05") to wei.
func ParsePrice(eth string) (*big.Int, error) {
	d, err := decimal.NewFromString(eth)
	if err != nil {
		return nil, err
	}
	return d.Shift(weiDecimals).BigInt(), nil
}

// FormatAddress shortens an address for display (0x1234...5678).
func FormatAddress(addr common.Address) string {
	return chain.ShortAddress(addr)
}
