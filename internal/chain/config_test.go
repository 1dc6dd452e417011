package chain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigLocal(t *testing.T) {
	cfg, err := DefaultConfig(ChainLocal)
	require.NoError(t, err)
	assert.Equal(t, ChainLocal, cfg.ChainID)
	assert.Equal(t, "local", cfg.ChainID.String())
	assert.Len(t, cfg.Collections, 6)
	assert.NotZero(t, cfg.Marketplace)
	assert.Positive(t, cfg.ScanConcurrency)

	_, err = DefaultConfig(ID(42))
	assert.Error(t, err)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gotix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chain_id: 1337
rpc_url: http://10.0.0.5:8545
scan_concurrency: 2
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8545", cfg.RPCURL)
	assert.Equal(t, 2, cfg.ScanConcurrency)
	// Untouched fields keep the chain defaults.
	assert.Len(t, cfg.Collections, 6)
	assert.NotZero(t, cfg.Marketplace)
}

func TestLoadConfigUnknownChainNeedsEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gotix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chain_id: 31337
rpc_url: http://127.0.0.1:8545
marketplace: "0x0517a53bBCA7402ad8452cC801e30e93D430e223"
collections:
  - address: "0xe730be3C37E470B710b8C484AA32d308335796Bb"
    name: Test Event
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ID(31337), cfg.ChainID)
	require.Len(t, cfg.Collections, 1)
	assert.Equal(t, "Test Event", cfg.Collections[0].DisplayName)
	assert.Equal(t, "Test Event", cfg.CollectionName(cfg.Collections[0].Address))
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	noChain := filepath.Join(dir, "nochain.yaml")
	require.NoError(t, os.WriteFile(noChain, []byte("rpc_url: http://x\n"), 0o644))
	_, err = LoadConfig(noChain)
	assert.Error(t, err)

	badAddr := filepath.Join(dir, "badaddr.yaml")
	require.NoError(t, os.WriteFile(badAddr, []byte("chain_id: 1337\nmarketplace: nope\n"), 0o644))
	_, err = LoadConfig(badAddr)
	assert.Error(t, err)
}

func TestShortAddress(t *testing.T) {
	addr, err := ParseAddress("0x0517a53bBCA7402ad8452cC801e30e93D430e223")
	require.NoError(t, err)
	hex := addr.Hex()
	assert.Equal(t, hex[:6]+"..."+hex[len(hex)-4:], ShortAddress(addr))
	assert.Len(t, ShortAddress(addr), 13)
}
