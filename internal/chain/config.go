package chain

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// ID identifies a supported network.
type ID uint64

const (
	// ChainLocal is a local Ganache/Hardhat development chain.
	ChainLocal ID = 1337
	// ChainSepolia is the Sepolia public testnet.
	ChainSepolia ID = 11155111
)

func (id ID) String() string {
	switch id {
	case ChainLocal:
		return "local"
	case ChainSepolia:
		return "sepolia"
	default:
		return fmt.Sprintf("chain-%d", uint64(id))
	}
}

// Collection is one deployed ticket issuer contract.
type Collection struct {
	Address     common.Address
	DisplayName string
}

// Config is the full per-chain engine configuration. It is built once
// (from defaults or a file) and never mutated afterwards; switching
// networks means constructing a new Config.
type Config struct {
	ChainID     ID
	RPCURL      string
	Marketplace common.Address
	Collections []Collection

	// Scan bounds for the aggregators.
	ScanConcurrency      int
	MaxScanPerCollection uint64
}

const (
	defaultScanConcurrency      = 8
	defaultMaxScanPerCollection = 10000
)

// localConfig mirrors the addresses printed by the provisioning
// scripts for the local chain. Sepolia has no seeded collections until
// a deployment fills in a config file.
func localConfig() *Config {
	return &Config{
		ChainID:     ChainLocal,
		RPCURL:      "http://127.0.0.1:7545",
		Marketplace: common.HexToAddress("0x0517a53bBCA7402ad8452cC801e30e93D430e223"),
		Collections: []Collection{
			{Address: common.HexToAddress("0xe730be3C37E470B710b8C484AA32d308335796Bb"), DisplayName: "Jessica Shy | Vingio Parkas"},
			{Address: common.HexToAddress("0x0A7D07f9ca664E3b2D21BceF53c7ec66E52B5036"), DisplayName: "Vaidas Baumila | Žalgirio arena"},
			{Address: common.HexToAddress("0xe26fC48Ed0Ff931aEBB036e765041E8942676931"), DisplayName: "JUODAS VILNIUS 2026"},
			{Address: common.HexToAddress("0xdC74abcC482e1B26934819fF74432A338bC2B81a"), DisplayName: "Kings of Leon | The only show in the region"},
			{Address: common.HexToAddress("0x6FDc4ED11D61956a0090adf8027dAd1db231f7fF"), DisplayName: "Andrius Mamontovas: TIK HITAI"},
			{Address: common.HexToAddress("0x7976665e956443CDCa51a07048845A3d07e6A73C"), DisplayName: "punktò ~ KAUNAS"},
		},
		ScanConcurrency:      defaultScanConcurrency,
		MaxScanPerCollection: defaultMaxScanPerCollection,
	}
}

// DefaultConfig returns the built-in configuration for a chain.
func DefaultConfig(id ID) (*Config, error) {
	switch id {
	case ChainLocal:
		return localConfig(), nil
	case ChainSepolia:
		return &Config{
			ChainID:              ChainSepolia,
			RPCURL:               "https://rpc.sepolia.org",
			ScanConcurrency:      defaultScanConcurrency,
			MaxScanPerCollection: defaultMaxScanPerCollection,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported chain id: %d", uint64(id))
	}
}

// fileConfig is the yaml shape of a config file.
type fileConfig struct {
	ChainID     uint64 `yaml:"chain_id"`
	RPCURL      string `yaml:"rpc_url"`
	Marketplace string `yaml:"marketplace"`
	Collections []struct {
		Address string `yaml:"address"`
		Name    string `yaml:"name"`
	} `yaml:"collections"`
	ScanConcurrency      int    `yaml:"scan_concurrency"`
	MaxScanPerCollection uint64 `yaml:"max_scan_per_collection"`
}

// LoadConfig reads a yaml config file. Fields absent from the file
// fall back to the chain's built-in defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if fc.ChainID == 0 {
		return nil, fmt.Errorf("config %s: chain_id is required", path)
	}

	cfg, err := DefaultConfig(ID(fc.ChainID))
	if err != nil {
		// Unknown chain: start from an empty config, the file must
		// provide everything.
		cfg = &Config{
			ChainID:              ID(fc.ChainID),
			ScanConcurrency:      defaultScanConcurrency,
			MaxScanPerCollection: defaultMaxScanPerCollection,
		}
	}

	if fc.RPCURL != "" {
		cfg.RPCURL = fc.RPCURL
	}
	if fc.Marketplace != "" {
		addr, err := ParseAddress(fc.Marketplace)
		if err != nil {
			return nil, fmt.Errorf("config %s: marketplace: %w", path, err)
		}
		cfg.Marketplace = addr
	}
	if len(fc.Collections) > 0 {
		cfg.Collections = make([]Collection, 0, len(fc.Collections))
		for _, c := range fc.Collections {
			addr, err := ParseAddress(c.Address)
			if err != nil {
				return nil, fmt.Errorf("config %s: collection %q: %w", path, c.Name, err)
			}
			cfg.Collections = append(cfg.Collections, Collection{Address: addr, DisplayName: c.Name})
		}
	}
	if fc.ScanConcurrency > 0 {
		cfg.ScanConcurrency = fc.ScanConcurrency
	}
	if fc.MaxScanPerCollection > 0 {
		cfg.MaxScanPerCollection = fc.MaxScanPerCollection
	}
	return cfg, nil
}

// CollectionName returns the configured display name for a collection
// address, or the shortened address when unknown.
func (c *Config) CollectionName(addr common.Address) string {
	for _, col := range c.Collections {
		if col.Address == addr {
			return col.DisplayName
		}
	}
	return ShortAddress(addr)
}

// ParseAddress is the single normalization point for externally
// supplied addresses. Every identity comparison in the engine operates
// on the common.Address value this returns, which makes all
// comparisons case-insensitive by construction.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %q", s)
	}
	return common.HexToAddress(s), nil
}

// ShortAddress renders an address as 0x1234...5678 for display.
func ShortAddress(addr common.Address) string {
	s := addr.Hex()
	return s[:6] + "..." + s[len(s)-4:]
}
