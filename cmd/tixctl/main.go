// tixctl is a one-shot command line client for the marketplace engine.
// It connects with the configured signer, runs a single operation and
// prints the result as JSON.
//
//	tixctl inventory            reconciled inventory of the session account
//	tixctl events               event catalog with resale price ranges
//	tixctl listings [-active]   marketplace listings
//	tixctl list ...             approve and list one ticket for sale
//	tixctl buy -id N            buy a listing at its current price
//	tixctl cancel -id N         cancel an own active listing
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/tixmarket/gotix/internal/chain"
	"github.com/tixmarket/gotix/internal/ledger"
	"github.com/tixmarket/gotix/internal/market"
	"github.com/tixmarket/gotix/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	if err := logger.Init(logger.Config{Level: getenv("GOTIX_LOG_LEVEL", "warn")}); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}

	engine, err := buildEngine()
	if err != nil {
		log.Fatalf("init engine failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var out any
	switch cmd {
	case "inventory":
		out, err = engine.Inventory(ctx, engine.Account())
	case "events":
		out, err = runEvents(ctx, engine)
	case "listings":
		out, err = runListings(ctx, engine, args)
	case "list":
		out, err = runList(ctx, engine, args)
	case "buy":
		out, err = runBuy(ctx, engine, args)
	case "cancel":
		out, err = runCancel(ctx, engine, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		kind := market.Classify(err)
		log.Fatalf("%s failed (%s): %v", cmd, kind, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode output: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tixctl <inventory|events|listings|list|buy|cancel> [flags]")
}

func buildEngine() (*market.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	signer, err := signerFromEnv()
	if err != nil {
		return nil, err
	}
	adapter, err := ledger.NewAdapter(cfg, signer)
	if err != nil {
		return nil, err
	}
	return market.NewEngine(adapter, cfg, signer.Address()), nil
}

func loadConfig() (*chain.Config, error) {
	if path := os.Getenv("GOTIX_CONFIG"); path != "" {
		return chain.LoadConfig(path)
	}
	cfg, err := chain.DefaultConfig(chain.ID(envUint("GOTIX_CHAIN_ID", uint64(chain.ChainLocal))))
	if err != nil {
		return nil, err
	}
	if rpc := os.Getenv("GOTIX_RPC_URL"); rpc != "" {
		cfg.RPCURL = rpc
	}
	return cfg, nil
}

func signerFromEnv() (chain.Signer, error) {
	if key := os.Getenv("GOTIX_PRIVATE_KEY"); key != "" {
		return chain.NewKeySigner(key)
	}
	if mnemonic := os.Getenv("GOTIX_MNEMONIC"); mnemonic != "" {
		return chain.NewMnemonicSigner(mnemonic, uint(envUint("GOTIX_ACCOUNT_INDEX", 0)))
	}
	return nil, fmt.Errorf("set GOTIX_PRIVATE_KEY or GOTIX_MNEMONIC")
}

type eventRow struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	ActiveListings int    `json:"activeListings"`
	Resale         string `json:"resale"`
}

func runEvents(ctx context.Context, engine *market.Engine) ([]eventRow, error) {
	cfg := engine.Config()
	rows := make([]eventRow, 0, len(cfg.Collections))
	for _, col := range cfg.Collections {
		listings, err := engine.AggregateListings(ctx, market.ListingFilter{Collection: &col.Address, ActiveOnly: true})
		if err != nil {
			return nil, err
		}
		rows = append(rows, eventRow{
			Name:           col.DisplayName,
			Address:        col.Address.Hex(),
			ActiveListings: len(listings),
			Resale:         market.ListingPriceRange(listings).Display(),
		})
	}
	return rows, nil
}

func runListings(ctx context.Context, engine *market.Engine, args []string) (any, error) {
	fs := flag.NewFlagSet("listings", flag.ExitOnError)
	active := fs.Bool("active", false, "only active listings")
	seller := fs.String("seller", "", "filter by seller address")
	collection := fs.String("collection", "", "filter by collection address")
	_ = fs.Parse(args)

	filter := market.ListingFilter{ActiveOnly: *active}
	if *seller != "" {
		addr, err := chain.ParseAddress(*seller)
		if err != nil {
			return nil, err
		}
		filter.Seller = &addr
	}
	if *collection != "" {
		addr, err := chain.ParseAddress(*collection)
		if err != nil {
			return nil, err
		}
		filter.Collection = &addr
	}
	return engine.AggregateListings(ctx, filter)
}

func runList(ctx context.Context, engine *market.Engine, args []string) (any, error) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	collection := fs.String("collection", "", "ticket collection address")
	tokenID := fs.Uint64("token", 0, "token id")
	price := fs.String("price", "", "asking price in ETH, e.g. 0.05")
	_ = fs.Parse(args)

	if *collection == "" || *price == "" {
		return nil, fmt.Errorf("list requires -collection and -price")
	}
	addr, err := chain.ParseAddress(*collection)
	if err != nil {
		return nil, err
	}
	priceWei, err := market.ParsePrice(*price)
	if err != nil {
		return nil, err
	}

	if err := engine.AuthorizeTransfer(ctx, addr, *tokenID); err != nil {
		return nil, err
	}
	listingID, err := engine.CreateListing(ctx, addr, *tokenID, priceWei)
	if err != nil {
		return nil, err
	}
	return map[string]any{"listingId": listingID, "price": market.FormatPrice(priceWei)}, nil
}

func runBuy(ctx context.Context, engine *market.Engine, args []string) (any, error) {
	fs := flag.NewFlagSet("buy", flag.ExitOnError)
	id := fs.Uint64("id", 0, "listing id")
	_ = fs.Parse(args)

	if err := engine.BuyListing(ctx, *id); err != nil {
		return nil, err
	}
	return engine.Inventory(ctx, engine.Account())
}

func runCancel(ctx context.Context, engine *market.Engine, args []string) (any, error) {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	id := fs.Uint64("id", 0, "listing id")
	_ = fs.Parse(args)

	if err := engine.CancelListing(ctx, *id); err != nil {
		return nil, err
	}
	return engine.Inventory(ctx, engine.Account())
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envUint(key string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
