package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tixmarket/gotix/internal/chain"
	"github.com/tixmarket/gotix/internal/gateway"
	"github.com/tixmarket/gotix/internal/ledger"
	"github.com/tixmarket/gotix/internal/market"
	"github.com/tixmarket/gotix/pkg/logger"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		listenAddr = flag.String("listen", getenv("GOTIX_LISTEN", ":8080"), "HTTP listen address")
		chainID    = flag.Uint64("chain", envUint("GOTIX_CHAIN_ID", uint64(chain.ChainLocal)), "chain id (1337 local, 11155111 sepolia)")
		configPath = flag.String("config", getenv("GOTIX_CONFIG", ""), "optional yaml config file (overrides chain defaults)")
		rpcURL     = flag.String("rpc", getenv("GOTIX_RPC_URL", ""), "override RPC endpoint")
		logFile    = flag.String("log-file", getenv("GOTIX_LOG_FILE", "logs/gotix.log"), "log file path")
		logLevel   = flag.String("log-level", getenv("GOTIX_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	)
	flag.Parse()

	if err := logger.Init(logger.Config{
		Level:      *logLevel,
		OutputFile: *logFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
	}); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}

	cfg, err := loadConfig(*configPath, chain.ID(*chainID))
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if *rpcURL != "" {
		cfg.RPCURL = *rpcURL
	}

	signer, err := signerFromEnv()
	if err != nil {
		log.Fatalf("init signer failed: %v", err)
	}

	adapter, err := ledger.NewAdapter(cfg, signer)
	if err != nil {
		log.Fatalf("connect ledger failed: %v", err)
	}

	engine := market.NewEngine(adapter, cfg, signer.Address())

	httpSrv := &http.Server{
		Addr:              *listenAddr,
		Handler:           gateway.New(engine).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("gotix gateway listening on %s (chain %s, account %s)",
			*listenAddr, cfg.ChainID, market.FormatAddress(signer.Address()))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)

	fmt.Println("server stopped")
}

func loadConfig(path string, id chain.ID) (*chain.Config, error) {
	if path != "" {
		return chain.LoadConfig(path)
	}
	return chain.DefaultConfig(id)
}

// signerFromEnv builds the session signer from GOTIX_PRIVATE_KEY, or
// from GOTIX_MNEMONIC plus GOTIX_ACCOUNT_INDEX when no raw key is set.
func signerFromEnv() (chain.Signer, error) {
	if key := os.Getenv("GOTIX_PRIVATE_KEY"); key != "" {
		return chain.NewKeySigner(key)
	}
	if mnemonic := os.Getenv("GOTIX_MNEMONIC"); mnemonic != "" {
		index := uint(envUint("GOTIX_ACCOUNT_INDEX", 0))
		return chain.NewMnemonicSigner(mnemonic, index)
	}
	return nil, fmt.Errorf("set GOTIX_PRIVATE_KEY or GOTIX_MNEMONIC")
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
