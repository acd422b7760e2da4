package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"charitychain/internal/chain"
	"charitychain/internal/config"
	"charitychain/internal/db"
	"charitychain/internal/logger"
	"charitychain/internal/reconcile"
	"charitychain/internal/repository"
)

// sync imports every campaign of the configured contract that the database
// does not mirror yet, then exits. Existing rows are left untouched.
func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if !cfg.ChainEnabled() {
		zl.Fatal("CHAIN_RPC_URL and CONTRACT_ADDRESS must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN, false)
	if err != nil {
		zl.Fatal("connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		zl.Fatal("run migrations", zap.Error(err))
	}

	contractABI, err := chain.LoadABI(cfg.ContractABIPath)
	if err != nil {
		zl.Fatal("load contract abi", zap.Error(err))
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := chain.Dial(dialCtx, cfg.ChainRPCURL, cfg.ContractAddress, contractABI)
	cancel()
	if err != nil {
		zl.Fatal("connect to chain", zap.Error(err))
	}
	defer client.Close()

	r := reconcile.New(
		client,
		repository.NewUserRepository(gormDB),
		repository.NewCampaignRepository(gormDB),
		reconcile.Options{ExchangeRate: cfg.ExchangeRate, ContractAddress: client.Address()},
		zl,
	)

	result, err := r.Run(ctx)
	if err != nil {
		zl.Error("sync failed", zap.Error(err))
		os.Exit(1)
	}

	zl.Info("sync completed",
		zap.Uint64("on_chain", result.Total),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
}
