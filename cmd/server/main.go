package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"charitychain/internal/auth"
	"charitychain/internal/cache"
	"charitychain/internal/chain"
	"charitychain/internal/config"
	"charitychain/internal/db"
	"charitychain/internal/events"
	"charitychain/internal/handler"
	"charitychain/internal/logger"
	"charitychain/internal/middleware"
	"charitychain/internal/reconcile"
	"charitychain/internal/repository"
	"charitychain/internal/router"
	"charitychain/internal/service"
)

// @title Charity Chain API
// @version 1.0
// @description Crowdfunding backend that mirrors an on-chain charity campaign contract.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN, !cfg.IsProduction())
	if err != nil {
		zl.Fatal("database init", zap.Error(err))
	}
	if cfg.ResetDB {
		zl.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			zl.Fatal("reset database", zap.Error(err))
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		zl.Fatal("auto-migrate", zap.Error(err))
	}

	cacheClient := cache.New(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, zl)
	defer func() { _ = cacheClient.Close() }()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	campaignRepo := repository.NewCampaignRepository(gormDB)
	donationRepo := repository.NewDonationRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Contract client, only when a contract is configured
	var (
		syncRunner handler.SyncRunner
		reconciler *reconcile.Reconciler
		verifier   service.TxVerifier
	)
	if cfg.ChainEnabled() {
		chainClient, err := dialChain(ctx, cfg)
		if err != nil {
			zl.Warn("blockchain client unavailable, sync disabled", zap.Error(err))
		} else {
			defer chainClient.Close()
			reconciler = reconcile.New(chainClient, userRepo, campaignRepo, reconcile.Options{
				ExchangeRate:    cfg.ExchangeRate,
				ContractAddress: chainClient.Address(),
			}, zl.Named("reconcile"))
			syncRunner = reconciler
			if cfg.VerifyDonations {
				verifier = chainClient
			}
		}
	}

	var publisher service.DonationPublisher
	if cfg.RabbitMQURL != "" {
		p, err := events.Dial(cfg.RabbitMQURL, zl.Named("events"))
		if err != nil {
			zl.Warn("rabbitmq unavailable, donation events disabled", zap.Error(err))
		} else {
			defer func() { _ = p.Close() }()
			publisher = p
		}
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	campaignService := service.NewCampaignService(campaignRepo, cacheClient, zl.Named("campaigns"))
	donationService := service.NewDonationService(donationRepo, campaignRepo, cacheClient, verifier, publisher, zl.Named("donations"))
	userService := service.NewUserService(userRepo, campaignRepo, donationRepo)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(
		e,
		cfg,
		zl,
		middleware.Authenticate(jwtService, tokenStore, userRepo),
		handler.NewAuthHandler(authService),
		handler.NewCampaignHandler(campaignService),
		handler.NewDonationHandler(donationService),
		handler.NewUserHandler(userService),
		handler.NewSyncHandler(syncRunner),
	)

	if reconciler != nil && cfg.SyncOnBoot {
		go bootSync(ctx, zl, campaignRepo, reconciler)
	}

	addr := ":" + cfg.ServerPort
	go func() {
		zl.Info("server starting", zap.String("addr", addr), zap.String("swagger", "/swagger/index.html"))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown", zap.Error(err))
	}
}

func dialChain(ctx context.Context, cfg *config.Config) (*chain.Client, error) {
	contractABI, err := chain.LoadABI(cfg.ContractABIPath)
	if err != nil {
		return nil, err
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return chain.Dial(dialCtx, cfg.ChainRPCURL, cfg.ContractAddress, contractABI)
}

// bootSync imports the contract's campaigns when the store has none yet.
func bootSync(ctx context.Context, zl *zap.Logger, campaigns repository.CampaignRepository, r *reconcile.Reconciler) {
	count, err := campaigns.Count(ctx)
	if err != nil {
		zl.Warn("boot sync skipped", zap.Error(err))
		return
	}
	if count > 0 {
		zl.Debug("boot sync skipped, campaigns already present", zap.Int64("count", count))
		return
	}
	if _, err := r.Run(ctx); err != nil {
		zl.Error("boot sync failed", zap.Error(err))
	}
}
