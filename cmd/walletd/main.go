package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	paymentApp "github.com/paypulse/walletsync/internal/application/payment"
	"github.com/paypulse/walletsync/internal/bootstrap"
	"github.com/paypulse/walletsync/internal/controller"
	"github.com/paypulse/walletsync/internal/domain/payment"
	infraRedis "github.com/paypulse/walletsync/internal/infrastructure/redis"
	"github.com/paypulse/walletsync/internal/ledger"
	"github.com/paypulse/walletsync/internal/ledger/horizon"
	"github.com/paypulse/walletsync/internal/repository/postgres"
	"github.com/paypulse/walletsync/internal/signer"
	walletsync "github.com/paypulse/walletsync/internal/sync"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "walletd", "walletsync")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()
	cfg := app.Config

	// --- Wallet credential ---
	cred, err := loadCredential(cfg.Wallet.Seed)
	if err != nil {
		app.Logger.Fatal().Err(err).Msg("Failed to load wallet credential")
	}
	pub := ed25519.PublicKey(cred.PublicKey())

	// --- Storage ---
	queueRepo := postgres.NewQueueRepository(app.Pool)

	// --- Ledger access ---
	horizonClient := horizon.NewClient(horizon.Config{
		BaseURL:           cfg.Ledger.HorizonURL,
		NetworkPassphrase: cfg.Ledger.NetworkPassphrase,
		HTTPTimeout:       cfg.Ledger.HTTPTimeout,
	})
	oracle := ledger.NewOracle(horizonClient, cfg.Ledger.ProbeTimeout)
	submitter := ledger.NewSubmitter(horizonClient, ledger.SubmitterConfig{
		ConfirmAttempts:  cfg.Ledger.ConfirmAttempts,
		ConfirmDelay:     cfg.Ledger.ConfirmDelay,
		RatePerSecond:    cfg.Ledger.SubmitRatePerSec,
		BreakerThreshold: cfg.Ledger.BreakerThreshold,
		BreakerTimeout:   cfg.Ledger.BreakerTimeout,
		OnBreakerStateChange: func(name string, state gobreaker.State) {
			var v float64
			switch state {
			case gobreaker.StateHalfOpen:
				v = 1
			case gobreaker.StateOpen:
				v = 2
			}
			app.Metrics.CircuitBreakerState.WithLabelValues(name).Set(v)
		},
	}, app.Logger)

	// --- Notifications ---
	events := infraRedis.NewStreamNotifier(app.Redis, app.Logger)

	// --- Use cases ---
	sgn := signer.New()
	sendUC := paymentApp.NewSendPaymentUseCase(
		queueRepo, sgn, cred, cfg.Wallet.Account, oracle, submitter, events, app.Metrics, app.Logger,
	)
	queueQueries := paymentApp.NewQueueQueries(queueRepo)

	// --- Background sync ---
	policy := payment.RetryPolicy{
		BaseDelay:   cfg.Sync.BaseRetryDelay,
		MaxAttempts: cfg.Sync.MaxAttempts,
	}
	drainLock := infraRedis.NewDrainLock(app.Redis, "payments", cfg.Sync.DrainLockTTL)
	orchestrator := walletsync.NewOrchestrator(
		queueRepo, oracle, submitter, policy, events, app.Metrics, app.Logger,
		walletsync.Config{
			Interval:      cfg.Sync.Interval,
			MaxConcurrent: cfg.Sync.MaxConcurrent,
		},
		walletsync.WithDrainLock(drainLock),
		walletsync.WithVerifier(func(rec *payment.Record) bool {
			return signer.Verify(rec, pub)
		}),
	)
	balancePoller := walletsync.NewBalancePoller(
		horizonClient, cfg.Wallet.Account, cfg.Sync.BalancePollInterval, app.Metrics, app.Logger,
	)

	// --- HTTP server ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:          app.Pool,
		RedisClient:   app.Redis,
		SendUC:        sendUC,
		QueueQueries:  queueQueries,
		Syncer:        orchestrator,
		LedgerClient:  horizonClient,
		WalletAccount: cfg.Wallet.Account,
		Metrics:       app.Metrics,
		CORSConfig:    cfg.Server.CORS,
	})
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return orchestrator.Run(gCtx)
	})

	g.Go(func() error {
		return balancePoller.Run(gCtx)
	})

	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down...")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Error().Err(err).Msg("Server forced to shutdown")
			}
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Daemon error")
	}
	app.Logger.Info().Msg("Daemon exited")
}

func loadCredential(seedHex string) (*signer.Ed25519Credential, error) {
	raw, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("decode wallet seed: %w", err)
	}
	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	default:
		return nil, fmt.Errorf("wallet seed must be %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
	return signer.NewEd25519Credential(priv)
}
