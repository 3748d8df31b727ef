package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	paymentApp "github.com/paypulse/walletsync/internal/application/payment"
	"github.com/paypulse/walletsync/internal/infrastructure/config"
	"github.com/paypulse/walletsync/internal/infrastructure/observability"
	"github.com/paypulse/walletsync/internal/ledger"
	customMW "github.com/paypulse/walletsync/internal/middleware"
)

type RouterDeps struct {
	Pool          *pgxpool.Pool
	RedisClient   *redis.Client
	SendUC        *paymentApp.SendPaymentUseCase
	QueueQueries  *paymentApp.QueueQueries
	Syncer        Syncer
	LedgerClient  ledger.Client
	WalletAccount string
	Metrics       *observability.Metrics
	CORSConfig    config.CORSConfig
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	paymentH := NewPaymentController(deps.SendUC, deps.QueueQueries, deps.Syncer)
	walletH := NewWalletController(deps.LedgerClient, deps.WalletAccount)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/payments", paymentH.SendPayment)
		r.Get("/payments/pending/count", paymentH.PendingCount)
		r.Get("/payments/queue", paymentH.QueueSnapshot)
		r.Post("/sync", paymentH.ForceSync)
		r.Get("/wallet/balance", walletH.Balance)
	})

	return r
}
