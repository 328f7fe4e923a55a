// Command server wires dependencies and runs the verification service.
// Business logic lives in the internal packages; main only selects
// implementations from config and owns the process lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"praman/internal/audit"
	"praman/internal/badge"
	"praman/internal/platform/config"
	"praman/internal/platform/httpserver"
	"praman/internal/platform/logger"
	platformmetrics "praman/internal/platform/metrics"
	platformredis "praman/internal/platform/redis"
	"praman/internal/provider"
	"praman/internal/provider/cashfree"
	ratelimitmetrics "praman/internal/ratelimit/metrics"
	ratelimitmw "praman/internal/ratelimit/middleware"
	ratelimitservice "praman/internal/ratelimit/service"
	"praman/internal/ratelimit/store/bucket"
	httptransport "praman/internal/transport/http"
	"praman/internal/verification/handler"
	verificationmetrics "praman/internal/verification/metrics"
	"praman/internal/verification/service"
	"praman/internal/verification/store"
	"praman/internal/verification/sweeper"
)

const auditInboxSize = 256

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)

	if err := run(cfg, log); err != nil {
		log.Error("service exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := platformmetrics.New()
	verifyMetrics := verificationmetrics.New()
	limitMetrics := ratelimitmetrics.New()

	// Record store: Postgres when a DSN is configured, in-memory otherwise.
	var records store.Store
	var auditStore audit.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		db.SetMaxOpenConns(20)
		db.SetConnMaxIdleTime(5 * time.Minute)
		records = store.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		log.Info("using postgres record store")
	} else {
		records = store.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
		log.Warn("no POSTGRES_DSN configured, records are in-memory only")
	}

	// Rate limit buckets: Redis primary with in-memory fallback behind the
	// circuit breaker; memory-only without a Redis URL.
	var buckets bucket.Store = bucket.NewMemoryStore()
	var redisClient *platformredis.Client
	if cfg.RedisURL != "" {
		var err error
		redisClient, err = platformredis.New(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		buckets = bucket.NewRedisStore(redisClient.Client)
		log.Info("using redis rate limit store")
	}

	primaryLimiter, err := ratelimitservice.New(buckets, log)
	if err != nil {
		return err
	}
	fallbackLimiter, err := ratelimitservice.New(bucket.NewMemoryStore(), log)
	if err != nil {
		return err
	}
	limits := ratelimitmw.New(primaryLimiter, limitMetrics, log,
		ratelimitmw.WithDisabled(cfg.IsTest()),
		ratelimitmw.WithFallback(fallbackLimiter),
	)

	// Provider variant is fixed at startup: sandbox without credentials,
	// Cashfree otherwise.
	var otp provider.OTPProvider
	var pan provider.PANProvider
	var bank provider.BankProvider
	if cfg.Cashfree.ClientID == "" || cfg.Cashfree.ClientSecret == "" {
		otp = cashfree.NewSandbox()
		log.Warn("no cashfree credentials configured, using sandbox provider")
	} else {
		client := cashfree.New(cashfree.Config{
			BaseURL:      cfg.Cashfree.BaseURL,
			ClientID:     cfg.Cashfree.ClientID,
			ClientSecret: cfg.Cashfree.ClientSecret,
			Sandbox:      cfg.Cashfree.Sandbox,
			Timeout:      cfg.Cashfree.Timeout,
		})
		otp = client
		pan = client
		bank = client
	}

	// Audit pipeline: non-blocking publisher in front of a worker that
	// persists events and optionally fans out to Kafka.
	inbox := make(chan audit.Event, auditInboxSize)
	audits := audit.NewPublisher(inbox, log)
	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("audit events fan out to kafka", "topic", cfg.AuditTopic)
	}
	auditWorker := audit.NewWorker(auditStore, sink, inbox, log)

	verifier, err := service.New(records, otp, audits, verifyMetrics, log, cfg)
	if err != nil {
		return err
	}

	signer := badge.NewSigner(cfg.BadgeSigningKey, "praman")

	healthChecks := map[string]httptransport.HealthChecker{
		"store":    records,
		"provider": otp,
	}
	if redisClient != nil {
		healthChecks["redis"] = redisClient
	}

	router := httptransport.NewRouter(httptransport.Config{
		Logger:        log,
		Metrics:       httpMetrics,
		ServiceSecret: cfg.ServiceSecret,
		RateLimits:    limits,
		HealthChecks:  healthChecks,
	}, handler.New(verifier, signer, limits, cfg.Features, pan, bank, log))

	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return auditWorker.Run(ctx)
	})
	if cfg.SweepInterval > 0 {
		sw := sweeper.New(records, audits, verifyMetrics, log, cfg.SweepInterval)
		group.Go(func() error {
			return sw.Run(ctx)
		})
		log.Info("otp expiry sweeper enabled", "interval", cfg.SweepInterval.String())
	}
	group.Go(func() error {
		log.Info("starting praman", "addr", cfg.Addr, "environment", cfg.Environment, "provider", string(otp.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
