// Command server runs the gatekeeper HTTP service: session validation,
// heuristic checks, sliding-window rate limiting, authorization and audit in
// front of the credit-repair resource routes.
//
// Backing services are selected by configuration: with DATABASE_URL the
// profile, ownership, record and audit stores use PostgreSQL; with REDIS_URL
// the rate window moves to Redis; with neither, everything runs in memory
// with seeded development fixtures.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"gatekeeper/internal/gate"
	gatemetrics "gatekeeper/internal/gate/metrics"
	gatemw "gatekeeper/internal/gate/middleware"
	"gatekeeper/internal/gate/models"
	"gatekeeper/internal/gate/ports"
	"gatekeeper/internal/identity/jwtprovider"
	"gatekeeper/internal/ownership"
	"gatekeeper/internal/platform/config"
	"gatekeeper/internal/platform/httpserver"
	"gatekeeper/internal/platform/logger"
	"gatekeeper/internal/platform/postgres"
	"gatekeeper/internal/platform/redis"
	"gatekeeper/internal/profile"
	"gatekeeper/internal/ratewindow"
	rwstore "gatekeeper/internal/ratewindow/store"
	"gatekeeper/internal/records"
	httptransport "gatekeeper/internal/transport/http"
	"gatekeeper/pkg/platform/audit"
	auditkafka "gatekeeper/pkg/platform/audit/kafka"
	"gatekeeper/pkg/platform/audit/publisher"
	auditmemory "gatekeeper/pkg/platform/audit/store/memory"
	auditpostgres "gatekeeper/pkg/platform/audit/store/postgres"
	"gatekeeper/pkg/platform/audit/worker"

	"github.com/google/uuid"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.AuthSecret == "" {
		return errors.New("GATEKEEPER_AUTH_SECRET is required")
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Audit pipeline: buffered publisher drained by one worker into the
	// store, security events optionally fanned out to Kafka.
	pub := publisher.New(cfg.AuditBuffer, publisher.WithLogger(log))

	var auditStore audit.Store
	if pool != nil {
		auditStore = auditpostgres.New(pool)
	} else {
		auditStore = auditmemory.New()
	}

	workerOpts := []worker.Option{worker.WithLogger(log)}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := auditkafka.New(cfg.KafkaBrokers, cfg.KafkaSecurityTopic)
		if err != nil {
			return fmt.Errorf("kafka sink: %w", err)
		}
		defer sink.Close()
		workerOpts = append(workerOpts, worker.WithSecuritySink(sink))
		log.Info("security events fan out to kafka", "topic", cfg.KafkaSecurityTopic)
	}
	auditWorker := worker.New(auditStore, pub, workerOpts...)

	// Rate window store preference: Redis, then PostgreSQL, then memory.
	var windowStore ratewindow.Store
	switch {
	case redisClient != nil:
		windowStore = rwstore.NewRedis(redisClient.Client, 2*cfg.RateLimitWindow)
	case pool != nil:
		windowStore = rwstore.NewPostgres(pool)
	default:
		windowStore = rwstore.NewMemory()
	}
	limiter, err := ratewindow.New(windowStore,
		ratewindow.WithWindow(cfg.RateLimitWindow),
		ratewindow.WithLimit(cfg.RateLimitMaxRequests),
		ratewindow.WithLogger(log),
		ratewindow.WithSecurityPublisher(pub),
		ratewindow.WithMetrics(ratewindow.NewMetrics()),
	)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	provider, err := jwtprovider.New(cfg.AuthSecret)
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}

	var (
		profiles    ports.ProfileStore
		owners      ports.OwnershipStore
		recordStore records.Store
		registrar   httptransport.OwnerRegistrar
	)
	if pool != nil {
		profiles = profile.NewPostgres(pool)
		owners = ownership.NewPostgres(pool)
		recordStore = records.NewPostgres(pool)
	} else {
		memProfiles := profile.NewMemory()
		memOwners := ownership.NewMemory()
		memRecords := records.NewMemory()
		seedFixtures(memProfiles, memOwners, memRecords, provider, log)
		profiles = memProfiles
		owners = memOwners
		recordStore = memRecords
		registrar = memOwners
	}

	gateSvc, err := gate.New(provider, profiles, owners, limiter,
		gate.WithLogger(log),
		gate.WithAuditPublisher(pub),
		gate.WithAgentPatterns(cfg.SuspiciousAgentPatterns),
		gate.WithMetrics(gatemetrics.New()),
	)
	if err != nil {
		return fmt.Errorf("gate: %w", err)
	}

	mw := gatemw.New(gateSvc, log)
	handler := httptransport.NewHandler(recordStore, profiles, gateSvc, registrar, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, mw))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("gatekeeper listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// seedFixtures populates the memory stores with one client account, one
// credit report and a signed token so the service is exercisable without
// any backing infrastructure.
func seedFixtures(profiles *profile.MemoryStore, owners *ownership.MemoryStore, store *records.MemoryStore, provider *jwtprovider.Provider, log *slog.Logger) {
	identityID := uuid.NewString()
	reportID := uuid.NewString()

	profiles.Put(models.Profile{
		IdentityID: identityID,
		Role:       models.RoleClient,
		Status:     "active",
		CreatedAt:  time.Now().UTC(),
	})
	store.PutCreditReport(records.CreditReport{
		ID:          reportID,
		IdentityID:  identityID,
		Bureau:      "equifax",
		Score:       640,
		RetrievedAt: time.Now().UTC(),
	})
	owners.Put(models.ResourceCreditReport, reportID, identityID)

	token, err := provider.IssueToken(identityID, models.RoleClient, 24*time.Hour)
	if err != nil {
		log.Warn("seed token issuance failed", "error", err)
		return
	}
	log.Info("memory fixtures seeded",
		"identity_id", identityID,
		"report_id", reportID,
		"bearer_token", token,
	)
}
