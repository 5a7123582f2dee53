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

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"hearth/internal/audit"
	"hearth/internal/consent"
	"hearth/internal/events"
	"hearth/internal/identity"
	"hearth/internal/pending"
	"hearth/internal/platform/config"
	"hearth/internal/platform/httpserver"
	"hearth/internal/platform/logger"
	"hearth/internal/platform/metrics"
	platformredis "hearth/internal/platform/redis"
	"hearth/internal/revocation"
	"hearth/internal/session"
	"hearth/internal/token"
	"hearth/internal/token/issuer"
	httptransport "hearth/internal/transport/http"
	"hearth/internal/vault"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keyring, err := token.NewKeyring(cfg.SigningSecret, cfg.PreviousSigningSecret)
	if err != nil {
		log.Error("invalid signing configuration", "error", err)
		os.Exit(1)
	}
	codec := token.NewCodec(keyring)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Revocation retention only needs to outlive the longest-lived token.
	retention := cfg.MaxTokenLifetime
	if cfg.SessionTTL > retention {
		retention = cfg.SessionTTL
	}

	var revocations revocation.Store
	var pruner revocation.Pruner
	var pendingStore pending.Store

	switch {
	case redisClient != nil:
		revocations = revocation.NewRedisStore(redisClient.Client, retention)
		log.Info("revocation store: redis")
	case cfg.PostgresDSN != "":
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store := revocation.NewPostgresStore(db, retention)
		revocations, pruner = store, store
		log.Info("revocation store: postgres")
	default:
		store := revocation.NewMemoryStore(retention)
		revocations, pruner = store, store
		log.Warn("revocation store: memory; revocations do not survive restarts")
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres pool failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		pendingStore = pending.NewPostgresStore(pool)
		log.Info("pending store: postgres")
	} else {
		pendingStore = pending.NewMemoryStore()
		log.Warn("pending store: memory; requests do not survive restarts")
	}

	auditPublisher := audit.NewPublisher()
	validator := consent.NewValidator(codec, revocations, consent.WithAuditor(auditPublisher))
	tokenIssuer := issuer.New(codec, validator, cfg.MaxTokenLifetime, cfg.SessionTTL,
		issuer.WithAuditor(auditPublisher))
	bus := events.NewBus(cfg.HeartbeatInterval)

	auditStore := audit.NewMemoryStore()
	sinks := []audit.Sink{auditStore}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka producer failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Info("audit sink: kafka", "topic", cfg.KafkaTopic)
	}
	auditWorker := audit.NewWorker(auditPublisher.Inbox(), log, sinks...)

	identities := identity.NewJWTVerifier(cfg.Identity.SharedKey, cfg.Identity.Issuer, cfg.Identity.Audience)
	sessions := session.NewService(identities, tokenIssuer, validator, codec, revocations, auditPublisher, log)

	pendingSvc := pending.NewService(pendingStore, validator, tokenIssuer, bus, log, pending.Config{
		MaxAge:        cfg.Pending.MaxAge,
		Retention:     cfg.Pending.Retention,
		TokenLifetime: cfg.Pending.TokenLifetime,
		SweepEvery:    cfg.Pending.SweepInterval,
	}, pending.WithAuditor(auditPublisher))

	var vaultStore vault.Store
	if redisClient != nil {
		vaultStore = vault.NewRedisStore(redisClient.Client)
	} else {
		vaultStore = vault.NewMemoryStore()
	}
	vaultSvc := vault.NewService(vaultStore, validator, auditPublisher, log)

	m := metrics.New()
	router := httptransport.NewRouter(log, m,
		httptransport.NewSessionHandler(sessions, validator, log),
		httptransport.NewTokenHandler(tokenIssuer, validator, log),
		httptransport.NewPendingHandler(pendingSvc, validator, log),
		httptransport.NewEventsHandler(bus, validator, log),
		httptransport.NewVaultHandler(vaultSvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting hearth", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error { return ignoreCancel(bus.Run(ctx)) })
	group.Go(func() error { return ignoreCancel(pendingSvc.Run(ctx)) })
	group.Go(func() error { return ignoreCancel(auditWorker.Run(ctx)) })
	if pruner != nil {
		group.Go(func() error { return runPruneLoop(ctx, pruner, retention, log) })
	}
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func runPruneLoop(ctx context.Context, pruner revocation.Pruner, retention time.Duration, log *slog.Logger) error {
	interval := retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := pruner.Prune(ctx, now); err != nil {
				log.WarnContext(ctx, "revocation prune failed", "error", err)
			}
		}
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
