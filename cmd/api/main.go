// @title        TrackerPro Auth API
// @version      1.0
// @description  Registration, login and session-based access control for TrackerPro.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"github.com/trackerpro/tracker-auth/internal/api"
	"github.com/trackerpro/tracker-auth/internal/api/handler"
	"github.com/trackerpro/tracker-auth/internal/api/session"
	"github.com/trackerpro/tracker-auth/internal/core/policy"
	"github.com/trackerpro/tracker-auth/internal/core/ports"
	"github.com/trackerpro/tracker-auth/internal/core/security"
	"github.com/trackerpro/tracker-auth/internal/core/service"
	"github.com/trackerpro/tracker-auth/internal/infrastructure/db/memory"
	mongostore "github.com/trackerpro/tracker-auth/internal/infrastructure/db/mongo"
	redisstore "github.com/trackerpro/tracker-auth/internal/infrastructure/db/redis"
	"github.com/trackerpro/tracker-auth/internal/infrastructure/queue"
	"github.com/trackerpro/tracker-auth/internal/pkg/config"
	"github.com/trackerpro/tracker-auth/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "tracker-auth",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	readiness := map[string]handler.Pinger{}

	// --- Credential and audit storage ---
	var (
		users     ports.UserRepository
		auditRepo ports.AuditRepository
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn().Msg("using in-memory storage, accounts are lost on restart")
		users = memory.NewUserRepository()
		auditRepo = memory.NewAuditRepository(log)
	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()

		userRepo := mongostore.NewUserRepository(db)
		if err := userRepo.EnsureIndexes(ctx); err != nil {
			return err
		}
		events := mongostore.NewAuditRepository(db)
		if err := events.EnsureIndexes(ctx); err != nil {
			return err
		}
		users, auditRepo = userRepo, events
		readiness["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	}

	// --- Sessions ---
	store, closeStore, err := newSessionStore(ctx, cfg, log, readiness)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Audit trail ---
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher := queue.NewAuditDispatcher(cfg.AuditWorkers, auditRepo, log)
	dispatcher.Start(auditCtx)
	defer func() {
		stopAudit()
		dispatcher.Wait()
	}()

	// --- Identity ---
	identity := service.NewIdentityService(users, security.NewBcryptHasher(cfg.BcryptCost), dispatcher, log)
	if err := identity.EnsureBootstrapAdministrator(ctx); err != nil {
		return fmt.Errorf("bootstrap administrator: %w", err)
	}

	e := api.NewRouter(api.Dependencies{
		Identity:  identity,
		Audit:     dispatcher,
		Sessions:  session.NewBridge(store, cfg.Session.Name, log),
		Evaluator: policy.MustNewEvaluator(policy.DefaultRules()),
		Readiness: readiness,
		Log:       log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info().Msg("shutdown complete")
	return nil
}

func newSessionStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, readiness map[string]handler.Pinger) (sessions.Store, func(), error) {
	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		log.Warn().Msg("SESSION_SECRET not set, generating an ephemeral key; sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}

	opts := sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if cfg.Session.Store == config.SessionStoreCookie {
		store := sessions.NewCookieStore(secret)
		store.Options = &opts
		store.MaxAge(opts.MaxAge)
		return store, func() {}, nil
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	return redisstore.NewSessionStore(rdb, opts, secret), func() { _ = rdb.Close() }, nil
}
