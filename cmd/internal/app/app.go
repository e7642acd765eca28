// Package app wires the Nimbus server runtime: config, logging, HTTP routes,
// and the per-visitor auth scopes.
//
// It is intentionally small and deterministic to keep behavior predictable.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	authapi "nimbus/cmd/internal/auth/api"
	"nimbus/cmd/internal/auth/facade"
	"nimbus/cmd/internal/localstate"
	"nimbus/cmd/internal/remote"
	"nimbus/cmd/internal/web"
	"nimbus/cmd/profile"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow backing resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for the fully in-memory dev mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

// App is the Nimbus server runtime: it owns HTTP wiring and the auth scopes hub.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	scopes *authapi.Scopes
	auth   *authapi.Handler
	web    *web.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	st, dbPool, dbEnabled, profiles, err := newProfileStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	state, redisClient, err := newLocalState(context.Background(), cfg, log)
	if err != nil {
		closeQuietly(st)
		return nil, err
	}
	if redisClient != nil {
		st = multiStore{st, redisStore{client: redisClient}}
	}

	remoteCfg, err := remote.LoadConfigFromEnv()
	if err != nil {
		closeQuietly(st)
		return nil, err
	}

	fcfg := facade.DefaultConfig()
	fcfg.SiteOrigin = cfg.SiteOrigin

	authCfg := authapi.LoadConfigFromEnv()
	scopes := authapi.NewScopes(log, authapi.NewScopeFactory(log, remoteCfg, fcfg, profiles, state), authCfg.ScopeIdleTTL)

	authHandler, err := authapi.NewHandler(log, authCfg, scopes)
	if err != nil {
		closeQuietly(st)
		return nil, err
	}

	webHandler, err := web.NewHandler(log, authHandler)
	if err != nil {
		closeQuietly(st)
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		scopes:    scopes,
		auth:      authHandler,
		web:       webHandler,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth, a.web)

	var handler http.Handler = mux
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithSecurityHeaders(handler)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	// Stop event-stream subscriptions before closing backing stores.
	a.scopes.CloseAll()

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newProfileStore decides between Postgres-backed profile persistence and the
// in-memory dev store.
func newProfileStore(ctx context.Context, cfg Config, log Logger) (Store, *pgxpool.Pool, bool, profile.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_profiles")
		return nopStore{}, nil, false, profile.NewMemoryStore(), nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, nil, err
	}

	profiles, err := profile.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, nil, err
	}

	log.Info("db.enabled.postgres_profiles")
	return dbStore{pool: pool}, pool, true, profiles, nil
}

// newLocalState decides between Redis-backed visitor state and the in-memory
// dev store.
func newLocalState(ctx context.Context, cfg Config, log Logger) (localstate.Store, *redis.Client, error) {
	if cfg.RedisURL == "" {
		log.Info("redis.disabled.inmemory_localstate")
		return localstate.NewMemoryStore(), nil, nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	log.Info("redis.enabled.localstate")
	return localstate.NewRedisStore(client), client, nil
}

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

type redisStore struct {
	client *redis.Client
}

func (s redisStore) Close(_ context.Context) error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// multiStore closes its members in order.
type multiStore []Store

func (m multiStore) Close(ctx context.Context) error {
	var firstErr error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func closeQuietly(s Store) {
	if s != nil {
		_ = s.Close(context.Background())
	}
}
