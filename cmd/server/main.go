// Package main runs the arena settlement service: the HTTP and websocket API,
// the notification fan-out and the season closer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"signal-arena/internal/api"
	"signal-arena/internal/cache"
	"signal-arena/internal/clock"
	"signal-arena/internal/closer"
	"signal-arena/internal/config"
	"signal-arena/internal/domain"
	"signal-arena/internal/engine"
	"signal-arena/internal/events"
	"signal-arena/internal/logger"
	"signal-arena/internal/storage"
	chstore "signal-arena/internal/storage/clickhouse"
	"signal-arena/internal/storage/memory"
	"signal-arena/internal/storage/migrations"
	pgstore "signal-arena/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	ledger, closeLedger, err := openLedger(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer closeLedger()

	eventStore, closeEvents, err := openEventStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer closeEvents()

	bc := events.NewBroadcaster(64)
	bus := events.NewBus(log.Named("events"),
		bc,
		events.NewStoreSink(eventStore),
		events.NewLogSink(log.Named("events")),
	)

	policy, err := engine.ParsePolicy(cfg.Arena.StakeReturn, cfg.Arena.Forfeit)
	if err != nil {
		return fmt.Errorf("arena policy: %w", err)
	}
	var programID domain.Address
	if cfg.Arena.ProgramID != "" {
		if programID, err = domain.ParseAddress(cfg.Arena.ProgramID); err != nil {
			return fmt.Errorf("arena.program_id: %w", err)
		}
	}

	eng, err := engine.New(engine.Options{
		Ledger:    ledger,
		Clock:     clock.System{},
		Publisher: bus,
		Policy:    policy,
		ProgramID: programID,
		Logger:    log.Named("engine"),
	})
	if err != nil {
		return err
	}
	log.Info("engine ready",
		zap.String("policy", policy.String()),
		zap.String("program_id", eng.Addresses().ProgramID().String()),
		zap.String("storage", cfg.Storage.Backend),
	)

	var authority domain.Address
	if cfg.Arena.Authority != "" {
		if authority, err = domain.ParseAddress(cfg.Arena.Authority); err != nil {
			return fmt.Errorf("arena.authority: %w", err)
		}
	}
	if cfg.Arena.AutoInitialize {
		if err := autoInitialize(ctx, eng, authority, cfg.Arena.Treasury, log); err != nil {
			return err
		}
	}

	store, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	router := api.NewRouter(api.Options{
		Engine:          eng,
		Cache:           store,
		CacheTTL:        cfg.Cache.TTL,
		Broadcaster:     bc,
		Funder:          ledger,
		Logger:          log.Named("api"),
		Insecure:        cfg.Auth.Insecure,
		SignatureWindow: cfg.Auth.SignatureWindow,
		EnableAirdrop:   cfg.Server.EnableAirdrop,
		Release:         !cfg.App.IsDev(),
	})

	if cfg.Closer.Enabled {
		c, err := closer.New(closer.Options{
			Settler:   eng,
			Authority: authority,
			Schedule:  cfg.Closer.Schedule,
			Logger:    log.Named("closer"),
			BaseCtx:   ctx,
			OnClosed: func(ctx context.Context, d *engine.Distribution) {
				api.InvalidateSeason(ctx, store, d.Season.ID)
			},
		})
		if err != nil {
			return err
		}
		c.Start()
		defer c.Stop()
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openLedger(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (storage.Ledger, func(), error) {
	switch cfg.Backend {
	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		log.Info("postgres ready", zap.Strings("applied_migrations", applied))
		return pgstore.NewLedger(pool), pool.Close, nil
	default:
		log.Warn("using in-memory ledger; state is lost on restart")
		return memory.NewLedger(), func() {}, nil
	}
}

func openEventStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (storage.EventStore, func(), error) {
	if cfg.ClickhouseDSN == "" {
		return memory.NewEventStore(), func() {}, nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse: %w", err)
	}
	log.Info("clickhouse event store ready")
	return chstore.NewEventStore(conn), func() { _ = conn.Close() }, nil
}

func autoInitialize(ctx context.Context, eng *engine.Engine, authority domain.Address, treasuryRaw string, log *zap.Logger) error {
	treasury, err := domain.ParseAddress(treasuryRaw)
	if err != nil {
		return fmt.Errorf("arena.treasury: %w", err)
	}
	_, err = eng.Initialize(ctx, authority, treasury)
	switch {
	case err == nil:
		log.Info("arena initialized", zap.Stringer("authority", authority), zap.Stringer("treasury", treasury))
	case errors.Is(err, engine.ErrAlreadyInitialized):
		log.Info("arena already initialized")
	default:
		return fmt.Errorf("initialize arena: %w", err)
	}
	return nil
}
