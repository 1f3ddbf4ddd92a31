package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/territorio/internal/config"
	"github.com/playperu/territorio/internal/database"
	"github.com/playperu/territorio/internal/docstore"
	"github.com/playperu/territorio/internal/handler/health"
	"github.com/playperu/territorio/internal/migrations"
	"github.com/playperu/territorio/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	docs := docstore.New(db)
	checks := map[string]health.Checker{
		"sqlite":    health.CheckFunc(db.PingContext),
		"documents": health.CheckFunc(docs.Ping),
	}

	// --- Games ---
	settings := server.Settings{
		Players:        cfg.Players(),
		Center:         cfg.Center(),
		Zoom:           cfg.MapZoom,
		SameOwnerHoles: cfg.SameOwnerHoles,
		PersistTimeout: cfg.PersistTimeout,
	}
	broker := server.NewBroker()
	games := server.NewRegistry(server.NewSessionFactory(settings, docs, broker, logger))
	defer games.Close()

	g, gctx := errgroup.WithContext(ctx)

	// --- Redis (optional) ---
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		relay := server.NewRedisRelay(rdb, logger)
		broker.SetRelay(relay)
		checks["redis"] = health.CheckFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

		g.Go(func() error {
			return relay.Run(gctx, broker)
		})
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Games:    games,
		Broker:   broker,
		Users:    docs,
		Settings: settings,
		SPADir:   cfg.SPADir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g.Go(func() error {
		logger.Info("starting http server",
			"addr", cfg.HTTPAddr,
			"players", cfg.PlayerOrder,
			"same_owner_holes", cfg.SameOwnerHoles,
		)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
