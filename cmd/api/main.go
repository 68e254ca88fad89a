package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-commutepro/internal/config"
	"backend-commutepro/internal/db"
	"backend-commutepro/internal/logger"
	"backend-commutepro/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() config.Config
	newLogger       func(config.Config) *logrus.Logger
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	ensureSchema    func(context.Context, db.Querier) error
	connectRedis    func(config.Config) *redis.Client
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, *logrus.Logger, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		newLogger:       logger.New,
		connectPostgres: db.ConnectPostgres,
		ensureSchema:    db.EnsureSchema,
		connectRedis:    db.ConnectRedis,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()
	log := deps.newLogger(cfg)

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		log.WithError(err).Error("postgres connection failed")
	} else if err := deps.ensureSchema(context.Background(), pg); err != nil {
		log.WithError(err).Error("schema migration failed")
	}

	rdb := deps.connectRedis(cfg)
	if rdb == nil {
		log.Warn("redis not configured, streaming stays local and geocoding is uncached")
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, pg, rdb, log, signals, nil); err != nil {
		log.WithError(err).Error("server exited with error")
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, log *logrus.Logger, signals <-chan os.Signal, listen ListenFunc) error {
	if log == nil {
		log = logger.Discard()
	}
	srv := server.NewServer(cfg, pg, rdb, log)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case sig := <-signals:
		log.WithField("signal", sig).Info("shutting down")
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			srv.Close()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := shutdownFn(srv.App, shutdownCtx)
	srv.Close()
	if pg != nil {
		pg.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return err
}
