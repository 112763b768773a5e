package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"overlook_hotel/internal/adapters/events"
	server "overlook_hotel/internal/adapters/http_server"
	"overlook_hotel/internal/adapters/observability"
	redisad "overlook_hotel/internal/adapters/redis"
	"overlook_hotel/internal/app"
	"overlook_hotel/internal/domain"
	"overlook_hotel/internal/shared"
	"overlook_hotel/internal/storage/memory"
	mysqlrepo "overlook_hotel/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "overlook-api")

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// store
	var store domain.Store
	switch cfg.Store {
	case shared.StoreMemory:
		log.Warn().Msg("using in-memory store; data is lost on exit")
		store = memory.New()
	default:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		store = mysqlrepo.New(db)
	}

	// cache; the service runs uncached when redis is unreachable
	var cache domain.Cache
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, caching disabled")
		_ = rc.Close()
	} else {
		cache = rc
		defer rc.Close()
	}
	cancel()

	// events
	var publisher domain.EventPublisher = events.LogPublisher{Logger: log.Logger}
	if cfg.AMQPURL != "" {
		p, err := events.Dial(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			log.Error().Err(err).Msg("amqp unavailable, events go to the log")
		} else {
			publisher = p
			defer p.Close()
		}
	}

	cmd := app.NewBookingService(store, cache, publisher,
		app.WithHousekeepingTurnover(cfg.HousekeepingTurnover))
	q := app.NewQueryService(store, cache, cfg.CacheTTL)

	// http
	srv := server.New(server.Options{RateLimitRPS: cfg.RateLimitRPS})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Cmd: cmd, Q: q})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.Store).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
