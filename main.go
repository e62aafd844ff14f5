package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-redis/cache/v8"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/forca/trading/internal/config"
	"github.com/forca/trading/internal/oracle"
	"github.com/forca/trading/internal/repository"
	"github.com/forca/trading/internal/server"
	"github.com/forca/trading/internal/service"
)

func main() {
	// Configuration
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found")
	}
	cfg := new(config.Config)
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	url := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		cfg.UsernamePostgres, cfg.PasswordPostgres, cfg.HostPostgres, cfg.PortPostgres, cfg.DBNamePostgres)
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	rep := repository.NewRepository(pool)
	if err = rep.Migrate(ctx); err != nil {
		log.Fatalf("Unable to migrate schema: %v", err)
	}

	// Redis cache in front of the quote service
	hostAndPort := fmt.Sprint(cfg.HostRedisCache, ":", cfg.PortRedisCache)
	ring := redis.NewRing(&redis.RingOptions{Addrs: map[string]string{cfg.ServerRedisCache: hostAndPort}})
	quotes := oracle.NewCache(
		cache.New(&cache.Options{Redis: ring}),
		oracle.NewClient(cfg.QuoteURL, cfg.QuoteTimeout),
		cfg.QuoteCacheTTL,
	)

	srv := service.NewService(rep, quotes, cfg.MarginPercentage)

	// Http
	httpServer := server.NewServer(fmt.Sprint(cfg.HostHTTP, ":", cfg.PortHTTP), cfg.AllowedOrigins, srv)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error(err)
	}
}
