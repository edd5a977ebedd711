package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"classifieds-service/internal/api"
	"classifieds-service/internal/cache"
	"classifieds-service/internal/config"
	"classifieds-service/internal/database"
	"classifieds-service/internal/events"
	"classifieds-service/internal/service"
	"classifieds-service/migrations"
)

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect, err := database.LookupDialect(cfg.DBDriver)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid database driver")
	}
	dsn, err := cfg.DSN()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid database configuration")
	}

	db, err := database.Open(ctx, dialect, dsn, database.Options{
		Retries:      cfg.ConnectRetries,
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := migrations.AutoMigrate(ctx, 3, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create schema")
	}

	// A nil interface, not a nil *cache.AdCache, keeps the service on storage only.
	var adCache service.AdCache
	var redisCache *cache.AdCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		redisCache = cache.NewAdCache(rdb, cfg.CacheTTL)
		adCache = redisCache
		log.Info().Str("addr", cfg.RedisAddr).Msg("ad cache enabled")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(config.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("event publishing enabled")
	}

	e := api.NewRouter(api.Services{
		DB:    db,
		Users: service.NewUserService(publisher),
		Ads:   service.NewAdService(adCache, publisher),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to drain HTTP server")
	}

	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close event publisher")
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close ad cache")
		}
	}
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close database pool")
	}
	log.Info().Msg("server stopped")
}
