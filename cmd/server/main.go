package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"enrolytics/internal/aggregate"
	aggregatehandler "enrolytics/internal/aggregate/handler"
	"enrolytics/internal/alerts"
	alerthandler "enrolytics/internal/alerts/handler"
	"enrolytics/internal/alerts/publisher"
	"enrolytics/internal/cache"
	httpapi "enrolytics/internal/http"
	"enrolytics/internal/platform/config"
	"enrolytics/internal/platform/httpserver"
	"enrolytics/internal/platform/logger"
	"enrolytics/internal/platform/metrics"
	platformredis "enrolytics/internal/platform/redis"
	"enrolytics/internal/records"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("invalid redis configuration", "error", err)
		os.Exit(1)
	}

	var cacheManager *cache.Manager
	if redisClient != nil {
		if err := redisClient.Health(ctx); err != nil {
			// The remote tier is allowed to be down; the cache degrades
			// to its local fallback until Redis recovers.
			log.Warn("redis unreachable at startup, cache runs on local tier", "error", err)
		}
		cacheManager = cache.New(redisClient.Client, log)
		defer redisClient.Close()
	} else {
		log.Info("redis not configured, cache runs on local tier only")
		cacheManager = cache.New(nil, log)
	}

	source := records.NewDirSource(cfg.DataDir, log)
	loader := records.NewLoader(source, cacheManager, log,
		records.WithSnapshotTTL(cfg.SnapshotTTL),
		records.WithMemoTTL(cfg.MemoTTL),
	)

	aggService, err := aggregate.New(loader, cacheManager, log, aggregate.WithResultTTL(cfg.ResultTTL))
	if err != nil {
		log.Error("failed to build aggregation service", "error", err)
		os.Exit(1)
	}

	alertOpts := []alerts.Option{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := publisher.New(ctx, cfg.KafkaBrokers, cfg.AlertTopic, log)
		if err != nil {
			log.Error("failed to connect alert publisher", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		alertOpts = append(alertOpts, alerts.WithPublisher(kafkaPublisher))
	} else {
		alertOpts = append(alertOpts, alerts.WithPublisher(publisher.Nop{}))
	}

	alertService, err := alerts.NewService(aggService, log, alertOpts...)
	if err != nil {
		log.Error("failed to build alert service", "error", err)
		os.Exit(1)
	}

	appMetrics := metrics.New()
	router := httpapi.NewRouter(
		aggregatehandler.New(aggService, log),
		alerthandler.New(alertService, log),
		appMetrics,
	)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting enrolytics server", "addr", cfg.Addr, "data_dir", cfg.DataDir)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
