package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // event timezones must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/showtime-matcher/internal/config"
	"github.com/iliyamo/showtime-matcher/internal/database"
	"github.com/iliyamo/showtime-matcher/internal/handler"
	"github.com/iliyamo/showtime-matcher/internal/jobs"
	"github.com/iliyamo/showtime-matcher/internal/logger"
	"github.com/iliyamo/showtime-matcher/internal/middleware"
	"github.com/iliyamo/showtime-matcher/internal/queue"
	"github.com/iliyamo/showtime-matcher/internal/repository"
	"github.com/iliyamo/showtime-matcher/internal/router"
	"github.com/iliyamo/showtime-matcher/internal/serpapi"
	"github.com/iliyamo/showtime-matcher/internal/service"
)

// recomputeDispatcher is what the server needs from either dispatch mode.
type recomputeDispatcher interface {
	service.RecomputeTrigger
	Wait()
}

func main() {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		zl.Warn("redis unavailable, rate limiting and response cache disabled", zap.Error(err))
	} else {
		defer func() { _ = rdb.Close() }()
	}

	events := repository.NewEventRepo(db)
	attendees := repository.NewAttendeeRepo(db)
	aggregates := repository.NewSlotAggregateRepo(db)
	searchCache := repository.NewSearchCacheRepo(db)
	ranked := repository.NewRankedShowtimeRepo(db)

	aggregator := service.NewAvailabilityAggregator(events, attendees, aggregates, zl.Named("aggregator"))
	matcher := service.NewShowtimeMatcher(aggregates, attendees)
	provider := serpapi.New(cfg.SerpAPIURL, cfg.SerpAPIKey, nil)
	listings := service.NewShowtimeCache(searchCache, provider, zl.Named("showtime_cache"))
	ranker := service.NewShowtimeRanker(events, listings, matcher, ranked, zl.Named("ranker"), cfg.RankConcurrency)

	inline := service.NewInlineDispatcher(aggregator, cfg.RecomputeTimeout)
	var dispatcher recomputeDispatcher = inline
	consumerDone := make(chan struct{})
	if cfg.RecomputeMode == config.RecomputeModeQueue {
		dispatcher = service.NewQueueDispatcher(queue.NewPublisher(cfg.RabbitURL, zl.Named("publisher")), inline, zl.Named("dispatcher"))
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.QueuePrefetch, service.HandleRecomputeRequested(aggregator), zl.Named("consumer"))
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("recompute consumer stopped", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	scheduler := jobs.NewScheduler(zl.Named("cron"))
	janitor := jobs.NewCacheJanitor(searchCache, zl.Named("janitor"))
	if _, err := janitor.Schedule(scheduler, cfg.CacheCleanupSchedule); err != nil {
		zl.Fatal("invalid CACHE_CLEANUP_SCHEDULE", zap.String("spec", cfg.CacheCleanupSchedule), zap.Error(err))
	}
	scheduler.Start()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover(), echomw.RequestID(), middleware.RequestLogger(zl.Named("http")), middleware.Metrics())

	var analyticsCache echo.MiddlewareFunc
	var providerLimit echo.MiddlewareFunc
	if rdb != nil {
		analyticsCache = middleware.NewResponseCache(config.LoadResponseCacheConfig(), rdb, zl.Named("response_cache"))
		providerLimit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb).Middleware(zl.Named("ratelimit"))
	}
	router.RegisterRoutes(e, router.Handlers{
		Availability: handler.NewAvailabilityHandler(attendees, dispatcher, zl.Named("availability")),
		Analytics:    handler.NewAnalyticsHandler(aggregates, zl.Named("analytics")),
		Showtimes:    handler.NewShowtimeHandler(listings, ranker, matcher, zl.Named("showtimes")),
		DB:           db,
	}, router.Middlewares{
		AnalyticsCache: analyticsCache,
		ProviderLimit:  providerLimit,
	})

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("recompute_mode", cfg.RecomputeMode))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown failed", zap.Error(err))
	}
	<-scheduler.Stop().Done()
	<-consumerDone
	dispatcher.Wait()
	zl.Info("stopped")
}
