package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/config"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/database"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/handler"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/logger"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/middleware"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/queue"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/router"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/service"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/storage"
)

func main() {
	cfg := config.Load() // Load environment config

	lg, err := logger.New(logger.Options{Dir: cfg.LogDir, Name: "planetarium", MinLevel: logger.ParseLevel(cfg.LogLevel)})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbOpts := database.OptionsFrom(cfg)
	if err := database.Migrate(dbOpts); err != nil {
		lg.Fatal("DATABASE", fmt.Sprintf("migrate: %v", err))
	}
	db, err := database.Open(ctx, dbOpts)
	if err != nil {
		lg.Fatal("DATABASE", err.Error())
	}
	defer db.Close()
	lg.LogDatabase("OPEN", "", fmt.Sprintf("driver=%s", cfg.DBDriver))

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("REDIS", "unavailable, cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}

	images, err := storage.New(cfg)
	if err != nil {
		lg.Fatal("STORAGE", err.Error())
	}

	var pub service.Publisher = service.NopPublisher{}
	if cfg.AMQPURL != "" {
		pub = service.NewAMQPPublisher(cfg.AMQPURL)
	}

	themes := repository.NewThemeRepo(db)
	domes := repository.NewDomeRepo(db, cfg.EmptyReservationPolicy)
	shows := repository.NewShowRepo(db, cfg.EmptyReservationPolicy)
	sessions := repository.NewSessionRepo(db, cfg.EmptyReservationPolicy)
	reservations := repository.NewReservationRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	booking := service.NewReservationService(reservations, pub, lg)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(lg))

	hs := router.Handlers{
		Health:       &handler.HealthHandler{DB: db, Redis: rdb},
		Auth:         handler.NewAuthHandler(cfg, users, tokens, lg),
		Catalog:      handler.NewCatalogHandler(themes, domes, shows, sessions, images, cfg.MaxUploadMB, lg),
		Reservations: handler.NewReservationHandler(reservations, booking, handler.Paginator{Default: cfg.PageSize, Max: cfg.MaxPageSize}, lg),
	}
	opts := router.Options{
		JWTSecret: cfg.JWTSecret,
		Cache:     middleware.NewResponseCache(config.LoadCacheConfig(), rdb),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, lg),
	}
	if cfg.ImageStorage == config.StorageLocal {
		opts.MediaURL, opts.MediaDir = cfg.MediaURL, cfg.MediaDir
	}
	router.RegisterRoutes(e, hs, opts) // Register application routes

	if cfg.QueueConsumerEnabled && cfg.AMQPURL != "" {
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.ReservationLogPath, lg)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("QUEUE", fmt.Sprintf("consumer stopped: %v", err))
			}
		}()
	}

	addr := ":" + cfg.Port // Address string with port
	go func() {
		lg.Info("SERVER", fmt.Sprintf("listening on %s (env=%s)", addr, cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("SERVER", err.Error())
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("SERVER", fmt.Sprintf("shutdown: %v", err))
	}
	lg.Info("SERVER", "stopped")
}
