package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/logger"
	"github.com/iliyamo/room-booking/internal/metrics"
	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/queue"
	"github.com/iliyamo/room-booking/internal/repository"
	"github.com/iliyamo/room-booking/internal/router"
	"github.com/iliyamo/room-booking/internal/service"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "room-booking-api")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	booking, err := config.LoadBookingConfig()
	if err != nil {
		log.Fatal("booking policy", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal("connect mysql", zap.Error(err))
	}
	defer db.Close()

	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		log.Warn("rate limiting and caching disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	pub := queue.NewPublisher(cfg.AMQPURL, log)
	defer pub.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	bookings := repository.NewBookingRepo(db)
	notes := repository.NewNotificationRepo(db)
	reports := repository.NewReportRepo(db)

	policy := booking.Policy
	bookingSvc := service.NewBookingService(bookings, rooms, users, notes, policy,
		service.WithEvents(pub), service.WithLogger(log), service.WithMetrics(m))
	roomSvc := service.NewRoomService(rooms, bookings, policy)
	userSvc := service.NewUserService(users, tokens, log)
	scheduleSvc := service.NewScheduleService(bookings, policy, booking.GridStep)
	reportSvc := service.NewReportService(reports, policy.Location)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.Observe(log, m))

	router.Register(e, router.Handlers{
		Health:        &handler.HealthHandler{DB: db, Redis: rdb},
		Auth:          handler.NewAuthHandler(cfg, users, tokens, log),
		Users:         handler.NewUserHandler(userSvc, log),
		Rooms:         handler.NewRoomHandler(roomSvc, bookingSvc, log),
		Bookings:      handler.NewBookingHandler(bookingSvc, policy.Location, log),
		Notifications: handler.NewNotificationHandler(notes, log),
		Schedule:      handler.NewScheduleHandler(scheduleSvc, reportSvc, policy.Location, log),
		Metrics:       m.Handler(),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.String("timezone", policy.Location.String()))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout())
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown", zap.Error(err))
	}
}

func shutdownTimeout() time.Duration {
	if v, err := strconv.Atoi(os.Getenv("SHUTDOWN_TIMEOUT_SEC")); err == nil && v > 0 {
		return time.Duration(v) * time.Second
	}
	return 10 * time.Second
}
