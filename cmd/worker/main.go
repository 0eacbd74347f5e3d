// Command worker consumes booking.decided events.  Every decision is
// appended to booking.log and, when SMTP is configured, mailed to the
// student who made the booking.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/logger"
	"github.com/iliyamo/room-booking/internal/metrics"
	"github.com/iliyamo/room-booking/internal/notify"
	"github.com/iliyamo/room-booking/internal/queue"
)

func main() {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "room-booking-worker")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	h := &notify.DecisionHandler{
		Log:      queue.NewBookingLog(cfg.BookingLogDir),
		Location: cfg.Location,
		Logger:   log,
		Metrics:  m,
	}
	if cfg.SMTP.Enabled() {
		h.Mailer = notify.NewSMTPMailer(cfg.SMTP)
		log.Info("decision emails enabled", zap.String("smtp_host", cfg.SMTP.Host))
	} else {
		log.Info("SMTP_HOST not set; decision emails disabled")
	}

	if addr := os.Getenv("WORKER_METRICS_ADDR"); addr != "" {
		srv := &http.Server{Addr: addr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	log.Info("worker started", zap.String("queue", queue.BookingDecidedQueue), zap.String("log", h.Log.Path()))
	c := queue.NewConsumer(cfg.AMQPURL, h, log, m.Consumed)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer stopped", zap.Error(err))
		return
	}
	log.Info("worker stopped")
}
