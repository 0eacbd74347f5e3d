package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// WorkerConfig is what cmd/worker needs.  It has no required variables;
// the worker runs against a local broker with defaults.
type WorkerConfig struct {
	AMQPURL   string
	LogLevel  string
	LogFormat string
	// BookingLogDir holds booking.log, one line per decision.
	BookingLogDir string
	SMTP          SMTPConfig
	// Location renders times in emails.
	Location *time.Location
}

func LoadWorkerConfig() (WorkerConfig, error) {
	_ = godotenv.Load()
	loc, err := time.LoadLocation(envStr("BOOKING_TIMEZONE", "Asia/Bangkok"))
	if err != nil {
		return WorkerConfig{}, fmt.Errorf("booking timezone: %w", err)
	}
	return WorkerConfig{
		AMQPURL:       AMQPURL(),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		LogFormat:     envStr("LOG_FORMAT", "json"),
		BookingLogDir: envStr("BOOKING_LOG_DIR", "logs"),
		SMTP:          LoadSMTPConfig(),
		Location:      loc,
	}, nil
}
