package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/availability"
)

func TestLoadBookingConfigDefaults(t *testing.T) {
	t.Setenv("BOOKING_TIMEZONE", "UTC")
	for _, k := range []string{"BOOKING_CLOSE_AT", "BOOKING_MAX_ADVANCE", "BOOKING_MIN_DURATION", "BOOKING_GRID_STEP"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadBookingConfig()
	require.NoError(t, err)
	p := cfg.Policy
	assert.Equal(t, availability.MustClock("08:00"), p.OpenAt)
	assert.Equal(t, availability.MustClock("17:00"), p.CloseAt)
	assert.Equal(t, availability.MustClock("12:00"), p.BreakStart)
	assert.Equal(t, availability.MustClock("13:00"), p.BreakEnd)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, p.ClosedWeekdays)
	assert.Equal(t, 90*24*time.Hour, p.MaxAdvance)
	assert.Equal(t, 30*time.Minute, p.MinDuration)
	assert.Equal(t, time.Hour, cfg.GridStep)
}

func TestLoadBookingConfigSwitchesRulesOff(t *testing.T) {
	t.Setenv("BOOKING_TIMEZONE", "UTC")
	t.Setenv("BOOKING_OPEN_AT", "")
	t.Setenv("BOOKING_BREAK", "")
	t.Setenv("BOOKING_CLOSED_DAYS", "")

	cfg, err := LoadBookingConfig()
	require.NoError(t, err)
	assert.Zero(t, cfg.Policy.OpenAt)
	assert.Zero(t, cfg.Policy.CloseAt)
	assert.Zero(t, cfg.Policy.BreakStart)
	assert.Empty(t, cfg.Policy.ClosedWeekdays)
}

func TestLoadBookingConfigErrors(t *testing.T) {
	cases := map[string][2]string{
		"timezone":  {"BOOKING_TIMEZONE", "Mars/Olympus"},
		"open":      {"BOOKING_OPEN_AT", "25:00"},
		"break":     {"BOOKING_BREAK", "12:00"},
		"weekday":   {"BOOKING_CLOSED_DAYS", "sat,funday"},
		"close bad": {"BOOKING_CLOSE_AT", "five"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("BOOKING_TIMEZONE", "UTC")
			t.Setenv(kv[0], kv[1])
			_, err := LoadBookingConfig()
			assert.Error(t, err)
		})
	}
}

func TestParseWeekdaysAcceptsFullNames(t *testing.T) {
	days, err := parseWeekdays("Saturday, SUNDAY")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, days)
}

func TestRateLimitNormalize(t *testing.T) {
	c := RateLimitConfig{Capacity: 0, RefillTokens: -2, RefillInterval: 0, TTL: time.Second}.normalize()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, 1, c.WriteCost)
	assert.Equal(t, time.Second, c.RefillInterval)
	assert.Equal(t, 5*time.Second, c.TTL)
}

func TestRateLimitWriteCostCappedAtCapacity(t *testing.T) {
	c := RateLimitConfig{Capacity: 3, WriteCost: 10}.normalize()
	assert.Equal(t, 3, c.WriteCost)
}

func TestRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("REDIS_DB", "2")

	cfg := LoadRedisConfig()
	assert.Equal(t, mr.Addr(), cfg.Addr)
	assert.Equal(t, 2, cfg.DB)

	cfg.DB = 0
	rdb, err := NewRedisClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	_, err = NewRedisClient(RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestWorkerConfigNeedsNothing(t *testing.T) {
	t.Setenv("BOOKING_TIMEZONE", "UTC")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("BOOKING_LOG_DIR", "")

	cfg, err := LoadWorkerConfig()
	require.NoError(t, err)
	assert.Equal(t, "logs", cfg.BookingLogDir)
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, time.UTC, cfg.Location)
}
