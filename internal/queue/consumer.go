package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler processes one decoded event.  A returned error rejects the
// delivery without requeue so a poison message cannot loop.
type Handler interface {
	HandleBookingDecided(ctx context.Context, ev BookingDecidedEvent) error
}

// Outcome is reported once per delivery: "ack" or "reject".
type Outcome func(result string)

// Consumer reads booking.decided with a reconnect loop.
type Consumer struct {
	url      string
	log      *zap.Logger
	handler  Handler
	outcome  Outcome
	prefetch int
}

func NewConsumer(url string, h Handler, log *zap.Logger, outcome Outcome) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	if outcome == nil {
		outcome = func(string) {}
	}
	return &Consumer{url: url, log: log, handler: h, outcome: outcome, prefetch: 50}
}

// Run consumes until ctx is cancelled.  Dial failures back off
// exponentially up to 30s; a closed delivery channel triggers a reconnect.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("booking-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("booking-consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.log.Warn("booking-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(BookingDecidedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, BookingDecidedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.Info("booking-consumer: consuming", zap.String("queue", BookingDecidedQueue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	c.process(ctx, d.Body, d)
}

// process decodes and handles one body, then acks or rejects it.
func (c *Consumer) process(ctx context.Context, body []byte, ack acknowledger) {
	ev, err := DecodeBookingDecided(body)
	if err == nil {
		err = c.handler.HandleBookingDecided(ctx, ev)
	}
	if err != nil {
		c.log.Error("booking-consumer: rejecting message", zap.Error(err))
		_ = ack.Nack(false, false)
		c.outcome("reject")
		return
	}
	_ = ack.Ack(false)
	c.outcome("ack")
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
