package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// dialTimeout caps the TCP dial and AMQP handshake when the caller's
// context carries no earlier deadline.
const dialTimeout = 3 * time.Second

// Publisher publishes booking events on the default exchange.  The
// connection is opened on first use and reopened after a failure; a
// broker outage only fails the publish, never the caller's request.
type Publisher struct {
	url string
	log *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, log: log}
}

// PublishBookingDecided publishes ev as a persistent JSON message.
func (p *Publisher) PublishBookingDecided(ctx context.Context, ev BookingDecidedEvent) error {
	msg, err := newPublishing(ev, time.Now().UTC())
	if err != nil {
		return err
	}
	return p.publish(ctx, BookingDecidedQueue, msg)
}

func newPublishing(v any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}, nil
}

func (p *Publisher) publish(ctx context.Context, queue string, msg amqp.Publishing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel(ctx, queue)
	if err != nil {
		p.log.Warn("rabbitmq unavailable", zap.String("queue", queue), zap.Error(err))
		return err
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		p.log.Warn("rabbitmq publish failed", zap.String("queue", queue), zap.Error(err))
		p.reset()
		return err
	}
	return nil
}

// channel returns the cached channel, dialing and declaring the queue when
// needed.  Callers hold p.mu.
func (p *Publisher) channel(ctx context.Context, queue string) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	timeout := dialTimeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
