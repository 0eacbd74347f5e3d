package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/metrics"
	"github.com/iliyamo/room-booking/internal/queue"
)

// DecisionHandler is the worker's queue.Handler.  The log line is
// mandatory: failing to write it rejects the delivery.  Mail is best
// effort and skipped when Mailer is nil.
type DecisionHandler struct {
	Log      *queue.BookingLog
	Mailer   Mailer
	Location *time.Location
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

func (h *DecisionHandler) HandleBookingDecided(ctx context.Context, ev queue.BookingDecidedEvent) error {
	if err := h.Log.Append(ev); err != nil {
		return err
	}
	if h.Mailer == nil || ev.UserEmail == "" {
		return nil
	}
	subject, body, err := DecisionEmail(ev, h.Location)
	if err == nil {
		err = h.Mailer.Send(ctx, ev.UserEmail, subject, body)
	}
	h.Metrics.Mail(err)
	if err != nil {
		h.logger().Warn("decision email not sent",
			zap.Uint64("booking_id", ev.BookingID), zap.String("to", ev.UserEmail), zap.Error(err))
	}
	return nil
}

func (h *DecisionHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
