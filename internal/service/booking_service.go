package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/metrics"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/queue"
	"github.com/iliyamo/room-booking/internal/repository"
)

// BookingService implements submission, cancellation, admin decisions and
// the availability queries.
type BookingService struct {
	bookings      BookingStore
	rooms         RoomStore
	users         UserStore
	notifications NotificationStore
	events        EventPublisher
	policy        availability.Policy
	log           *zap.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
	newRef        func() string
}

type BookingOption func(*BookingService)

// WithEvents publishes booking.decided after every decision.
func WithEvents(p EventPublisher) BookingOption {
	return func(s *BookingService) { s.events = p }
}

func WithLogger(l *zap.Logger) BookingOption {
	return func(s *BookingService) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) BookingOption {
	return func(s *BookingService) { s.metrics = m }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

// WithReferenceGenerator replaces the UUID booking numbers, for tests.
func WithReferenceGenerator(f func() string) BookingOption {
	return func(s *BookingService) { s.newRef = f }
}

func NewBookingService(
	bookings BookingStore,
	rooms RoomStore,
	users UserStore,
	notifications NotificationStore,
	policy availability.Policy,
	opts ...BookingOption,
) *BookingService {
	s := &BookingService{
		bookings:      bookings,
		rooms:         rooms,
		users:         users,
		notifications: notifications,
		policy:        policy,
		log:           zap.NewNop(),
		now:           time.Now,
		newRef:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitInput is a booking request as entered by a student.
type SubmitInput struct {
	RoomID    uint64
	Title     string
	Attendees int
	Note      string
	Advisor   string
	TimeInput
}

// Submit validates in and stores a pending booking.  Field problems come
// back as *ValidationError, calendar rule violations as
// *availability.Reason and an occupied slot as *availability.ConflictError;
// in each case nothing is written.
func (s *BookingService) Submit(ctx context.Context, userID uint64, in SubmitInput) (*model.Booking, error) {
	loc := locationOf(s.policy)
	fe := fieldErrors{}
	if in.RoomID == 0 {
		fe.add("room_id", "required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		fe.add("title", "required")
	}
	switch {
	case in.Attendees < 1:
		fe.add("attendees", "must be at least 1")
	case in.Attendees > MaxCapacity:
		fe.add("attendees", fmt.Sprintf("must be at most %d", MaxCapacity))
	}
	iv := in.TimeInput.parse(loc, fe)
	if err := fe.err(); err != nil {
		s.metrics.Submit("invalid")
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.Banned() {
		return nil, ErrBanned
	}
	room, err := s.rooms.GetByID(ctx, in.RoomID)
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	if !room.Bookable() {
		return nil, ErrRoomUnavailable
	}
	if in.Attendees > int(room.Capacity) {
		s.metrics.Submit("invalid")
		return nil, invalid("attendees", fmt.Sprintf("room capacity is %d", room.Capacity))
	}

	now := s.now().UTC()
	if err := availability.IsBookable(iv, s.policy, now); err != nil {
		s.metrics.Submit("policy")
		return nil, err
	}

	b := &model.Booking{
		BookingNumber: s.newRef(),
		UserID:        userID,
		RoomID:        room.ID,
		Start:         iv.Start.UTC(),
		End:           iv.End.UTC(),
		Title:         title,
		Attendees:     uint32(in.Attendees),
		Note:          strings.TrimSpace(in.Note),
		Advisor:       strings.TrimSpace(in.Advisor),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.bookings.CreateIfFree(ctx, b, dayWindow(iv, loc), func(locked model.Room, existing []availability.Slot) error {
		if !locked.Bookable() {
			return ErrRoomUnavailable
		}
		return availability.Check(iv, s.policy, now, existing)
	})
	if err != nil {
		if errors.Is(err, availability.ErrConflict) {
			s.metrics.Submit("conflict")
		} else {
			s.metrics.Submit("error")
		}
		return nil, err
	}
	s.metrics.Submit("created")
	s.log.Info("booking submitted",
		zap.Uint64("booking_id", b.ID), zap.Uint64("room_id", b.RoomID), zap.Uint64("user_id", userID),
		zap.Time("start", b.Start), zap.Time("end", b.End))
	return b, nil
}

// Get returns a booking.  Students only see their own.
func (s *BookingService) Get(ctx context.Context, userID uint64, admin bool, id uint64) (model.BookingView, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return model.BookingView{}, err
	}
	if !admin && b.UserID != userID {
		return model.BookingView{}, repository.ErrForbidden
	}
	b.Status = b.DisplayStatus(s.now())
	return b, nil
}

// Cancel withdraws the caller's pending booking.  Cancelling a booking that
// is already cancelled returns it unchanged.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID uint64) (model.BookingView, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.BookingView{}, err
	}
	if b.UserID != userID {
		return model.BookingView{}, repository.ErrForbidden
	}
	switch b.Status {
	case model.StatusCancelled:
		return b, nil
	case model.StatusPending:
	default:
		return model.BookingView{}, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
	}

	ok, err := s.bookings.UpdateStatusFrom(ctx, bookingID, model.StatusPending, model.StatusCancelled, nil, "")
	if err != nil {
		return model.BookingView{}, err
	}
	if !ok {
		// lost a race with an admin decision or a second cancel
		cur, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return model.BookingView{}, err
		}
		if cur.Status == model.StatusCancelled {
			return cur, nil
		}
		return model.BookingView{}, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, cur.Status)
	}
	b.Status = model.StatusCancelled
	b.UpdatedAt = s.now().UTC()
	s.metrics.Cancel()
	s.log.Info("booking cancelled", zap.Uint64("booking_id", bookingID), zap.Uint64("user_id", userID))
	return b, nil
}

// DecisionResult reports the decided booking and which side effects
// happened.  The status change stands even when Notified or Published is
// false.
type DecisionResult struct {
	Booking   model.BookingView
	Notified  bool
	Published bool
}

// Decide approves or rejects a pending booking.  The status change is a
// conditional update, so a booking that already left pending is never
// moved again.  The owner's notification and the broker event follow the
// update and their failures are only logged.
func (s *BookingService) Decide(ctx context.Context, adminID, bookingID uint64, decision model.BookingStatus, reason string) (*DecisionResult, error) {
	if decision != model.StatusApproved && decision != model.StatusRejected {
		return nil, invalid("decision", "must be approved or rejected")
	}
	reason = strings.TrimSpace(reason)

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
	}
	ok, err := s.bookings.UpdateStatusFrom(ctx, bookingID, model.StatusPending, decision, &adminID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking %d is no longer pending", ErrInvalidTransition, bookingID)
	}

	now := s.now().UTC()
	b.Status = decision
	b.DecidedBy = &adminID
	b.DecisionNote = reason
	b.UpdatedAt = now
	s.metrics.Decision(string(decision))
	res := &DecisionResult{Booking: b}

	n := decisionNotification(b, reason, locationOf(s.policy), now)
	if err := s.notifications.Create(ctx, n); err != nil {
		s.log.Warn("decision notification not stored",
			zap.Uint64("booking_id", bookingID), zap.String("status", string(decision)), zap.Error(err))
	} else {
		res.Notified = true
	}

	if s.events != nil {
		err := s.events.PublishBookingDecided(ctx, decidedEvent(b, reason, adminID, now))
		s.metrics.Published(queue.BookingDecidedQueue, err)
		if err != nil {
			s.log.Warn("booking.decided not published", zap.Uint64("booking_id", bookingID), zap.Error(err))
		} else {
			res.Published = true
		}
	}
	s.log.Info("booking decided",
		zap.Uint64("booking_id", bookingID), zap.Uint64("admin_id", adminID), zap.String("status", string(decision)))
	return res, nil
}

func decisionNotification(b model.BookingView, reason string, loc *time.Location, now time.Time) *model.Notification {
	start := b.Start.In(loc)
	when := fmt.Sprintf("%s %s-%s", start.Format("2006-01-02"), start.Format("15:04"), b.End.In(loc).Format("15:04"))
	n := &model.Notification{
		UserID:    b.UserID,
		BookingID: &b.ID,
		CreatedAt: now,
	}
	if b.Status == model.StatusApproved {
		n.Type = model.NotifySuccess
		n.Title = "Booking approved"
		n.Message = fmt.Sprintf("Your booking %q for %s on %s has been approved.", b.Title, b.RoomName, when)
	} else {
		n.Type = model.NotifyError
		n.Title = "Booking rejected"
		n.Message = fmt.Sprintf("Your booking %q for %s on %s has been rejected.", b.Title, b.RoomName, when)
	}
	if reason != "" {
		n.Message += " Reason: " + reason
	}
	return n
}

func decidedEvent(b model.BookingView, reason string, adminID uint64, now time.Time) queue.BookingDecidedEvent {
	return queue.BookingDecidedEvent{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		UserID:        b.UserID,
		UserEmail:     b.UserEmail,
		UserName:      b.UserFullName,
		RoomID:        b.RoomID,
		RoomName:      b.RoomName,
		Building:      b.Building,
		Title:         b.Title,
		Status:        string(b.Status),
		Reason:        reason,
		StartsAt:      b.Start.UTC().Format(time.RFC3339),
		EndsAt:        b.End.UTC().Format(time.RFC3339),
		DecidedBy:     adminID,
		DecidedAt:     now.Format(time.RFC3339),
	}
}

// Availability is the answer to "can this room be booked then?".  Reason
// is set when a calendar rule or the room state forbids it, Conflict when
// another booking holds the slot.
type Availability struct {
	Free     bool
	Interval availability.Interval
	Reason   *availability.Reason
	Conflict *availability.Slot
}

// CodeRoomUnavailable is reported for rooms under maintenance.
const CodeRoomUnavailable availability.Code = "room_unavailable"

// CheckAvailability answers without writing.  A failed lookup of existing
// bookings is returned as an error, never as free.
func (s *BookingService) CheckAvailability(ctx context.Context, roomID uint64, in TimeInput) (Availability, error) {
	fe := fieldErrors{}
	iv := in.parse(locationOf(s.policy), fe)
	if err := fe.err(); err != nil {
		return Availability{}, err
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return Availability{}, err
	}
	out := Availability{Interval: iv}
	if !room.Bookable() {
		out.Reason = &availability.Reason{Code: CodeRoomUnavailable, Message: ErrRoomUnavailable.Error()}
		return out, nil
	}
	if err := availability.IsBookable(iv, s.policy, s.now().UTC()); err != nil {
		var r *availability.Reason
		if errors.As(err, &r) {
			out.Reason = r
			return out, nil
		}
		return Availability{}, err
	}
	existing, err := s.bookings.ListSlots(ctx, roomID, dayWindow(iv, locationOf(s.policy)))
	if err != nil {
		return Availability{}, fmt.Errorf("load bookings: %w", err)
	}
	if slot, found := availability.FindConflict(iv, existing); found {
		out.Conflict = &slot
		return out, nil
	}
	out.Free = true
	return out, nil
}

// DayAvailability lists a room's free windows and occupied slots on a date.
type DayAvailability struct {
	Date  string
	Free  []availability.Interval
	Taken []availability.Slot
}

func (s *BookingService) RoomDay(ctx context.Context, roomID uint64, date string) (DayAvailability, error) {
	loc := locationOf(s.policy)
	day, err := availability.ParseDate(strings.TrimSpace(date), loc)
	if err != nil {
		return DayAvailability{}, invalid("date", "must be YYYY-MM-DD")
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return DayAvailability{}, err
	}
	window := availability.Interval{Start: day, End: day.AddDate(0, 0, 1)}
	taken, err := s.bookings.ListSlots(ctx, roomID, window)
	if err != nil {
		return DayAvailability{}, fmt.Errorf("load bookings: %w", err)
	}
	out := DayAvailability{Date: day.Format(time.DateOnly), Taken: taken, Free: []availability.Interval{}}
	closed := slices.Contains(s.policy.ClosedWeekdays, day.Weekday())
	if room.Bookable() && !closed {
		out.Free = availability.FreeWindows(day, s.policy, taken)
	}
	return out, nil
}

// Tab selects a page of the student's booking history.
type Tab string

const (
	TabUpcoming Tab = "upcoming"
	TabPast     Tab = "past"
	TabAll      Tab = "all"
)

// ListMine returns the caller's bookings.  upcoming holds bookings that
// have not ended and still hold their room, soonest first; past holds the
// rest, latest first.  Statuses are display statuses.
func (s *BookingService) ListMine(ctx context.Context, userID uint64, tab Tab) ([]model.BookingView, error) {
	all, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]model.BookingView, 0, len(all))
	for _, b := range all {
		upcoming := b.Upcoming(now)
		switch tab {
		case TabUpcoming:
			if !upcoming {
				continue
			}
		case TabPast:
			if upcoming {
				continue
			}
		}
		b.Status = b.DisplayStatus(now)
		out = append(out, b)
	}
	if tab == TabUpcoming {
		slices.SortStableFunc(out, func(a, b model.BookingView) int { return a.Start.Compare(b.Start) })
	}
	return out, nil
}

// AdminFilter is the admin booking list query.  Status defaults to
// pending; "all" lists every status.  From and To are inclusive local
// dates.
type AdminFilter struct {
	Status string
	RoomID uint64
	UserID uint64
	From   string
	To     string
	Limit  int
	Offset int
}

func (s *BookingService) ListAll(ctx context.Context, f AdminFilter) ([]model.BookingView, error) {
	loc := locationOf(s.policy)
	q := model.BookingFilter{RoomID: f.RoomID, UserID: f.UserID, Limit: f.Limit, Offset: f.Offset}
	switch st := strings.ToLower(strings.TrimSpace(f.Status)); st {
	case "":
		q.Status = model.StatusPending
	case "all":
	default:
		parsed, ok := model.ParseStatus(st)
		if !ok || parsed == model.StatusCompleted {
			return nil, invalid("status", "unknown status")
		}
		q.Status = parsed
	}
	fe := fieldErrors{}
	if f.From != "" {
		d, err := availability.ParseDate(f.From, loc)
		if err != nil {
			fe.add("from", "must be YYYY-MM-DD")
		}
		q.From = d
	}
	if f.To != "" {
		d, err := availability.ParseDate(f.To, loc)
		if err != nil {
			fe.add("to", "must be YYYY-MM-DD")
		}
		q.To = d.AddDate(0, 0, 1)
	}
	if err := fe.err(); err != nil {
		return nil, err
	}
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 100
	}
	out, err := s.bookings.List(ctx, q)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range out {
		out[i].Status = out[i].DisplayStatus(now)
	}
	return out, nil
}
