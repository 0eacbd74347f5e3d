package service

import (
	"context"
	"time"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/queue"
	"github.com/iliyamo/room-booking/internal/repository"
)

// BookingStore is the persistence the booking flows need.
type BookingStore interface {
	CreateIfFree(ctx context.Context, b *model.Booking, window availability.Interval,
		check func(room model.Room, existing []availability.Slot) error) error
	ListSlots(ctx context.Context, roomID uint64, window availability.Interval) ([]availability.Slot, error)
	BusyRoomIDs(ctx context.Context, iv availability.Interval) ([]uint64, error)
	GetByID(ctx context.Context, id uint64) (model.BookingView, error)
	UpdateStatusFrom(ctx context.Context, id uint64, from, to model.BookingStatus, decidedBy *uint64, note string) (bool, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.BookingView, error)
	List(ctx context.Context, f model.BookingFilter) ([]model.BookingView, error)
}

type RoomStore interface {
	GetByID(ctx context.Context, id uint64) (model.Room, error)
	List(ctx context.Context, f repository.RoomFilter) ([]model.Room, error)
	Create(ctx context.Context, rm *model.Room) error
	Update(ctx context.Context, rm *model.Room) error
	Delete(ctx context.Context, id uint64) error
}

type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, p repository.ProfileUpdate) error
	AdminUpdate(ctx context.Context, id uint64, u repository.AdminUpdate) error
	ToggleBan(ctx context.Context, id uint64) (string, error)
	List(ctx context.Context, q string, limit, offset int) ([]model.User, error)
	Delete(ctx context.Context, id uint64) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}

type TokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type ReportStore interface {
	StatusCounts(ctx context.Context) (map[model.BookingStatus]int, error)
	CountUsers(ctx context.Context) (int, error)
	StartTimes(ctx context.Context, from, to time.Time) ([]time.Time, error)
	TopRooms(ctx context.Context, from, to time.Time, limit int) ([]model.RoomUsage, error)
}

// EventPublisher announces decisions to the worker.
type EventPublisher interface {
	PublishBookingDecided(ctx context.Context, ev queue.BookingDecidedEvent) error
}

var (
	_ BookingStore      = (*repository.BookingRepo)(nil)
	_ RoomStore         = (*repository.RoomRepo)(nil)
	_ UserStore         = (*repository.UserRepo)(nil)
	_ NotificationStore = (*repository.NotificationRepo)(nil)
	_ TokenRevoker      = (*repository.TokenRepo)(nil)
	_ ReportStore       = (*repository.ReportRepo)(nil)
	_ EventPublisher    = (*queue.Publisher)(nil)
)
