package handler

import (
	"context"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
	"github.com/iliyamo/room-booking/internal/service"
)

// The handlers talk to the services through these interfaces so that they
// can be exercised with mocks.

type AuthUsers interface {
	Create(ctx context.Context, nu repository.NewUser, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type RefreshTokens interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type BookingAPI interface {
	Submit(ctx context.Context, userID uint64, in service.SubmitInput) (*model.Booking, error)
	Get(ctx context.Context, userID uint64, admin bool, id uint64) (model.BookingView, error)
	Cancel(ctx context.Context, userID, bookingID uint64) (model.BookingView, error)
	Decide(ctx context.Context, adminID, bookingID uint64, decision model.BookingStatus, reason string) (*service.DecisionResult, error)
	CheckAvailability(ctx context.Context, roomID uint64, in service.TimeInput) (service.Availability, error)
	RoomDay(ctx context.Context, roomID uint64, date string) (service.DayAvailability, error)
	ListMine(ctx context.Context, userID uint64, tab service.Tab) ([]model.BookingView, error)
	ListAll(ctx context.Context, f service.AdminFilter) ([]model.BookingView, error)
}

type RoomAPI interface {
	Search(ctx context.Context, q service.RoomQuery) ([]model.Room, error)
	Get(ctx context.Context, id uint64) (model.Room, error)
	Create(ctx context.Context, in service.RoomInput) (model.Room, error)
	Update(ctx context.Context, id uint64, in service.RoomInput) (model.Room, error)
	Delete(ctx context.Context, id uint64) error
}

type UserAPI interface {
	Profile(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, p repository.ProfileUpdate) (model.User, error)
	List(ctx context.Context, q string, limit, offset int) ([]model.User, error)
	AdminUpdate(ctx context.Context, adminID, id uint64, u repository.AdminUpdate) (model.User, error)
	ToggleBan(ctx context.Context, adminID, id uint64) (string, error)
	Delete(ctx context.Context, adminID, id uint64) error
}

type NotificationStore interface {
	ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID uint64) (int, error)
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
}

type ScheduleAPI interface {
	Day(ctx context.Context, date string, roomID uint64) (service.Schedule, error)
}

type ReportAPI interface {
	Summary(ctx context.Context, from, to string) (model.ReportSummary, error)
}

var (
	_ AuthUsers         = (*repository.UserRepo)(nil)
	_ RefreshTokens     = (*repository.TokenRepo)(nil)
	_ BookingAPI        = (*service.BookingService)(nil)
	_ RoomAPI           = (*service.RoomService)(nil)
	_ UserAPI           = (*service.UserService)(nil)
	_ NotificationStore = (*repository.NotificationRepo)(nil)
	_ ScheduleAPI       = (*service.ScheduleService)(nil)
	_ ReportAPI         = (*service.ReportService)(nil)
)
