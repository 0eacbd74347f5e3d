package handler

import (
	"time"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/model"
)

// Response bodies.  Instants are UTC; date, start and end repeat them as
// campus-local wall time for display.

type userResp struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	StudentID string    `json:"student_id,omitempty"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toUser(u model.User) userResp {
	return userResp{
		ID: u.ID, Email: u.Email, FullName: u.FullName, StudentID: u.StudentID, Role: u.Role,
		Phone: u.Phone, AvatarURL: u.AvatarURL, Status: u.Status, CreatedAt: u.CreatedAt,
	}
}

type roomResp struct {
	ID         uint64   `json:"id"`
	Name       string   `json:"name"`
	Building   string   `json:"building"`
	Capacity   uint32   `json:"capacity"`
	Facilities []string `json:"facilities"`
	Status     string   `json:"status"`
	ImageURL   string   `json:"image_url,omitempty"`
}

func toRoom(r model.Room) roomResp {
	f := r.Facilities
	if f == nil {
		f = []string{}
	}
	return roomResp{ID: r.ID, Name: r.Name, Building: r.Building, Capacity: r.Capacity,
		Facilities: f, Status: r.Status, ImageURL: r.ImageURL}
}

func toRooms(rs []model.Room) []roomResp {
	out := make([]roomResp, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRoom(r))
	}
	return out
}

type bookingResp struct {
	ID            uint64    `json:"id"`
	BookingNumber string    `json:"booking_number"`
	UserID        uint64    `json:"user_id"`
	RoomID        uint64    `json:"room_id"`
	RoomName      string    `json:"room_name,omitempty"`
	Building      string    `json:"building,omitempty"`
	UserName      string    `json:"user_name,omitempty"`
	UserEmail     string    `json:"user_email,omitempty"`
	Title         string    `json:"title"`
	Attendees     uint32    `json:"attendees"`
	Status        string    `json:"status"`
	Note          string    `json:"note,omitempty"`
	Advisor       string    `json:"advisor,omitempty"`
	DecisionNote  string    `json:"decision_note,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Date          string    `json:"date"`
	Start         string    `json:"start"`
	End           string    `json:"end"`
	CreatedAt     time.Time `json:"created_at"`
}

func toBooking(b model.Booking, loc *time.Location) bookingResp {
	s, e := b.Start.In(loc), b.End.In(loc)
	return bookingResp{
		ID: b.ID, BookingNumber: b.BookingNumber, UserID: b.UserID, RoomID: b.RoomID,
		Title: b.Title, Attendees: b.Attendees, Status: string(b.Status), Note: b.Note,
		Advisor: b.Advisor, DecisionNote: b.DecisionNote,
		StartTime: b.Start.UTC(), EndTime: b.End.UTC(),
		Date: s.Format(time.DateOnly), Start: s.Format("15:04"), End: e.Format("15:04"),
		CreatedAt: b.CreatedAt.UTC(),
	}
}

func toBookingView(v model.BookingView, loc *time.Location) bookingResp {
	r := toBooking(v.Booking, loc)
	r.RoomName, r.Building, r.UserName, r.UserEmail = v.RoomName, v.Building, v.UserFullName, v.UserEmail
	return r
}

func toBookingViews(vs []model.BookingView, loc *time.Location) []bookingResp {
	out := make([]bookingResp, 0, len(vs))
	for _, v := range vs {
		out = append(out, toBookingView(v, loc))
	}
	return out
}

type intervalResp struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

func toInterval(iv availability.Interval) intervalResp {
	return intervalResp{Start: iv.Start.UTC(), End: iv.End.UTC()}
}

type slotResp struct {
	BookingID uint64    `json:"booking_id"`
	RoomID    uint64    `json:"room_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Start     time.Time `json:"start_time"`
	End       time.Time `json:"end_time"`
}

func toSlots(ss []availability.Slot) []slotResp {
	out := make([]slotResp, 0, len(ss))
	for _, s := range ss {
		out = append(out, slotResp{BookingID: s.BookingID, RoomID: s.RoomID, Title: s.Title,
			Status: string(model.NormalizeStatus(s.Status)), Start: s.Start.UTC(), End: s.End.UTC()})
	}
	return out
}

type notificationResp struct {
	ID        uint64    `json:"id"`
	BookingID *uint64   `json:"booking_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotifications(ns []model.Notification) []notificationResp {
	out := make([]notificationResp, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationResp{ID: n.ID, BookingID: n.BookingID, Title: n.Title,
			Message: n.Message, Type: n.Type, IsRead: n.IsRead, CreatedAt: n.CreatedAt.UTC()})
	}
	return out
}
