package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/service"
)

// BookingHandler serves the student booking flow and the admin approval
// queue.
type BookingHandler struct {
	Bookings BookingAPI
	Loc      *time.Location
	Log      *zap.Logger
}

func NewBookingHandler(b BookingAPI, loc *time.Location, log *zap.Logger) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingHandler{Bookings: b, Loc: loc, Log: log}
}

type submitReq struct {
	RoomID          uint64 `json:"room_id" validate:"required"`
	Title           string `json:"title" validate:"required,max=200"`
	Attendees       int    `json:"attendees" validate:"required,min=1,max=10000"`
	Date            string `json:"date" validate:"required"`
	StartTime       string `json:"start_time" validate:"required"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes" validate:"min=0"`
	Note            string `json:"note" validate:"max=1000"`
	Advisor         string `json:"advisor" validate:"max=120"`
}

// Submit handles POST /v1/bookings.
func (h *BookingHandler) Submit(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req submitReq
	if err := bind(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	b, err := h.Bookings.Submit(ctx, uid, service.SubmitInput{
		RoomID:    req.RoomID,
		Title:     req.Title,
		Attendees: req.Attendees,
		Note:      req.Note,
		Advisor:   req.Advisor,
		TimeInput: service.TimeInput{
			Date: req.Date, StartTime: req.StartTime, EndTime: req.EndTime, DurationMinutes: req.DurationMinutes,
		},
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toBooking(*b, h.Loc))
}

// Mine handles GET /v1/my-bookings?tab=upcoming|past|all.
func (h *BookingHandler) Mine(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	tab := service.Tab(strings.ToLower(c.QueryParam("tab")))
	switch tab {
	case "":
		tab = service.TabAll
	case service.TabUpcoming, service.TabPast, service.TabAll:
	default:
		return badRequest(c, "tab must be upcoming, past or all")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	list, err := h.Bookings.ListMine(ctx, uid, tab)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": toBookingViews(list, h.Loc)})
}

// Get handles GET /v1/bookings/:id.  Admins may read any booking.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	b, err := h.Bookings.Get(ctx, uid, middleware.Role(c) == model.RoleAdmin, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toBookingView(b, h.Loc))
}

// Cancel handles DELETE /v1/bookings/:id.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	b, err := h.Bookings.Cancel(ctx, uid, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toBookingView(b, h.Loc))
}

// AdminList handles GET /v1/admin/bookings.
func (h *BookingHandler) AdminList(c echo.Context) error {
	f := service.AdminFilter{
		Status: c.QueryParam("status"),
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
		Limit:  queryInt(c, "limit", 100),
		Offset: queryInt(c, "offset", 0),
	}
	if v := c.QueryParam("room_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid room_id")
		}
		f.RoomID = id
	}
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid user_id")
		}
		f.UserID = id
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	list, err := h.Bookings.ListAll(ctx, f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": toBookingViews(list, h.Loc)})
}

type decisionReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Approve handles POST /v1/admin/bookings/:id/approve.
func (h *BookingHandler) Approve(c echo.Context) error {
	return h.decide(c, model.StatusApproved)
}

// Reject handles POST /v1/admin/bookings/:id/reject.
func (h *BookingHandler) Reject(c echo.Context) error {
	return h.decide(c, model.StatusRejected)
}

func (h *BookingHandler) decide(c echo.Context, status model.BookingStatus) error {
	adminID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var req decisionReq
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return respondError(c, h.Log, err)
		}
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	res, err := h.Bookings.Decide(ctx, adminID, id, status, req.Reason)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking":   toBookingView(res.Booking, h.Loc),
		"notified":  res.Notified,
		"published": res.Published,
	})
}
