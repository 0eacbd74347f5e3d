package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/service"
)

// RoomHandler serves room browsing and search for everyone and room
// management for admins.
type RoomHandler struct {
	Rooms    RoomAPI
	Bookings BookingAPI
	Log      *zap.Logger
}

func NewRoomHandler(r RoomAPI, b BookingAPI, log *zap.Logger) *RoomHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomHandler{Rooms: r, Bookings: b, Log: log}
}

func timeQuery(c echo.Context) service.TimeInput {
	return service.TimeInput{
		Date:            c.QueryParam("date"),
		StartTime:       c.QueryParam("start"),
		EndTime:         c.QueryParam("end"),
		DurationMinutes: queryInt(c, "duration", 0),
	}
}

// facilities accepts ?facility=wifi&facility=projector as well as
// ?facility=wifi,projector.
func facilities(c echo.Context) []string {
	var out []string
	for _, v := range c.QueryParams()["facility"] {
		for _, f := range strings.Split(v, ",") {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				out = append(out, f)
			}
		}
	}
	return out
}

// List handles GET /v1/rooms.  With date, start and end (or duration) it
// only returns active rooms free for that interval.
func (h *RoomHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	rooms, err := h.Rooms.Search(ctx, service.RoomQuery{
		Q:           strings.TrimSpace(c.QueryParam("q")),
		Facilities:  facilities(c),
		MinCapacity: queryInt(c, "min_capacity", 0),
		TimeInput:   timeQuery(c),
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": toRooms(rooms)})
}

func (h *RoomHandler) Get(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	rm, err := h.Rooms.Get(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toRoom(rm))
}

// Availability handles GET /v1/rooms/:id/availability.  With a start time
// it answers for that interval; with only a date it lists the day's free
// windows and taken slots.
func (h *RoomHandler) Availability(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	in := timeQuery(c)
	if in.StartTime == "" {
		day, err := h.Bookings.RoomDay(ctx, id, in.Date)
		if err != nil {
			return respondError(c, h.Log, err)
		}
		free := make([]intervalResp, 0, len(day.Free))
		for _, iv := range day.Free {
			free = append(free, toInterval(iv))
		}
		return c.JSON(http.StatusOK, echo.Map{"date": day.Date, "free": free, "taken": toSlots(day.Taken)})
	}

	a, err := h.Bookings.CheckAvailability(ctx, id, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	resp := echo.Map{
		"free":       a.Free,
		"start_time": a.Interval.Start.UTC().Format(time.RFC3339),
		"end_time":   a.Interval.End.UTC().Format(time.RFC3339),
	}
	if a.Reason != nil {
		resp["reason"] = echo.Map{"code": a.Reason.Code, "message": a.Reason.Message}
	}
	if a.Conflict != nil {
		resp["conflict"] = toSlots([]availability.Slot{*a.Conflict})[0]
	}
	return c.JSON(http.StatusOK, resp)
}

type roomReq struct {
	Name       string   `json:"name" validate:"required,max=100"`
	Building   string   `json:"building" validate:"max=100"`
	Capacity   int      `json:"capacity" validate:"required,min=1,max=10000"`
	Facilities []string `json:"facilities" validate:"dive,required,max=32"`
	Status     string   `json:"status" validate:"omitempty,oneof=active maintenance"`
	ImageURL   string   `json:"image_url" validate:"omitempty,url"`
}

func (r roomReq) input() service.RoomInput {
	tags := make([]string, 0, len(r.Facilities))
	for _, f := range r.Facilities {
		tags = append(tags, strings.ToLower(strings.TrimSpace(f)))
	}
	return service.RoomInput{Name: r.Name, Building: r.Building, Capacity: r.Capacity,
		Facilities: tags, Status: r.Status, ImageURL: r.ImageURL}
}

// Create handles POST /v1/admin/rooms.
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := bind(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	rm, err := h.Rooms.Create(ctx, req.input())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toRoom(rm))
}

// Update handles PUT /v1/admin/rooms/:id.
func (h *RoomHandler) Update(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	var req roomReq
	if err := bind(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	rm, err := h.Rooms.Update(ctx, id, req.input())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toRoom(rm))
}

// Delete handles DELETE /v1/admin/rooms/:id.  Rooms with bookings cannot
// be deleted (409); set them to maintenance instead.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Rooms.Delete(ctx, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
