package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ScheduleHandler serves the day timetable and the admin report.
type ScheduleHandler struct {
	Schedule ScheduleAPI
	Reports  ReportAPI
	Loc      *time.Location
	Log      *zap.Logger
}

func NewScheduleHandler(s ScheduleAPI, r ReportAPI, loc *time.Location, log *zap.Logger) *ScheduleHandler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ScheduleHandler{Schedule: s, Reports: r, Loc: loc, Log: log}
}

type cellResp struct {
	Label    string     `json:"label"`
	Start    time.Time  `json:"start_time"`
	End      time.Time  `json:"end_time"`
	Bookings []slotResp `json:"bookings"`
}

// Day handles GET /v1/schedule?date=YYYY-MM-DD[&room_id=].  date defaults
// to today in the campus zone.
func (h *ScheduleHandler) Day(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = time.Now().In(h.Loc).Format(time.DateOnly)
	}
	var roomID uint64
	if v := c.QueryParam("room_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid room_id")
		}
		roomID = id
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	s, err := h.Schedule.Day(ctx, date, roomID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	grid := make([]cellResp, 0, len(s.Grid))
	for _, cell := range s.Grid {
		grid = append(grid, cellResp{Label: cell.Label, Start: cell.Start.UTC(), End: cell.End.UTC(), Bookings: toSlots(cell.Slots)})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":     s.Date,
		"bookings": toBookingViews(s.Bookings, h.Loc),
		"grid":     grid,
	})
}

type dailyResp struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type roomUsageResp struct {
	RoomID   uint64 `json:"room_id"`
	RoomName string `json:"room_name"`
	Count    int    `json:"count"`
}

// Report handles GET /v1/admin/reports/summary?from=&to=.
func (h *ScheduleHandler) Report(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	sum, err := h.Reports.Summary(ctx, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	daily := make([]dailyResp, 0, len(sum.Daily))
	for _, d := range sum.Daily {
		daily = append(daily, dailyResp{Date: d.Day, Count: d.Count})
	}
	top := make([]roomUsageResp, 0, len(sum.TopRooms))
	for _, r := range sum.TopRooms {
		top = append(top, roomUsageResp{RoomID: r.RoomID, RoomName: r.RoomName, Count: r.Count})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"pending_count":  sum.PendingCount,
		"approved_count": sum.ApprovedCount,
		"total_users":    sum.TotalUsers,
		"peak_hour":      sum.PeakHour,
		"daily":          daily,
		"top_rooms":      top,
	})
}
