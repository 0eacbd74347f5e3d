package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/model"
)

// RegisterAdmin registers the approval queue, room and user management and
// the reports under /v1/admin.
func RegisterAdmin(e *echo.Echo, h Handlers, o Options) {
	g := e.Group("/v1/admin", o.authed(model.RoleAdmin)...)

	g.GET("/bookings", h.Bookings.AdminList)
	g.POST("/bookings/:id/approve", h.Bookings.Approve)
	g.POST("/bookings/:id/reject", h.Bookings.Reject)

	g.POST("/rooms", h.Rooms.Create)
	g.PUT("/rooms/:id", h.Rooms.Update)
	g.DELETE("/rooms/:id", h.Rooms.Delete)

	g.GET("/users", h.Users.List)
	g.GET("/users/:id", h.Users.Get)
	g.PUT("/users/:id", h.Users.Update)
	g.DELETE("/users/:id", h.Users.Delete)
	g.POST("/users/:id/toggle-ban", h.Users.ToggleBan)

	g.GET("/reports/summary", h.Schedule.Report, o.cached()...)
}
