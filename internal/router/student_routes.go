package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/model"
)

// RegisterStudent registers the booking flow.  Only students submit and
// cancel bookings; admins act on them through /v1/admin.
func RegisterStudent(e *echo.Echo, b *handler.BookingHandler, o Options) {
	g := e.Group("/v1", o.authed(model.RoleStudent)...)
	g.POST("/bookings", b.Submit)
	g.GET("/my-bookings", b.Mine)
	g.DELETE("/bookings/:id", b.Cancel)
}
