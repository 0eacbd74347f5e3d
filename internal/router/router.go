package router // package router registers the HTTP routes of the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/model"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Rooms         *handler.RoomHandler
	Bookings      *handler.BookingHandler
	Notifications *handler.NotificationHandler
	Schedule      *handler.ScheduleHandler
	Metrics       http.Handler
}

// Options carries the middleware shared by several groups.  Nil entries
// are skipped.
type Options struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

func (o Options) authed(roles ...string) []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{middleware.JWTAuth(o.JWTSecret)}
	if len(roles) > 0 {
		mw = append(mw, middleware.RequireRole(roles...))
	}
	if o.RateLimit != nil {
		mw = append(mw, o.RateLimit)
	}
	return mw
}

func (o Options) cached() []echo.MiddlewareFunc {
	if o.Cache == nil {
		return nil
	}
	return []echo.MiddlewareFunc{o.Cache}
}

// Register wires every route onto e.
func Register(e *echo.Echo, h Handlers, o Options) {
	RegisterRoutes(e, h)
	RegisterAuth(e, h.Auth, o)
	RegisterCommon(e, h, o)
	RegisterStudent(e, h.Bookings, o)
	RegisterAdmin(e, h, o)
}

// RegisterRoutes registers the unauthenticated probes and /metrics.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", h.Health.Live)
	e.GET("/readyz", h.Health.Ready)
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}
}

// RegisterAuth registers the token endpoints under /v1/auth.  None of them
// need an access token; logout accepts either a refresh token in the body
// or a bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, o Options) {
	var mw []echo.MiddlewareFunc
	if o.RateLimit != nil {
		mw = append(mw, o.RateLimit)
	}
	g := e.Group("/v1/auth", mw...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterCommon registers what every signed-in user can reach: the
// profile, rooms, availability, the schedule and notifications.
func RegisterCommon(e *echo.Echo, h Handlers, o Options) {
	g := e.Group("/v1", o.authed(model.RoleStudent, model.RoleAdmin)...)
	g.GET("/me", h.Users.Me)
	g.PUT("/me", h.Users.UpdateMe)

	g.GET("/rooms", h.Rooms.List)
	g.GET("/rooms/:id", h.Rooms.Get, o.cached()...)
	g.GET("/rooms/:id/availability", h.Rooms.Availability)
	g.GET("/schedule", h.Schedule.Day)
	g.GET("/bookings/:id", h.Bookings.Get)

	g.GET("/notifications", h.Notifications.List)
	g.GET("/notifications/unread-count", h.Notifications.UnreadCount)
	g.POST("/notifications/read", h.Notifications.MarkRead)
}
