package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/utils"
)

const secret = "router-secret"

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

// newServer mounts every route.  The services are nil, so only requests
// rejected before reaching them are exercised here.
func newServer(db handler.Pinger) *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewValidator()
	Register(e, Handlers{
		Health:        &handler.HealthHandler{DB: db},
		Auth:          handler.NewAuthHandler(config.Config{JWTSecret: secret}, nil, nil, nil),
		Users:         handler.NewUserHandler(nil, nil),
		Rooms:         handler.NewRoomHandler(nil, nil, nil),
		Bookings:      handler.NewBookingHandler(nil, nil, nil),
		Notifications: handler.NewNotificationHandler(nil, nil),
		Schedule:      handler.NewScheduleHandler(nil, nil, nil, nil),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	}, Options{JWTSecret: secret})
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, role, body string) int {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if role != "" {
		tok, err := utils.NewAccessToken(secret, 7, role, 5)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestPublicRoutes(t *testing.T) {
	e := newServer(pinger{})
	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/healthz", "", ""))
	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/readyz", "", ""))
	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/metrics", "", ""))
	// reaches the handler: body check fails before any store is touched
	assert.Equal(t, http.StatusBadRequest, call(t, e, http.MethodPost, "/v1/auth/refresh", "", `{}`))
}

func TestReadyFailsWithoutDatabase(t *testing.T) {
	e := newServer(pinger{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusServiceUnavailable, call(t, e, http.MethodGet, "/readyz", "", ""))
}

func TestAuthenticationRequired(t *testing.T) {
	e := newServer(pinger{})
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/v1/me"},
		{http.MethodGet, "/v1/rooms"},
		{http.MethodGet, "/v1/schedule"},
		{http.MethodPost, "/v1/bookings"},
		{http.MethodGet, "/v1/my-bookings"},
		{http.MethodGet, "/v1/admin/bookings"},
		{http.MethodGet, "/v1/admin/reports/summary"},
	} {
		assert.Equal(t, http.StatusUnauthorized, call(t, e, r.method, r.path, "", ""), r.path)
	}
}

func TestRoleEnforcement(t *testing.T) {
	e := newServer(pinger{})

	// students cannot reach the admin surface
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodPost, "/v1/admin/bookings/1/approve", model.RoleStudent, ""))
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodPost, "/v1/admin/rooms", model.RoleStudent, `{}`))
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodPost, "/v1/admin/users/3/toggle-ban", model.RoleStudent, ""))

	// admins decide bookings but do not submit or cancel them
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodPost, "/v1/bookings", model.RoleAdmin, `{}`))
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodDelete, "/v1/bookings/1", model.RoleAdmin, ""))

	// allowed roles reach the handler and fail on input instead
	assert.Equal(t, http.StatusBadRequest, call(t, e, http.MethodPost, "/v1/bookings", model.RoleStudent, `{}`))
	assert.Equal(t, http.StatusBadRequest, call(t, e, http.MethodPost, "/v1/admin/bookings/x/approve", model.RoleAdmin, ""))
	assert.Equal(t, http.StatusBadRequest, call(t, e, http.MethodGet, "/v1/bookings/x", model.RoleAdmin, ""))
}
