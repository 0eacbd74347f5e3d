package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/repository"
	"github.com/iliyamo/room-booking/internal/service"
)

const requestTimeout = 5 * time.Second

// dbCtx bounds the database work of one request.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// respondError turns a service or repository error into the JSON error
// body.  Unexpected errors are logged and reported as 500 without detail.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	var (
		ve       *service.ValidationError
		reason   *availability.Reason
		conflict *availability.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": ve.Fields})
	case errors.As(err, &reason):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": reason.Message, "code": reason.Code})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":      "time slot already booked",
			"code":       "conflict",
			"booking_id": conflict.Slot.BookingID,
			"start_time": conflict.Slot.Start.UTC(),
			"end_time":   conflict.Slot.End.UTC(),
		})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "code": "invalid_transition"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "resource is in use"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, service.ErrBanned):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is banned"})
	case errors.Is(err, service.ErrRoomUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is under maintenance", "code": string(service.CodeRoomUnavailable)})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("request timed out", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout"})
	}
	log.Error("request failed", zap.String("method", c.Request().Method), zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// idParam parses a positive numeric path parameter.
func idParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

// currentUser returns the authenticated caller; routes using it sit behind
// JWTAuth, so a miss is a wiring error reported as 401.
func currentUser(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
