package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/repository"
)

// UserHandler serves the caller's own profile and the admin user list.
type UserHandler struct {
	Users UserAPI
	Log   *zap.Logger
}

func NewUserHandler(u UserAPI, log *zap.Logger) *UserHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserHandler{Users: u, Log: log}
}

// Me handles GET /v1/me.
func (h *UserHandler) Me(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.Profile(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toUser(u))
}

type profileReq struct {
	FullName  string `json:"full_name" validate:"required,max=120"`
	Phone     string `json:"phone" validate:"max=32"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

// UpdateMe handles PUT /v1/me.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req profileReq
	if err := bind(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.UpdateProfile(ctx, uid, repository.ProfileUpdate{
		FullName:  strings.TrimSpace(req.FullName),
		Phone:     strings.TrimSpace(req.Phone),
		AvatarURL: strings.TrimSpace(req.AvatarURL),
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toUser(u))
}

// List handles GET /v1/admin/users?q=&limit=&offset=.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx, strings.TrimSpace(c.QueryParam("q")),
		queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUser(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// Get handles GET /v1/admin/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.Profile(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toUser(u))
}

type adminUserReq struct {
	FullName  string `json:"full_name" validate:"required,max=120"`
	StudentID string `json:"student_id" validate:"max=32"`
	Status    string `json:"status" validate:"omitempty,oneof=active banned"`
}

// Update handles PUT /v1/admin/users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	adminID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	var req adminUserReq
	if err := bind(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.AdminUpdate(ctx, adminID, id, repository.AdminUpdate{
		FullName: req.FullName, StudentID: strings.TrimSpace(req.StudentID), Status: req.Status,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toUser(u))
}

// ToggleBan handles POST /v1/admin/users/:id/toggle-ban.
func (h *UserHandler) ToggleBan(c echo.Context) error {
	adminID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	status, err := h.Users.ToggleBan(ctx, adminID, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
}

// Delete handles DELETE /v1/admin/users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	adminID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Users.Delete(ctx, adminID, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
