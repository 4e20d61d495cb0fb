package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/njprem/account-core/internal/domain"
	"github.com/njprem/account-core/internal/service"
)

type UserHandler struct {
	users    *service.UserService
	presence *service.PresenceService
}

func RegisterUsers(e *echo.Echo, auth *service.AuthService, users *service.UserService, presence *service.PresenceService) {
	h := &UserHandler{users: users, presence: presence}

	me := e.Group("/api/v1/users/me", RequireAuth(auth))
	me.GET("", h.getMe)
	me.PATCH("", h.updateMe)
	me.DELETE("", h.deleteMe)
	me.POST("/picture", h.uploadPicture)
	me.GET("/status", h.getStatus)
	me.POST("/status/toggle", h.toggleStatus)
	me.PUT("/status", h.setStatus)

	e.GET("/api/v1/users", h.listUsers, RequireAuth(auth), RequireAdmin())
}

func (h *UserHandler) getMe(c echo.Context) error {
	user, _ := CurrentUser(c)
	loaded, err := h.users.Get(c.Request().Context(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, AuthUserResponse{User: toAuthUser(loaded)})
}

func (h *UserHandler) updateMe(c echo.Context) error {
	user, _ := CurrentUser(c)
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	updated, err := h.users.UpdateContact(c.Request().Context(), user.ID, domain.ProfileUpdate{
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, AuthUserResponse{User: toAuthUser(updated)})
}

func (h *UserHandler) deleteMe(c echo.Context) error {
	user, _ := CurrentUser(c)
	if err := h.users.Delete(c.Request().Context(), user.ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *UserHandler) uploadPicture(c echo.Context) error {
	user, _ := CurrentUser(c)
	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	file, err := header.Open()
	if err != nil {
		return badRequest(c, "unable to read file")
	}
	defer file.Close()

	updated, err := h.users.UpdateProfilePicture(c.Request().Context(), user.ID, file)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, AuthUserResponse{User: toAuthUser(updated)})
}

func (h *UserHandler) getStatus(c echo.Context) error {
	user, _ := CurrentUser(c)
	status, err := h.presence.Status(c.Request().Context(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: string(status)})
}

func (h *UserHandler) toggleStatus(c echo.Context) error {
	user, _ := CurrentUser(c)
	status, err := h.presence.Toggle(c.Request().Context(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: string(status)})
}

func (h *UserHandler) setStatus(c echo.Context) error {
	user, _ := CurrentUser(c)
	var req SetStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	target := domain.UserStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	status, err := h.presence.SetStatus(c.Request().Context(), user.ID, target)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: string(status)})
}

func (h *UserHandler) listUsers(c echo.Context) error {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return badRequest(c, "limit must be a number")
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return badRequest(c, "offset must be a number")
	}
	var statuses []string
	if raw := c.QueryParam("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}

	users, err := h.users.List(c.Request().Context(), limit, offset, statuses)
	if err != nil {
		return respondError(c, err)
	}
	resp := UsersListResponse{
		Users: make([]AuthUser, 0, len(users)),
		Meta:  UsersMeta{Limit: limit, Offset: offset, Count: len(users)},
	}
	for i := range users {
		resp.Users = append(resp.Users, toAuthUser(&users[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
