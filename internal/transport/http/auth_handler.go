package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/njprem/account-core/internal/service"
)

type AuthHandler struct {
	auth   *service.AuthService
	otp    *service.OTPService
	resets *service.PasswordResetService
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService, otp *service.OTPService, resets *service.PasswordResetService) {
	h := &AuthHandler{auth: auth, otp: otp, resets: resets}

	g := e.Group("/api/v1/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/logout", h.logout, RequireAuth(auth))
	g.POST("/password/change", h.changePassword, RequireAuth(auth))

	g.POST("/otp", h.issueOTP)
	g.POST("/otp/verify", h.verifyOTP)

	g.POST("/password/reset", h.requestReset)
	g.GET("/password/reset/verify", h.verifyResetToken)
	g.POST("/password/reset/confirm", h.confirmReset)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	result, err := h.auth.RegisterWithEmail(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toAuthTokenResponse(result))
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	result, err := h.auth.LoginWithEmail(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthTokenResponse(result))
}

func (h *AuthHandler) logout(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context(), currentToken(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *AuthHandler) changePassword(c echo.Context) error {
	user, _ := CurrentUser(c)
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.auth.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *AuthHandler) issueOTP(c echo.Context) error {
	var req OTPRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return badRequest(c, "email is required")
	}
	result, err := h.otp.Issue(c.Request().Context(), req.Email, req.Resend)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toOTPIssueResponse(result))
}

func (h *AuthHandler) verifyOTP(c echo.Context) error {
	var req OTPVerifyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		return badRequest(c, "email and code are required")
	}
	if err := h.otp.Verify(c.Request().Context(), req.Email, req.Code); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *AuthHandler) requestReset(c echo.Context) error {
	var req PasswordResetRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return badRequest(c, "email is required")
	}
	if err := h.resets.RequestReset(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, SuccessResponse{Success: true})
}

func (h *AuthHandler) verifyResetToken(c echo.Context) error {
	token := strings.TrimSpace(c.QueryParam("token"))
	if token == "" {
		return badRequest(c, "token is required")
	}
	valid, err := h.resets.VerifyToken(c.Request().Context(), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ResetTokenVerifyResponse{Valid: valid})
}

func (h *AuthHandler) confirmReset(c echo.Context) error {
	var req PasswordResetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Token) == "" || req.NewPassword == "" {
		return badRequest(c, "token and new_password are required")
	}
	if err := h.resets.Consume(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
