package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/njprem/account-core/internal/service"
	"github.com/njprem/account-core/internal/util"
)

const (
	contextUserKey   = "auth.user"
	contextTokenKey  = "auth.token"
	contextLoggerKey = "logger"
)

var kindStatus = map[service.ErrorKind]int{
	service.KindNotFound:           http.StatusNotFound,
	service.KindConflict:           http.StatusConflict,
	service.KindInvalidCredential:  http.StatusUnauthorized,
	service.KindExpired:            http.StatusGone,
	service.KindAlreadyVerified:    http.StatusConflict,
	service.KindAlreadyInState:     http.StatusConflict,
	service.KindPreconditionFailed: http.StatusPreconditionFailed,
	service.KindRateLimited:        http.StatusTooManyRequests,
	service.KindDependencyFailure:  http.StatusServiceUnavailable,
	service.KindInvalidInput:       http.StatusBadRequest,
	service.KindInternal:           http.StatusInternalServerError,
}

func statusForKind(kind service.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes a service error as {"error", "kind"}. Internal and
// dependency causes are logged, never sent to the client.
func respondError(c echo.Context, err error) error {
	kind := service.KindOf(err)
	status := statusForKind(kind)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		requestLogger(c).Error("request failed",
			zap.String("kind", string(kind)),
			zap.String("path", c.Path()),
			zap.Error(unwrapCause(err)),
		)
		if kind == service.KindInternal {
			message = "internal error"
		}
	}
	return c.JSON(status, util.KindError(string(kind), message))
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, util.KindError(string(service.KindInvalidInput), message))
}

func unwrapCause(err error) error {
	if typed, ok := err.(*service.Error); ok && typed.Err != nil {
		return typed.Err
	}
	return err
}

func requestLogger(c echo.Context) *zap.Logger {
	if logger, ok := c.Get(contextLoggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}
