package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qrforge/qr-service/internal/api/middleware"
)

// ctxUserID extracts the caller id injected by the Auth middleware. Presence
// proves the middleware ran.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.ContextUserID).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}

// bindAndValidate decodes the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
