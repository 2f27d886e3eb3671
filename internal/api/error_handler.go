package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/qrforge/qr-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors []domain.FieldError `json:"errors"`
}

// limitResponse lets a client prompt for an upgrade.
type limitResponse struct {
	Error           string `json:"error"`
	CurrentUsage    int    `json:"currentUsage"`
	Limit           int    `json:"limit"`
	Tier            string `json:"tier"`
	UpgradeRequired bool   `json:"upgradeRequired"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders {"error": ...}, {"errors": [...]} for field validation, or the
//     usage envelope for an exhausted quota.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			_ = c.JSON(http.StatusBadRequest, validationResponse{Errors: verr.Fields})
			return
		}

		var limitErr *domain.LimitExceededError
		if errors.As(err, &limitErr) {
			_ = c.JSON(http.StatusForbidden, limitResponse{
				Error:           "QR code generation limit reached. Please upgrade your plan.",
				CurrentUsage:    limitErr.CurrentUsage,
				Limit:           limitErr.Limit,
				Tier:            limitErr.Tier,
				UpgradeRequired: true,
			})
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrResetNotAllowed):
		return http.StatusForbidden, "usage reset is disabled"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrPlanNotFound):
		return http.StatusNotFound, "plan not found"
	case errors.Is(err, domain.ErrQRCodeNotFound):
		return http.StatusNotFound, "qr code not found"
	case errors.Is(err, domain.ErrDuplicateAccount):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, domain.ErrRequestInProgress):
		return http.StatusConflict, "request in progress"
	case errors.Is(err, domain.ErrEncodingFailure):
		return http.StatusUnprocessableEntity, "could not encode text as a QR code"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
