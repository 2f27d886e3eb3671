package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qrforge/qr-service/internal/core/domain"
)

// ContextRole is set by RBAC once the caller's role is resolved.
const ContextRole = "role"

// UserLookup resolves the stored account of an authenticated caller. Roles are
// read from the store, not the token, so demotions apply immediately.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(users UserLookup, allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(ContextUserID).(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			user, err := users.GetUser(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "unknown account")
				}
				return err
			}

			if _, ok := allowed[user.Role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			c.Set(ContextRole, user.Role)
			return next(c)
		}
	}
}
