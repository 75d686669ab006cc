package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"perizinan/internal/common"
	"perizinan/internal/models"
	"perizinan/internal/services"
)

// JWT authenticates the request from the Authorization bearer token and
// stores the resolved identity in both the echo context and the request
// context so services reached outside echo see the same caller.
func JWT(auth services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
			}

			identity, err := auth.ParseAccessToken(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(string(common.IdentityKey), identity)
			ctx := common.WithIdentity(c.Request().Context(), identity)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// Actor returns the identity stored by the JWT middleware.
func Actor(c echo.Context) (common.Identity, bool) {
	identity, ok := c.Get(string(common.IdentityKey)).(common.Identity)
	return identity, ok
}

// RequireRoles rejects callers whose role is not in the allowed set. Runs
// after JWT.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := Actor(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if identity.Role == models.RoleSuperAdmin || allowed[identity.Role] {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}
