package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Revoker invalidates a token before its expiry.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// RegisterLogoutRoute registers POST /auth/logout for every role.
func RegisterLogoutRoute(api *echo.Group, gate *Gate, revoker Revoker) {
	api.POST("/auth/logout", handleLogout(revoker), gate.Require(RoleAdmin, RoleDoctor, RolePatient))
}

func handleLogout(revoker Revoker) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := revoker.Revoke(ctx, TokenFromContext(ctx)); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to log out")
		}
		return c.NoContent(http.StatusNoContent)
	}
}
