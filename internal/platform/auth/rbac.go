package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that checks if the user has at least one of
// the specified roles. Admins pass every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			for _, required := range roles {
				for _, has := range userRoles {
					if has == required || has == RoleAdmin {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// HasRole reports whether roles contains role.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// DoctorID resolves the doctor a request acts for. Doctors always act for
// themselves; admins may name another doctor with ?doctor_id=.
func DoctorID(c echo.Context) (string, error) {
	ctx := c.Request().Context()
	roles := RolesFromContext(ctx)

	if HasRole(roles, RoleAdmin) {
		if id := strings.TrimSpace(c.QueryParam("doctor_id")); id != "" {
			return id, nil
		}
	}
	if !HasRole(roles, RoleDoctor) && !HasRole(roles, RoleAdmin) {
		return "", echo.NewHTTPError(http.StatusForbidden, "doctor role required")
	}

	uid := UserIDFromContext(ctx)
	if uid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	return uid, nil
}
