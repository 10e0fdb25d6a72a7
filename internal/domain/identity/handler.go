package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/patientcare/patientcare/internal/platform/apperr"
	"github.com/patientcare/patientcare/internal/platform/auth"
	"github.com/patientcare/patientcare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	g.POST("/users", h.Register)
	g.GET("/users/:id", h.Get)
	g.GET("/doctors", h.ListDoctors)
}

// Register stores a user profile. Admins may register anyone; everyone else
// only registers themselves, under their token's subject and one of its
// roles.
func (h *Handler) Register(c echo.Context) error {
	var u User
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	roles := auth.RolesFromContext(ctx)
	if !auth.HasRole(roles, auth.RoleAdmin) {
		if u.UserType == TypeAdmin || !auth.HasRole(roles, u.UserType) {
			return echo.NewHTTPError(http.StatusForbidden, "cannot register as "+u.UserType)
		}
		u.ID = auth.UserIDFromContext(ctx)
	}

	if err := h.svc.Register(ctx, &u); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Get returns a profile. Doctor profiles are public to signed-in users;
// other profiles only to their owner and admins.
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	u, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if u.UserType != TypeDoctor && u.ID != auth.UserIDFromContext(ctx) &&
		!auth.HasRole(auth.RolesFromContext(ctx), auth.RoleAdmin) {
		return apperr.ToHTTP(apperr.ErrAccessDenied)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	doctors, err := h.svc.ListDoctors(c.Request().Context(), c.QueryParam("specialty"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Respond(doctors, pagination.FromContext(c)))
}
