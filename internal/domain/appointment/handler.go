package appointment

import (
	"fmt"
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
	g := api.Group("/appointments", auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id/status", h.UpdateStatus)
}

// List returns the caller's appointments: a doctor's schedule, or a patient's
// own bookings.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	roles := auth.RolesFromContext(ctx)
	status := c.QueryParam("status")
	if status != "" && !ValidStatus(status) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid status: %s", status))
	}

	var (
		items []*Appointment
		err   error
	)
	if auth.HasRole(roles, auth.RoleDoctor) || auth.HasRole(roles, auth.RoleAdmin) {
		doctorID, derr := auth.DoctorID(c)
		if derr != nil {
			return derr
		}
		items, err = h.svc.ListByDoctor(ctx, doctorID, status)
	} else {
		items, err = h.svc.ListByPatient(ctx, auth.UserIDFromContext(ctx), c.QueryParam("email"), status)
	}
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Respond(items, pagination.FromContext(c)))
}

func (h *Handler) Create(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	roles := auth.RolesFromContext(ctx)
	if !auth.HasRole(roles, auth.RoleAdmin) && !auth.HasRole(roles, auth.RoleDoctor) {
		// patients book for themselves
		a.PatientID = auth.UserIDFromContext(ctx)
	}
	a.ID = ""

	if err := h.svc.Create(ctx, &a); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	a, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if !canSee(c, a) {
		return apperr.ToHTTP(apperr.ErrAccessDenied)
	}
	return c.JSON(http.StatusOK, a)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus lets the appointment's doctor move it through any status.
// Patients may only cancel their own bookings.
func (h *Handler) UpdateStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	a, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if !canSee(c, a) {
		return apperr.ToHTTP(apperr.ErrAccessDenied)
	}
	roles := auth.RolesFromContext(ctx)
	isStaff := auth.HasRole(roles, auth.RoleAdmin) || a.DoctorID == auth.UserIDFromContext(ctx)
	if !isStaff && req.Status != StatusCancelled {
		return echo.NewHTTPError(http.StatusForbidden, "patients may only cancel appointments")
	}

	updated, err := h.svc.UpdateStatus(ctx, a.ID, req.Status)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func canSee(c echo.Context, a *Appointment) bool {
	ctx := c.Request().Context()
	if auth.HasRole(auth.RolesFromContext(ctx), auth.RoleAdmin) {
		return true
	}
	uid := auth.UserIDFromContext(ctx)
	return a.DoctorID == uid || a.PatientID == uid
}
