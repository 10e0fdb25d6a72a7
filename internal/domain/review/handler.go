package review

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
	read := api.Group("/doctors/:id", auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	read.GET("/reviews", h.List)
	read.GET("/rating", h.Rating)

	write := api.Group("/doctors/:id", auth.RequireRole(auth.RolePatient))
	write.POST("/reviews", h.Add)
}

type addRequest struct {
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	PatientName string `json:"patientName"`
}

// Add posts the caller's review of the doctor in the path.
func (h *Handler) Add(c echo.Context) error {
	var req addRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	r := &Review{
		DoctorID:    c.Param("id"),
		PatientID:   auth.UserIDFromContext(ctx),
		PatientName: req.PatientName,
		Rating:      req.Rating,
		Comment:     req.Comment,
	}
	if r.PatientName == "" {
		r.PatientName = auth.UserNameFromContext(ctx)
	}
	if err := h.svc.Add(ctx, r); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) List(c echo.Context) error {
	reviews, err := h.svc.ListByDoctor(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Respond(reviews, pagination.FromContext(c)))
}

func (h *Handler) Rating(c echo.Context) error {
	r, err := h.svc.Rating(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, r)
}
