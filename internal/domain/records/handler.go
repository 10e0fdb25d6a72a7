package records

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
	g := api.Group("/patient-records", auth.RequireRole(auth.RoleDoctor))
	g.GET("", h.List)
	g.POST("", h.Add)
	g.GET("/previous-patients", h.PreviousPatients)
	g.GET("/export", h.Export)
	g.GET("/summary", h.Summary)
	g.GET("/:patientId", h.Get)
	g.POST("/:patientId/visits", h.IncrementVisit)
}

// List returns the doctor's visible records, narrowed by ?q when present.
func (h *Handler) List(c echo.Context) error {
	doctorID, err := auth.DoctorID(c)
	if err != nil {
		return err
	}
	recs, err := h.svc.Search(c.Request().Context(), doctorID, c.QueryParam("q"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Respond(recs, pagination.FromContext(c)))
}

func (h *Handler) Get(c echo.Context) error {
	doctorID, err := auth.DoctorID(c)
	if err != nil {
		return err
	}
	recs, err := h.svc.LoadRecords(c.Request().Context(), doctorID, c.Param("patientId"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, recs[0])
}

func (h *Handler) Add(c echo.Context) error {
	doctorID, err := auth.DoctorID(c)
	if err != nil {
		return err
	}
	var in NewRecordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.AddRecord(c.Request().Context(), doctorID, &in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) IncrementVisit(c echo.Context) error {
	doctorID, err := auth.DoctorID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.IncrementVisitCount(c.Request().Context(), doctorID, c.Param("patientId"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) PreviousPatients(c echo.Context) error {
	doctorID, err := auth.DoctorID(c)
	if err != nil {
		return err
	}
	out, err := h.svc.PreviousPatients(c.Request().Context(), doctorID, c.QueryParam("q"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Export(c echo.Context) error {
	doctorID, err := auth.DoctorID(c)
	if err != nil {
		return err
	}
	filename, body, err := h.svc.Export(c.Request().Context(), doctorID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
}

func (h *Handler) Summary(c echo.Context) error {
	doctorID, err := auth.DoctorID(c)
	if err != nil {
		return err
	}
	sum, err := h.svc.Summary(c.Request().Context(), doctorID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sum)
}
