package availability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patientcare/patientcare/internal/platform/apperr"
	"github.com/patientcare/patientcare/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the editing routes for doctors and the read-only
// calendar routes, which patients may also use with ?doctor_id.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("/availability", auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	read.GET("/dates/:date", h.DateStatus)
	read.GET("/calendar", h.MonthCalendar)

	g := api.Group("/availability", auth.RequireRole(auth.RoleDoctor))
	g.GET("", h.Load)
	g.PUT("", h.Save)
	g.POST("/days/:day/toggle", h.ToggleDay)
	g.POST("/days/:day/slots", h.AddTimeSlot)
	g.DELETE("/days/:day/slots/:slotId", h.RemoveTimeSlot)
	g.PATCH("/days/:day/slots/:slotId", h.UpdateTimeSlot)
	g.POST("/apply", h.ApplyToSelectedDays)
	g.POST("/presets/:preset", h.ApplyPreset)
	g.POST("/unavailable", h.MarkDatesUnavailable)
	g.POST("/available", h.MarkDatesAvailable)
	g.DELETE("/unavailable/:id", h.RemoveUnavailableDate)
	g.GET("/stats", h.Stats)
	g.GET("/export.ics", h.ExportICS)
}

// viewerDoctor picks the doctor whose calendar is read. Patients must name
// one; doctors and admins fall back to auth.DoctorID.
func viewerDoctor(c echo.Context) (string, error) {
	roles := auth.RolesFromContext(c.Request().Context())
	if auth.HasRole(roles, auth.RoleDoctor) || auth.HasRole(roles, auth.RoleAdmin) {
		return auth.DoctorID(c)
	}
	id := c.QueryParam("doctor_id")
	if id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "doctor_id is required")
	}
	return id, nil
}

// edit runs one state operation for the caller's document and returns the
// stored result.
func (h *Handler) edit(c echo.Context, op func(doctorID string) (*Availability, error)) error {
	doctorID, err := auth.DoctorID(c)
	if err != nil {
		return err
	}
	a, err := op(doctorID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Load(c echo.Context) error {
	return h.edit(c, func(doctorID string) (*Availability, error) {
		return h.svc.Load(c.Request().Context(), doctorID)
	})
}

func (h *Handler) Save(c echo.Context) error {
	var a Availability
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.edit(c, func(doctorID string) (*Availability, error) {
		return h.svc.Save(c.Request().Context(), doctorID, &a)
	})
}

func (h *Handler) ToggleDay(c echo.Context) error {
	return h.edit(c, func(doctorID string) (*Availability, error) {
		return h.svc.ToggleDay(c.Request().Context(), doctorID, c.Param("day"))
	})
}

func (h *Handler) AddTimeSlot(c echo.Context) error {
	return h.edit(c, func(doctorID string) (*Availability, error) {
		return h.svc.AddTimeSlot(c.Request().Context(), doctorID, c.Param("day"))
	})
}

func (h *Handler) RemoveTimeSlot(c echo.Context) error {
	return h.edit(c, func(doctorID string) (*Availability, error) {
		return h.svc.RemoveTimeSlot(c.Request().Context(), doctorID, c.Param("day"), c.Param("slotId"))
	})
}

type slotUpdateRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *Handler) UpdateTimeSlot(c echo.Context) error {
	var req slotUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.edit(c, func(doctorID string) (*Availability, error) {
		return h.svc.UpdateTimeSlot(c.Request().Context(), doctorID, c.Param("day"), c.Param("slotId"), req.Field, req.Value)
	})
}

type applyRequest struct {
	Days []string `json:"days"`
}

func (h *Handler) ApplyToSelectedDays(c echo.Context) error {
	var req applyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.edit(c, func(doctorID string) (*Availability, error) {
		return h.svc.ApplyToSelectedDays(c.Request().Context(), doctorID, req.Days)
	})
}

func (h *Handler) ApplyPreset(c echo.Context) error {
	return h.edit(c, func(doctorID string) (*Availability, error) {
		return h.svc.ApplyPreset(c.Request().Context(), doctorID, c.Param("preset"))
	})
}

type datesRequest struct {
	Dates  []string `json:"dates"`
	Reason string   `json:"reason"`
	Type   string   `json:"type"`
}

func (h *Handler) MarkDatesUnavailable(c echo.Context) error {
	var req datesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.edit(c, func(doctorID string) (*Availability, error) {
		return h.svc.MarkDatesUnavailable(c.Request().Context(), doctorID, req.Dates, req.Reason, req.Type)
	})
}

func (h *Handler) MarkDatesAvailable(c echo.Context) error {
	var req datesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.edit(c, func(doctorID string) (*Availability, error) {
		return h.svc.MarkDatesAvailable(c.Request().Context(), doctorID, req.Dates)
	})
}

func (h *Handler) RemoveUnavailableDate(c echo.Context) error {
	return h.edit(c, func(doctorID string) (*Availability, error) {
		return h.svc.RemoveUnavailableDate(c.Request().Context(), doctorID, c.Param("id"))
	})
}

func (h *Handler) DateStatus(c echo.Context) error {
	doctorID, err := viewerDoctor(c)
	if err != nil {
		return err
	}
	view, err := h.svc.DateStatus(c.Request().Context(), doctorID, c.Param("date"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, view)
}

// MonthCalendar defaults to the current month when year or month is omitted.
func (h *Handler) MonthCalendar(c echo.Context) error {
	doctorID, err := viewerDoctor(c)
	if err != nil {
		return err
	}
	now := h.svc.now()
	year, month := now.Year(), int(now.Month())
	if v := c.QueryParam("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "year must be a number")
		}
	}
	if v := c.QueryParam("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "month must be a number")
		}
	}

	days, err := h.svc.MonthCalendar(c.Request().Context(), doctorID, year, time.Month(month))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"year":  year,
		"month": month,
		"days":  days,
	})
}

func (h *Handler) Stats(c echo.Context) error {
	doctorID, err := auth.DoctorID(c)
	if err != nil {
		return err
	}
	st, err := h.svc.Stats(c.Request().Context(), doctorID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ExportICS(c echo.Context) error {
	doctorID, err := auth.DoctorID(c)
	if err != nil {
		return err
	}
	filename, body, err := h.svc.ExportICS(c.Request().Context(), doctorID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
