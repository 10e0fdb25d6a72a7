package hipaa

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/patientcare/patientcare/internal/platform/apperr"
	"github.com/patientcare/patientcare/internal/platform/auth"
	"github.com/patientcare/patientcare/pkg/pagination"
)

// AccessLogHandler serves the PHI access log to admins.
type AccessLogHandler struct {
	log *AccessLog
}

func NewAccessLogHandler(log *AccessLog) *AccessLogHandler {
	return &AccessLogHandler{log: log}
}

func (h *AccessLogHandler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/audit", auth.RequireRole(auth.RoleAdmin))
	g.GET("/phi-access", h.Search)
}

// Search handles GET /audit/phi-access?user_id=&patient_id=&resource=.
func (h *AccessLogHandler) Search(c echo.Context) error {
	records, err := h.log.Search(c.Request().Context(), AccessFilter{
		UserID:    c.QueryParam("user_id"),
		PatientID: c.QueryParam("patient_id"),
		Resource:  c.QueryParam("resource"),
	})
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Respond(records, pagination.FromContext(c)))
}
