package records

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/patientcare/patientcare/internal/domain/appointment"
	"github.com/patientcare/patientcare/internal/platform/auth"
)

func newContext(e *echo.Echo, method, target, body, userID string, roles ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithPrincipal(req.Context(), userID, "", roles))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

func seededHandler(t *testing.T) (*Handler, *echo.Echo) {
	f := newFixture(t, nil)
	f.appointment(t, "doc-1", "pat-1", "", "Ali", appointment.StatusCompleted)
	f.record(t, "doc-1", validInput("pat-1", "Ali Hassan", "ali@example.bh"))
	f.record(t, "doc-1", validInput("pat-2", "Sara Ali", "sara@example.bh"))
	return NewHandler(f.svc), echo.New()
}

func TestHandler_List(t *testing.T) {
	h, e := seededHandler(t)
	c, rec := newContext(e, http.MethodGet, "/?q=ali", "", "doc-1", auth.RoleDoctor)

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data  []PatientRecord `json:"data"`
		Total int             `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	// Sara Ali matches the query but was never seen by doc-1
	if body.Total != 1 || len(body.Data) != 1 || body.Data[0].ID != "pat-1" {
		t.Errorf("unexpected page %+v", body)
	}
}

func TestHandler_Get(t *testing.T) {
	h, e := seededHandler(t)

	c, rec := newContext(e, http.MethodGet, "/", "", "doc-1", auth.RoleDoctor)
	c.SetParamNames("patientId")
	c.SetParamValues("pat-1")
	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	c, _ = newContext(e, http.MethodGet, "/", "", "doc-1", auth.RoleDoctor)
	c.SetParamNames("patientId")
	c.SetParamValues("pat-2")
	if code := httpCode(t, h.Get(c)); code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", code)
	}

	// another doctor never sees doc-1's patients
	c, _ = newContext(e, http.MethodGet, "/", "", "doc-2", auth.RoleDoctor)
	c.SetParamNames("patientId")
	c.SetParamValues("pat-1")
	if code := httpCode(t, h.Get(c)); code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", code)
	}
}

func TestHandler_PatientForbidden(t *testing.T) {
	h, e := seededHandler(t)
	c, _ := newContext(e, http.MethodGet, "/", "", "pat-1", auth.RolePatient)
	if code := httpCode(t, h.List(c)); code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", code)
	}
}

func TestHandler_Add(t *testing.T) {
	h, e := seededHandler(t)
	body := `{"fullName":"Noor Saleh","cprNumber":"900303111","email":"noor@example.bh","phoneNumber":"97339998877","height":"160","weight":"55","city":"Riffa"}`
	c, rec := newContext(e, http.MethodPost, "/", body, "doc-1", auth.RoleDoctor)

	if err := h.Add(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var r PatientRecord
	_ = json.Unmarshal(rec.Body.Bytes(), &r)
	if r.ContactInfo.PhoneNumber != "+973 3999 8877" {
		t.Errorf("unexpected phone %s", r.ContactInfo.PhoneNumber)
	}

	c, rec = newContext(e, http.MethodPost, "/", `{"fullName":"x"}`, "doc-1", auth.RoleDoctor)
	if code := httpCode(t, h.Add(c)); code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", code)
	}
}

func TestHandler_IncrementVisit(t *testing.T) {
	h, e := seededHandler(t)
	c, rec := newContext(e, http.MethodPost, "/", "", "doc-1", auth.RoleDoctor)
	c.SetParamNames("patientId")
	c.SetParamValues("pat-1")

	if err := h.IncrementVisit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var r PatientRecord
	_ = json.Unmarshal(rec.Body.Bytes(), &r)
	if r.NumberOfVisits != 1 {
		t.Errorf("expected 1 visit, got %d", r.NumberOfVisits)
	}
}

func TestHandler_Export(t *testing.T) {
	h, e := seededHandler(t)
	c, rec := newContext(e, http.MethodGet, "/", "", "doc-1", auth.RoleDoctor)

	if err := h.Export(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "patient-records-2025-06-01.json") {
		t.Errorf("unexpected disposition %s", cd)
	}
	if strings.Contains(rec.Body.String(), "pat-2") {
		t.Error("export leaked an unseen patient")
	}
}

func TestHandler_PreviousPatientsAndSummary(t *testing.T) {
	h, e := seededHandler(t)

	c, rec := newContext(e, http.MethodGet, "/", "", "doc-1", auth.RoleDoctor)
	if err := h.PreviousPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected no previous patients, got %s", rec.Body.String())
	}

	c, rec = newContext(e, http.MethodGet, "/", "", "doc-1", auth.RoleDoctor)
	if err := h.Summary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum Summary
	_ = json.Unmarshal(rec.Body.Bytes(), &sum)
	if sum.TotalPatients != 1 {
		t.Errorf("unexpected summary %+v", sum)
	}
}
