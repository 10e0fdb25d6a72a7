package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/patientcare/patientcare/internal/platform/apperr"
	"github.com/patientcare/patientcare/internal/platform/kvstore"
)

func newTestService() *Service {
	svc := NewService(NewStoreRepo(kvstore.NewMemoryStore(), nil))
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_Create(t *testing.T) {
	svc := newTestService()
	a := &Appointment{DoctorID: "doc-1", PatientID: "pat-1", Date: "2025-06-10", Time: "10:00"}
	if err := svc.Create(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == "" {
		t.Error("expected ID to be set")
	}
	if a.Status != StatusPending {
		t.Errorf("expected default status pending, got %s", a.Status)
	}
	if !a.CreatedAt.Equal(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected createdAt %v", a.CreatedAt)
	}

	got, err := svc.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PatientID != "pat-1" {
		t.Errorf("expected pat-1, got %s", got.PatientID)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := newTestService()
	err := svc.Create(context.Background(), &Appointment{Date: "10/06/2025", PatientEmail: "nope", Status: "booked"})

	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"doctorId", "date", "patientEmail", "status"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Errorf("expected error on %s", field)
		}
	}
}

func TestService_Create_RequiresPatient(t *testing.T) {
	svc := newTestService()
	err := svc.Create(context.Background(), &Appointment{DoctorID: "doc-1", Date: "2025-06-10"})

	var ve *apperr.ValidationError
	if !errors.As(err, &ve) || ve.Fields["patientId"] == "" {
		t.Fatalf("expected patientId error, got %v", err)
	}
}

func TestService_ListByDoctorAndPatient(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	seed := []*Appointment{
		{DoctorID: "doc-1", PatientID: "pat-1", Date: "2025-06-12", Status: StatusCompleted},
		{DoctorID: "doc-1", PatientEmail: "ali@example.com", Date: "2025-06-10", Status: StatusConfirmed},
		{DoctorID: "doc-2", PatientID: "pat-1", Date: "2025-06-11"},
	}
	for _, a := range seed {
		if err := svc.Create(ctx, a); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	items, err := svc.ListByDoctor(ctx, "doc-1", "")
	if err != nil {
		t.Fatalf("ListByDoctor: %v", err)
	}
	if len(items) != 2 || items[0].Date != "2025-06-10" {
		t.Errorf("expected 2 date-ordered appointments, got %+v", items)
	}

	completed, _ := svc.ListByDoctor(ctx, "doc-1", StatusCompleted)
	if len(completed) != 1 {
		t.Errorf("expected 1 completed, got %d", len(completed))
	}

	mine, _ := svc.ListByPatient(ctx, "pat-1", "", "")
	if len(mine) != 2 {
		t.Errorf("expected 2 for pat-1, got %d", len(mine))
	}
	byEmail, _ := svc.ListByPatient(ctx, "", "ali@example.com", "")
	if len(byEmail) != 1 {
		t.Errorf("expected 1 by email, got %d", len(byEmail))
	}
}

func TestService_UpdateStatus(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := &Appointment{DoctorID: "doc-1", PatientID: "pat-1", Date: "2025-06-10"}
	_ = svc.Create(ctx, a)

	updated, err := svc.UpdateStatus(ctx, a.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", updated.Status)
	}

	if _, err := svc.UpdateStatus(ctx, a.ID, "noshow"); err == nil {
		t.Error("expected error for unknown status")
	}
	if _, err := svc.UpdateStatus(ctx, "missing", StatusCancelled); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAppointment_Helpers(t *testing.T) {
	a := &Appointment{PatientEmail: "ali@example.com", Status: StatusPending}
	if a.PatientKey() != "ali@example.com" {
		t.Errorf("expected email fallback, got %s", a.PatientKey())
	}
	a.PatientID = "pat-1"
	if a.PatientKey() != "pat-1" {
		t.Errorf("expected id, got %s", a.PatientKey())
	}
	if !a.IsBooked() {
		t.Error("pending should be booked")
	}
	a.Status = StatusCompleted
	if a.IsBooked() {
		t.Error("completed should not be booked")
	}
	if !a.BelongsTo("", "ali@example.com") || a.BelongsTo("", "") {
		t.Error("unexpected BelongsTo result")
	}
}

type failingStore struct{ *kvstore.MemoryStore }

func (failingStore) Update(context.Context, string, kvstore.UpdateFunc) error {
	return errors.New("quota exceeded")
}

func TestStoreRepo_WriteFailure(t *testing.T) {
	svc := NewService(NewStoreRepo(failingStore{kvstore.NewMemoryStore()}, nil))
	err := svc.Create(context.Background(), &Appointment{DoctorID: "doc-1", PatientID: "p", Date: "2025-06-10"})

	var se *apperr.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected store error, got %v", err)
	}
	if se.Message != "Failed to save appointment" {
		t.Errorf("unexpected message %q", se.Message)
	}
}
