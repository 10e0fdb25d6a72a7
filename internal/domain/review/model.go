package review

import (
	"context"
	"time"

	"github.com/patientcare/patientcare/internal/domain/appointment"
)

type Review struct {
	ID          string    `json:"id"`
	DoctorID    string    `json:"doctorId"`
	PatientID   string    `json:"patientId"`
	PatientName string    `json:"patientName,omitempty"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Rating is a doctor's average score, rounded to one decimal, and how many
// reviews it averages. Average is 0 when there are none.
type Rating struct {
	DoctorID string  `json:"doctorId"`
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
}

// Appointments is the part of the appointment service reviews read.
type Appointments interface {
	ListByPatient(ctx context.Context, patientID, email, status string) ([]*appointment.Appointment, error)
}
