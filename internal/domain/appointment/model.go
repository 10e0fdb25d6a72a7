package appointment

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var validStatuses = map[string]bool{
	StatusPending: true, StatusConfirmed: true,
	StatusCompleted: true, StatusCancelled: true,
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s string) bool {
	return validStatuses[s]
}

// Appointment is one booking between a patient and a doctor. Field names
// match the stored collection.
type Appointment struct {
	ID           string    `json:"id"`
	DoctorID     string    `json:"doctorId"`
	DoctorName   string    `json:"doctorName,omitempty"`
	PatientID    string    `json:"patientId,omitempty"`
	PatientEmail string    `json:"patientEmail,omitempty"`
	PatientName  string    `json:"patientName,omitempty"`
	Date         string    `json:"date"`
	Time         string    `json:"time,omitempty"`
	Type         string    `json:"type,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

// PatientKey identifies the patient: the id when present, the email otherwise.
func (a *Appointment) PatientKey() string {
	if a.PatientID != "" {
		return a.PatientID
	}
	return a.PatientEmail
}

// IsBooked reports whether the appointment occupies its date.
func (a *Appointment) IsBooked() bool {
	return a.Status == StatusConfirmed || a.Status == StatusPending
}

// BelongsTo reports whether the patient identified by id or email is on a.
func (a *Appointment) BelongsTo(id, email string) bool {
	return (id != "" && a.PatientID == id) || (email != "" && a.PatientEmail == email)
}
