package records

import (
	"strings"
	"time"
)

const (
	UnitCM   = "cm"
	UnitFtIn = "ft/in"
	UnitKG   = "kg"
	UnitLBS  = "lbs"
)

type Height struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Feet   int     `json:"feet,omitempty"`
	Inches int     `json:"inches,omitempty"`
}

type Weight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type PhysicalInfo struct {
	Height Height `json:"height"`
	Weight Weight `json:"weight"`
}

type Address struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	Governorate string `json:"governorate"`
	PostalCode  string `json:"postalCode"`
}

type ContactInfo struct {
	PhoneNumber string  `json:"phoneNumber"`
	Email       string  `json:"email"`
	Address     Address `json:"address"`
}

type MedicalHistory struct {
	Diagnoses  []string `json:"diagnoses"`
	Treatments []string `json:"treatments"`
	Allergies  []string `json:"allergies"`
	Notes      string   `json:"notes"`
}

// PatientRecord is a doctor's clinical record of one patient. CPRNumber and
// ContactInfo.PhoneNumber are encrypted at rest when a key is configured.
type PatientRecord struct {
	ID             string         `json:"id"`
	CPRNumber      string         `json:"cprNumber"`
	FullName       string         `json:"fullName"`
	PhysicalInfo   PhysicalInfo   `json:"physicalInfo"`
	ContactInfo    ContactInfo    `json:"contactInfo"`
	MedicalHistory MedicalHistory `json:"medicalHistory"`
	NumberOfVisits int            `json:"numberOfVisits"`
	LastVisit      *time.Time     `json:"lastVisit,omitempty"`
	DoctorID       string         `json:"doctorId"`
	DateCreated    time.Time      `json:"dateCreated"`
	LastUpdated    time.Time      `json:"lastUpdated"`
}

// Matches reports whether key names this record by id or email.
func (r *PatientRecord) Matches(key string) bool {
	return key != "" && (r.ID == key || r.ContactInfo.Email == key)
}

// matchesQuery is a case-insensitive substring match on name, CPR and email.
func (r *PatientRecord) matchesQuery(q string) bool {
	return strings.Contains(strings.ToLower(r.FullName), q) ||
		strings.Contains(strings.ToLower(r.CPRNumber), q) ||
		strings.Contains(strings.ToLower(r.ContactInfo.Email), q)
}

// PreviousPatient is someone the doctor completed an appointment with who
// has no record yet.
type PreviousPatient struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentType string `json:"appointmentType"`
}

type Summary struct {
	TotalPatients int `json:"totalPatients"`
	TotalVisits   int `json:"totalVisits"`
}
