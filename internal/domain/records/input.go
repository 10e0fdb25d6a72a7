package records

import (
	"strconv"
	"strings"
	"time"

	"github.com/patientcare/patientcare/internal/platform/apperr"
	"github.com/patientcare/patientcare/internal/platform/contact"
)

// NewRecordInput carries the add-patient form. List fields are comma
// separated; numeric fields arrive as typed.
type NewRecordInput struct {
	PatientID   string `json:"patientId"`
	FullName    string `json:"fullName"`
	CPRNumber   string `json:"cprNumber"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Height      string `json:"height"`
	HeightUnit  string `json:"heightUnit"`
	Feet        string `json:"feet"`
	Inches      string `json:"inches"`
	Weight      string `json:"weight"`
	WeightUnit  string `json:"weightUnit"`
	Street      string `json:"street"`
	City        string `json:"city"`
	Governorate string `json:"governorate"`
	PostalCode  string `json:"postalCode"`
	Diagnoses   string `json:"diagnoses"`
	Treatments  string `json:"treatments"`
	Allergies   string `json:"allergies"`
	Notes       string `json:"notes"`
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Validate returns every field problem at once.
func (in *NewRecordInput) Validate() error {
	v := apperr.NewValidation("Please fix the highlighted fields")

	if in.HeightUnit == "" {
		in.HeightUnit = UnitCM
	}
	if in.WeightUnit == "" {
		in.WeightUnit = UnitKG
	}

	if blank(in.FullName) {
		v.Add("fullName", "Full name is required")
	}
	if blank(in.CPRNumber) {
		v.Add("cprNumber", "CPR number is required")
	} else if !contact.ValidCPR(strings.TrimSpace(in.CPRNumber)) {
		v.Add("cprNumber", "CPR number must be 9 digits")
	}
	if blank(in.Email) {
		v.Add("email", "Email is required")
	} else if !contact.ValidEmail(in.Email) {
		v.Add("email", "Please enter a valid email address")
	}
	if blank(in.PhoneNumber) {
		v.Add("phoneNumber", "Phone number is required")
	} else if _, ok := contact.FormatBahrainPhone(in.PhoneNumber); !ok {
		v.Add("phoneNumber", "Please enter a valid Bahrain phone number")
	}

	switch in.HeightUnit {
	case UnitCM:
		if blank(in.Height) {
			v.Add("height", "Height is required")
		} else if h, err := strconv.ParseFloat(strings.TrimSpace(in.Height), 64); err != nil || h <= 0 {
			v.Add("height", "Height must be a positive number")
		}
	case UnitFtIn:
		if atoi(in.Feet) <= 0 {
			v.Add("height", "Height is required")
		}
	default:
		v.Add("heightUnit", "Height unit must be cm or ft/in")
	}

	if blank(in.Weight) {
		v.Add("weight", "Weight is required")
	} else if w, err := strconv.ParseFloat(strings.TrimSpace(in.Weight), 64); err != nil || w <= 0 {
		v.Add("weight", "Weight must be a positive number")
	}
	if in.WeightUnit != UnitKG && in.WeightUnit != UnitLBS {
		v.Add("weightUnit", "Weight unit must be kg or lbs")
	}

	if blank(in.City) {
		v.Add("city", "City is required")
	}
	return v.OrNil()
}

// Record builds the stored record. Call Validate first.
func (in *NewRecordInput) Record(id, doctorID string, now time.Time) *PatientRecord {
	phone, _ := contact.FormatBahrainPhone(in.PhoneNumber)

	height := Height{Unit: in.HeightUnit}
	if in.HeightUnit == UnitFtIn {
		height.Feet = atoi(in.Feet)
		height.Inches = atoi(in.Inches)
	} else {
		height.Value, _ = strconv.ParseFloat(strings.TrimSpace(in.Height), 64)
	}
	weight, _ := strconv.ParseFloat(strings.TrimSpace(in.Weight), 64)

	allergies := splitList(in.Allergies)
	if len(allergies) == 0 {
		allergies = []string{"None known"}
	}

	return &PatientRecord{
		ID:        id,
		CPRNumber: strings.TrimSpace(in.CPRNumber),
		FullName:  strings.TrimSpace(in.FullName),
		PhysicalInfo: PhysicalInfo{
			Height: height,
			Weight: Weight{Value: weight, Unit: in.WeightUnit},
		},
		ContactInfo: ContactInfo{
			PhoneNumber: phone,
			Email:       strings.TrimSpace(in.Email),
			Address: Address{
				Street:      strings.TrimSpace(in.Street),
				City:        strings.TrimSpace(in.City),
				Governorate: strings.TrimSpace(in.Governorate),
				PostalCode:  strings.TrimSpace(in.PostalCode),
			},
		},
		MedicalHistory: MedicalHistory{
			Diagnoses:  splitList(in.Diagnoses),
			Treatments: splitList(in.Treatments),
			Allergies:  allergies,
			Notes:      strings.TrimSpace(in.Notes),
		},
		DoctorID:    doctorID,
		DateCreated: now,
		LastUpdated: now,
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
