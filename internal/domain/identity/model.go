package identity

import "time"

const (
	TypePatient = "patient"
	TypeDoctor  = "doctor"
	TypeAdmin   = "admin"
)

var validTypes = map[string]bool{TypePatient: true, TypeDoctor: true, TypeAdmin: true}

// User is a registered account. Doctors carry a specialty.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	UserType    string    `json:"userType"`
	Specialty   string    `json:"specialty,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
