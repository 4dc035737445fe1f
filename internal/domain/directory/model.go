package directory

import (
	"time"

	"github.com/google/uuid"
)

// AvailableTimeLayout is the time-of-day label format for doctor
// availability, e.g. "09:00 AM".
const AvailableTimeLayout = "03:04 PM"

type Doctor struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Specialty      string    `json:"specialty"`
	PasswordHash   string    `json:"-"`
	AvailableTimes []string  `json:"available_times"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Patient struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Admin struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// DoctorInput is the admin payload for creating or updating a doctor.
// Password may be empty on update to keep the current credential.
type DoctorInput struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Specialty      string   `json:"specialty"`
	Password       string   `json:"password"`
	AvailableTimes []string `json:"available_times"`
}

// PatientRegistration is the self-registration payload.
type PatientRegistration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

// Credentials is a login request. Identifier is the admin username or the
// doctor/patient email.
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}
