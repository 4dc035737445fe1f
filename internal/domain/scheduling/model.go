package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is an appointment's lifecycle state.
type Status int

const (
	StatusScheduled Status = 0
	StatusCompleted Status = 1
)

func (s Status) Valid() bool {
	return s == StatusScheduled || s == StatusCompleted
}

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// transitions lists the allowed status changes. Completed is final.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusScheduled, StatusCompleted},
	StatusCompleted: {StatusCompleted},
}

// CanTransition reports whether an appointment may move from one status to
// another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	PatientID uuid.UUID `json:"patient_id"`
	Time      time.Time `json:"appointment_time"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Read-only, filled from joins.
	DoctorName     string `json:"doctor_name,omitempty"`
	PatientName    string `json:"patient_name,omitempty"`
	PatientEmail   string `json:"patient_email,omitempty"`
	PatientPhone   string `json:"patient_phone,omitempty"`
	PatientAddress string `json:"patient_address,omitempty"`
}

// ValidationResult is the outcome of checking a requested booking.
type ValidationResult int

const (
	InvalidDoctor ValidationResult = -1
	SlotTaken     ValidationResult = 0
	SlotOK        ValidationResult = 1
)

func (r ValidationResult) String() string {
	switch r {
	case InvalidDoctor:
		return "invalid_doctor"
	case SlotTaken:
		return "slot_taken"
	case SlotOK:
		return "ok"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// DoctorFilter selects doctors. Empty fields, and the literal "null", are
// ignored.
type DoctorFilter struct {
	Name      string
	Specialty string
	// TimeOfDay is "AM" or "PM".
	TimeOfDay string
}

// AppointmentFilter selects a patient's appointments. Condition is "past" or
// "future"; empty fields are ignored.
type AppointmentFilter struct {
	Condition  string
	DoctorName string
	PatientID  uuid.UUID
}
