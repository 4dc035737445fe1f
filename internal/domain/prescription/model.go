package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription is written by a doctor for one appointment.
type Prescription struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientName   string    `json:"patient_name"`
	Medication    string    `json:"medication"`
	Dosage        string    `json:"dosage"`
	DoctorNotes   string    `json:"doctor_notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
