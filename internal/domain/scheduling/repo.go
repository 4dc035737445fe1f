package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by AppointmentRepository when no row matches.
var ErrNotFound = errors.New("not found")

// AppointmentRepository stores appointments. Time ranges are inclusive at
// both ends.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByDoctorID(ctx context.Context, doctorID uuid.UUID) error

	FindByDoctorAndTimeRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*Appointment, error)
	FindByDoctorAndPatientNameAndTimeRange(ctx context.Context, doctorID uuid.UUID, patientName string, start, end time.Time) ([]*Appointment, error)
	FindByPatientID(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	FindByPatientIDAndStatusOrderByTimeAsc(ctx context.Context, patientID uuid.UUID, status Status) ([]*Appointment, error)
	FilterByDoctorNameAndPatientID(ctx context.Context, doctorName string, patientID uuid.UUID) ([]*Appointment, error)
	FilterByDoctorNameAndPatientIDAndStatus(ctx context.Context, doctorName string, patientID uuid.UUID, status Status) ([]*Appointment, error)
}
