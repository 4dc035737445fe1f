package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned by Create when the appointment already has a
	// prescription.
	ErrDuplicate = errors.New("prescription already exists")
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
}
