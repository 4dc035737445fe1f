package prescription

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/sanitize"
)

// AppointmentGetter loads the appointment a prescription belongs to.
type AppointmentGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
}

type Service struct {
	repo         Repository
	appointments AppointmentGetter
	logger       zerolog.Logger
}

func NewService(repo Repository, appointments AppointmentGetter, logger zerolog.Logger) *Service {
	return &Service{repo: repo, appointments: appointments, logger: logger}
}

// authorize loads the appointment and checks that doctor is the one it was
// booked with.
func (s *Service) authorize(ctx context.Context, appointmentID uuid.UUID, doctor auth.Identity) (*scheduling.Appointment, error) {
	appt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !doctor.Is(auth.RoleDoctor, appt.DoctorID) {
		return nil, apperr.NewUnauthorized("Unauthorized for this appointment")
	}
	return appt, nil
}

// Save stores p. An appointment holds at most one prescription.
func (s *Service) Save(ctx context.Context, p *Prescription, doctor auth.Identity) error {
	sanitize.Fields(&p.PatientName, &p.Medication, &p.Dosage, &p.DoctorNotes)
	switch {
	case p.AppointmentID == uuid.Nil:
		return apperr.NewInvalidInput("appointment_id is required")
	case p.Medication == "" || utf8.RuneCountInString(p.Medication) > 100:
		return apperr.NewInvalidInput("medication must be 1 to 100 characters")
	case p.Dosage == "" || utf8.RuneCountInString(p.Dosage) > 100:
		return apperr.NewInvalidInput("dosage must be 1 to 100 characters")
	case utf8.RuneCountInString(p.DoctorNotes) > 200:
		return apperr.NewInvalidInput("doctor_notes must be at most 200 characters")
	}

	appt, err := s.authorize(ctx, p.AppointmentID, doctor)
	if err != nil {
		return err
	}
	if p.PatientName == "" {
		p.PatientName = appt.PatientName
	}
	if p.PatientName == "" {
		return apperr.NewInvalidInput("patient_name is required")
	}

	_, err = s.repo.GetByAppointmentID(ctx, p.AppointmentID)
	switch {
	case err == nil:
		return apperr.NewConflict("Prescription already exists for this appointment")
	case !errors.Is(err, ErrNotFound):
		return apperr.NewInternal("Failed to save prescription", err)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return apperr.NewConflict("Prescription already exists for this appointment")
		}
		return apperr.NewInternal("Failed to save prescription", err)
	}
	s.logger.Info().
		Str("prescription_id", p.ID.String()).
		Str("appointment_id", p.AppointmentID.String()).
		Msg("prescription saved")
	return nil
}

func (s *Service) Get(ctx context.Context, appointmentID uuid.UUID, doctor auth.Identity) (*Prescription, error) {
	if _, err := s.authorize(ctx, appointmentID, doctor); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByAppointmentID(ctx, appointmentID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NewNotFound("No prescription found for the appointment")
	}
	if err != nil {
		return nil, apperr.NewInternal("Failed to load prescription", err)
	}
	return p, nil
}
