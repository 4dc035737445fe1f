package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinic/clinic/internal/domain/directory"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/lock"
	"github.com/clinic/clinic/internal/platform/notify"
)

// Recorder observes booking outcomes.
type Recorder interface {
	RecordBooking(result string)
	RecordCancellation()
}

type Service struct {
	appointments AppointmentRepository
	doctors      directory.DoctorRepository
	patients     directory.PatientRepository
	locker       lock.Locker
	notifier     notify.Notifier
	recorder     Recorder
	loc          *time.Location
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithLocker serializes Schedule per doctor and slot.
func WithLocker(l lock.Locker) Option { return func(s *Service) { s.locker = l } }

func WithNotifier(n notify.Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }

// WithLocation sets the clinic time zone used for slot labels and day
// windows. Defaults to UTC.
func WithLocation(loc *time.Location) Option { return func(s *Service) { s.loc = loc } }

func NewService(appointments AppointmentRepository, doctors directory.DoctorRepository,
	patients directory.PatientRepository, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		appointments: appointments,
		doctors:      doctors,
		patients:     patients,
		locker:       lock.Noop{},
		loc:          time.UTC,
		logger:       logger,
		tracer:       otel.Tracer("clinic.internal.domain.scheduling"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the clinic time zone.
func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) record(result string) {
	if s.recorder != nil {
		s.recorder.RecordBooking(result)
	}
}

// Book persists appt as given. Callers run Validate first; Schedule does both.
func (s *Service) Book(ctx context.Context, appt *Appointment) error {
	if !appt.Status.Valid() {
		return apperr.NewInvalidInput("Invalid appointment status")
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return apperr.NewInternal("Failed to book appointment", err)
	}
	return nil
}

// Schedule validates and books appt while holding the slot lock. The result
// is SlotOK only when the appointment was stored.
func (s *Service) Schedule(ctx context.Context, appt *Appointment) (ValidationResult, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.schedule", trace.WithAttributes(
		attribute.String("doctor_id", appt.DoctorID.String()),
		attribute.String("slot", SlotLabel(appt.Time, s.loc)),
	))
	defer span.End()

	unlock, err := s.locker.Lock(ctx, slotKey(appt))
	if err != nil {
		span.RecordError(err)
		s.record("error")
		return 0, apperr.NewInternal("Failed to book appointment", err)
	}
	defer unlock()

	res, err := s.Validate(ctx, appt)
	if err != nil {
		span.RecordError(err)
		s.record("error")
		return 0, err
	}
	span.SetAttributes(attribute.String("result", res.String()))
	if res != SlotOK {
		s.record(res.String())
		return res, nil
	}

	if err := s.Book(ctx, appt); err != nil {
		span.RecordError(err)
		s.record("error")
		return 0, err
	}
	s.record(res.String())
	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", appt.DoctorID.String()).
		Time("appointment_time", appt.Time).
		Msg("appointment booked")
	s.notifyPatient(ctx, appt, "Appointment confirmed",
		"Your appointment on %s at %s is confirmed.")
	return SlotOK, nil
}

// Update overwrites doctor, patient, time and status of an existing
// appointment. The slot is not re-validated; see Reschedule.
func (s *Service) Update(ctx context.Context, appt *Appointment) (*Appointment, error) {
	existing, err := s.Get(ctx, appt.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.doctors.GetByID(ctx, appt.DoctorID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, apperr.NewInvalidInput("Doctor not found")
		}
		return nil, apperr.NewInternal("Failed to update appointment", err)
	}
	if !appt.Status.Valid() || !CanTransition(existing.Status, appt.Status) {
		return nil, apperr.NewInvalidInput(fmt.Sprintf("Cannot change status from %s to %s", existing.Status, appt.Status))
	}

	existing.DoctorID = appt.DoctorID
	existing.PatientID = appt.PatientID
	existing.Time = appt.Time
	existing.Status = appt.Status
	if err := s.appointments.Update(ctx, existing); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NewNotFound("Appointment not found")
		}
		return nil, apperr.NewInternal("Failed to update appointment", err)
	}
	// Re-read so the doctor and patient names match the new ids.
	return s.Get(ctx, existing.ID)
}

// Reschedule is Update for callers moving an appointment. A new (doctor,
// slot) must be free; it is validated under the same lock Schedule takes.
// Keeping the current slot skips the check.
func (s *Service) Reschedule(ctx context.Context, appt *Appointment) (*Appointment, error) {
	existing, err := s.Get(ctx, appt.ID)
	if err != nil {
		return nil, err
	}
	if s.sameSlot(existing, appt) {
		return s.Update(ctx, appt)
	}

	unlock, err := s.locker.Lock(ctx, slotKey(appt))
	if err != nil {
		return nil, apperr.NewInternal("Failed to update appointment", err)
	}
	defer unlock()

	res, err := s.Validate(ctx, appt)
	if err != nil {
		return nil, err
	}
	switch res {
	case InvalidDoctor:
		return nil, apperr.NewInvalidInput("Doctor not found")
	case SlotTaken:
		return nil, apperr.NewConflict("Selected time slot is not available")
	}
	return s.Update(ctx, appt)
}

func (s *Service) sameSlot(a, b *Appointment) bool {
	if a.DoctorID != b.DoctorID {
		return false
	}
	ya, ma, da := a.Time.In(s.loc).Date()
	yb, mb, db := b.Time.In(s.loc).Date()
	return ya == yb && ma == mb && da == db && SlotLabel(a.Time, s.loc) == SlotLabel(b.Time, s.loc)
}

func slotKey(appt *Appointment) string {
	return fmt.Sprintf("%s:%d", appt.DoctorID, appt.Time.Truncate(time.Minute).Unix())
}

// Cancel deletes an appointment on behalf of its owning patient.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, requester auth.Identity) error {
	ctx, span := s.tracer.Start(ctx, "scheduling.cancel", trace.WithAttributes(
		attribute.String("appointment_id", id.String()),
	))
	defer span.End()

	appt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !requester.Is(auth.RolePatient, appt.PatientID) {
		s.logger.Warn().
			Str("appointment_id", id.String()).
			Str("requester", requester.String()).
			Msg("cancel refused: not the owner")
		return apperr.NewUnauthorized("Unauthorized to cancel this appointment")
	}
	if err := s.appointments.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NewNotFound("Appointment not found")
		}
		span.RecordError(err)
		return apperr.NewInternal("Failed to cancel appointment", err)
	}
	if s.recorder != nil {
		s.recorder.RecordCancellation()
	}
	s.logger.Info().Str("appointment_id", id.String()).Msg("appointment cancelled")
	s.notifyPatient(ctx, appt, "Appointment cancelled",
		"Your appointment on %s at %s has been cancelled.")
	return nil
}

// ChangeStatus moves an appointment to status. Completed appointments stay
// completed.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !status.Valid() || !CanTransition(appt.Status, status) {
		return nil, apperr.NewInvalidInput(fmt.Sprintf("Cannot change status from %s to %s", appt.Status, status))
	}
	appt.Status = status
	if err := s.appointments.Update(ctx, appt); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NewNotFound("Appointment not found")
		}
		return nil, apperr.NewInternal("Failed to update appointment status", err)
	}
	return appt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NewNotFound("Appointment not found")
	}
	if err != nil {
		return nil, apperr.NewInternal("Failed to load appointment", err)
	}
	return appt, nil
}

// ListForDoctor returns the doctor's appointments on date's calendar day,
// narrowed to patients whose name contains patientName when it is set.
func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, date time.Time, patientName string) ([]*Appointment, error) {
	start, end := DayWindow(date, s.loc)
	var (
		out []*Appointment
		err error
	)
	if name := normalizeOptional(patientName); name != "" {
		out, err = s.appointments.FindByDoctorAndPatientNameAndTimeRange(ctx, doctorID, name, start, end)
	} else {
		out, err = s.appointments.FindByDoctorAndTimeRange(ctx, doctorID, start, end)
	}
	if err != nil {
		return nil, apperr.NewInternal("Failed to fetch appointments", err)
	}
	return out, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	out, err := s.appointments.FindByPatientID(ctx, patientID)
	if err != nil {
		return nil, apperr.NewInternal("Failed to fetch appointments", err)
	}
	return out, nil
}

func (s *Service) notifyPatient(ctx context.Context, appt *Appointment, subject, format string) {
	if s.notifier == nil || s.patients == nil {
		return
	}
	to, name := appt.PatientEmail, appt.PatientName
	if to == "" {
		p, err := s.patients.GetByID(ctx, appt.PatientID)
		if err != nil {
			s.logger.Warn().Err(err).Str("patient_id", appt.PatientID.String()).Msg("notification skipped")
			return
		}
		to, name = p.Email, p.Name
	}
	local := appt.Time.In(s.loc)
	msg := notify.Message{
		To:      to,
		ToName:  name,
		Subject: subject,
		Body:    fmt.Sprintf(format, local.Format("2006-01-02"), SlotLabel(local, s.loc)),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("notification failed")
	}
}
