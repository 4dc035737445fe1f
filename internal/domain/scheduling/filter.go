package scheduling

import (
	"context"
	"strings"

	"github.com/clinic/clinic/internal/domain/directory"
	"github.com/clinic/clinic/internal/platform/apperr"
)

// normalizeOptional trims s and treats the literal "null" as absent.
func normalizeOptional(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

// FilterDoctors narrows the doctor directory by name, specialty and
// time of day. Store order is preserved.
func (s *Service) FilterDoctors(ctx context.Context, f DoctorFilter) ([]*directory.Doctor, error) {
	name := normalizeOptional(f.Name)
	specialty := normalizeOptional(f.Specialty)
	period := strings.ToUpper(normalizeOptional(f.TimeOfDay))
	// Only the meridiem is accepted; other values are rejected, not substring-matched.
	if period != "" && period != "AM" && period != "PM" {
		return nil, apperr.NewInvalidInput("Invalid time. Use 'AM' or 'PM'.")
	}

	var (
		doctors []*directory.Doctor
		err     error
	)
	switch {
	case name != "" && specialty != "":
		doctors, err = s.doctors.FindByNameAndSpecialty(ctx, name, specialty)
	case name != "":
		doctors, err = s.doctors.FindByNameLike(ctx, name)
	case specialty != "":
		doctors, err = s.doctors.FindBySpecialtyIgnoreCase(ctx, specialty)
	default:
		doctors, err = s.doctors.ListAll(ctx)
	}
	if err != nil {
		return nil, apperr.NewInternal("Failed to filter doctors", err)
	}

	if period == "" {
		return doctors, nil
	}
	out := make([]*directory.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if availableIn(d, period) {
			out = append(out, d)
		}
	}
	return out, nil
}

func availableIn(d *directory.Doctor, period string) bool {
	for _, t := range d.AvailableTimes {
		if strings.Contains(strings.ToUpper(t), period) {
			return true
		}
	}
	return false
}

// ParseCondition maps "past" to StatusCompleted and "future" to
// StatusScheduled, ignoring case.
func ParseCondition(condition string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(condition)) {
	case "past":
		return StatusCompleted, nil
	case "future":
		return StatusScheduled, nil
	}
	return 0, apperr.NewInvalidInput("Invalid condition. Use 'past' or 'future'.")
}

// FilterAppointments lists a patient's appointments narrowed by condition
// and doctor name. Condition-only results are ordered by appointment time.
func (s *Service) FilterAppointments(ctx context.Context, f AppointmentFilter) ([]*Appointment, error) {
	condition := normalizeOptional(f.Condition)
	doctorName := normalizeOptional(f.DoctorName)

	var status Status
	if condition != "" {
		var err error
		if status, err = ParseCondition(condition); err != nil {
			return nil, err
		}
	}

	var (
		out []*Appointment
		err error
	)
	switch {
	case condition != "" && doctorName != "":
		out, err = s.appointments.FilterByDoctorNameAndPatientIDAndStatus(ctx, doctorName, f.PatientID, status)
	case condition != "":
		out, err = s.appointments.FindByPatientIDAndStatusOrderByTimeAsc(ctx, f.PatientID, status)
	case doctorName != "":
		out, err = s.appointments.FilterByDoctorNameAndPatientID(ctx, doctorName, f.PatientID)
	default:
		out, err = s.appointments.FindByPatientID(ctx, f.PatientID)
	}
	if err != nil {
		return nil, apperr.NewInternal("Failed to filter appointments", err)
	}
	return out, nil
}
