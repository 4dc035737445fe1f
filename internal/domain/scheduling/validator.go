package scheduling

import (
	"context"
	"errors"
	"slices"

	"github.com/clinic/clinic/internal/domain/directory"
	"github.com/clinic/clinic/internal/platform/apperr"
)

// Validate checks appt against the doctor directory and the doctor's free
// slots. It takes no lock; see Schedule.
func (s *Service) Validate(ctx context.Context, appt *Appointment) (ValidationResult, error) {
	if _, err := s.doctors.GetByID(ctx, appt.DoctorID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return InvalidDoctor, nil
		}
		return 0, apperr.NewInternal("Failed to validate appointment", err)
	}

	free, err := s.Availability(ctx, appt.DoctorID, appt.Time)
	if err != nil {
		return 0, err
	}
	if slices.Contains(free, SlotLabel(appt.Time, s.loc)) {
		return SlotOK, nil
	}
	return SlotTaken, nil
}
