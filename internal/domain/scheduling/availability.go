package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// Availability returns the slots of date's calendar day that no appointment
// of doctorID occupies, in grid order. Booked times are labelled in the
// clinic zone so a slot matches only its own hour.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.availability", trace.WithAttributes(
		attribute.String("doctor_id", doctorID.String()),
	))
	defer span.End()

	start, end := DayWindow(date, s.loc)
	booked, err := s.appointments.FindByDoctorAndTimeRange(ctx, doctorID, start, end)
	if err != nil {
		span.RecordError(err)
		return nil, apperr.NewInternal("Failed to load availability", err)
	}

	labels := make([]string, 0, len(booked))
	for _, a := range booked {
		labels = append(labels, SlotLabel(a.Time, s.loc))
	}

	free := make([]string, 0, len(slotGrid))
	for _, slot := range slotGrid {
		if !containedIn(slot, labels) {
			free = append(free, slot)
		}
	}
	return free, nil
}

func containedIn(slot string, labels []string) bool {
	for _, l := range labels {
		if strings.Contains(l, slot) {
			return true
		}
	}
	return false
}
