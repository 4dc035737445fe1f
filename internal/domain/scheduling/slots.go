package scheduling

import (
	"time"

	"github.com/clinic/clinic/internal/domain/directory"
)

// SlotLayout formats slot labels: two-digit hour, minute and AM/PM.
const SlotLayout = directory.AvailableTimeLayout

var slotGrid = [...]string{
	"09:00 AM",
	"10:00 AM",
	"11:00 AM",
	"12:00 PM",
	"01:00 PM",
	"02:00 PM",
	"03:00 PM",
	"04:00 PM",
	"05:00 PM",
}

// SlotGrid returns the bookable slots of any day in order. The slice is a
// fresh copy.
func SlotGrid() []string {
	out := make([]string, len(slotGrid))
	copy(out, slotGrid[:])
	return out
}

// SlotLabel formats the time-of-day of t in loc, e.g. "02:00 PM".
func SlotLabel(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(SlotLayout)
}

// DayWindow returns the first and last second of date's calendar day in loc.
// Both ends are inclusive.
func DayWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := time.Date(y, m, d, 23, 59, 59, 0, loc)
	return start, end
}
