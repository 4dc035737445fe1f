package scheduling

import (
	"testing"
	"time"
)

func TestSlotGrid(t *testing.T) {
	grid := SlotGrid()
	if len(grid) != 9 {
		t.Fatalf("expected 9 slots, got %d", len(grid))
	}
	if grid[0] != "09:00 AM" || grid[3] != "12:00 PM" || grid[8] != "05:00 PM" {
		t.Errorf("unexpected grid %v", grid)
	}

	grid[0] = "mutated"
	if SlotGrid()[0] != "09:00 AM" {
		t.Error("SlotGrid must return a copy")
	}
}

func TestSlotLabel(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	tests := []struct {
		t    time.Time
		loc  *time.Location
		want string
	}{
		{time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC), time.UTC, "02:00 PM"},
		{time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), nil, "09:00 AM"},
		{time.Date(2024, 5, 1, 4, 30, 0, 0, time.UTC), kolkata, "10:00 AM"},
		{time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC), time.UTC, "01:00 PM"},
	}
	for _, tt := range tests {
		if got := SlotLabel(tt.t, tt.loc); got != tt.want {
			t.Errorf("SlotLabel(%s) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestDayWindow(t *testing.T) {
	start, end := DayWindow(time.Date(2024, 5, 1, 15, 4, 5, 0, time.UTC), time.UTC)
	if !start.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %s", start)
	}
	if !end.Equal(time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("unexpected end %s", end)
	}
}
