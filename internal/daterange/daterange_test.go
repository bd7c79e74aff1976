package daterange_test

import (
	"testing"
	"time"

	"plume/internal/daterange"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindowFullHistory(t *testing.T) {
	now := day(2024, 3, 1)
	created := day(2024, 1, 1)
	lastSeen := day(2024, 1, 5)

	start, end := daterange.Window(now, 0, created, lastSeen)
	if !start.Equal(created) {
		t.Fatalf("expected start at created date, got %v", start)
	}
	if !end.Equal(lastSeen) {
		t.Fatalf("expected end at last seen, got %v", end)
	}
}

func TestWindowLookback(t *testing.T) {
	now := day(2024, 3, 1)
	created := day(2020, 1, 1)
	lastSeen := day(2024, 2, 28)

	start, end := daterange.Window(now, 30, created, lastSeen)
	if !start.Equal(day(2024, 1, 31)) {
		t.Fatalf("expected start 30 days back, got %v", start)
	}
	if !end.Equal(lastSeen) {
		t.Fatalf("expected end at last seen, got %v", end)
	}
}

func TestDaysExcludesEndDay(t *testing.T) {
	days := daterange.Days(day(2024, 1, 1), day(2024, 1, 5))
	if len(days) != 4 {
		t.Fatalf("expected 4 days, got %d", len(days))
	}
	if !days[0].Equal(day(2024, 1, 1)) || !days[3].Equal(day(2024, 1, 4)) {
		t.Fatalf("unexpected day bounds: %v .. %v", days[0], days[len(days)-1])
	}
}

func TestDaysEmptyRanges(t *testing.T) {
	if got := daterange.Days(day(2024, 1, 5), day(2024, 1, 5)); got != nil {
		t.Fatalf("expected nil for empty range, got %v", got)
	}
	if got := daterange.Days(day(2024, 1, 6), day(2024, 1, 5)); got != nil {
		t.Fatalf("expected nil for inverted range, got %v", got)
	}
}

func TestDaysPartialDayFloors(t *testing.T) {
	start := day(2024, 1, 1)
	end := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	days := daterange.Days(start, end)
	if len(days) != 2 {
		t.Fatalf("expected 2 whole days, got %d", len(days))
	}
}
