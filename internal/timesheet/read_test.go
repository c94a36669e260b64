package timesheet

import (
	"testing"
	"time"
)

func TestStartOfWeekSunday(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"already sunday", time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC), time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"midweek wednesday", time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC), time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"saturday rolls back to prior sunday", time.Date(2025, 3, 15, 23, 59, 0, 0, time.UTC), time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := startOfWeekSunday(c.in)
			if !got.Equal(c.want) {
				t.Errorf("startOfWeekSunday(%v) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestBefore(t *testing.T) {
	a := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	b := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	if !before(&a, &b) {
		t.Errorf("before(a, b) = false, want true")
	}
	if before(&b, &a) {
		t.Errorf("before(b, a) = true, want false")
	}
	if before(nil, &b) || before(&a, nil) {
		t.Errorf("before with a nil operand should be false")
	}
}
