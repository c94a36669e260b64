package shift

import (
	"testing"
	"time"
)

func TestStartEndMinutes(t *testing.T) {
	s := Shift{
		StartTime: time.Date(0, 1, 1, 8, 30, 0, 0, time.UTC),
		EndTime:   time.Date(0, 1, 1, 16, 45, 0, 0, time.UTC),
	}
	if got := s.StartMinutes(); got != 8*60+30 {
		t.Errorf("StartMinutes() = %d, want %d", got, 8*60+30)
	}
	if got := s.EndMinutes(); got != 16*60+45 {
		t.Errorf("EndMinutes() = %d, want %d", got, 16*60+45)
	}
}

func TestIsCrossMidnight(t *testing.T) {
	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"normal day shift", tod(8, 0), tod(16, 0), false},
		{"end equals start", tod(8, 0), tod(8, 0), true},
		{"end before start crosses midnight", tod(22, 0), tod(6, 0), true},
	}
	for _, c := range cases {
		s := Shift{StartTime: c.start, EndTime: c.end}
		if got := s.IsCrossMidnight(); got != c.want {
			t.Errorf("%s: IsCrossMidnight() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestPtrGeofencesInheritsRadius(t *testing.T) {
	lat, lng := 49.2827, -123.1207
	gf := ptrGeofences(&lat, &lng, 150)
	if len(gf) != 1 || gf[0].Lat != lat || gf[0].Lng != lng || gf[0].RadiusM != 150 {
		t.Fatalf("ptrGeofences(%v, %v, 150) = %+v", lat, lng, gf)
	}
}

func TestPtrGeofencesNilWithoutCoordinates(t *testing.T) {
	if gf := ptrGeofences(nil, nil, 150); gf != nil {
		t.Fatalf("ptrGeofences(nil, nil, _) = %v, want nil", gf)
	}
}

func tod(h, m int) time.Time {
	return time.Date(0, 1, 1, h, m, 0, 0, time.UTC)
}
