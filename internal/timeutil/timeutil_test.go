package timeutil

import (
	"testing"
	"time"
)

func TestRoundTo5Minutes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"exact boundary unchanged", "2026-01-05T08:10:00Z", "2026-01-05T08:10:00Z"},
		{"rounds down below tie", "2026-01-05T08:12:00Z", "2026-01-05T08:10:00Z"},
		{"rounds up at tie", "2026-01-05T08:13:00Z", "2026-01-05T08:15:00Z"},
		{"rounds up above tie", "2026-01-05T08:14:00Z", "2026-01-05T08:15:00Z"},
		{"rolls into next hour", "2026-01-05T08:58:00Z", "2026-01-05T09:00:00Z"},
		{"rolls into next day", "2026-01-05T23:58:00Z", "2026-01-06T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := time.Parse(time.RFC3339, tt.in)
			if err != nil {
				t.Fatalf("parsing input: %v", err)
			}
			want, err := time.Parse(time.RFC3339, tt.want)
			if err != nil {
				t.Fatalf("parsing want: %v", err)
			}
			got := RoundTo5Minutes(in)
			if !got.Equal(want) {
				t.Errorf("RoundTo5Minutes(%s) = %s, want %s", tt.in, got, want)
			}
		})
	}
}

func TestLocalToUTC(t *testing.T) {
	naive := time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC)
	got := LocalToUTC(naive, "America/Vancouver")
	// PDT is UTC-7 in July.
	want := time.Date(2026, 7, 15, 16, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("LocalToUTC = %s, want %s", got, want)
	}
}

func TestLocalToUTC_UnknownZoneFallsBackToUTC(t *testing.T) {
	naive := time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC)
	got := LocalToUTC(naive, "Not/AZone")
	if !got.Equal(naive) {
		t.Errorf("LocalToUTC with unknown zone = %s, want unchanged %s", got, naive)
	}
}

func TestSameDayLocal(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		tz   string
		want bool
	}{
		{"same UTC day same zone", "2026-07-15T10:00:00Z", "2026-07-15T20:00:00Z", "UTC", true},
		{"UTC day differs but local day matches", "2026-07-16T02:00:00Z", "2026-07-15T23:00:00Z", "America/Vancouver", true},
		{"different local days", "2026-07-16T10:00:00Z", "2026-07-15T10:00:00Z", "America/Vancouver", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := time.Parse(time.RFC3339, tt.a)
			b, _ := time.Parse(time.RFC3339, tt.b)
			if got := SameDayLocal(a, b, tt.tz); got != tt.want {
				t.Errorf("SameDayLocal(%s, %s, %s) = %v, want %v", tt.a, tt.b, tt.tz, got, tt.want)
			}
		})
	}
}

func TestIsFutureBeyondGrace(t *testing.T) {
	now := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		t     time.Time
		grace time.Duration
		want  bool
	}{
		{"within grace", now.Add(3 * time.Minute), 4 * time.Minute, false},
		{"exactly at grace", now.Add(4 * time.Minute), 4 * time.Minute, false},
		{"beyond grace", now.Add(5 * time.Minute), 4 * time.Minute, true},
		{"in the past", now.Add(-1 * time.Hour), 4 * time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFutureBeyondGrace(tt.t, now, tt.grace); got != tt.want {
				t.Errorf("IsFutureBeyondGrace() = %v, want %v", got, tt.want)
			}
		})
	}
}
