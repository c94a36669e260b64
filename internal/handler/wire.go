package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime/types"
)

// Wire-format helpers shared by the handlers. Request/response structs
// use types.Date / types.UUID for consistent JSON shapes; routes are
// hand-written rather than generated from an OpenAPI document.

// parseLocalClock parses a naive "HH:MM" or "HH:MM:SS" time-of-day into a
// time.Time whose date component is the Go zero date; callers use only
// its time of day.
func parseLocalClock(s string) (time.Time, error) {
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse("15:04", s)
}

// parseLocalDateTime parses a naive ISO datetime string
// ("time_selected_local" and similar fields), with no offset — the
// caller resolves the owning project's timezone separately.
func parseLocalDateTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid local datetime %q", s)
}

// parseDate parses a YYYY-MM-DD date field.
func parseDate(s string) (types.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return types.Date{}, fmt.Errorf("invalid date %q", s)
	}
	return types.Date{Time: t}, nil
}

// parseDateRange parses the "date_range=YYYY-MM-DD,YYYY-MM-DD" query
// parameter into a pair of dates.
func parseDateRange(s string) (from, to time.Time, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("date_range must be two comma-separated dates")
	}
	fd, err := parseDate(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	td, err := parseDate(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return fd.Time, td.Time, nil
}

func formatClock(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("15:04")
	return &s
}

// geofenceWire is the wire shape of a single shift geofence region.
type geofenceWire struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	RadiusM float64 `json:"radius_m"`
}

// gpsWire is the wire shape of a clock event's reported position.
type gpsWire struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	AccuracyM *float64 `json:"accuracy_m,omitempty"`
	Mocked    bool     `json:"mocked_flag,omitempty"`
}
