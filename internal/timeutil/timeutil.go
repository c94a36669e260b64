// Package timeutil holds the pure time/timezone helpers the rest of the
// dispatch core is built on: 5-minute rounding, local/UTC conversion,
// and same-day comparisons. Nothing here touches a database or a clock
// other than the one passed in.
package timeutil

import (
	"log"
	"time"
)

// DefaultTimezone is used when no timezone name is given (an empty
// string); an unrecognized name falls back to UTC instead.
const DefaultTimezone = "America/Vancouver"

// RoundTo5Minutes rounds dt to the nearest 5-minute boundary: a minute
// 3 or 4 past a boundary rounds up, 0-2 past rounds down (so :13 becomes
// :15 and :17 becomes :15), with rollover into the next hour (and day)
// when rounding pushes past :55. Seconds are dropped.
func RoundTo5Minutes(dt time.Time) time.Time {
	m := dt.Minute()
	rounded := (m / 5) * 5
	if m%5 >= 3 {
		rounded += 5
	}
	dt = dt.Truncate(time.Minute).Add(time.Duration(-m) * time.Minute)
	if rounded >= 60 {
		dt = dt.Add(time.Hour)
		rounded = 0
	}
	return dt.Add(time.Duration(rounded) * time.Minute)
}

// LoadLocation resolves an IANA timezone name, falling back to UTC (and
// logging) if the name is unrecognized.
func LoadLocation(tz string) *time.Location {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("timeutil: unknown timezone %q, falling back to UTC: %v", tz, err)
		return time.UTC
	}
	return loc
}

// LocalToUTC interprets a naive local time (no location attached) in tz
// and returns the equivalent instant in UTC. If tz can't be resolved the
// naive value is treated as already being UTC (and the fallback is
// logged by LoadLocation).
func LocalToUTC(naiveLocal time.Time, tz string) time.Time {
	loc := LoadLocation(tz)
	local := time.Date(
		naiveLocal.Year(), naiveLocal.Month(), naiveLocal.Day(),
		naiveLocal.Hour(), naiveLocal.Minute(), naiveLocal.Second(), naiveLocal.Nanosecond(),
		loc,
	)
	return local.UTC()
}

// Combine merges a date and a naive time-of-day in tz and returns the UTC
// instant.
func Combine(date time.Time, clock time.Time, tz string) time.Time {
	naive := time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
	return LocalToUTC(naive, tz)
}

// UTCToLocal converts a UTC instant into tz's wall-clock representation,
// for rendering to users.
func UTCToLocal(utc time.Time, tz string) time.Time {
	return utc.In(LoadLocation(tz))
}

// SameDayLocal reports whether a and b (both instants, any location) fall
// on the same calendar day once converted into tz.
func SameDayLocal(a, b time.Time, tz string) bool {
	loc := LoadLocation(tz)
	la, lb := a.In(loc), b.In(loc)
	y1, m1, d1 := la.Date()
	y2, m2, d2 := lb.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IsFutureBeyondGrace reports whether t is more than grace past now —
// used by the attendance ingestion pipeline's future-time guard.
func IsFutureBeyondGrace(t, now time.Time, grace time.Duration) bool {
	return t.After(now.Add(grace))
}
