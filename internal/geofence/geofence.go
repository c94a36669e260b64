// Package geofence implements the spherical-earth distance check used to
// decide whether a clock event happened inside a shift's allowed radius.
// The result is always advisory; callers never block on it.
package geofence

import "math"

const earthRadiusM = 6371000.0

// MaxAccuracySlackM is the policy ceiling on how much GPS accuracy (in
// meters) may widen the effective radius. Zero means no slack.
const MaxAccuracySlackM = 0.0

// Region is a single circular geofence.
type Region struct {
	Lat, Lng float64
	RadiusM  float64
}

// GPS is a single reported position with its device-declared accuracy.
type GPS struct {
	Lat, Lng   float64
	AccuracyM  *float64
	HasReading bool
}

// Result is the outcome of evaluating a GPS reading against an ordered
// list of regions.
type Result struct {
	Inside         bool
	MatchingRegion *int // index into the regions slice, nil if none matched
	Risk           bool
	Required       bool // false when no coordinates exist to check against at all
}

// HaversineMeters returns the great-circle distance between two
// lat/lng points in meters.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Evaluate checks gps against an ordered list of regions. An empty region
// list means "not required" (no coordinates configured anywhere) only if
// the caller passes a nil/empty slice; callers are responsible for first
// substituting the project's single-point region when a shift has no
// geofences of its own.
func Evaluate(gps GPS, regions []Region) Result {
	if len(regions) == 0 {
		return Result{Inside: true, Risk: false, Required: false}
	}

	risk := !gps.HasReading
	var slack float64
	if gps.AccuracyM != nil {
		slack = clamp(*gps.AccuracyM, 0, MaxAccuracySlackM)
		if *gps.AccuracyM > 100 {
			risk = true
		}
	} else if gps.HasReading {
		risk = true
	}

	if !gps.HasReading {
		return Result{Inside: false, Risk: true, Required: true}
	}

	for i, r := range regions {
		d := HaversineMeters(gps.Lat, gps.Lng, r.Lat, r.Lng)
		if d <= r.RadiusM+slack {
			idx := i
			return Result{Inside: true, MatchingRegion: &idx, Risk: risk, Required: true}
		}
	}
	return Result{Inside: false, Risk: risk, Required: true}
}

// InheritFromProject builds the single-region fallback list used when a
// shift carries no geofences of its own: the project's point, with the
// policy default radius. If the project itself has no coordinates, the
// returned slice is empty (meaning "not required").
func InheritFromProject(projectLat, projectLng *float64, defaultRadiusM float64) []Region {
	if projectLat == nil || projectLng == nil {
		return nil
	}
	return []Region{{Lat: *projectLat, Lng: *projectLng, RadiusM: defaultRadiusM}}
}
