package geofence

import (
	"math"
	"testing"
)

func TestHaversineMeters(t *testing.T) {
	// Roughly 1 degree of latitude is ~111km.
	d := HaversineMeters(49.0, -123.0, 50.0, -123.0)
	if math.Abs(d-111195) > 500 {
		t.Errorf("HaversineMeters(1 degree lat) = %v, want ~111195", d)
	}
	if d2 := HaversineMeters(49.0, -123.0, 49.0, -123.0); d2 != 0 {
		t.Errorf("HaversineMeters(same point) = %v, want 0", d2)
	}
}

func TestEvaluate(t *testing.T) {
	acc50 := 50.0
	acc200 := 200.0
	regions := []Region{{Lat: 49.0, Lng: -123.0, RadiusM: 100}}

	tests := []struct {
		name         string
		gps          GPS
		regions      []Region
		wantInside   bool
		wantRequired bool
		wantRisk     bool
	}{
		{
			name:         "no regions means not required",
			gps:          GPS{HasReading: true, Lat: 49.0, Lng: -123.0},
			regions:      nil,
			wantInside:   true,
			wantRequired: false,
			wantRisk:     false,
		},
		{
			name:         "no gps reading is a required miss with risk",
			gps:          GPS{HasReading: false},
			regions:      regions,
			wantInside:   false,
			wantRequired: true,
			wantRisk:     true,
		},
		{
			name:         "inside radius with good accuracy",
			gps:          GPS{HasReading: true, Lat: 49.0, Lng: -123.0, AccuracyM: &acc50},
			regions:      regions,
			wantInside:   true,
			wantRequired: true,
			wantRisk:     false,
		},
		{
			name:         "inside radius with poor accuracy flags risk",
			gps:          GPS{HasReading: true, Lat: 49.0, Lng: -123.0, AccuracyM: &acc200},
			regions:      regions,
			wantInside:   true,
			wantRequired: true,
			wantRisk:     true,
		},
		{
			name:         "far outside any region",
			gps:          GPS{HasReading: true, Lat: 51.0, Lng: -123.0, AccuracyM: &acc50},
			regions:      regions,
			wantInside:   false,
			wantRequired: true,
			wantRisk:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.gps, tt.regions)
			if got.Inside != tt.wantInside {
				t.Errorf("Inside = %v, want %v", got.Inside, tt.wantInside)
			}
			if got.Required != tt.wantRequired {
				t.Errorf("Required = %v, want %v", got.Required, tt.wantRequired)
			}
			if got.Risk != tt.wantRisk {
				t.Errorf("Risk = %v, want %v", got.Risk, tt.wantRisk)
			}
		})
	}
}

func TestInheritFromProject(t *testing.T) {
	lat, lng := 49.0, -123.0
	regions := InheritFromProject(&lat, &lng, 150)
	if len(regions) != 1 {
		t.Fatalf("len(regions) = %d, want 1", len(regions))
	}
	if regions[0].RadiusM != 150 {
		t.Errorf("RadiusM = %v, want 150", regions[0].RadiusM)
	}

	if got := InheritFromProject(nil, &lng, 150); got != nil {
		t.Errorf("InheritFromProject with nil lat = %v, want nil", got)
	}
}
