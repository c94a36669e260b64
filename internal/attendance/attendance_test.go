package attendance

import (
	"testing"
	"time"
)

func TestGrossMinutes(t *testing.T) {
	in := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	out := time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)

	a := &Attendance{ClockIn: &Endpoint{Time: in}, ClockOut: &Endpoint{Time: out}}
	got, ok := a.GrossMinutes()
	if !ok || got != 480 {
		t.Fatalf("GrossMinutes() = %d, %v; want 480, true", got, ok)
	}
}

func TestGrossMinutesMissingEndpoint(t *testing.T) {
	a := &Attendance{ClockIn: &Endpoint{Time: time.Now()}}
	if _, ok := a.GrossMinutes(); ok {
		t.Fatalf("GrossMinutes() should report false with only clock-in present")
	}
}

func TestGrossMinutesCrossesMidnight(t *testing.T) {
	in := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
	out := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC) // before in, crosses midnight once
	a := &Attendance{ClockIn: &Endpoint{Time: in}, ClockOut: &Endpoint{Time: out}}
	got, ok := a.GrossMinutes()
	if !ok || got != 240 {
		t.Fatalf("GrossMinutes() = %d, %v; want 240, true", got, ok)
	}
}

func TestNetMinutesNeverNegative(t *testing.T) {
	in := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	out := time.Date(2025, 3, 10, 8, 10, 0, 0, time.UTC)
	brk := 30
	a := &Attendance{ClockIn: &Endpoint{Time: in}, ClockOut: &Endpoint{Time: out}, BreakMinutes: &brk}
	net, ok := a.NetMinutes()
	if !ok || net != 0 {
		t.Fatalf("NetMinutes() = %d, %v; want 0, true (clamped)", net, ok)
	}
}

func TestJobTypeMarker(t *testing.T) {
	cases := []struct {
		reason   *string
		wantCode string
		wantOK   bool
	}{
		{strPtr("JOB_TYPE:PAVING"), "PAVING", true},
		{strPtr("JOB_TYPE:PAVING|forgot to clock out earlier"), "PAVING", true},
		{strPtr("just a note"), "", false},
		{nil, "", false},
	}
	for _, c := range cases {
		code, ok := JobTypeMarker(c.reason)
		if code != c.wantCode || ok != c.wantOK {
			t.Errorf("JobTypeMarker(%v) = %q, %v; want %q, %v", c.reason, code, ok, c.wantCode, c.wantOK)
		}
	}
}

func TestHoursWorkedOverride(t *testing.T) {
	cases := []struct {
		reason    *string
		wantHours float64
		wantOK    bool
	}{
		{strPtr("JOB_TYPE:PAVING|HOURS_WORKED:7.5"), 7.5, true},
		{strPtr("HOURS_WORKED:4"), 4, true},
		{strPtr("JOB_TYPE:PAVING|note only"), 0, false},
		{nil, 0, false},
	}
	for _, c := range cases {
		got, ok := HoursWorkedOverride(c.reason)
		if got != c.wantHours || ok != c.wantOK {
			t.Errorf("HoursWorkedOverride(%v) = %v, %v; want %v, %v", c.reason, got, ok, c.wantHours, c.wantOK)
		}
	}
}

func TestComputeBreakMinutes(t *testing.T) {
	def := 30

	// Manual override always wins, even zero.
	if got := ComputeBreakMinutes(intPtr(0), true, 600, false, &def); got == nil || *got != 0 {
		t.Fatalf("manual override 0 should be honoured, got %v", got)
	}

	// Eligible worker, long shift, no override: policy default applies.
	if got := ComputeBreakMinutes(nil, true, 301, true, &def); got == nil || *got != 30 {
		t.Fatalf("eligible long shift should deduct policy default, got %v", got)
	}

	// Below the 5h threshold: no break even if eligible.
	if got := ComputeBreakMinutes(nil, true, 299, true, &def); got != nil {
		t.Fatalf("shift under 300 minutes should not auto-deduct a break, got %v", got)
	}

	// Not eligible: no break.
	if got := ComputeBreakMinutes(nil, true, 600, false, &def); got != nil {
		t.Fatalf("ineligible worker should not auto-deduct a break, got %v", got)
	}

	// Only one endpoint present: no break regardless of other inputs.
	if got := ComputeBreakMinutes(nil, false, 600, true, &def); got != nil {
		t.Fatalf("break must be nil when both endpoints are not present, got %v", got)
	}
}

func TestDecideStatus(t *testing.T) {
	cases := []struct {
		name                     string
		ownClock                 bool
		isOnsiteLeadOrSupervisor bool
		dayEqualsToday           bool
		want                     string
	}{
		{"own shift, onsite lead, back-dated still approved", true, true, false, StatusApproved},
		{"own shift, today, no special role", true, false, true, StatusApproved},
		{"own shift, back-dated, no special role", true, false, false, StatusPending},
		{"on behalf, today", false, false, true, StatusApproved},
		{"on behalf, back-dated", false, false, false, StatusPending},
		{"on behalf, onsite lead or supervisor, back-dated", false, true, false, StatusApproved},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := decideStatus(c.ownClock, c.isOnsiteLeadOrSupervisor, c.dayEqualsToday)
			if got != c.want {
				t.Errorf("decideStatus(%v, %v, %v) = %q, want %q", c.ownClock, c.isOnsiteLeadOrSupervisor, c.dayEqualsToday, got, c.want)
			}
		})
	}
}

func TestDirectReasonText(t *testing.T) {
	got := directReasonText("PAVING", nil)
	if got == nil || *got != "JOB_TYPE:PAVING" {
		t.Fatalf("directReasonText(PAVING, nil) = %v, want JOB_TYPE:PAVING", got)
	}

	note := "extra context"
	got = directReasonText("PAVING", &note)
	if got == nil || *got != "JOB_TYPE:PAVING|extra context" {
		t.Fatalf("directReasonText(PAVING, note) = %v, want JOB_TYPE:PAVING|extra context", got)
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
