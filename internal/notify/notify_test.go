package notify

import (
	"testing"
	"time"
)

func tm(h, m int) time.Time { return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC) }

func TestShouldSendGlobalToggle(t *testing.T) {
	g := &Gateway{global: GlobalConfig{PushEnabled: false, EmailEnabled: true}}
	prefs := Preferences{PushEnabled: true, EmailEnabled: true}
	if g.ShouldSend(ChannelPush, prefs, "UTC", tm(9, 0)) {
		t.Errorf("push disabled globally should never send")
	}
	if !g.ShouldSend(ChannelEmail, prefs, "UTC", tm(9, 0)) {
		t.Errorf("email enabled globally and per-user should send")
	}
}

func TestShouldSendUserPreference(t *testing.T) {
	g := &Gateway{global: GlobalConfig{PushEnabled: true, EmailEnabled: true}}
	prefs := Preferences{PushEnabled: false}
	if g.ShouldSend(ChannelPush, prefs, "UTC", tm(9, 0)) {
		t.Errorf("user-disabled push should never send")
	}
}

func TestShouldSendQuietHoursNonWrapping(t *testing.T) {
	g := &Gateway{global: GlobalConfig{PushEnabled: true}}
	prefs := Preferences{PushEnabled: true, Quiet: QuietHours{Enabled: true, Start: tm(22, 0), End: tm(23, 0)}}
	if g.ShouldSend(ChannelPush, prefs, "UTC", tm(22, 30)) {
		t.Errorf("should not send inside a non-wrapping quiet window")
	}
	if !g.ShouldSend(ChannelPush, prefs, "UTC", tm(21, 59)) {
		t.Errorf("should send just before the quiet window starts")
	}
}

func TestShouldSendQuietHoursWrappingMidnight(t *testing.T) {
	g := &Gateway{global: GlobalConfig{PushEnabled: true}}
	prefs := Preferences{PushEnabled: true, Quiet: QuietHours{Enabled: true, Start: tm(22, 0), End: tm(6, 0)}}
	if g.ShouldSend(ChannelPush, prefs, "UTC", tm(23, 30)) {
		t.Errorf("should not send inside a wrapping quiet window, late side")
	}
	if g.ShouldSend(ChannelPush, prefs, "UTC", tm(5, 30)) {
		t.Errorf("should not send inside a wrapping quiet window, early side")
	}
	if !g.ShouldSend(ChannelPush, prefs, "UTC", tm(12, 0)) {
		t.Errorf("should send outside a wrapping quiet window")
	}
}

func TestShouldSendQuietHoursDisabled(t *testing.T) {
	g := &Gateway{global: GlobalConfig{PushEnabled: true}}
	prefs := Preferences{PushEnabled: true, Quiet: QuietHours{Enabled: false, Start: tm(0, 0), End: tm(23, 59)}}
	if !g.ShouldSend(ChannelPush, prefs, "UTC", tm(12, 0)) {
		t.Errorf("disabled quiet hours should never block a send")
	}
}
