// Package notify is the notification gateway: it decides whether a
// notification should be created at all (global channel toggle, per-user
// channel preference, quiet hours) and, if so, queues a pending row.
// Actual delivery belongs to a separate worker; this is a
// fire-and-forget enqueue.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldops/dispatch/internal/dbx"
	"github.com/fieldops/dispatch/internal/registry"
)

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// Template keys for the notifications the dispatch flows emit.
const (
	TemplateShiftCreated       = "shift_created"
	TemplateShiftUpdated       = "shift_updated"
	TemplateShiftCancelled     = "shift_cancelled"
	TemplateAttendanceApproved = "attendance_approved"
	TemplateAttendanceRejected = "attendance_rejected"
	TemplateAttendancePending  = "attendance_pending"
)

// QuietHours is a user's configured do-not-disturb window, in their own
// timezone; it may wrap midnight.
type QuietHours struct {
	Enabled bool
	Start   time.Time // only hour/minute are used
	End     time.Time
}

// Preferences is a user's per-channel notification settings.
type Preferences struct {
	PushEnabled  bool
	EmailEnabled bool
	Quiet        QuietHours
}

// PreferencesFromUser builds per-channel notification preferences from a
// registry user's stored settings, so callers never hardcode a channel
// toggle or quiet-hours window.
func PreferencesFromUser(u registry.User) Preferences {
	return Preferences{
		PushEnabled:  u.PushEnabled,
		EmailEnabled: u.EmailEnabled,
		Quiet: QuietHours{
			Enabled: u.QuietHoursEnabled,
			Start:   u.QuietHoursStart,
			End:     u.QuietHoursEnd,
		},
	}
}

// GlobalConfig is the process-wide channel toggle read from ENABLE_PUSH /
// ENABLE_EMAIL.
type GlobalConfig struct {
	PushEnabled  bool
	EmailEnabled bool
}

// Gateway enqueues notifications, subject to the should-send rule.
type Gateway struct {
	pool   *pgxpool.Pool
	global GlobalConfig
	now    func() time.Time
}

func NewGateway(pool *pgxpool.Pool, global GlobalConfig) *Gateway {
	return &Gateway{pool: pool, global: global, now: func() time.Time { return time.Now().UTC() }}
}

// ShouldSend reports whether a notification may be created: false if the
// channel is globally disabled, the user's preference disables it, or
// now (in the user's timezone) falls inside their quiet-hours window.
func (g *Gateway) ShouldSend(channel Channel, prefs Preferences, userTZ string, nowInUserTZ time.Time) bool {
	switch channel {
	case ChannelPush:
		if !g.global.PushEnabled || !prefs.PushEnabled {
			return false
		}
	case ChannelEmail:
		if !g.global.EmailEnabled || !prefs.EmailEnabled {
			return false
		}
	}
	if prefs.Quiet.Enabled && inQuietHours(nowInUserTZ, prefs.Quiet) {
		return false
	}
	return true
}

func inQuietHours(now time.Time, q QuietHours) bool {
	cur := now.Hour()*60 + now.Minute()
	start := q.Start.Hour()*60 + q.Start.Minute()
	end := q.End.Hour()*60 + q.End.Minute()
	if start <= end {
		return cur >= start && cur <= end
	}
	// Window wraps midnight.
	return cur >= start || cur <= end
}

// Enqueue creates a pending Notification row if ShouldSend allows it.
// Returns (false, nil) when skipped, never an error for a skip.
func (g *Gateway) Enqueue(ctx context.Context, exec Exec, userID uuid.UUID, channel Channel, templateKey string, payload any, prefs Preferences, userTZ string) (bool, error) {
	nowLocal := g.now().In(loc(userTZ))
	if !g.ShouldSend(channel, prefs, userTZ, nowLocal) {
		return false, nil
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}
	_, err = exec.Exec(ctx, `
		INSERT INTO notifications (id, user_id, channel, template_key, payload_json, status, created_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6)
	`, uuid.New(), userID, string(channel), templateKey, payloadJSON, g.now())
	if err != nil {
		return false, err
	}
	return true, nil
}

// Exec aliases the module-wide executor interface.
type Exec = dbx.Querier

func loc(tz string) *time.Location {
	l, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return l
}
