// Package policy reads the settings-store values the dispatch core treats
// as tunables: the default break length and the break-eligibility roster.
// It is a thin read path over the registry's settings store, with an
// in-process cache the caller invalidates on write — the settings table
// is read often and written rarely.
package policy

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// SettingsStore is the external collaborator: a flat list_name -> items
// key/value store.
type SettingsStore interface {
	GetItem(ctx context.Context, listName, itemName string) (json.RawMessage, bool, error)
}

// Lookup wraps a SettingsStore with the two named policy reads the rest of
// the core needs, plus an invalidate-on-write cache.
type Lookup struct {
	store SettingsStore

	mu    sync.RWMutex
	cache map[string]json.RawMessage
}

func New(store SettingsStore) *Lookup {
	return &Lookup{store: store, cache: make(map[string]json.RawMessage)}
}

// Invalidate drops the cached value for one item (or the whole cache if
// itemName is empty), to be called after any write to setting_items.
func (l *Lookup) Invalidate(listName, itemName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if itemName == "" {
		l.cache = make(map[string]json.RawMessage)
		return
	}
	delete(l.cache, listName+"."+itemName)
}

func (l *Lookup) get(ctx context.Context, listName, itemName string) (json.RawMessage, bool, error) {
	key := listName + "." + itemName
	l.mu.RLock()
	if v, ok := l.cache[key]; ok {
		l.mu.RUnlock()
		return v, true, nil
	}
	l.mu.RUnlock()

	v, ok, err := l.store.GetItem(ctx, listName, itemName)
	if err != nil {
		return nil, false, err
	}
	if ok {
		l.mu.Lock()
		l.cache[key] = v
		l.mu.Unlock()
	}
	return v, ok, nil
}

// DefaultBreakMinutes reads timesheet.default_break_minutes. nil means the
// setting is absent (no default break applies).
func (l *Lookup) DefaultBreakMinutes(ctx context.Context) (*int, error) {
	raw, ok, err := l.get(ctx, "timesheet", "default_break_minutes")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, nil
	}
	return &n, nil
}

// BreakEligibleEmployees reads timesheet.break_eligible_employees, a JSON
// array of user ids.
func (l *Lookup) BreakEligibleEmployees(ctx context.Context) (map[uuid.UUID]bool, error) {
	raw, ok, err := l.get(ctx, "timesheet", "break_eligible_employees")
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool)
	if !ok {
		return set, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return set, nil
	}
	for _, s := range ids {
		if id, err := uuid.Parse(s); err == nil {
			set[id] = true
		}
	}
	return set, nil
}

// IsBreakEligible reports whether worker is in the eligibility set.
func (l *Lookup) IsBreakEligible(ctx context.Context, worker uuid.UUID) (bool, error) {
	set, err := l.BreakEligibleEmployees(ctx)
	if err != nil {
		return false, err
	}
	return set[worker], nil
}
