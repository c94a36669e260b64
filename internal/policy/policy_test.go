package policy

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

type fakeSettingsStore struct {
	items map[string]json.RawMessage
	calls int
}

func (f *fakeSettingsStore) GetItem(ctx context.Context, listName, itemName string) (json.RawMessage, bool, error) {
	f.calls++
	v, ok := f.items[listName+"."+itemName]
	return v, ok, nil
}

func TestDefaultBreakMinutes(t *testing.T) {
	raw, _ := json.Marshal(30)
	store := &fakeSettingsStore{items: map[string]json.RawMessage{"timesheet.default_break_minutes": raw}}
	l := New(store)

	got, err := l.DefaultBreakMinutes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || *got != 30 {
		t.Fatalf("DefaultBreakMinutes() = %v, want 30", got)
	}
}

func TestDefaultBreakMinutes_Absent(t *testing.T) {
	store := &fakeSettingsStore{items: map[string]json.RawMessage{}}
	l := New(store)

	got, err := l.DefaultBreakMinutes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("DefaultBreakMinutes() = %v, want nil", got)
	}
}

func TestIsBreakEligible(t *testing.T) {
	eligible := uuid.New()
	ids, _ := json.Marshal([]string{eligible.String()})
	store := &fakeSettingsStore{items: map[string]json.RawMessage{"timesheet.break_eligible_employees": ids}}
	l := New(store)

	ok, err := l.IsBreakEligible(context.Background(), eligible)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected eligible worker to be eligible")
	}

	ok, err = l.IsBreakEligible(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected unrelated worker to not be eligible")
	}
}

func TestCacheAvoidsRepeatedStoreReads(t *testing.T) {
	raw, _ := json.Marshal(30)
	store := &fakeSettingsStore{items: map[string]json.RawMessage{"timesheet.default_break_minutes": raw}}
	l := New(store)

	for i := 0; i < 3; i++ {
		if _, err := l.DefaultBreakMinutes(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if store.calls != 1 {
		t.Errorf("store was queried %d times, want 1 (cached)", store.calls)
	}

	l.Invalidate("timesheet", "default_break_minutes")
	if _, err := l.DefaultBreakMinutes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.calls != 2 {
		t.Errorf("store was queried %d times after invalidate, want 2", store.calls)
	}
}
