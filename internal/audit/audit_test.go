package audit

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestComputeHashIsReproducible(t *testing.T) {
	s := NewStore(nil, "test-secret")
	actor := uuid.New()
	e := Entry{
		EntityType: "attendance",
		EntityID:   uuid.New(),
		Action:     "APPROVE",
		ActorID:    &actor,
		ActorRole:  "supervisor",
		Source:     "app",
		Timestamp:  time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC),
		Changes:    map[string]any{"status": "approved"},
		Context:    map[string]any{"worker_id": "w-1"},
	}

	h1 := s.ComputeHash(e)
	h2 := s.ComputeHash(e)
	if h1 != h2 {
		t.Fatalf("ComputeHash is not reproducible: %q != %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("ComputeHash() length = %d, want 64 (hex sha256)", len(h1))
	}
}

func TestComputeHashChangesWithSecret(t *testing.T) {
	e := Entry{EntityType: "shift", EntityID: uuid.New(), Action: "CREATE", Source: "app"}
	h1 := NewStore(nil, "secret-a").ComputeHash(e)
	h2 := NewStore(nil, "secret-b").ComputeHash(e)
	if h1 == h2 {
		t.Fatalf("ComputeHash should depend on the store secret")
	}
}

func TestComputeHashChangesWithContent(t *testing.T) {
	s := NewStore(nil, "test-secret")
	base := Entry{EntityType: "shift", EntityID: uuid.New(), Action: "CREATE", Source: "app"}
	mutated := base
	mutated.Action = "UPDATE"

	if s.ComputeHash(base) == s.ComputeHash(mutated) {
		t.Fatalf("ComputeHash should differ when the entry's action differs")
	}
}

func TestComputeHashOmitsNilFields(t *testing.T) {
	s := NewStore(nil, "test-secret")
	withNilActor := Entry{EntityType: "shift", EntityID: uuid.New(), Action: "CREATE", Source: "app"}
	actor := uuid.Nil
	withZeroActor := withNilActor
	withZeroActor.ActorID = &actor

	if s.ComputeHash(withNilActor) == s.ComputeHash(withZeroActor) {
		t.Fatalf("a present (even zero-value) actor id should change the canonical payload")
	}
}
