package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryEmergencyRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryEmergencyRegistry()
	first, second := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	if state, err := r.Get(ctx, first); err != nil || state != nil {
		t.Fatalf("Get on empty registry = %v, %v; want nil, nil", state, err)
	}

	r.Activate(ctx, EmergencyState{DoctorID: second, ActivatedAt: base.Add(time.Minute)})
	r.Activate(ctx, EmergencyState{DoctorID: first, ActivatedAt: base, RoomNumber: "A1"})

	states, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(states) != 2 || states[0].DoctorID != first || states[1].DoctorID != second {
		t.Fatalf("List not ordered by activation time: %+v", states)
	}

	state, _ := r.Get(ctx, first)
	if state == nil || state.RoomNumber != "A1" {
		t.Fatalf("Get = %+v, want room A1", state)
	}

	r.Clear(ctx, first)
	if state, _ := r.Get(ctx, first); state != nil {
		t.Errorf("Get after Clear = %+v, want nil", state)
	}
	if states, _ := r.List(ctx); len(states) != 1 {
		t.Errorf("List after Clear has %d entries, want 1", len(states))
	}
}
