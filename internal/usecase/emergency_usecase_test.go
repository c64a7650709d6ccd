package usecase

import (
	"context"
	"errors"
	"testing"

	"hospital-frontdesk/internal/delivery/dto"
	"hospital-frontdesk/internal/infrastructure/eventbus"
	"hospital-frontdesk/internal/service"

	"github.com/google/uuid"
)

func boolPtr(v bool) *bool { return &v }

func TestEmergencyVisitRaisesAndCallClearsSignal(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()

	visit := f.createVisit(t, f.doctor, f.patients[0], true)

	list, err := f.emergencies.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("active emergencies = %d, want 1", list.Total)
	}
	got := list.Emergencies[0]
	if got.DoctorID != f.doctor.ID || got.VisitID == nil || *got.VisitID != visit.ID {
		t.Errorf("emergency = %+v, want doctor %s visit %s", got, f.doctor.ID, visit.ID)
	}
	if got.TokenNumber != visit.TokenNumber || got.PatientName != f.patients[0].Name || got.RoomNumber != f.doctor.RoomNumber {
		t.Errorf("emergency details = %+v", got)
	}

	event := f.events.last(eventbus.EventEmergencyActive)
	if event == nil || event.Payload["isActive"] != true {
		t.Fatalf("emergency:active event = %+v, want isActive true", event)
	}

	if _, err := f.visits.CallNext(ctx, visit.ID); err != nil {
		t.Fatalf("CallNext: %v", err)
	}
	list, _ = f.emergencies.ListActive(ctx)
	if list.Total != 0 {
		t.Errorf("active emergencies after call = %d, want 0", list.Total)
	}
	event = f.events.last(eventbus.EventEmergencyActive)
	if event == nil || event.Payload["isActive"] != false {
		t.Errorf("last emergency:active event = %+v, want isActive false", event)
	}
}

func TestCancelEmergencyVisitClearsSignal(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()

	visit := f.createVisit(t, f.doctor, f.patients[0], true)
	if _, err := f.visits.CancelVisit(ctx, visit.ID); err != nil {
		t.Fatalf("CancelVisit: %v", err)
	}
	if list, _ := f.emergencies.ListActive(ctx); list.Total != 0 {
		t.Errorf("active emergencies after cancel = %d, want 0", list.Total)
	}
}

func TestCallingOtherVisitKeepsSignal(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()

	normal := f.createVisit(t, f.doctor, f.patients[0], false)
	if _, err := f.visits.CallNext(ctx, normal.ID); err != nil {
		t.Fatalf("CallNext: %v", err)
	}
	if _, err := f.visits.CompleteVisit(ctx, normal.ID); err != nil {
		t.Fatalf("CompleteVisit: %v", err)
	}

	emergency := f.createVisit(t, f.doctor, f.patients[1], true)
	waiting := f.createVisit(t, f.doctor, f.patients[2], false)
	if _, err := f.visits.CancelVisit(ctx, waiting.ID); err != nil {
		t.Fatalf("CancelVisit: %v", err)
	}

	list, _ := f.emergencies.ListActive(ctx)
	if list.Total != 1 || *list.Emergencies[0].VisitID != emergency.ID {
		t.Errorf("emergency signal should still reference %s, got %+v", emergency.ID, list.Emergencies)
	}
}

func TestSignalMovesToRemainingWaitingEmergency(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()

	first := f.createVisit(t, f.doctor, f.patients[0], true)
	second := f.createVisit(t, f.doctor, f.patients[1], true)

	list, _ := f.emergencies.ListActive(ctx)
	if list.Total != 1 || *list.Emergencies[0].VisitID != second.ID {
		t.Fatalf("signal should reference the newest emergency %s, got %+v", second.ID, list.Emergencies)
	}

	if _, err := f.visits.CancelVisit(ctx, second.ID); err != nil {
		t.Fatalf("CancelVisit: %v", err)
	}
	list, _ = f.emergencies.ListActive(ctx)
	if list.Total != 1 {
		t.Fatalf("active emergencies after cancel = %d, want 1", list.Total)
	}
	got := list.Emergencies[0]
	if got.VisitID == nil || *got.VisitID != first.ID || got.TokenNumber != first.TokenNumber || got.PatientName != f.patients[0].Name {
		t.Errorf("signal should move to %s, got %+v", first.ID, got)
	}

	if _, err := f.visits.CallNext(ctx, first.ID); err != nil {
		t.Fatalf("CallNext: %v", err)
	}
	if list, _ := f.emergencies.ListActive(ctx); list.Total != 0 {
		t.Errorf("active emergencies after calling the last one = %d, want 0", list.Total)
	}
}

func TestSetEmergencyManualSignal(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()

	raised, err := f.emergencies.SetEmergency(ctx, f.doctor.ID, &dto.SetEmergencyRequest{Active: boolPtr(true)})
	if err != nil {
		t.Fatalf("SetEmergency(active): %v", err)
	}
	if !raised.IsActive || raised.VisitID != nil || raised.RoomNumber != f.doctor.RoomNumber {
		t.Errorf("raised = %+v, want active unbound signal in room %s", raised, f.doctor.RoomNumber)
	}

	dismissed, err := f.emergencies.SetEmergency(ctx, f.doctor.ID, &dto.SetEmergencyRequest{Active: boolPtr(false)})
	if err != nil {
		t.Fatalf("SetEmergency(inactive): %v", err)
	}
	if dismissed.IsActive {
		t.Error("dismissed signal still active")
	}
	if list, _ := f.emergencies.ListActive(ctx); list.Total != 0 {
		t.Errorf("active emergencies = %d, want 0", list.Total)
	}
}

func TestSetEmergencyBoundToVisit(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()

	visit := f.createVisit(t, f.doctor, f.patients[0], false)
	otherVisit := f.createVisit(t, f.otherDoctor, f.patients[1], false)

	state, err := f.emergencies.SetEmergency(ctx, f.doctor.ID, &dto.SetEmergencyRequest{Active: boolPtr(true), VisitID: &visit.ID})
	if err != nil {
		t.Fatalf("SetEmergency: %v", err)
	}
	if state.VisitID == nil || *state.VisitID != visit.ID || state.TokenNumber != visit.TokenNumber {
		t.Errorf("state = %+v, want bound to visit %s", state, visit.ID)
	}

	// the signal never changes the visit's own flag
	got, _ := f.visits.GetVisit(ctx, visit.ID)
	if got.IsEmergency {
		t.Error("manual signal flipped the visit's emergency flag")
	}

	tests := []struct {
		name     string
		doctorID uuid.UUID
		req      dto.SetEmergencyRequest
		wantErr  error
	}{
		{"unknown doctor", uuid.New(), dto.SetEmergencyRequest{Active: boolPtr(true)}, ErrDoctorNotFound},
		{"unknown visit", f.doctor.ID, dto.SetEmergencyRequest{Active: boolPtr(true), VisitID: uuidPtr(uuid.New())}, ErrVisitNotFound},
		{"visit of another doctor", f.doctor.ID, dto.SetEmergencyRequest{Active: boolPtr(true), VisitID: &otherVisit.ID}, ErrVisitDoctorMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.emergencies.SetEmergency(ctx, tt.doctorID, &tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("SetEmergency error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEmergencyProtocolDisabled(t *testing.T) {
	f := newFixture(t, QueuePolicy{})
	ctx := context.Background()
	f.settings.Set(service.Settings{EmergencyProtocolEnabled: false})

	if _, err := f.emergencies.SetEmergency(ctx, f.doctor.ID, &dto.SetEmergencyRequest{Active: boolPtr(true)}); !errors.Is(err, ErrEmergencyProtocolDisabled) {
		t.Errorf("SetEmergency error = %v, want ErrEmergencyProtocolDisabled", err)
	}
	if _, err := f.emergencies.SetEmergency(ctx, f.doctor.ID, &dto.SetEmergencyRequest{Active: boolPtr(false)}); err != nil {
		t.Errorf("dismissing with protocol disabled: %v", err)
	}

	// emergency visits are still prioritized, only the signal is skipped
	normal := f.createVisit(t, f.doctor, f.patients[0], false)
	emergency := f.createVisit(t, f.doctor, f.patients[1], true)
	if list, _ := f.emergencies.ListActive(ctx); list.Total != 0 {
		t.Errorf("active emergencies = %d, want 0", list.Total)
	}

	queue, _ := f.visits.GetQueue(ctx, f.doctor.ID)
	if queue.Items[0].Visit.ID != emergency.ID || queue.Items[1].Visit.ID != normal.ID {
		t.Errorf("emergency visit not at queue head")
	}
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
