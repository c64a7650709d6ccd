// Package eventbus fans out queue and emergency change notifications to
// connected clients. Delivery is best effort and at most once per
// subscriber; events are refresh hints, never authoritative state.
package eventbus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event names
const (
	EventQueueUpdate        = "queue:update"
	EventDoctorQueueRefresh = "doctor:queue-refresh"
	EventEmergencyActive    = "emergency:active"
)

// KnownEvents lists the event names clients may subscribe to
var KnownEvents = []string{EventQueueUpdate, EventDoctorQueueRefresh, EventEmergencyActive}

// Event is one notification. A nil DoctorID addresses every doctor.
type Event struct {
	Name      string         `json:"event"`
	DoctorID  *uuid.UUID     `json:"doctorId,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent builds an event for one doctor, stamping the doctor id into the payload
func NewEvent(name string, doctorID uuid.UUID, payload map[string]any) Event {
	if payload == nil {
		payload = make(map[string]any)
	}
	payload["doctorId"] = doctorID.String()
	return Event{
		Name:      name,
		DoctorID:  &doctorID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Publisher delivers events to subscribers. Implementations must not block
// the caller on slow subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Relay is a cross-instance broker that forwards remote events into the local hub
type Relay interface {
	Publisher
	Run(ctx context.Context) error
	Close() error
}
