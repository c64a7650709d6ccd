package eventbus

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func receive(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case data := <-client.Send:
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return event
	default:
		t.Fatal("expected an event, got none")
		return Event{}
	}
}

func expectNothing(t *testing.T, client *Client) {
	t.Helper()
	select {
	case data := <-client.Send:
		t.Fatalf("unexpected event: %s", data)
	default:
	}
}

func TestHubDeliversOnlySubscribedEvents(t *testing.T) {
	hub := NewHub(quietLogger())
	doctorID := uuid.New()

	queue := hub.Connect([]string{EventQueueUpdate}, nil)
	emergency := hub.Connect([]string{EventEmergencyActive}, nil)

	hub.Broadcast(NewEvent(EventQueueUpdate, doctorID, map[string]any{"tokenNumber": 3}))

	event := receive(t, queue)
	if event.Name != EventQueueUpdate {
		t.Errorf("event name = %q, want %q", event.Name, EventQueueUpdate)
	}
	if event.Payload["doctorId"] != doctorID.String() {
		t.Errorf("payload doctorId = %v, want %s", event.Payload["doctorId"], doctorID)
	}
	if event.Payload["tokenNumber"] != float64(3) {
		t.Errorf("payload tokenNumber = %v, want 3", event.Payload["tokenNumber"])
	}
	expectNothing(t, emergency)
}

func TestHubFiltersByDoctor(t *testing.T) {
	hub := NewHub(quietLogger())
	mine, other := uuid.New(), uuid.New()

	terminal := hub.Connect([]string{EventDoctorQueueRefresh}, &mine)
	board := hub.Connect([]string{EventDoctorQueueRefresh}, nil)

	hub.Broadcast(NewEvent(EventDoctorQueueRefresh, other, nil))
	expectNothing(t, terminal)
	receive(t, board)

	hub.Broadcast(NewEvent(EventDoctorQueueRefresh, mine, nil))
	receive(t, terminal)
	receive(t, board)
}

func TestHubSubscriptionChanges(t *testing.T) {
	hub := NewHub(quietLogger())
	client := hub.Connect([]string{EventQueueUpdate}, nil)

	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Events: []string{EventEmergencyActive, EventQueueUpdate}})
	if got := hub.EventCount(EventQueueUpdate); got != 1 {
		t.Errorf("EventCount(queue) = %d, want 1 after duplicate subscribe", got)
	}
	if len(client.Events) != 2 {
		t.Errorf("client events = %v, want 2 entries", client.Events)
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Events: []string{EventQueueUpdate}})
	if got := hub.EventCount(EventQueueUpdate); got != 0 {
		t.Errorf("EventCount(queue) = %d, want 0", got)
	}

	hub.Broadcast(NewEvent(EventQueueUpdate, uuid.New(), nil))
	expectNothing(t, client)

	hub.ProcessMessage(client, ClientMessage{Action: "unknown", Events: []string{EventQueueUpdate}})
	if got := hub.EventCount(EventQueueUpdate); got != 0 {
		t.Errorf("unknown action changed subscriptions")
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub(quietLogger())
	client := hub.Connect(KnownEvents, nil)
	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)
	hub.Unregister(client)

	if _, ok := <-client.Send; ok {
		t.Error("Send channel still open after Unregister")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
	for _, name := range KnownEvents {
		if hub.EventCount(name) != 0 {
			t.Errorf("EventCount(%s) = %d, want 0", name, hub.EventCount(name))
		}
	}
}

func TestHubDropsWhenClientBufferFull(t *testing.T) {
	hub := NewHub(quietLogger())
	var dropped int
	hub.OnDrop(func(string) { dropped++ })

	client := hub.Connect([]string{EventQueueUpdate}, nil)
	doctorID := uuid.New()
	for i := 0; i < clientBuffer+5; i++ {
		hub.Broadcast(NewEvent(EventQueueUpdate, doctorID, nil))
	}

	if len(client.Send) != clientBuffer {
		t.Errorf("buffered = %d, want %d", len(client.Send), clientBuffer)
	}
	if dropped != 5 {
		t.Errorf("dropped = %d, want 5", dropped)
	}
}
