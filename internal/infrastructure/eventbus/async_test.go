package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
	block  chan struct{}
}

func (r *recordingPublisher) Publish(_ context.Context, event Event) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}

func TestAsyncPublisherDeliversInOrderAndDrainsOnStop(t *testing.T) {
	next := &recordingPublisher{}
	p := NewAsyncPublisher(next, 16, quietLogger())

	var mu sync.Mutex
	published := 0
	p.Observe(func(string) {
		mu.Lock()
		published++
		mu.Unlock()
	}, nil)

	doctorID := uuid.New()
	for _, name := range KnownEvents {
		if err := p.Publish(context.Background(), NewEvent(name, doctorID, nil)); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	p.Stop()

	got := next.names()
	if len(got) != len(KnownEvents) {
		t.Fatalf("delivered %v, want %v", got, KnownEvents)
	}
	for i := range got {
		if got[i] != KnownEvents[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], KnownEvents[i])
		}
	}
	if published != len(KnownEvents) {
		t.Errorf("onPublished called %d times, want %d", published, len(KnownEvents))
	}
}

func TestAsyncPublisherDropsWhenFull(t *testing.T) {
	next := &recordingPublisher{block: make(chan struct{})}
	p := NewAsyncPublisher(next, 1, quietLogger())

	var mu sync.Mutex
	dropped := 0
	p.Observe(nil, func(string) {
		mu.Lock()
		dropped++
		mu.Unlock()
	})

	doctorID := uuid.New()
	// the worker takes at most one event and blocks on it, the buffer holds one more
	for i := 0; i < 5; i++ {
		p.Publish(context.Background(), NewEvent(EventQueueUpdate, doctorID, nil))
	}
	close(next.block)
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	delivered := len(next.names())
	if delivered+dropped != 5 {
		t.Fatalf("delivered %d + dropped %d, want 5 total", delivered, dropped)
	}
	if dropped < 3 {
		t.Errorf("dropped = %d, want at least 3", dropped)
	}
}

func TestAsyncPublisherReportsDownstreamFailure(t *testing.T) {
	next := &recordingPublisher{err: errors.New("broker down")}
	p := NewAsyncPublisher(next, 4, quietLogger())

	var dropped []string
	p.Observe(nil, func(name string) { dropped = append(dropped, name) })

	p.Publish(context.Background(), NewEvent(EventEmergencyActive, uuid.New(), nil))
	p.Stop()

	if len(dropped) != 1 || dropped[0] != EventEmergencyActive {
		t.Errorf("dropped = %v, want [%s]", dropped, EventEmergencyActive)
	}
}

func TestAsyncPublisherAfterStop(t *testing.T) {
	next := &recordingPublisher{}
	p := NewAsyncPublisher(next, 4, quietLogger())
	p.Stop()
	p.Stop()

	if err := p.Publish(context.Background(), NewEvent(EventQueueUpdate, uuid.New(), nil)); err != nil {
		t.Fatalf("Publish after Stop returned %v", err)
	}
	if len(next.names()) != 0 {
		t.Error("event delivered after Stop")
	}
}
