package eventbus

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// clientBuffer is the per-client queue length; events beyond it are dropped
const clientBuffer = 256

// ClientMessage is an inbound subscription change from a client
type ClientMessage struct {
	Action string   `json:"action"`
	Events []string `json:"events"`
}

// Client is one subscriber. Encoded events arrive on Send, which the hub
// closes on Unregister. A non-nil DoctorID limits delivery to that doctor
// plus events addressed to everyone.
type Client struct {
	ID       string
	Events   []string
	DoctorID *uuid.UUID
	Send     chan []byte
}

// Hub tracks clients and their event subscriptions. It is the local
// Publisher; all operations are safe for concurrent use.
type Hub struct {
	log *logrus.Logger

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // event -> set of clients
	all     map[*Client]struct{}

	onDrop func(event string)
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
	}
}

// OnDrop registers a callback for events skipped because a client buffer was full
func (h *Hub) OnDrop(fn func(event string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDrop = fn
}

// Connect creates and registers a client for the given events
func (h *Hub) Connect(events []string, doctorID *uuid.UUID) *Client {
	client := &Client{
		ID:       uuid.New().String(),
		Events:   append([]string(nil), events...),
		DoctorID: doctorID,
		Send:     make(chan []byte, clientBuffer),
	}
	h.Register(client)
	return client
}

// Register adds a client to the hub and subscribes it to its initial events
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, name := range client.Events {
		h.add(name, client)
	}
}

// Unregister removes a client from every subscription and closes its Send channel
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, name := range client.Events {
		h.remove(name, client)
	}
	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds events to an already registered client
func (h *Hub) Subscribe(client *Client, events []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, name := range events {
		if h.has(name, client) {
			continue
		}
		h.add(name, client)
		client.Events = append(client.Events, name)
	}
}

// Unsubscribe removes events from an already registered client
func (h *Hub) Unsubscribe(client *Client, events []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	drop := make(map[string]struct{}, len(events))
	for _, name := range events {
		drop[name] = struct{}{}
		h.remove(name, client)
	}

	remaining := make([]string, 0, len(client.Events))
	for _, name := range client.Events {
		if _, ok := drop[name]; !ok {
			remaining = append(remaining, name)
		}
	}
	client.Events = remaining
}

// ProcessMessage applies a subscribe or unsubscribe request
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Events)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Events)
	}
}

// Broadcast encodes the event once and hands it to every matching client
// without blocking; a full client buffer loses the event.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Warnf("eventbus: failed to marshal %s event: %+v", event.Name, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[event.Name] {
		if client.DoctorID != nil && event.DoctorID != nil && *client.DoctorID != *event.DoctorID {
			continue
		}
		select {
		case client.Send <- data:
		default:
			h.log.Debugf("eventbus: client %s buffer full, dropping %s", client.ID, event.Name)
			if h.onDrop != nil {
				h.onDrop(event.Name)
			}
		}
	}
}

// Publish implements Publisher by broadcasting locally
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.Broadcast(event)
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// EventCount returns how many clients are subscribed to an event
func (h *Hub) EventCount(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[name])
}

func (h *Hub) add(name string, client *Client) {
	if h.clients[name] == nil {
		h.clients[name] = make(map[*Client]struct{})
	}
	h.clients[name][client] = struct{}{}
}

func (h *Hub) remove(name string, client *Client) {
	if subscribers, ok := h.clients[name]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.clients, name)
		}
	}
}

func (h *Hub) has(name string, client *Client) bool {
	_, ok := h.clients[name][client]
	return ok
}
