package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"hospital-frontdesk/internal/infrastructure/eventbus"
	"hospital-frontdesk/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventStreamHandler upgrades /ws requests and streams hub events to the
// client. A reconnecting client must re-read queues over REST; nothing is
// replayed.
type EventStreamHandler struct {
	hub *eventbus.Hub
	log *logrus.Logger
}

func NewEventStreamHandler(hub *eventbus.Hub, log *logrus.Logger) *EventStreamHandler {
	return &EventStreamHandler{hub: hub, log: log}
}

// Connect accepts ?events=a,b (default: every event) and an optional
// ?doctorId= filter
func (h *EventStreamHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var doctorID *uuid.UUID
	if raw := r.URL.Query().Get("doctorId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid doctor ID")
			return
		}
		doctorID = &id
	}

	events := eventbus.KnownEvents
	if raw := r.URL.Query().Get("events"); raw != "" {
		events = knownEvents(strings.Split(raw, ","))
		if len(events) == 0 {
			response.BadRequest(w, "No known events requested")
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("Failed to upgrade websocket: %+v", err)
		return
	}

	client := h.hub.Connect(events, doctorID)
	h.log.Debugf("Websocket client %s connected: events=%v", client.ID, client.Events)

	go h.writePump(client, conn)
	go h.readPump(client, conn)
}

// readPump applies subscription changes until the connection drops
func (h *EventStreamHandler) readPump(client *eventbus.Client, conn *websocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg eventbus.ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		msg.Events = knownEvents(msg.Events)
		h.hub.ProcessMessage(client, msg)
	}
}

// writePump forwards hub events and keeps the connection alive with pings
func (h *EventStreamHandler) writePump(client *eventbus.Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func knownEvents(names []string) []string {
	var out []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		for _, known := range eventbus.KnownEvents {
			if name == known {
				out = append(out, name)
				break
			}
		}
	}
	return out
}
