// Package events streams pipeline activity to WebSocket subscribers.
// Events carry counts and states only, never the detected values.
package events

import (
	"time"

	"github.com/gorilla/websocket"
)

// EventType identifies the kind of event being broadcast.
type EventType string

const (
	EventTypeTransition EventType = "pipeline_transition"
	EventTypeBatch      EventType = "batch_summary"
	EventTypeConnection EventType = "connection"
)

// Event is the wire format for one broadcast message.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// TransitionEvent reports one file moving between pipeline states.
type TransitionEvent struct {
	Source     string `json:"source"`
	State      string `json:"state"`
	TotalItems int    `json:"total_items"`
}

// BatchEvent summarizes a completed batch run.
type BatchEvent struct {
	Files     int           `json:"files"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration_ns"`
}

// ConnectionEvent reports a subscriber joining or leaving the feed.
type ConnectionEvent struct {
	ClientID          string `json:"client_id"`
	Action            string `json:"action"`
	ActiveSubscribers int    `json:"active_subscribers"`
}

// Client represents one connected WebSocket subscriber.
type Client struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan Event
	ConnectedAt time.Time
	IP          string
}

// ClientMessage is an inbound message from a subscriber.
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
